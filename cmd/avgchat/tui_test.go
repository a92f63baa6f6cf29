package main

import (
	"io"
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avg-assist/avgchat"
	"github.com/avg-assist/avgchat/pkg/attach"
)

func testSession() *avgchat.Session {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := attach.NewStore()
	ingestor := attach.NewIngestor(store, nil, nil, logger)
	return avgchat.NewSession(store, ingestor, avgchat.NewModelConfig(avgchat.ModelSmart), nil, logger)
}

func TestFinishTurnKeepsAttachments(t *testing.T) {
	session := testSession()
	session.Store().Add(attach.Attachment{ID: "1", Name: "policy.pdf", Kind: attach.KindDocument, Content: "extracted", Selected: true})
	m := newChatModel(session)

	m.finishTurn("Error: connection reset", "")
	m.finishTurn("Analysis stopped by user.", "Generation stopped")
	m.finishTurn("full answer", "")

	all := session.Store().All()
	if len(all) != 1 {
		t.Fatalf("store has %d attachments after turns, want 1", len(all))
	}
	if !all[0].Selected {
		t.Error("attachment deselected without user action")
	}
}

func TestGroundingToggleClampedForInternet(t *testing.T) {
	session := testSession()
	session.ModelConfig().SetModel(avgchat.ModelInternet)
	m := newChatModel(session)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	cm := updated.(*chatModel)
	if !session.ModelConfig().EffectiveGrounding() {
		t.Error("grounding off after toggle while internet variant selected")
	}
	if cm.notice == "" {
		t.Error("no notice shown for the clamped toggle")
	}
}
