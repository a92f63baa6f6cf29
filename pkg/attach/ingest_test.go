package attach

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

type fakeTranscriber struct {
	mu    sync.Mutex
	calls []string
	text  string
	err   error
	block chan struct{} // when set, Transcribe waits until closed
}

func (f *fakeTranscriber) Transcribe(_ context.Context, name string, _ *bytes.Reader) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.text, f.err
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, name string, _ *bytes.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIngestor(t *fakeTranscriber, x *fakeExtractor) (*Ingestor, *Store) {
	store := NewStore()
	if t == nil {
		t = &fakeTranscriber{text: "transcript"}
	}
	if x == nil {
		x = &fakeExtractor{text: "extracted"}
	}
	return NewIngestor(store, t, x, quietLogger()), store
}

func TestIngestAudioUsesTranscriber(t *testing.T) {
	tr := &fakeTranscriber{text: "notulen van de vergadering"}
	ig, store := newTestIngestor(tr, nil)

	a, err := ig.Ingest(context.Background(), File{Name: "meeting.mp3", Data: []byte("xxx")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if a.Kind != KindAudio {
		t.Errorf("Kind = %v, want audio", a.Kind)
	}
	if a.Content != tr.text {
		t.Errorf("Content = %q, want transcript %q", a.Content, tr.text)
	}
	if len(tr.calls) != 1 || tr.calls[0] != "meeting.mp3" {
		t.Errorf("transcriber calls = %v", tr.calls)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d attachments, want 1", store.Len())
	}
	if a.Selected != true {
		t.Error("new attachments start selected")
	}
}

func TestIngestAudioFailureAddsNothing(t *testing.T) {
	tr := &fakeTranscriber{err: errors.New("whisper down")}
	ig, store := newTestIngestor(tr, nil)

	_, err := ig.Ingest(context.Background(), File{Name: "memo.wav", Data: []byte("xxx")})
	if err == nil {
		t.Fatal("want error from failed transcription")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d attachments after failure, want 0", store.Len())
	}
	if ig.AudioInFlight() != 0 {
		t.Errorf("AudioInFlight = %d after completion, want 0", ig.AudioInFlight())
	}
}

func TestIngestUnsupportedAddsNothing(t *testing.T) {
	ig, store := newTestIngestor(nil, nil)
	_, err := ig.Ingest(context.Background(), File{Name: "tool.exe", Data: []byte{0x4d}})
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("want UnsupportedFormatError, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d attachments, want 0", store.Len())
	}
}

func TestIngestJSONRoundTrip(t *testing.T) {
	ig, _ := newTestIngestor(nil, nil)
	original := map[string]any{
		"controller": "Example BV",
		"purposes":   []any{"billing", "support"},
		"retention":  map[string]any{"invoices": float64(7)},
	}
	raw, _ := json.Marshal(original)

	a, err := ig.Ingest(context.Background(), File{Name: "register.json", Data: raw})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal([]byte(a.Content), &back); err != nil {
		t.Fatalf("content is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(original, back) {
		t.Errorf("round-trip mismatch:\n got %#v\nwant %#v", back, original)
	}
	if !strings.Contains(a.Content, "\n") {
		t.Error("content should be pretty-printed")
	}
}

func TestIngestInvalidJSON(t *testing.T) {
	ig, store := newTestIngestor(nil, nil)
	_, err := ig.Ingest(context.Background(), File{Name: "broken.json", Data: []byte("{not json")})
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("want ErrInvalidJSON, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d attachments, want 0", store.Len())
	}
}

func TestIngestTextPreviewTruncation(t *testing.T) {
	ig, _ := newTestIngestor(nil, nil)
	long := strings.Repeat("a", 150)
	a, err := ig.Ingest(context.Background(), File{Name: "long.txt", Data: []byte(long)})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if a.Content != long {
		t.Error("content must be the full text")
	}
	if want := strings.Repeat("a", 100) + "..."; a.Preview != want {
		t.Errorf("Preview = %q, want %d chars plus ellipsis", a.Preview, 100)
	}
}

func TestIngestPreviewTruncatesOnRunes(t *testing.T) {
	ig, _ := newTestIngestor(nil, nil)
	long := strings.Repeat("privé", 30) // 150 characters, é is two bytes
	a, err := ig.Ingest(context.Background(), File{Name: "beleid.txt", Data: []byte(long)})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !utf8.ValidString(a.Preview) {
		t.Errorf("Preview is not valid UTF-8: %q", a.Preview)
	}
	want := string([]rune(long)[:100]) + "..."
	if a.Preview != want {
		t.Errorf("Preview = %q, want %d runes plus ellipsis", a.Preview, 100)
	}
}

func TestIngestTextNormalizesLineEndings(t *testing.T) {
	ig, _ := newTestIngestor(nil, nil)
	a, err := ig.Ingest(context.Background(), File{Name: "dos.md", Data: []byte("a\r\nb\r\n")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if a.Content != "a\nb\n" {
		t.Errorf("Content = %q, want CRLF normalized", a.Content)
	}
}

func TestIngestImageDataURL(t *testing.T) {
	ig, _ := newTestIngestor(nil, nil)
	a, err := ig.Ingest(context.Background(), File{Name: "scan.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.HasPrefix(a.Content, "data:image/jpeg;base64,") {
		t.Errorf("Content = %q, want a jpeg data URL", a.Content)
	}
	if a.Preview != a.Content {
		t.Error("image preview is the image itself")
	}
	if a.Size != 2 {
		t.Errorf("Size = %d, want 2", a.Size)
	}
}

func TestIngestExtractionDelegation(t *testing.T) {
	x := &fakeExtractor{text: "contract body"}
	ig, _ := newTestIngestor(nil, x)

	for _, name := range []string{"c.pdf", "c.docx", "c.csv"} {
		a, err := ig.Ingest(context.Background(), File{Name: name, Data: []byte("bin")})
		if err != nil {
			t.Fatalf("Ingest(%s): %v", name, err)
		}
		if a.Content != "contract body" {
			t.Errorf("Ingest(%s) content = %q, want extracted text", name, a.Content)
		}
	}
}

func TestIngestCSVKeepsDataKind(t *testing.T) {
	ig, _ := newTestIngestor(nil, &fakeExtractor{text: "r1,r2"})
	a, err := ig.Ingest(context.Background(), File{Name: "rows.csv", Data: []byte("bin")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if a.Kind != KindData {
		t.Errorf("Kind = %v, want data", a.Kind)
	}
}

func TestIngestAllIndependentFailures(t *testing.T) {
	ig, store := newTestIngestor(nil, nil)
	files := []File{
		{Name: "ok.txt", Data: []byte("fine")},
		{Name: "broken.json", Data: []byte("{")},
		{Name: "also-ok.md", Data: []byte("fine too")},
	}
	failures := ig.IngestAll(context.Background(), files)
	if len(failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(failures))
	}
	if failures[0].Name != "broken.json" {
		t.Errorf("failed file = %q, want broken.json", failures[0].Name)
	}
	if store.Len() != 2 {
		t.Errorf("store has %d attachments, want 2", store.Len())
	}
}

func TestIngestImageURL(t *testing.T) {
	ig, store := newTestIngestor(nil, nil)
	a := ig.IngestImageURL("https://example.com/photo.jpg")
	if a.Content != "https://example.com/photo.jpg" {
		t.Errorf("Content = %q, want the URL itself", a.Content)
	}
	if a.Size != 0 {
		t.Errorf("Size = %d, want 0 for URL-sourced images", a.Size)
	}
	if a.Kind != KindImage {
		t.Errorf("Kind = %v, want image", a.Kind)
	}
	if store.Len() != 1 {
		t.Errorf("store has %d attachments, want 1", store.Len())
	}
}

func TestIngestCaptureGeneratedName(t *testing.T) {
	ig, _ := newTestIngestor(nil, nil)
	ig.now = func() time.Time { return time.Date(2025, 3, 1, 14, 30, 5, 0, time.UTC) }
	a := ig.IngestCapture([]byte{0xff, 0xd8}, "image/jpeg")
	if a.Name != "Capture_14.30.05.jpg" {
		t.Errorf("Name = %q", a.Name)
	}
	if !strings.HasPrefix(a.Content, "data:image/jpeg;base64,") {
		t.Errorf("Content = %q, want data URL", a.Content)
	}
}

func TestAudioInFlightTracking(t *testing.T) {
	tr := &fakeTranscriber{text: "t", block: make(chan struct{})}
	ig, _ := newTestIngestor(tr, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ig.Ingest(context.Background(), File{Name: "memo.mp3", Data: []byte("x")})
	}()

	waitFor(t, func() bool { return ig.AudioInFlight() == 1 })
	close(tr.block)
	<-done
	if got := ig.AudioInFlight(); got != 0 {
		t.Errorf("AudioInFlight = %d after completion, want 0", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestAttachmentIDsUnique(t *testing.T) {
	ig, store := newTestIngestor(nil, nil)
	for i := 0; i < 5; i++ {
		if _, err := ig.Ingest(context.Background(), File{Name: fmt.Sprintf("f%d.txt", i), Data: []byte("x")}); err != nil {
			t.Fatalf("Ingest: %v", err)
		}
	}
	seen := map[string]bool{}
	for _, a := range store.All() {
		if a.ID == "" || seen[a.ID] {
			t.Fatalf("duplicate or empty ID %q", a.ID)
		}
		seen[a.ID] = true
	}
}
