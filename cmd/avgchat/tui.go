package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avg-assist/avgchat"
	"github.com/avg-assist/avgchat/pkg/attach"
)

var (
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	assistantStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	attachmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135"))
)

type chatKeyMap struct {
	Send            key.Binding
	Newline         key.Binding
	Abort           key.Binding
	Quit            key.Binding
	CycleModel      key.Binding
	ToggleGrounding key.Binding
	ToggleSelection key.Binding
	ClearChat       key.Binding
	QuickPrompt     key.Binding
	Voice           key.Binding
	Capture         key.Binding
}

var chatKeys = chatKeyMap{
	Send: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "send"),
	),
	Newline: key.NewBinding(
		key.WithKeys("alt+enter"),
		key.WithHelp("alt+enter", "newline"),
	),
	Abort: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "stop generation"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CycleModel: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "switch model"),
	),
	ToggleGrounding: key.NewBinding(
		key.WithKeys("ctrl+g"),
		key.WithHelp("ctrl+g", "toggle grounding"),
	),
	ToggleSelection: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "toggle attachments"),
	),
	ClearChat: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear chat"),
	),
	QuickPrompt: key.NewBinding(
		key.WithKeys("ctrl+p"),
		key.WithHelp("ctrl+p", "quick prompt"),
	),
	Voice: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "voice input"),
	),
	Capture: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "capture photo"),
	),
}

// entry is one finished transcript turn.
type entry struct {
	role string
	text string
}

type chatModel struct {
	session *avgchat.Session
	router  *attach.Router
	speech  avgchat.Speech
	camera  avgchat.Camera

	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool

	transcript []entry
	partial    string
	updates    <-chan avgchat.Update
	notice     string
	promptIdx  int
}

// streamMsg carries one session update into the event loop.
type streamMsg avgchat.Update

// streamClosedMsg fires when the update channel drains after the terminal
// update.
type streamClosedMsg struct{}

// textareaDraft adapts the composer to the paste router.
type textareaDraft struct {
	ta *textarea.Model
}

func (d textareaDraft) Append(s string) { d.ta.InsertString(s) }

func (d textareaDraft) AppendBlock(s string) {
	if d.ta.Value() != "" {
		d.ta.InsertString("\n\n")
	}
	d.ta.InsertString(s)
}

func newChatModel(session *avgchat.Session) *chatModel {
	ta := textarea.New()
	ta.Placeholder = "Ask an AVG compliance question, or paste a document URL..."
	ta.Prompt = "┃ "
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = mutedStyle

	m := &chatModel{
		session: session,
		input:   ta,
		spinner: sp,
		speech:  avgchat.NoSpeech{},
		camera:  avgchat.NoCamera{},
	}
	m.router = attach.NewRouter(session.Ingestor(), textareaDraft{ta: &m.input})
	return m
}

func (m *chatModel) Init() tea.Cmd {
	return textarea.Blink
}

// waitForUpdate pumps the next session update into the event loop.
func waitForUpdate(ch <-chan avgchat.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return streamClosedMsg{}
		}
		return streamMsg(u)
	}
}

func (m *chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := m.input.Height() + 1
		chromeHeight := 4 // header, attachment bar, status bar, spacing
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight-chromeHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight - chromeHeight
		}
		m.input.SetWidth(msg.Width - 2)
		m.refreshViewport()

	case tea.KeyMsg:
		// Bracketed paste goes through the router first; only plain text
		// reaches the composer.
		if msg.Paste {
			pasted := string(msg.Runes)
			if attach.ClassifyText(pasted) != attach.TextPlain {
				m.notice = string(m.router.PasteText(pasted))
				m.refreshViewport()
				return m, nil
			}
			m.notice = ""
			// Fall through: the textarea inserts the runes itself.
			break
		}

		switch {
		case key.Matches(msg, chatKeys.Quit):
			m.session.Abort()
			return m, tea.Quit

		case key.Matches(msg, chatKeys.Abort):
			if m.streaming() {
				m.session.Abort()
				return m, nil
			}

		case key.Matches(msg, chatKeys.Newline):
			m.input.InsertString("\n")
			return m, nil

		case key.Matches(msg, chatKeys.Send):
			return m, m.send()

		case key.Matches(msg, chatKeys.CycleModel):
			m.cycleModel()
			return m, nil

		case key.Matches(msg, chatKeys.ToggleGrounding):
			mc := m.session.ModelConfig()
			if mc.Model() == avgchat.ModelInternet {
				m.notice = "Grounding is always on for the internet model"
				return m, nil
			}
			mc.SetGrounding(!mc.Grounding())
			return m, nil

		case key.Matches(msg, chatKeys.ToggleSelection):
			m.toggleSelection()
			return m, nil

		case key.Matches(msg, chatKeys.ClearChat):
			m.transcript = nil
			m.partial = ""
			m.refreshViewport()
			return m, nil

		case key.Matches(msg, chatKeys.QuickPrompt):
			m.insertQuickPrompt()
			return m, nil

		case key.Matches(msg, chatKeys.Voice):
			if !m.speech.Available() {
				m.notice = "Voice input is not available on this terminal"
				return m, nil
			}
			return m, m.startVoice()

		case key.Matches(msg, chatKeys.Capture):
			if !m.camera.Available() {
				m.notice = "No camera available on this terminal"
				return m, nil
			}
			return m, m.capturePhoto()
		}

	case streamMsg:
		u := avgchat.Update(msg)
		switch u.State {
		case avgchat.StateStreaming:
			m.partial += u.Delta
			m.refreshViewport()
			return m, waitForUpdate(m.updates)
		case avgchat.StateCompleted:
			m.finishTurn(u.Final, "")
			return m, waitForUpdate(m.updates)
		case avgchat.StateAborted:
			m.finishTurn(u.Final, "Generation stopped")
			return m, waitForUpdate(m.updates)
		case avgchat.StateFailed:
			m.finishTurn(u.Final, "")
			return m, waitForUpdate(m.updates)
		}
		return m, waitForUpdate(m.updates)

	case streamClosedMsg:
		m.updates = nil
		return m, nil

	case voiceMsg:
		if msg != "" {
			m.input.InsertString(string(msg))
		}
		return m, nil

	case captureMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
			return m, nil
		}
		m.session.Ingestor().IngestCapture(msg.data, msg.contentType)
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.streaming() {
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *chatModel) streaming() bool {
	s := m.session.State()
	return s == avgchat.StateAwaitingFirstToken || s == avgchat.StateStreaming
}

func (m *chatModel) send() tea.Cmd {
	if m.streaming() {
		m.notice = "Still generating; press esc to stop"
		return nil
	}
	m.session.SetDraft(m.input.Value())
	updates, err := m.session.Send(context.Background())
	if err != nil {
		m.notice = err.Error()
		return nil
	}

	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		question = "(attached documents)"
	}
	m.transcript = append(m.transcript, entry{role: "user", text: question})
	m.partial = ""
	m.notice = ""
	m.updates = updates
	m.input.Reset()
	m.refreshViewport()
	return tea.Batch(waitForUpdate(updates), m.spinner.Tick)
}

// finishTurn records the final text and resets the composer for the next
// question. Attachments stay in the store until the user removes them, so
// a failed or aborted generation can be retried without re-ingesting.
func (m *chatModel) finishTurn(final, notice string) {
	m.transcript = append(m.transcript, entry{role: "assistant", text: final})
	m.partial = ""
	m.notice = notice
	m.refreshViewport()
}

func (m *chatModel) cycleModel() {
	mc := m.session.ModelConfig()
	switch mc.Model() {
	case avgchat.ModelSmart:
		mc.SetModel(avgchat.ModelPro)
	case avgchat.ModelPro:
		mc.SetModel(avgchat.ModelInternet)
	default:
		mc.SetModel(avgchat.ModelSmart)
	}
}

func (m *chatModel) toggleSelection() {
	store := m.session.Store()
	all := store.All()
	if len(all) == 0 {
		return
	}
	anySelected := false
	for _, a := range all {
		if a.Selected {
			anySelected = true
			break
		}
	}
	if anySelected {
		store.DeselectAll()
	} else {
		store.SelectAll()
	}
}

func (m *chatModel) insertQuickPrompt() {
	var prompts []string
	for _, cat := range avgchat.QuickPrompts {
		prompts = append(prompts, cat.Prompts...)
	}
	if len(prompts) == 0 {
		return
	}
	m.input.Reset()
	m.input.InsertString(prompts[m.promptIdx%len(prompts)])
	m.promptIdx++
}

// voiceMsg delivers a recognised utterance.
type voiceMsg string

// captureMsg delivers a camera still.
type captureMsg struct {
	data        []byte
	contentType string
	err         error
}

func (m *chatModel) startVoice() tea.Cmd {
	return func() tea.Msg {
		out := make(chan string, 1)
		if err := m.speech.Start(context.Background(), func(text string) { out <- text }); err != nil {
			return voiceMsg("")
		}
		return voiceMsg(<-out)
	}
}

func (m *chatModel) capturePhoto() tea.Cmd {
	return func() tea.Msg {
		data, contentType, err := m.camera.Capture(context.Background())
		return captureMsg{data: data, contentType: contentType, err: err}
	}
}

func (m *chatModel) refreshViewport() {
	if !m.ready {
		return
	}
	var b strings.Builder
	for _, e := range m.transcript {
		if e.role == "user" {
			b.WriteString(userStyle.Render("You"))
		} else {
			b.WriteString(assistantStyle.Render("Assistant"))
		}
		b.WriteString("\n")
		if strings.HasPrefix(e.text, "Error: ") {
			b.WriteString(errorStyle.Render(e.text))
		} else {
			b.WriteString(e.text)
		}
		b.WriteString("\n\n")
	}
	if m.streaming() {
		b.WriteString(assistantStyle.Render("Assistant"))
		b.WriteString("\n")
		if m.partial == "" {
			b.WriteString(m.spinner.View())
			b.WriteString(mutedStyle.Render(" analysing..."))
		} else {
			b.WriteString(m.partial)
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(lipgloss.NewStyle().Width(m.viewport.Width).Render(b.String()))
	m.viewport.GotoBottom()
}

func (m *chatModel) View() string {
	if !m.ready {
		return "loading..."
	}
	sections := []string{
		m.renderHeader(),
		m.viewport.View(),
		m.renderAttachments(),
		m.input.View(),
		m.renderStatusBar(),
	}
	return strings.Join(sections, "\n")
}

func (m *chatModel) renderHeader() string {
	mc := m.session.ModelConfig()
	title := headerStyle.Render("AVG Assistant")
	model := mutedStyle.Render(fmt.Sprintf("model: %s", mc.Model()))
	grounding := mutedStyle.Render("grounding: off")
	if mc.EffectiveGrounding() {
		grounding = noticeStyle.Render("grounding: on")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", model, "  ", grounding)
}

func (m *chatModel) renderAttachments() string {
	all := m.session.Store().All()
	if len(all) == 0 {
		return mutedStyle.Render("no attachments")
	}
	parts := make([]string, 0, len(all))
	for _, a := range all {
		mark := "○"
		if a.Selected {
			mark = "●"
		}
		parts = append(parts, fmt.Sprintf("%s %s (%s)", mark, a.Name, formatSize(a.Size)))
	}
	return attachmentStyle.Render(strings.Join(parts, "  "))
}

func (m *chatModel) renderStatusBar() string {
	if m.notice != "" {
		return noticeStyle.Render(m.notice)
	}
	if m.streaming() {
		return mutedStyle.Render("esc: stop • ctrl+c: quit")
	}
	return mutedStyle.Render("enter: send • tab: model • ctrl+g: grounding • ctrl+t: attachments • ctrl+p: quick prompt • ctrl+c: quit")
}
