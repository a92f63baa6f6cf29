package avgchat

import (
	"fmt"
	"strings"

	"github.com/avg-assist/avgchat/pkg/attach"
	"github.com/avg-assist/avgchat/pkg/remote"
)

// systemPreamble is prepended to every outbound message. It fixes the
// assistant's compliance persona independent of what the user typed.
const systemPreamble = `You are an expert AVG (GDPR) compliance assistant for Dutch organisations.
You help with the practical application of the General Data Protection Regulation.

Key characteristics of your answers:
- ALWAYS give practical, actionable advice
- Reference specific AVG articles where relevant
- Mention the Dutch supervisory authority (Autoriteit Persoonsgegevens) guidelines
- Use Dutch legal terminology
- Give concrete examples and templates where possible
- Warn about legal risks and fines
- Refer to legal counsel for complex questions

For documents: analyse them thoroughly for AVG compliance and give specific improvements.`

const attachmentHeader = "=== ATTACHED DOCUMENTS FOR AVG ANALYSIS ==="

// defaultInstruction replaces an empty draft when attachments are selected.
const defaultInstruction = "Analyze the following documents for AVG compliance:"

func kindLabel(k attach.Kind) string {
	switch k {
	case attach.KindImage:
		return "AVG Document (Image)"
	case attach.KindDocument:
		return "AVG Document"
	case attach.KindAudio:
		return "Audio Transcript"
	default:
		return "Data Analysis"
	}
}

// composeRequest builds the outbound chat payload from the draft, the
// selected attachments and the model configuration. Images travel twice:
// referenced by a placeholder label in the message and transmitted as raw
// payloads in Images. Non-image attachments are inlined in full.
func composeRequest(draft string, selected []attach.Attachment, model Model, grounding bool) remote.ChatRequest {
	req := remote.ChatRequest{
		AIModel:      string(model),
		UseGrounding: grounding,
	}

	draft = strings.TrimSpace(draft)
	if len(selected) == 0 {
		req.Message = systemPreamble + "\n\n" + draft
		return req
	}

	for _, a := range selected {
		if a.Kind == attach.KindImage {
			req.Images = append(req.Images, a.Content)
		}
	}

	blocks := make([]string, 0, len(selected))
	for i, a := range selected {
		label := kindLabel(a.Kind)
		if a.Kind == attach.KindImage {
			blocks = append(blocks, fmt.Sprintf("[%s %d: %s]\n[Document attached for AVG compliance analysis]", label, i+1, a.Name))
		} else {
			blocks = append(blocks, fmt.Sprintf("[%s: %s]\n%s", label, a.Name, a.Content))
		}
	}
	attachments := strings.Join(blocks, "\n\n---\n\n")

	if draft != "" {
		req.Message = fmt.Sprintf("%s\n\nQuestion: %s\n\n%s\n%s", systemPreamble, draft, attachmentHeader, attachments)
	} else {
		req.Message = fmt.Sprintf("%s\n\n%s\n\n%s", systemPreamble, defaultInstruction, attachments)
	}
	return req
}
