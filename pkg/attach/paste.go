package attach

import (
	"context"
	"strings"
)

// urlDraftPrefix is prepended when a non-image URL is routed into the draft.
const urlDraftPrefix = "Analyze this URL for AVG compliance: "

// Draft is the message draft the router appends routed text to.
type Draft interface {
	// Append adds text verbatim.
	Append(s string)
	// AppendBlock adds text preceded by a blank line when the draft
	// already has content.
	AppendBlock(s string)
}

// Router disambiguates paste and drop payloads at the input surface and
// routes each to the ingestor or to the message draft. The draft is
// injected so the router never owns UI state.
type Router struct {
	ingestor *Ingestor
	draft    Draft
}

func NewRouter(ingestor *Ingestor, draft Draft) *Router {
	return &Router{ingestor: ingestor, draft: draft}
}

// Notice is a short transient hint describing what a paste or drop became.
type Notice string

const (
	NoticeImagePasted Notice = "Image pasted for AVG analysis"
	NoticeImageURL    Notice = "Image URL attached"
	NoticeURLAdded    Notice = "URL added for AVG analysis"
	NoticeTextPasted  Notice = "Text pasted"
	NoticeTextDropped Notice = "Text dropped"
)

// PasteImage routes a raw image payload from the clipboard.
func (r *Router) PasteImage(data []byte, contentType string) Notice {
	r.ingestor.IngestPastedImage(data, contentType)
	return NoticeImagePasted
}

// PasteText routes a pasted string. Exactly one URL filling the whole
// payload is the special case; everything else appends to the draft as-is.
func (r *Router) PasteText(s string) Notice {
	switch ClassifyText(s) {
	case TextImageURL:
		r.ingestor.IngestImageURL(strings.TrimSpace(s))
		return NoticeImageURL
	case TextURL:
		r.draft.AppendBlock(urlDraftPrefix + strings.TrimSpace(s))
		return NoticeURLAdded
	default:
		r.draft.Append(s)
		return NoticeTextPasted
	}
}

// DropText routes a dropped string with the same precedence as PasteText,
// but plain text is kept apart from existing draft content.
func (r *Router) DropText(s string) Notice {
	switch ClassifyText(s) {
	case TextImageURL:
		r.ingestor.IngestImageURL(strings.TrimSpace(s))
		return NoticeImageURL
	case TextURL:
		r.draft.AppendBlock(urlDraftPrefix + strings.TrimSpace(s))
		return NoticeURLAdded
	default:
		r.draft.AppendBlock(s)
		return NoticeTextDropped
	}
}

// DropFiles routes dropped files to concurrent ingestion.
func (r *Router) DropFiles(ctx context.Context, files []File) []Failure {
	return r.ingestor.IngestAll(ctx, files)
}
