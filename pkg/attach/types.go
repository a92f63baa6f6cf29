package attach

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind is the closed set of content kinds an attachment can carry.
type Kind int

const (
	KindImage Kind = iota
	KindDocument
	KindData
	KindAudio
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindDocument:
		return "document"
	case KindData:
		return "data"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Attachment is one piece of normalized user-supplied evidence. Content is
// only ever populated by a completed ingestion: a data URL or remote URL for
// images, decoded text for documents, pretty-printed JSON for data, and a
// transcript for audio.
type Attachment struct {
	ID        string
	Name      string
	Kind      Kind
	Preview   string
	Content   string
	Size      int64
	CreatedAt time.Time
	Selected  bool
}

// previewLimit caps the text excerpt shown in list UIs, in characters.
const previewLimit = 100

// excerpt truncates s for list display, on rune boundaries so multi-byte
// text is never cut mid-sequence. Images keep their full content as the
// preview, so this only applies to text payloads.
func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	r := []rune(s)
	return string(r[:previewLimit]) + "..."
}

// ErrInvalidJSON reports a .json file whose contents did not parse.
var ErrInvalidJSON = errors.New("invalid JSON file")

// UnsupportedFormatError is returned when neither the extension nor the
// declared content type matches a supported kind. Its message enumerates
// every supported extension grouped by kind, and is shown verbatim.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf(
		"unsupported file type %q\n\nSupported formats:\nimages: %s\ndocuments: %s\ndata: %s\naudio: %s",
		e.Name,
		strings.Join(imageExts, ", "),
		strings.Join(documentExts, ", "),
		strings.Join(dataExts, ", "),
		strings.Join(audioExts, ", "),
	)
}
