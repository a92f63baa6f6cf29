package attach

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Extension lists are canonical; the declared content type is only a
// fallback signal for inputs with unrecognized names.
var (
	imageExts    = []string{"jpg", "jpeg", "png", "gif", "webp", "bmp"}
	documentExts = []string{"docx", "pdf", "txt", "md"}
	dataExts     = []string{"csv", "json"}
	audioExts    = []string{"mp3", "wav", "ogg", "m4a", "aac", "flac", "mp4", "mpeg", "mpga", "webm"}
)

func hasExt(name string, exts []string) bool {
	lower := strings.ToLower(name)
	for _, e := range exts {
		if strings.HasSuffix(lower, "."+e) {
			return true
		}
	}
	return false
}

// Classify maps a file name and declared content type to a content kind.
// Anything declared image/* or audio/* is accepted as that kind even when
// the extension is unknown. Unrecognized input yields an
// *UnsupportedFormatError listing all supported formats.
func Classify(name, contentType string) (Kind, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case hasExt(name, imageExts) || strings.HasPrefix(ct, "image/"):
		return KindImage, nil
	case hasExt(name, documentExts):
		return KindDocument, nil
	case hasExt(name, dataExts):
		return KindData, nil
	case hasExt(name, audioExts) || strings.HasPrefix(ct, "audio/"):
		return KindAudio, nil
	default:
		return 0, &UnsupportedFormatError{Name: name}
	}
}

// ext returns the lowercased extension without the leading dot.
func ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// needsExtraction reports whether a classified input requires the remote
// extraction service: pdf, docx and csv do; images, txt, md and json are
// normalized locally, and audio goes through transcription instead.
func needsExtraction(name string, kind Kind) bool {
	switch kind {
	case KindDocument:
		switch ext(name) {
		case "txt", "md":
			return false
		}
		return true
	case KindData:
		return ext(name) == "csv"
	default:
		return false
	}
}

// TextClass is the routing decision for a pasted or dropped string.
type TextClass int

const (
	// TextPlain appends to the draft verbatim.
	TextPlain TextClass = iota
	// TextImageURL becomes one image attachment with the URL as content.
	TextImageURL
	// TextURL is referenced from the draft with an explanatory line.
	TextURL
)

var urlPattern = regexp.MustCompile(`(https?://[^\s]+)`)

// ClassifyText decides how a pasted or dropped string is routed. Precedence:
// a payload that is exactly one URL and nothing else is a URL candidate; a
// URL candidate containing a recognized image extension is an image URL;
// any other payload, including one carrying several URLs, is plain text.
func ClassifyText(s string) TextClass {
	trimmed := strings.TrimSpace(s)
	urls := urlPattern.FindAllString(trimmed, -1)
	if len(urls) != 1 || trimmed != urls[0] {
		return TextPlain
	}
	lower := strings.ToLower(trimmed)
	for _, e := range imageExts {
		if strings.Contains(lower, "."+e) {
			return TextImageURL
		}
	}
	return TextURL
}
