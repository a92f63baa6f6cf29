package attach

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// File is a raw file-like input prior to classification: a name, the
// declared content type (may be empty) and the full byte payload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Transcriber turns an audio payload into transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, name string, r *bytes.Reader) (string, error)
}

// Extractor turns a binary document payload (pdf, docx, csv) into text.
type Extractor interface {
	Extract(ctx context.Context, name string, r *bytes.Reader) (string, error)
}

// Ingestor normalizes classified inputs into complete attachments. Every
// strategy either adds a fully populated record to the store or reports a
// failure and adds nothing.
type Ingestor struct {
	store       *Store
	transcriber Transcriber
	extractor   Extractor
	logger      *slog.Logger

	audioInFlight atomic.Int64

	now func() time.Time
}

func NewIngestor(store *Store, t Transcriber, x Extractor, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		store:       store,
		transcriber: t,
		extractor:   x,
		logger:      logger,
		now:         time.Now,
	}
}

// AudioInFlight reports how many audio transcriptions are still running.
// Sends are rejected while this is non-zero.
func (ig *Ingestor) AudioInFlight() int {
	return int(ig.audioInFlight.Load())
}

func (ig *Ingestor) newAttachment(name string, kind Kind, content string, size int64) Attachment {
	preview := excerpt(content)
	if kind == KindImage {
		preview = content
	}
	return Attachment{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Preview:   preview,
		Content:   content,
		Size:      size,
		CreatedAt: ig.now(),
		Selected:  true,
	}
}

// Ingest classifies and normalizes one file, adding the resulting
// attachment to the store. On any failure nothing is added.
func (ig *Ingestor) Ingest(ctx context.Context, f File) (Attachment, error) {
	kind, err := Classify(f.Name, f.ContentType)
	if err != nil {
		return Attachment{}, err
	}

	var content string
	switch {
	case kind == KindImage:
		content = dataURL(f)
	case kind == KindAudio:
		ig.audioInFlight.Add(1)
		text, err := ig.transcriber.Transcribe(ctx, f.Name, bytes.NewReader(f.Data))
		ig.audioInFlight.Add(-1)
		if err != nil {
			return Attachment{}, fmt.Errorf("transcribe %s: %w", f.Name, err)
		}
		content = text
	case needsExtraction(f.Name, kind):
		text, err := ig.extractor.Extract(ctx, f.Name, bytes.NewReader(f.Data))
		if err != nil {
			return Attachment{}, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		content = text
	case kind == KindData: // local .json
		content, err = prettyJSON(f.Data)
		if err != nil {
			return Attachment{}, fmt.Errorf("%s: %w", f.Name, err)
		}
	default: // local .txt / .md
		content = strings.ReplaceAll(string(f.Data), "\r\n", "\n")
	}

	a := ig.newAttachment(f.Name, kind, content, int64(len(f.Data)))
	ig.store.Add(a)
	return a, nil
}

// Failure records one file that could not be ingested.
type Failure struct {
	Name string
	Err  error
}

// IngestAll runs each ingestion concurrently. Completions interleave in
// arrival order and each success is added to the store independently; a
// failure in one file never aborts the others.
func (ig *Ingestor) IngestAll(ctx context.Context, files []File) []Failure {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []Failure
	)
	for _, f := range files {
		wg.Add(1)
		go func(f File) {
			defer wg.Done()
			if _, err := ig.Ingest(ctx, f); err != nil {
				ig.logger.Warn("ingest failed", "file", f.Name, "error", err)
				mu.Lock()
				failures = append(failures, Failure{Name: f.Name, Err: err})
				mu.Unlock()
			}
		}(f)
	}
	wg.Wait()
	return failures
}

// IngestImageURL adds a URL-sourced image attachment. The URL itself is the
// content; the original byte size is unknown.
func (ig *Ingestor) IngestImageURL(url string) Attachment {
	a := ig.newAttachment("Image (URL)", KindImage, url, 0)
	ig.store.Add(a)
	return a
}

// IngestCapture adds a camera capture with a generated timestamped name.
func (ig *Ingestor) IngestCapture(data []byte, contentType string) Attachment {
	name := fmt.Sprintf("Capture_%s.jpg", ig.now().Format("15.04.05"))
	a := ig.newAttachment(name, KindImage, dataURL(File{Name: name, ContentType: contentType, Data: data}), int64(len(data)))
	ig.store.Add(a)
	return a
}

// IngestPastedImage adds an image pasted from the clipboard. Clipboard
// payloads usually have no name.
func (ig *Ingestor) IngestPastedImage(data []byte, contentType string) Attachment {
	name := "Pasted image"
	a := ig.newAttachment(name, KindImage, dataURL(File{Name: name, ContentType: contentType, Data: data}), int64(len(data)))
	ig.store.Add(a)
	return a
}

func prettyJSON(data []byte) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return string(out), nil
}

// dataURL encodes an image payload as a data URL, resolving the media type
// from the declared content type first and the extension second.
func dataURL(f File) string {
	mt := strings.ToLower(strings.TrimSpace(f.ContentType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if !strings.HasPrefix(mt, "image/") {
		mt = ""
		if e := ext(f.Name); e != "" {
			mt = mime.TypeByExtension("." + e)
		}
		if mt == "" {
			mt = "image/png"
		}
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
