package avgchat

import "context"

// Host capabilities the chat surface may or may not have. An absent
// capability degrades the affected control to disabled instead of failing.

// Speech is a voice-input capability. Start listens for one utterance and
// delivers the transcript to the callback; Stop cancels an active listen.
type Speech interface {
	Available() bool
	Start(ctx context.Context, onTranscript func(text string)) error
	Stop()
}

// Camera is a still-capture capability producing encoded image bytes.
type Camera interface {
	Available() bool
	Capture(ctx context.Context) (data []byte, contentType string, err error)
}

// NoSpeech is the default when the host has no voice input.
type NoSpeech struct{}

func (NoSpeech) Available() bool { return false }

func (NoSpeech) Start(context.Context, func(string)) error { return nil }

func (NoSpeech) Stop() {}

// NoCamera is the default when the host has no camera.
type NoCamera struct{}

func (NoCamera) Available() bool { return false }

func (NoCamera) Capture(context.Context) ([]byte, string, error) { return nil, "", nil }
