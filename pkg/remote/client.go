// Package remote implements the client side of the three service
// contracts: the streaming chat endpoint, audio transcription, and
// document extraction.
package remote

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	chatPath       = "/api/chat-stream"
	transcribePath = "/api/transcribe-audio"
	extractPath    = "/api/upload-docx"

	// eventPrefix marks a decodable frame line in the chat stream.
	eventPrefix = "data: "
)

// ErrStream wraps transport and HTTP-level failures during generation.
var ErrStream = errors.New("chat stream failed")

// FrameError is a server-signaled error carried inside the stream.
type FrameError struct {
	Message string
}

func (e *FrameError) Error() string {
	if e.Message == "" {
		return "streaming error"
	}
	return e.Message
}

// Client talks to the chat, transcription and extraction services. The
// ingestion calls use a bounded client; the chat stream has no deadline of
// its own and runs until the frames end or the caller cancels.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	logger       *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
		logger:       logger,
	}
}

// ChatRequest is the chat-stream request body.
type ChatRequest struct {
	Message      string   `json:"message"`
	UseGrounding bool     `json:"useGrounding"`
	AIModel      string   `json:"aiModel"`
	Images       []string `json:"images,omitempty"`
}

// Frame is one decoded unit of the streaming response: a token fragment, a
// completion marker, or an error. Err is a *FrameError when the server
// signaled the failure and an ErrStream-wrapped error for transport
// failures; either terminates the stream.
type Frame struct {
	Token string
	Done  bool
	Err   error
}

// wireFrame mirrors the JSON payload of one "data: " line.
type wireFrame struct {
	Token   string `json:"token"`
	Done    bool   `json:"done"`
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// StreamChat opens the streaming connection and decodes it incrementally.
// The returned channel yields token frames in arrival order and is closed
// after a terminal frame (done, server error, or transport error).
// Cancelling ctx unwinds the read; the final frame then carries the
// context error.
func (c *Client) StreamChat(ctx context.Context, reqBody ChatRequest) (<-chan Frame, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: HTTP %d", ErrStream, resp.StatusCode)
	}

	ch := make(chan Frame, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		c.decode(ctx, resp.Body, ch)
	}()
	return ch, nil
}

// decode reads the body incrementally, splitting on line boundaries. An
// incomplete trailing line is held over and prefixed to the next chunk, so
// a frame split across network reads is never dropped or duplicated.
// Lines that fail to parse are skipped without terminating the stream.
func (c *Client) decode(ctx context.Context, body io.Reader, ch chan<- Frame) {
	reader := bufio.NewReader(body)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if done := c.emitLine(line, ch); done {
				return
			}
		}
		if err != nil {
			if err == io.EOF {
				// Stream ended without an explicit done frame.
				ch <- Frame{Err: fmt.Errorf("%w: connection closed before completion", ErrStream)}
				return
			}
			if ctx.Err() != nil {
				ch <- Frame{Err: ctx.Err()}
				return
			}
			ch <- Frame{Err: fmt.Errorf("%w: %v", ErrStream, err)}
			return
		}
	}
}

// emitLine parses one complete line and reports whether it terminated the
// stream.
func (c *Client) emitLine(line string, ch chan<- Frame) bool {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, eventPrefix) {
		return false
	}
	var wf wireFrame
	if err := json.Unmarshal([]byte(line[len(eventPrefix):]), &wf); err != nil {
		c.logger.Warn("skipping malformed frame", "error", err)
		return false
	}
	switch {
	case wf.Error:
		ch <- Frame{Err: &FrameError{Message: wf.Message}}
		return true
	case wf.Done:
		ch <- Frame{Done: true}
		return true
	case wf.Token != "":
		ch <- Frame{Token: wf.Token}
	}
	return false
}
