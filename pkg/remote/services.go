package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Transcribe sends one audio file to the transcription service and returns
// the transcript text.
func (c *Client) Transcribe(ctx context.Context, name string, r *bytes.Reader) (string, error) {
	body, err := c.postMultipart(ctx, transcribePath, name, r)
	if err != nil {
		return "", fmt.Errorf("transcription service: %w", err)
	}
	var out struct {
		Transcription string `json:"transcription"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("transcription service: parse response: %w", err)
	}
	return out.Transcription, nil
}

// Extract sends one document file (pdf, docx, csv) to the extraction
// service and returns the extracted text.
func (c *Client) Extract(ctx context.Context, name string, r *bytes.Reader) (string, error) {
	body, err := c.postMultipart(ctx, extractPath, name, r)
	if err != nil {
		return "", fmt.Errorf("extraction service: %w", err)
	}
	var out struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("extraction service: parse response: %w", err)
	}
	return out.Content, nil
}

// postMultipart uploads one file under the "file" field and returns the
// response body. A non-2xx status surfaces the service's error message.
func (c *Client) postMultipart(ctx context.Context, path, name string, r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var svcErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &svcErr) == nil && svcErr.Error != "" {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, svcErr.Error)
		}
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return body, nil
}
