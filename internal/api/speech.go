package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	apperrors "ai-companion-chat/client/pkg/errors"
)

// StreamSpeech fetches the voice audio payload for a finished message
func (c *Client) StreamSpeech(ctx context.Context, messageID string) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, "/stream-speech/"+messageID, nil)
}

// TranscribeRequest describes a voice recording to transcribe
type TranscribeRequest struct {
	Voice     io.Reader
	DataType  string
	ModelName string
	FileName  string
}

// Transcribe uploads a recording as multipart form data and returns the
// recognized text.
func (c *Client) Transcribe(ctx context.Context, req TranscribeRequest) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("voice", req.FileName)
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, req.Voice); err != nil {
		return "", fmt.Errorf("failed to read voice data: %w", err)
	}
	if err := w.WriteField("data_type", req.DataType); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.WriteField("model_name", req.ModelName); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.WriteField("file_name", req.FileName); err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	var resp struct {
		Text string `json:"text"`
	}
	err = c.doJSON(ctx, http.MethodPost, "/transcription", nil, &resp,
		withRawBody(w.FormDataContentType(), &buf))
	if err != nil {
		return "", err
	}
	if resp.Text == "" {
		return "", apperrors.NewInvalidPayloadError("transcription returned no text")
	}
	return resp.Text, nil
}
