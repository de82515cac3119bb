package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

// audioField is the multipart field name the backend expects the recording
// under.
const audioField = "audio"

// Chat sends a text message through POST /api/chat/.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.postJSON(ctx, "/api/chat/", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AnalyzeQuery classifies a message without generating a chat reply.
func (c *Client) AnalyzeQuery(ctx context.Context, message string) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	body := map[string]string{"message": message}
	if err := c.postJSON(ctx, "/api/chat/analyze", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VoiceStatus fetches the backend's voice capability descriptor.
func (c *Client) VoiceStatus(ctx context.Context) (*VoiceStatusResponse, error) {
	var resp VoiceStatusResponse
	if err := c.getJSON(ctx, "/api/chat/voice/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatCapabilities fetches the system capability descriptor with sample
// queries per query type.
func (c *Client) ChatCapabilities(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	if err := c.getJSON(ctx, "/api/chat/capabilities", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SessionContext fetches the backend-side context and history for a session.
func (c *Client) SessionContext(ctx context.Context, sessionID string) (map[string]any, error) {
	var resp map[string]any
	path := "/api/chat/session/" + url.PathEscape(sessionID) + "/context"
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// VoiceOptions carries the optional form fields of a voice submission.
type VoiceOptions struct {
	SessionID string
	Language  string
}

// ProcessVoice submits a finalized recording through
// POST /api/chat/voice/process as multipart form data. The longer voice
// timeout applies.
func (c *Client) ProcessVoice(ctx context.Context, audio []byte, mimeType string, opts VoiceOptions) (*VoiceResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, audioField, filenameForMIME(mimeType)))
	header.Set("Content-Type", mimeType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio part: %w", err)
	}

	if opts.SessionID != "" {
		if err := w.WriteField("session_id", opts.SessionID); err != nil {
			return nil, fmt.Errorf("failed to write session_id field: %w", err)
		}
	}
	if opts.Language != "" {
		if err := w.WriteField("language", opts.Language); err != nil {
			return nil, fmt.Errorf("failed to write language field: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/voice/process", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp VoiceResponse
	if err := c.do(c.voice, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// filenameForMIME infers an upload filename from the negotiated encoding.
func filenameForMIME(mimeType string) string {
	switch {
	case mimeType == "audio/wav":
		return "recording.wav"
	case mimeType == "audio/ogg":
		return "recording.ogg"
	case mimeType == "audio/mp3":
		return "recording.mp3"
	case mimeType == "audio/m4a":
		return "recording.m4a"
	case strings.HasPrefix(mimeType, "audio/webm"):
		return "recording.webm"
	default:
		return "recording.bin"
	}
}
