package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/agrihelper/agrichat/internal/backend"
	"github.com/agrihelper/agrichat/internal/domain"
)

// Processor is the slice of the backend client the submitter needs.
type Processor interface {
	ProcessVoice(ctx context.Context, audio []byte, mimeType string, opts backend.VoiceOptions) (*backend.VoiceResponse, error)
}

// Submitter validates and transmits one finalized recording to the voice
// processing endpoint and normalizes the response. It never retries; the
// caller decides whether to re-record.
type Submitter struct {
	processor Processor
}

func NewSubmitter(p Processor) *Submitter {
	return &Submitter{processor: p}
}

// SubmitOptions carries session and language metadata for one submission.
type SubmitOptions struct {
	SessionID string
	Language  string
}

// Result is the normalized outcome of a voice exchange: the transcription
// summary plus the full nested chat/weather/location payload forwarded
// unchanged from the backend.
type Result struct {
	Transcript     string
	Confidence     float64
	WordCount      int
	ProcessingTime float64
	Warnings       []string
	Response       *backend.VoiceResponse
}

// ValidationError is returned when a recording fails pre-submission
// validation; nothing was sent to the backend.
type ValidationError struct {
	Result domain.ValidationResult
}

func (e *ValidationError) Error() string {
	return "invalid audio: " + strings.Join(e.Result.Errors, "; ")
}

// Submit validates the recording and posts it to the backend. Validation
// warnings are logged and carried on the result, never blocking. A
// response without success=true is surfaced as an error rather than
// silently dropped.
func (s *Submitter) Submit(ctx context.Context, rec domain.Recording, opts SubmitOptions) (*Result, error) {
	validation := Validate(rec)
	if !validation.Valid {
		return nil, &ValidationError{Result: validation}
	}
	for _, w := range validation.Warnings {
		log.Warn().Str("mime_type", rec.MIMEType).Int("bytes", rec.Size()).Msg(w)
	}

	resp, err := s.processor.ProcessVoice(ctx, rec.Data, rec.MIMEType, backend.VoiceOptions{
		SessionID: opts.SessionID,
		Language:  opts.Language,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "backend reported failure without detail"
		}
		return nil, fmt.Errorf("voice processing failed: %s", msg)
	}

	warnings := append([]string{}, validation.Warnings...)
	warnings = append(warnings, resp.Warnings...)

	return &Result{
		Transcript:     resp.Transcription.Transcript,
		Confidence:     resp.Transcription.Confidence,
		WordCount:      resp.Transcription.WordCount,
		ProcessingTime: resp.Transcription.ProcessingTime,
		Warnings:       warnings,
		Response:       resp,
	}, nil
}
