package capture

import (
	"context"
	"errors"
	"time"
)

// Capture errors. Device implementations wrap the refusal reason they can
// detect so callers can map each to a distinct user-facing message.
var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceNotFound    = errors.New("no audio input device found")
	ErrUnsupportedFormat = errors.New("no supported audio format available")
	ErrEmptyRecording    = errors.New("recording contains no audio")
	ErrCaptureActive     = errors.New("a capture is already active")
	ErrNotRecording      = errors.New("no capture in progress")
	ErrCanceled          = errors.New("capture canceled")
)

// Format describes one encoding a device can deliver.
type Format struct {
	// MIMEType as sent to the backend, e.g. "audio/webm;codecs=opus".
	MIMEType   string
	SampleRate int
	Channels   int
	// RawPCM marks chunks as uncompressed 16-bit little-endian samples
	// that need container assembly at finalize.
	RawPCM bool
}

// StreamParams fixes the capture parameters for one recording session.
type StreamParams struct {
	Format Format
	// ChunkInterval is the delivery cadence for buffered chunks.
	ChunkInterval time.Duration
}

// Stream is one open audio delivery from a device. Chunks closes when the
// stream ends, either by Close or by device failure; Err reports the
// failure afterwards. Close must be idempotent and must release the
// underlying device hold.
type Stream interface {
	Chunks() <-chan []byte
	Err() error
	Close() error
}

// Device abstracts an audio input source. The controller negotiates one of
// the advertised formats before opening a stream.
type Device interface {
	Formats() []Format
	Open(ctx context.Context, params StreamParams) (Stream, error)
}

// formatPriority is the negotiation order: compressed opus in a container
// first, uncompressed WAV next, generic webm as the default.
var formatPriority = []string{
	"audio/webm;codecs=opus",
	"audio/wav",
	"audio/webm",
}

// negotiateFormat picks the best-supported encoding from the priority list.
func negotiateFormat(available []Format) (Format, error) {
	for _, want := range formatPriority {
		for _, f := range available {
			if f.MIMEType == want {
				return f, nil
			}
		}
	}
	return Format{}, ErrUnsupportedFormat
}
