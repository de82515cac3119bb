package capture

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/agrihelper/agrichat/internal/domain"
)

// State is the controller's capture state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return "idle"
	}
}

// Controller drives one microphone device through the
// idle -> recording -> processing -> idle cycle. At most one recording
// session is active at a time; the device hold is released exactly once per
// session on every exit path. All methods are safe for concurrent use.
type Controller struct {
	device        Device
	chunkInterval time.Duration

	mu      sync.Mutex
	state   State
	stream  Stream
	format  Format
	chunks  [][]byte
	started time.Time
	done    chan struct{}
}

// NewController creates a controller over the given device. chunkInterval
// is the delivery cadence requested from the device.
func NewController(device Device, chunkInterval time.Duration) *Controller {
	if chunkInterval <= 0 {
		chunkInterval = 100 * time.Millisecond
	}
	return &Controller{device: device, chunkInterval: chunkInterval}
}

// State returns the current capture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start negotiates an encoding, acquires the device, and begins buffering
// delivered chunks. Fails with ErrCaptureActive when a session is already
// running, ErrUnsupportedFormat when negotiation fails, or the device's
// refusal reason (ErrPermissionDenied, ErrDeviceNotFound) otherwise.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrCaptureActive
	}

	format, err := negotiateFormat(c.device.Formats())
	if err != nil {
		c.mu.Unlock()
		return err
	}

	stream, err := c.device.Open(ctx, StreamParams{Format: format, ChunkInterval: c.chunkInterval})
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.state = StateRecording
	c.stream = stream
	c.format = format
	c.chunks = nil
	c.started = time.Now()
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	log.Debug().Str("format", format.MIMEType).Msg("capture started")

	go c.pump(stream, done)
	return nil
}

// pump drains the stream into the chunk buffer. A device error mid-capture
// (disconnect, hardware failure) releases the stream and returns the
// controller to idle; no retry is attempted.
func (c *Controller) pump(stream Stream, done chan struct{}) {
	defer close(done)

	for chunk := range stream.Chunks() {
		c.mu.Lock()
		// Chunks already delivered keep accumulating through the
		// processing window so a Stop finalize includes everything the
		// device handed over; only a cancel (state back to idle) drops
		// them.
		if c.stream == stream && c.state != StateIdle {
			c.chunks = append(c.chunks, chunk)
		}
		c.mu.Unlock()
	}

	if err := stream.Err(); err != nil {
		c.mu.Lock()
		if c.stream == stream && c.state == StateRecording {
			c.stream = nil
			c.chunks = nil
			c.state = StateIdle
			c.mu.Unlock()
			stream.Close()
			log.Error().Err(err).Msg("capture device failed mid-recording")
			return
		}
		c.mu.Unlock()
	}
}

// Stop finalizes the active recording: the device hold is released
// unconditionally, buffered chunks are assembled into one immutable
// recording tagged with the negotiated encoding. Returns ErrEmptyRecording
// when no audio was captured (retryable), and ErrCanceled when Cancel won a
// race against finalization.
func (c *Controller) Stop() (domain.Recording, error) {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return domain.Recording{}, ErrNotRecording
	}
	c.state = StateProcessing
	stream := c.stream
	done := c.done
	c.mu.Unlock()

	stream.Close()
	<-done

	c.mu.Lock()
	defer c.mu.Unlock()

	// Cancel takes precedence over finalize.
	if c.state != StateProcessing || c.stream != stream {
		return domain.Recording{}, ErrCanceled
	}

	chunks := c.chunks
	format := c.format
	started := c.started
	c.stream = nil
	c.chunks = nil
	c.state = StateIdle

	var total int
	for _, chunk := range chunks {
		total += len(chunk)
	}
	if total == 0 {
		return domain.Recording{}, ErrEmptyRecording
	}

	data := make([]byte, 0, total)
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}

	rec := domain.Recording{
		MIMEType: format.MIMEType,
		Chunks:   len(chunks),
		Duration: time.Since(started),
	}
	if format.RawPCM {
		rec.Data = EncodeWAV(data, format.SampleRate, format.Channels)
		rec.MIMEType = "audio/wav"
		rec.Duration = PCMDuration(total, format.SampleRate, format.Channels)
	} else {
		rec.Data = data
	}

	log.Debug().
		Int("bytes", rec.Size()).
		Dur("duration", rec.Duration).
		Str("format", rec.MIMEType).
		Msg("capture finalized")

	return rec, nil
}

// Cancel releases the device and discards all buffered audio immediately,
// regardless of state. It is idempotent and safe to call at any time,
// including while a Stop finalize is in flight.
func (c *Controller) Cancel() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.chunks = nil
	c.state = StateIdle
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
		log.Debug().Msg("capture canceled")
	}
}
