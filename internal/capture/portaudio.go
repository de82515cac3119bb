package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// Microphone is the PortAudio-backed input device. It delivers raw 16-bit
// mono PCM that the controller wraps into a WAV container at finalize.
type Microphone struct {
	sampleRate int
}

// NewMicrophone creates a microphone device with the target sample rate.
func NewMicrophone(sampleRate int) *Microphone {
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &Microphone{sampleRate: sampleRate}
}

func (m *Microphone) Formats() []Format {
	return []Format{
		{MIMEType: "audio/wav", SampleRate: m.sampleRate, Channels: 1, RawPCM: true},
	}
}

// Open acquires an exclusive hold on the default input device.
func (m *Microphone) Open(ctx context.Context, params StreamParams) (Stream, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}

	frames := int(float64(params.Format.SampleRate) * params.ChunkInterval.Seconds())
	if frames <= 0 {
		frames = params.Format.SampleRate / 10
	}
	buf := make([]int16, frames*params.Format.Channels)

	stream, err := portaudio.OpenDefaultStream(
		params.Format.Channels, 0, float64(params.Format.SampleRate), frames, buf)
	if err != nil {
		portaudio.Terminate()
		return nil, classifyOpenError(err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, classifyOpenError(err)
	}

	ms := &micStream{
		stream:   stream,
		buf:      buf,
		chunks:   make(chan []byte, 8),
		closed:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go ms.loop(ctx)
	return ms, nil
}

// classifyOpenError maps PortAudio refusals onto the capture taxonomy so
// each gets a distinct user-facing message.
func classifyOpenError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "access denied"):
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case strings.Contains(msg, "no default input") || strings.Contains(msg, "invalid device") ||
		strings.Contains(msg, "device unavailable"):
		return fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	case strings.Contains(msg, "sample rate") || strings.Contains(msg, "format"):
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	default:
		return fmt.Errorf("failed to open audio input: %w", err)
	}
}

type micStream struct {
	stream   *portaudio.Stream
	buf      []int16
	chunks   chan []byte
	closed   chan struct{}
	loopDone chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func (s *micStream) Chunks() <-chan []byte { return s.chunks }

func (s *micStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *micStream) loop(ctx context.Context) {
	defer close(s.loopDone)
	defer close(s.chunks)

	for {
		select {
		case <-s.closed:
			return
		case <-ctx.Done():
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			select {
			case <-s.closed:
				// Close aborted the read; not a device failure.
			default:
				s.mu.Lock()
				s.err = fmt.Errorf("audio read failed: %w", err)
				s.mu.Unlock()
			}
			return
		}

		chunk := make([]byte, len(s.buf)*2)
		for i, sample := range s.buf {
			binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
		}

		select {
		case s.chunks <- chunk:
		case <-s.closed:
			return
		case <-time.After(time.Second):
			// Consumer stalled for a full second; drop the chunk rather
			// than block the device callback chain.
		}
	}
}

// Close releases the device hold. Idempotent.
func (s *micStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.stream.Abort()
		<-s.loopDone
		s.stream.Close()
		portaudio.Terminate()
	})
	return nil
}
