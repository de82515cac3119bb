package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/agrihelper/agrichat/internal/backend"
	"github.com/agrihelper/agrichat/internal/domain"
	"github.com/agrihelper/agrichat/internal/voice"
)

// ErrExchangeInFlight is returned when a second exchange is attempted while
// one is still outstanding. Voice and text share this single-flight
// discipline.
var ErrExchangeInFlight = errors.New("an exchange is already in flight")

// lowConfidenceThreshold flags voice transcripts for diagnostics without
// ever blocking their display.
const lowConfidenceThreshold = 0.7

// Chatter is the slice of the backend client the orchestrator needs for
// the text path.
type Chatter interface {
	Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error)
}

// VoiceSubmitter is the voice path: validate-and-submit one recording.
type VoiceSubmitter interface {
	Submit(ctx context.Context, rec domain.Recording, opts voice.SubmitOptions) (*voice.Result, error)
}

// Recorder persists appended messages. Optional; failures are logged and
// never interrupt the conversation.
type Recorder interface {
	Record(ctx context.Context, msg domain.ChatMessage) error
}

// Orchestrator owns the conversation log and context. The log is
// append-only and ordered by a monotonic sequence counter; message content
// is never mutated after append, though the opening message's session
// identifier is settled once the first response delivers it. Only one
// backend exchange is in flight at a time.
type Orchestrator struct {
	client    Chatter
	submitter VoiceSubmitter
	recorder  Recorder
	language  string

	mu       sync.Mutex
	busy     bool
	seq      uint64
	messages []domain.ChatMessage
	convCtx  domain.ConversationContext
	lastErr  string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithRecorder attaches a transcript recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an orchestrator. language is the conversation language sent
// with every text exchange ("ja" or "en").
func New(client Chatter, submitter VoiceSubmitter, language string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		submitter: submitter,
		language:  language,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Messages returns a copy of the conversation log in append order.
func (o *Orchestrator) Messages() []domain.ChatMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]domain.ChatMessage, len(o.messages))
	copy(out, o.messages)
	return out
}

// Context returns the current conversation context.
func (o *Orchestrator) Context() domain.ConversationContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.convCtx
}

// Busy reports whether an exchange is outstanding.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// LastError returns the error overlay: the most recent failure message, if
// the last exchange failed. It coexists with the idle state and clears on
// the next successful exchange.
func (o *Orchestrator) LastError() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr, o.lastErr != ""
}

// SendText runs one text exchange: the user message is appended
// optimistically, then the backend response is merged into the log and
// context. On failure a synthetic error message is appended and the log is
// otherwise unchanged.
func (o *Orchestrator) SendText(ctx context.Context, text string) ([]domain.ChatMessage, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	user := o.appendPending(domain.RoleUser, text, nil)

	resp, err := o.client.Chat(ctx, backend.ChatRequest{
		Message:   text,
		SessionID: o.Context().SessionID,
		Language:  languageName(o.language),
	})
	if err != nil {
		o.record(ctx, user)
		return []domain.ChatMessage{user, o.fail(ctx, err)}, err
	}
	if !resp.Success {
		err := backendFailure(resp.Error)
		o.record(ctx, user)
		return []domain.ChatMessage{user, o.fail(ctx, err)}, err
	}

	user, merged := o.merge(ctx, user, resp.SessionID, resp.Response, resp.LocationInfo, resp.Weather)
	return append([]domain.ChatMessage{user}, merged...), nil
}

// SendVoice runs one voice exchange: the recording is validated and
// submitted, the transcript becomes the user message (carrying voice
// metadata instead of optimistic text), and the nested chat payload is
// merged exactly like a text response.
func (o *Orchestrator) SendVoice(ctx context.Context, rec domain.Recording) ([]domain.ChatMessage, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.end()

	result, err := o.submitter.Submit(ctx, rec, voice.SubmitOptions{
		SessionID: o.Context().SessionID,
		Language:  o.language,
	})
	if err != nil {
		return []domain.ChatMessage{o.fail(ctx, err)}, err
	}

	if result.Confidence < lowConfidenceThreshold {
		log.Warn().
			Float64("confidence", result.Confidence).
			Str("transcript", result.Transcript).
			Msg("low-confidence transcription")
	}

	meta := &domain.VoiceMetadata{
		Confidence:     result.Confidence,
		WordCount:      result.WordCount,
		ProcessingTime: result.ProcessingTime,
	}
	user := o.appendPending(domain.RoleUser, result.Transcript, meta)

	resp := result.Response
	user, merged := o.merge(ctx, user, resp.SessionID, resp.ChatResponse.Response, resp.LocationInfo, resp.Weather)
	return append([]domain.ChatMessage{user}, merged...), nil
}

// begin acquires the single-flight slot.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrExchangeInFlight
	}
	o.busy = true
	return nil
}

func (o *Orchestrator) end() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

// merge folds a successful response into the context and log: sticky
// session identifier, at most one location-change message, the assistant
// reply, and a refreshed weather snapshot. The pending user message is
// re-stamped with the settled session identifier and persisted here, so the
// opening message of a conversation lands in the same session as the rest.
func (o *Orchestrator) merge(ctx context.Context, pending domain.ChatMessage, sessionID, reply string, loc *backend.LocationInfo, weather map[string]any) (domain.ChatMessage, []domain.ChatMessage) {
	o.mu.Lock()
	if o.convCtx.SessionID == "" && sessionID != "" {
		o.convCtx.SessionID = sessionID
	} else if sessionID != "" && sessionID != o.convCtx.SessionID {
		// The identifier is stable once set; a differing value is logged
		// and ignored.
		log.Warn().
			Str("current", o.convCtx.SessionID).
			Str("received", sessionID).
			Msg("backend returned a different session identifier; keeping current")
	}

	if pending.SessionID != o.convCtx.SessionID {
		pending.SessionID = o.convCtx.SessionID
		for i := len(o.messages) - 1; i >= 0; i-- {
			if o.messages[i].ID == pending.ID {
				o.messages[i].SessionID = pending.SessionID
				break
			}
		}
	}

	var locationChanged bool
	if loc != nil && loc.LocationChanged && loc.CurrentLocation != nil {
		o.convCtx.CurrentLocation = *loc.CurrentLocation
		locationChanged = true
	}

	if weather != nil {
		o.convCtx.LastWeather = &domain.WeatherSnapshot{Data: weather, FetchedAt: time.Now()}
	}
	o.lastErr = ""
	newLoc := o.convCtx.CurrentLocation
	o.mu.Unlock()

	o.record(ctx, pending)

	var appended []domain.ChatMessage
	if locationChanged {
		note := fmt.Sprintf("Location updated to %s, %s", newLoc.City, newLoc.Country)
		appended = append(appended, o.append(ctx, domain.RoleLocationChange, note, nil))
	}
	appended = append(appended, o.append(ctx, domain.RoleAssistant, reply, nil))
	return pending, appended
}

// fail appends a synthetic error message and raises the error overlay.
func (o *Orchestrator) fail(ctx context.Context, err error) domain.ChatMessage {
	o.mu.Lock()
	o.lastErr = err.Error()
	o.mu.Unlock()
	return o.append(ctx, domain.RoleError, err.Error(), nil)
}

func (o *Orchestrator) append(ctx context.Context, role domain.MessageRole, content string, meta *domain.VoiceMetadata) domain.ChatMessage {
	msg := o.appendPending(role, content, meta)
	o.record(ctx, msg)
	return msg
}

// appendPending appends to the log without persisting. The user message
// that opens an exchange is recorded later, once the response has settled
// the session identifier.
func (o *Orchestrator) appendPending(role domain.MessageRole, content string, meta *domain.VoiceMetadata) domain.ChatMessage {
	o.mu.Lock()
	o.seq++
	msg := domain.ChatMessage{
		ID:        uuid.New(),
		Sequence:  o.seq,
		SessionID: o.convCtx.SessionID,
		Role:      role,
		Content:   content,
		Voice:     meta,
		CreatedAt: time.Now(),
	}
	o.messages = append(o.messages, msg)
	o.mu.Unlock()
	return msg
}

func (o *Orchestrator) record(ctx context.Context, msg domain.ChatMessage) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, msg); err != nil {
		log.Error().Err(err).Msg("failed to persist message")
	}
}

func backendFailure(detail string) error {
	if detail == "" {
		return errors.New("backend reported failure without detail")
	}
	return errors.New(detail)
}

// languageName maps the short language code onto the form the chat endpoint
// expects ("japanese"/"english"); the voice endpoint takes the short code.
func languageName(code string) string {
	if code == "en" {
		return "english"
	}
	return "japanese"
}
