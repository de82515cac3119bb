package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agrihelper/agrichat/internal/backend"
	"github.com/agrihelper/agrichat/internal/domain"
	"github.com/agrihelper/agrichat/internal/voice"
)

func TestSendText_FullExchange(t *testing.T) {
	chatter := new(MockChatter)
	orch := New(chatter, nil, "ja")

	weather := map[string]any{"data": map[string]any{"temperature": 26.0}}
	chatter.On("Chat", mock.Anything, backend.ChatRequest{
		Message:  "東京の天気はどう？",
		Language: "japanese",
	}).Return(&backend.ChatResponse{
		Success:   true,
		Response:  "東京は晴れです",
		SessionID: "abc123",
		LocationInfo: &backend.LocationInfo{
			CurrentLocation: &domain.Location{City: "Tokyo", Country: "JP"},
			LocationChanged: true,
			Confidence:      0.9,
		},
		Weather: weather,
	}, nil)

	appended, err := orch.SendText(context.Background(), "東京の天気はどう？")
	require.NoError(t, err)

	// Exactly three entries: user, location-change, assistant, in order.
	require.Len(t, appended, 3)
	assert.Equal(t, domain.RoleUser, appended[0].Role)
	assert.Equal(t, domain.RoleLocationChange, appended[1].Role)
	assert.Equal(t, domain.RoleAssistant, appended[2].Role)
	assert.Equal(t, "東京は晴れです", appended[2].Content)
	assert.Less(t, appended[0].Sequence, appended[1].Sequence)
	assert.Less(t, appended[1].Sequence, appended[2].Sequence)

	log := orch.Messages()
	require.Len(t, log, 3)

	convCtx := orch.Context()
	assert.Equal(t, "abc123", convCtx.SessionID)
	assert.Equal(t, domain.Location{City: "Tokyo", Country: "JP"}, convCtx.CurrentLocation)
	require.NotNil(t, convCtx.LastWeather)
	assert.Equal(t, weather, convCtx.LastWeather.Data)

	_, hasErr := orch.LastError()
	assert.False(t, hasErr)
	chatter.AssertExpectations(t)
}

func TestSendText_SessionIdentifierSticky(t *testing.T) {
	chatter := new(MockChatter)
	orch := New(chatter, nil, "en")

	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Success: true, Response: "a", SessionID: "abc123"}, nil).Once()
	_, err := orch.SendText(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "abc123", orch.Context().SessionID)

	// A response omitting the field leaves the identifier unchanged.
	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Success: true, Response: "b"}, nil).Once()
	_, err = orch.SendText(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "abc123", orch.Context().SessionID)

	// A differing identifier is ignored, not merged.
	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Success: true, Response: "c", SessionID: "other"}, nil).Once()
	_, err = orch.SendText(context.Background(), "third")
	require.NoError(t, err)
	assert.Equal(t, "abc123", orch.Context().SessionID)

	// Established identifier travels with subsequent requests.
	calls := chatter.Calls
	req := calls[2].Arguments.Get(1).(backend.ChatRequest)
	assert.Equal(t, "abc123", req.SessionID)
}

func TestSendText_NetworkFailureAppendsErrorMessage(t *testing.T) {
	chatter := new(MockChatter)
	orch := New(chatter, nil, "ja")

	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(nil, errors.New("request failed: connection refused")).Once()

	appended, err := orch.SendText(context.Background(), "hello")
	require.Error(t, err)

	// User message stays (optimistic append), error entry follows.
	require.Len(t, appended, 2)
	assert.Equal(t, domain.RoleUser, appended[0].Role)
	assert.Equal(t, domain.RoleError, appended[1].Role)
	assert.Contains(t, appended[1].Content, "connection refused")

	msg, hasErr := orch.LastError()
	assert.True(t, hasErr)
	assert.Contains(t, msg, "connection refused")

	// Overlay clears on the next successful exchange.
	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Success: true, Response: "ok"}, nil).Once()
	_, err = orch.SendText(context.Background(), "again")
	require.NoError(t, err)
	_, hasErr = orch.LastError()
	assert.False(t, hasErr)
}

func TestSendText_MissingSuccessFlagIsAnError(t *testing.T) {
	chatter := new(MockChatter)
	orch := New(chatter, nil, "ja")

	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Response: "ignored"}, nil)

	appended, err := orch.SendText(context.Background(), "hello")
	require.Error(t, err)
	require.Len(t, appended, 2)
	assert.Equal(t, domain.RoleError, appended[1].Role)
}

func TestSendText_SingleFlight(t *testing.T) {
	chatter := new(MockChatter)
	orch := New(chatter, nil, "ja")

	chatter.On("Chat", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			// Re-entrant submission while the exchange is outstanding.
			assert.True(t, orch.Busy())
			_, err := orch.SendText(context.Background(), "overlap")
			assert.ErrorIs(t, err, ErrExchangeInFlight)
		}).
		Return(&backend.ChatResponse{Success: true, Response: "ok"}, nil).Once()

	_, err := orch.SendText(context.Background(), "first")
	require.NoError(t, err)
	assert.False(t, orch.Busy())
}

func TestSendVoice_LowConfidenceStillDisplayed(t *testing.T) {
	submitter := new(MockVoiceSubmitter)
	orch := New(nil, submitter, "ja")

	rec := domain.Recording{Data: make([]byte, 4096), MIMEType: "audio/wav"}
	submitter.On("Submit", mock.Anything, rec, voice.SubmitOptions{Language: "ja"}).
		Return(&voice.Result{
			Transcript:     "むずかしい発音",
			Confidence:     0.55,
			WordCount:      2,
			ProcessingTime: 1.1,
			Response: &backend.VoiceResponse{
				Success:      true,
				ChatResponse: backend.VoiceChatResponse{Response: "返答です", Success: true},
				SessionID:    "abc123",
			},
		}, nil)

	appended, err := orch.SendVoice(context.Background(), rec)
	require.NoError(t, err)

	require.Len(t, appended, 2)
	assert.Equal(t, domain.RoleUser, appended[0].Role)
	require.NotNil(t, appended[0].Voice)
	assert.Equal(t, 0.55, appended[0].Voice.Confidence)
	assert.Equal(t, 2, appended[0].Voice.WordCount)
	assert.Equal(t, domain.RoleAssistant, appended[1].Role)
	assert.Equal(t, "abc123", appended[0].SessionID)
	assert.Equal(t, "abc123", orch.Context().SessionID)
}

func TestSendVoice_ValidationFailureAppendsError(t *testing.T) {
	submitter := new(MockVoiceSubmitter)
	orch := New(nil, submitter, "ja")

	rec := domain.Recording{MIMEType: "audio/wav"}
	submitter.On("Submit", mock.Anything, rec, mock.Anything).
		Return(nil, &voice.ValidationError{Result: domain.ValidationResult{
			Errors: []string{"empty audio: recording contains no data"},
		}})

	appended, err := orch.SendVoice(context.Background(), rec)
	require.Error(t, err)
	require.Len(t, appended, 1)
	assert.Equal(t, domain.RoleError, appended[0].Role)
}

func TestSendText_FirstExchangePersistsUserMessageInSession(t *testing.T) {
	chatter := new(MockChatter)
	recorder := new(MockRecorder)
	orch := New(chatter, nil, "ja", WithRecorder(recorder))

	recorder.On("Record", mock.Anything, mock.Anything).Return(nil)
	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Success: true, Response: "ok", SessionID: "abc123"}, nil)

	appended, err := orch.SendText(context.Background(), "hello")
	require.NoError(t, err)

	// The user message is appended before the backend assigns the session
	// identifier; it must still be persisted under it, or per-session
	// retrieval loses the opening message of every conversation.
	require.Len(t, recorder.Calls, 2)
	for _, call := range recorder.Calls {
		msg := call.Arguments.Get(1).(domain.ChatMessage)
		assert.Equal(t, "abc123", msg.SessionID)
	}

	require.Len(t, appended, 2)
	assert.Equal(t, "abc123", appended[0].SessionID)
	assert.Equal(t, "abc123", orch.Messages()[0].SessionID)
}

func TestAppend_RecorderReceivesEveryMessage(t *testing.T) {
	chatter := new(MockChatter)
	recorder := new(MockRecorder)
	orch := New(chatter, nil, "ja", WithRecorder(recorder))

	recorder.On("Record", mock.Anything, mock.AnythingOfType("domain.ChatMessage")).Return(nil)
	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Success: true, Response: "ok"}, nil)

	_, err := orch.SendText(context.Background(), "hello")
	require.NoError(t, err)

	recorder.AssertNumberOfCalls(t, "Record", 2)
}

func TestSendText_RecorderFailureDoesNotInterrupt(t *testing.T) {
	chatter := new(MockChatter)
	recorder := new(MockRecorder)
	orch := New(chatter, nil, "ja", WithRecorder(recorder))

	recorder.On("Record", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	chatter.On("Chat", mock.Anything, mock.Anything).
		Return(&backend.ChatResponse{Success: true, Response: "ok"}, nil)

	_, err := orch.SendText(context.Background(), "hello")
	assert.NoError(t, err)
}
