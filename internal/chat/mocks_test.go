package chat

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/agrihelper/agrichat/internal/backend"
	"github.com/agrihelper/agrichat/internal/domain"
	"github.com/agrihelper/agrichat/internal/voice"
)

// MockChatter mocks the Chatter interface
type MockChatter struct {
	mock.Mock
}

func (m *MockChatter) Chat(ctx context.Context, req backend.ChatRequest) (*backend.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.ChatResponse), args.Error(1)
}

// MockVoiceSubmitter mocks the VoiceSubmitter interface
type MockVoiceSubmitter struct {
	mock.Mock
}

func (m *MockVoiceSubmitter) Submit(ctx context.Context, rec domain.Recording, opts voice.SubmitOptions) (*voice.Result, error) {
	args := m.Called(ctx, rec, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*voice.Result), args.Error(1)
}

// MockRecorder mocks the Recorder interface
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, msg domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
