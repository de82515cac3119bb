package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser           MessageRole = "user"
	RoleAssistant      MessageRole = "assistant"
	RoleSystem         MessageRole = "system"
	RoleLocationChange MessageRole = "location_change"
	RoleError          MessageRole = "error"
)

// VoiceMetadata carries transcription details for voice-originated messages
type VoiceMetadata struct {
	Confidence     float64 `json:"confidence"`
	WordCount      int     `json:"word_count"`
	ProcessingTime float64 `json:"processing_time"`
}

// ChatMessage is one entry in the conversation log. Messages are immutable
// once appended; Sequence is a monotonic counter assigned by the
// orchestrator so ordering never depends on slice position.
type ChatMessage struct {
	ID        uuid.UUID      `json:"id"`
	Sequence  uint64         `json:"sequence"`
	SessionID string         `json:"session_id,omitempty"`
	Role      MessageRole    `json:"role"`
	Content   string         `json:"content"`
	Voice     *VoiceMetadata `json:"voice,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// IsVoice reports whether the message originated from a voice recording.
func (m ChatMessage) IsVoice() bool {
	return m.Voice != nil
}
