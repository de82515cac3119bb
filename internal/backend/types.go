package backend

import "github.com/agrihelper/agrichat/internal/domain"

// Classification is the backend's query-type verdict for one message.
type Classification struct {
	QueryType     string  `json:"query_type"`
	NeedsLocation bool    `json:"needs_location"`
	NeedsWeather  bool    `json:"needs_weather"`
	Confidence    float64 `json:"confidence,omitempty"`
	Reasoning     string  `json:"reasoning,omitempty"`
}

// QueryIntelligence wraps classification with session context.
type QueryIntelligence struct {
	Classification Classification `json:"classification"`
	ContextType    string         `json:"context_type,omitempty"`
	Reasoning      string         `json:"reasoning,omitempty"`
}

// LocationInfo reports the geographic context the backend resolved, and
// whether it changed with this exchange.
type LocationInfo struct {
	CurrentLocation *domain.Location `json:"current_location"`
	LocationChanged bool             `json:"location_changed"`
	LocationNeeded  bool             `json:"location_needed,omitempty"`
	Confidence      float64          `json:"confidence,omitempty"`
}

// ChatRequest is the POST /api/chat/ payload.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language,omitempty"`
}

// ChatResponse is the comprehensive chat payload. Weather and crop data are
// forwarded unchanged from the backend, so they stay untyped.
type ChatResponse struct {
	Success             bool               `json:"success"`
	Response            string             `json:"response"`
	SessionID           string             `json:"session_id"`
	QueryIntelligence   *QueryIntelligence `json:"query_intelligence,omitempty"`
	LocationInfo        *LocationInfo      `json:"location_info,omitempty"`
	Weather             map[string]any     `json:"weather,omitempty"`
	CropRecommendations map[string]any     `json:"crop_recommendations,omitempty"`
	ModelUsed           string             `json:"model_used,omitempty"`
	MessageCount        int                `json:"message_count,omitempty"`
	Error               string             `json:"error,omitempty"`
	Timestamp           string             `json:"timestamp,omitempty"`
}

// Transcription is the speech-to-text portion of a voice response.
type Transcription struct {
	Transcript       string   `json:"transcript"`
	Confidence       float64  `json:"confidence"`
	LanguageDetected string   `json:"language_detected,omitempty"`
	ProcessingTime   float64  `json:"processing_time"`
	WordCount        int      `json:"word_count"`
	Alternatives     []string `json:"alternatives,omitempty"`
}

// VoiceChatResponse is the chat portion nested inside a voice response.
type VoiceChatResponse struct {
	Response  string `json:"response"`
	ModelUsed string `json:"model_used,omitempty"`
	Success   bool   `json:"success"`
}

// VoiceResponse is the POST /api/chat/voice/process payload: transcription
// plus the same chat/weather/location structure as a text exchange.
type VoiceResponse struct {
	Success             bool               `json:"success"`
	Transcription       Transcription      `json:"transcription"`
	ChatResponse        VoiceChatResponse  `json:"chat_response"`
	SessionID           string             `json:"session_id"`
	QueryIntelligence   *QueryIntelligence `json:"query_intelligence,omitempty"`
	LocationInfo        *LocationInfo      `json:"location_info,omitempty"`
	Weather             map[string]any     `json:"weather,omitempty"`
	CropRecommendations map[string]any     `json:"crop_recommendations,omitempty"`
	Warnings            []string           `json:"warnings,omitempty"`
	MessageCount        int                `json:"message_count,omitempty"`
	Error               string             `json:"error,omitempty"`
	Timestamp           string             `json:"timestamp,omitempty"`
}

// AnalyzeResponse is the POST /api/chat/analyze payload.
type AnalyzeResponse struct {
	Success            bool           `json:"success"`
	Query              string         `json:"query"`
	Classification     Classification `json:"classification"`
	LocationExtraction map[string]any `json:"location_extraction,omitempty"`
	CapabilitiesNeeded map[string]any `json:"capabilities_needed,omitempty"`
	Timestamp          string         `json:"timestamp,omitempty"`
}

// VoiceStatusResponse describes the backend's voice processing capability.
type VoiceStatusResponse struct {
	Success             bool           `json:"success"`
	VoiceCapabilities   map[string]any `json:"voice_capabilities,omitempty"`
	IntegrationFeatures map[string]any `json:"integration_features,omitempty"`
	UsageExamples       []string       `json:"usage_examples,omitempty"`
	Timestamp           string         `json:"timestamp,omitempty"`
}
