package domain

import "time"

// Location identifies the geographic context the backend resolved for the
// conversation.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Equal reports whether two locations name the same place.
func (l Location) Equal(other Location) bool {
	return l.City == other.City && l.Country == other.Country
}

func (l Location) IsZero() bool {
	return l.City == "" && l.Country == ""
}

// WeatherSnapshot is the last weather payload the backend attached to a
// response. The nested data is forwarded unchanged, so it stays untyped.
type WeatherSnapshot struct {
	Data      map[string]any `json:"data"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// ConversationContext is the mutable per-conversation state. The session
// identifier is absent until the first successful exchange and stable for
// the lifetime of the conversation afterwards. Only the chat orchestrator
// mutates it.
type ConversationContext struct {
	SessionID       string           `json:"session_id,omitempty"`
	CurrentLocation Location         `json:"current_location"`
	LastWeather     *WeatherSnapshot `json:"last_weather,omitempty"`
}
