package domain

import "time"

// Recording is one finalized audio capture: the assembled bytes tagged with
// the encoding negotiated at capture start. Immutable once assembled.
type Recording struct {
	Data     []byte        `json:"-"`
	MIMEType string        `json:"mime_type"`
	Duration time.Duration `json:"duration"`
	Chunks   int           `json:"chunks"`
}

// Size returns the recording length in bytes.
func (r Recording) Size() int {
	return len(r.Data)
}

// ValidationResult is the outcome of pre-submission audio validation.
// Warnings are advisory and never block submission; a non-empty Errors list
// makes the recording unsubmittable.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Errors   []string `json:"errors"`
}
