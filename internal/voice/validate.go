package voice

import (
	"fmt"
	"mime"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/agrihelper/agrichat/internal/domain"
)

const (
	// maxAudioBytes mirrors the transcription provider's upload ceiling.
	maxAudioBytes = 500 << 20
	// minAudioBytes is the silence-suspicion threshold; below it the
	// recording is unlikely to contain speech.
	minAudioBytes = 1 << 10
)

// supportedMIMETypes is the set the backend transcribes without complaint.
// Other encodings are submitted anyway and only draw a warning.
var supportedMIMETypes = map[string]bool{
	"audio/webm": true,
	"audio/wav":  true,
	"audio/mp3":  true,
	"audio/m4a":  true,
	"audio/ogg":  true,
}

// Validate checks a finalized recording before submission. It is a pure
// function of buffer size and declared encoding: zero-length and oversized
// buffers are hard rejections, everything else at most a warning. Warnings
// never block submission.
func Validate(rec domain.Recording) domain.ValidationResult {
	return validateBuffer(rec.Size(), rec.MIMEType)
}

func validateBuffer(size int, mimeType string) domain.ValidationResult {
	result := domain.ValidationResult{Valid: true}

	switch {
	case size == 0:
		result.Valid = false
		result.Errors = append(result.Errors, "empty audio: recording contains no data")
	case size > maxAudioBytes:
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(
			"audio too large: %s (max %s)",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(maxAudioBytes))))
	case size < minAudioBytes:
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"very small recording (%s) - may not contain speech", humanize.IBytes(uint64(size))))
	}

	if base := baseMIMEType(mimeType); base != "" && !supportedMIMETypes[base] {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"format %s may not be optimal for transcription", mimeType))
	}

	return result
}

func baseMIMEType(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	}
	return base
}
