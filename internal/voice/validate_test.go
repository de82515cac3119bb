package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agrihelper/agrichat/internal/domain"
)

func TestValidate_EmptyAudio(t *testing.T) {
	result := Validate(domain.Recording{MIMEType: "audio/wav"})

	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "empty audio")
}

func TestValidate_AudioTooLarge(t *testing.T) {
	result := validateBuffer(maxAudioBytes+1, "audio/wav")

	assert.False(t, result.Valid)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "audio too large")
	// Human-readable size included
	assert.Contains(t, result.Errors[0], "500 MiB")
}

func TestValidate_TinyBufferWarnsButPasses(t *testing.T) {
	result := Validate(domain.Recording{
		Data:     make([]byte, 512),
		MIMEType: "audio/wav",
	})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "may not contain speech")
}

func TestValidate_UnsupportedFormatWarnsButPasses(t *testing.T) {
	result := Validate(domain.Recording{
		Data:     make([]byte, 4096),
		MIMEType: "audio/flac",
	})

	assert.True(t, result.Valid)
	assert.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "audio/flac")
}

func TestValidate_OpusParametersAccepted(t *testing.T) {
	// Codec parameters must not defeat the supported-format check.
	result := Validate(domain.Recording{
		Data:     make([]byte, 4096),
		MIMEType: "audio/webm;codecs=opus",
	})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

func TestValidate_NormalBuffer(t *testing.T) {
	result := Validate(domain.Recording{
		Data:     make([]byte, 64*1024),
		MIMEType: "audio/wav",
	})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, result.Errors)
}
