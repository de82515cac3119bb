package capture

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAV_Header(t *testing.T) {
	pcm := make([]byte, 3200)
	data := EncodeWAV(pcm, 16000, 1)

	require.Len(t, data, 44+len(pcm))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, "data", string(data[36:40]))

	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]))     // PCM
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))     // mono
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(data[24:28])) // sample rate
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(data[28:32])) // byte rate
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[32:34]))     // block align
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))    // bits per sample
	assert.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(data[40:44]))
}

func TestPCMDuration(t *testing.T) {
	// 1 second of 16 kHz mono 16-bit PCM is 32000 bytes.
	assert.Equal(t, time.Second, PCMDuration(32000, 16000, 1))
	assert.Equal(t, 100*time.Millisecond, PCMDuration(3200, 16000, 1))
	assert.Equal(t, time.Duration(0), PCMDuration(0, 16000, 1))
	assert.Equal(t, time.Duration(0), PCMDuration(3200, 0, 1))
}
