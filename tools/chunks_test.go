package tools

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSamples(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		rate     int
		channels int
		want     int
	}{
		{name: "20ms mono 48k", duration: 20 * time.Millisecond, rate: 48000, channels: 1, want: 960},
		{name: "120ms mono 48k", duration: 120 * time.Millisecond, rate: 48000, channels: 1, want: 5760},
		{name: "one second stereo 16k", duration: time.Second, rate: 16000, channels: 2, want: 32000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FrameSamples(tt.duration, tt.rate, tt.channels))
		})
	}
}

func TestPCMChunk(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	chunk := PCMChunk(pcm, 16000)
	assert.Equal(t, "audio/pcm;rate=16000", chunk.MimeType)
	decoded, err := base64.StdEncoding.DecodeString(chunk.Data)
	require.NoError(t, err)
	assert.Equal(t, pcm, decoded)
}

func TestJPEGChunk(t *testing.T) {
	frame := []byte{0xFF, 0xD8, 0xFF}
	chunk := JPEGChunk(frame)
	assert.Equal(t, "image/jpeg", chunk.MimeType)
	decoded, err := base64.StdEncoding.DecodeString(chunk.Data)
	require.NoError(t, err)
	assert.Equal(t, frame, decoded)
}

func TestSplitChunks(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 10)
	chunks := SplitChunks("image/jpeg", data, 4)
	require.Len(t, chunks, 3)

	var joined []byte
	for _, chunk := range chunks {
		assert.Equal(t, "image/jpeg", chunk.MimeType)
		raw, err := base64.StdEncoding.DecodeString(chunk.Data)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(raw), 4)
		joined = append(joined, raw...)
	}
	assert.Equal(t, data, joined)
}

func TestSplitChunksEdgeCases(t *testing.T) {
	assert.Nil(t, SplitChunks("image/jpeg", nil, 4))
	assert.Nil(t, SplitChunks("image/jpeg", []byte{1}, 0))

	chunks := SplitChunks("image/jpeg", []byte{1, 2}, 16)
	require.Len(t, chunks, 1)
}
