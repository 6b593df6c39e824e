package tools

import (
	"encoding/base64"
	"fmt"
	"time"

	live "github.com/bt-bridge/gemini-live"
)

func FrameSamples(duration time.Duration, rate, channels int) int {
	return int(duration.Seconds() * float64(channels) * float64(rate))
}

// PCMChunk wraps raw little-endian 16-bit PCM into a realtime media chunk.
func PCMChunk(pcm []byte, sampleRate int) live.MediaChunk {
	return live.MediaChunk{
		MimeType: fmt.Sprintf("audio/pcm;rate=%d", sampleRate),
		Data:     base64.StdEncoding.EncodeToString(pcm),
	}
}

// JPEGChunk wraps one encoded camera or screen frame.
func JPEGChunk(frame []byte) live.MediaChunk {
	return live.MediaChunk{
		MimeType: "image/jpeg",
		Data:     base64.StdEncoding.EncodeToString(frame),
	}
}

// SplitChunks batches an oversized payload into multiple chunks of at most
// maxBytes raw bytes each, preserving order. They still travel in one
// realtime-input frame, so the split carries no turn semantics.
func SplitChunks(mimeType string, data []byte, maxBytes int) []live.MediaChunk {
	if maxBytes <= 0 || len(data) == 0 {
		return nil
	}
	chunks := make([]live.MediaChunk, 0, (len(data)+maxBytes-1)/maxBytes)
	for off := 0; off < len(data); off += maxBytes {
		end := min(off+maxBytes, len(data))
		chunks = append(chunks, live.MediaChunk{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(data[off:end]),
		})
	}
	return chunks
}
