package agents

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	live "github.com/bt-bridge/gemini-live"
	"github.com/bt-bridge/gemini-live/shared"
	"github.com/bt-bridge/gemini-live/tools"
	"github.com/hraban/opus"
	"github.com/pion/mediadevices"
	opusenc "github.com/pion/mediadevices/pkg/codec/opus"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/prop"
	"go.uber.org/zap"
)

const (
	micCaptureRate = 48000
	micSendRate    = 16000
	mimeTypeOpus   = "audio/opus"
)

// StreamMicrophone captures the default microphone and streams it into the
// session as realtime PCM chunks at 16 kHz mono. It blocks until ctx is done,
// the session closes, or capture fails.
//
// Capture runs through the platform encoder at 48 kHz and is decoded back to
// PCM before sending; plain decimation does the 48→16 kHz step, which is
// adequate for speech input.
func StreamMicrophone(ctx context.Context, logger shared.LoggerAdapter, session *live.Session) error {
	if logger == nil {
		return shared.ErrNoLogger
	}
	if session == nil {
		return shared.ErrNoSession
	}

	opusParams, err := opusenc.NewParams()
	if err != nil {
		return fmt.Errorf("creating opus params: %w", err)
	}
	micStream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Audio: func(c *mediadevices.MediaTrackConstraints) {
			c.SampleRate = prop.Int(micCaptureRate)
			c.ChannelCount = prop.Int(1)
			c.SampleSize = prop.Int(16)
		},
		Codec: mediadevices.NewCodecSelector(
			mediadevices.WithAudioEncoders(&opusParams),
		),
	})
	if err != nil {
		return fmt.Errorf("getting microphone stream: %w", err)
	}
	audioTracks := micStream.GetAudioTracks()
	if len(audioTracks) == 0 {
		return errors.New("no audio track found in microphone stream")
	}
	micTrack := audioTracks[0]
	defer func() { _ = micTrack.Close() }()

	reader, err := micTrack.NewEncodedReader(mimeTypeOpus)
	if err != nil {
		return fmt.Errorf("creating media track reader: %w", err)
	}
	decoder, err := opus.NewDecoder(micCaptureRate, 1)
	if err != nil {
		return fmt.Errorf("creating opus decoder: %w", err)
	}
	logger.Info("microphone streaming started", zap.Int("rate", micSendRate))

	// 120ms at 48kHz mono is the largest opus frame we can see.
	pcm := make([]int16, tools.FrameSamples(120*time.Millisecond, micCaptureRate, 1))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		buf, release, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				release()
				return nil
			}
			logger.Error("reading from media track", err)
			release()
			continue
		}
		if buf.Samples == 0 {
			release()
			continue
		}
		n, err := decoder.Decode(buf.Data, pcm)
		release()
		if err != nil {
			logger.Error("decoding opus frame", err)
			continue
		}

		chunk := tools.PCMChunk(decimatePCM(pcm[:n], micCaptureRate/micSendRate), micSendRate)
		if err := session.SendRealtimeInput([]live.MediaChunk{chunk}); err != nil {
			if errors.Is(err, shared.ErrNotConnected) {
				logger.Info("session no longer open, stopping microphone")
				return nil
			}
			logger.Error("sending realtime audio", err)
		}
	}
}

// decimatePCM keeps every factor-th sample and renders the result as
// little-endian bytes.
func decimatePCM(pcm []int16, factor int) []byte {
	if factor < 1 {
		factor = 1
	}
	out := make([]byte, 0, (len(pcm)/factor+1)*2)
	for i := 0; i < len(pcm); i += factor {
		out = binary.LittleEndian.AppendUint16(out, uint16(pcm[i]))
	}
	return out
}
