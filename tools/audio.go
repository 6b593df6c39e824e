package tools

import (
	"context"
	"io"
	"sync"
	"time"

	live "github.com/bt-bridge/gemini-live"
	"github.com/bt-bridge/gemini-live/shared"
	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// AudioBuffer is a bounded FIFO byte buffer. Writers drop the oldest data
// when the cap is exceeded; readers block until data arrives or the buffer is
// closed.
type AudioBuffer struct {
	buffer []byte
	mu     sync.Mutex
	cond   *sync.Cond
	size   int
	cap    int
	closed bool
}

func NewAudioBuffer(fixedCap int) *AudioBuffer {
	ab := &AudioBuffer{
		buffer: make([]byte, 0, fixedCap),
		size:   0,
		cap:    fixedCap,
	}
	ab.cond = sync.NewCond(&ab.mu)
	return ab
}

func (ab *AudioBuffer) Write(data []byte) (dropped int) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	if ab.size+len(data) > ab.cap {
		drop := ab.size + len(data) - ab.cap
		ab.buffer = ab.buffer[drop:]
		ab.size -= drop
		dropped = drop
	}
	ab.buffer = append(ab.buffer, data...)
	ab.size += len(data)
	ab.cond.Signal()
	return dropped
}

func (ab *AudioBuffer) Read(p []byte) (n int, err error) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	for ab.size == 0 {
		if ab.closed {
			return 0, io.EOF
		}
		ab.cond.Wait()
	}
	n = copy(p, ab.buffer)
	ab.buffer = ab.buffer[n:]
	ab.size -= n
	return n, nil
}

// Flush discards all queued data and reports how many bytes were dropped.
// Used when the server signals an interruption: whatever was queued belongs
// to the superseded turn.
func (ab *AudioBuffer) Flush() (dropped int) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	dropped = ab.size
	ab.buffer = ab.buffer[:0]
	ab.size = 0
	return dropped
}

// Close unblocks pending readers with io.EOF once the buffer drains.
func (ab *AudioBuffer) Close() error {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	ab.closed = true
	ab.cond.Broadcast()
	return nil
}

// PlaySessionAudio plays the session's inline audio on the default output
// device. It subscribes to audio events, queues PCM into a bounded ring, and
// flushes the ring the moment an interruption arrives so superseded audio
// never reaches the speaker. Blocks until ctx is done or the session closes.
func PlaySessionAudio(ctx context.Context, logger shared.LoggerAdapter, session *live.Session, sampleRate, channels, otoBufferMs, ringBufferSeconds int) error {
	if logger == nil {
		return shared.ErrNoLogger
	}
	if session == nil {
		return shared.ErrNoSession
	}
	otoCtx, ready, err := oto.NewContext(
		&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   time.Duration(otoBufferMs) * time.Millisecond,
		},
	)
	if err != nil {
		logger.Error("creating audio output context", err)
		return err
	}
	audioBuffer := NewAudioBuffer(ringBufferSeconds * sampleRate * channels * 2)

	closed := make(chan struct{})
	unsubAudio := session.Subscribe(live.EventAudio, func(ev live.Event) {
		if dropped := audioBuffer.Write(ev.Audio); dropped > 0 {
			logger.Warn("audio buffer dropped data", zap.Int("droppedBytes", dropped))
		}
	})
	unsubInterrupted := session.Subscribe(live.EventInterrupted, func(live.Event) {
		if dropped := audioBuffer.Flush(); dropped > 0 {
			logger.Debug("interrupted, flushed queued audio", zap.Int("flushedBytes", dropped))
		}
	})
	unsubClose := session.Subscribe(live.EventClose, func(live.Event) {
		select {
		case <-closed:
		default:
			close(closed)
		}
	})
	defer func() {
		unsubAudio()
		unsubInterrupted()
		unsubClose()
	}()

	<-ready
	player := otoCtx.NewPlayer(audioBuffer)
	player.Play()
	defer func() { _ = player.Close() }()
	defer func() { _ = audioBuffer.Close() }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-closed:
		return nil
	}
}
