package tools

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAudioBufferWriteRead(t *testing.T) {
	ab := NewAudioBuffer(16)
	assert.Zero(t, ab.Write([]byte{1, 2, 3}))

	p := make([]byte, 8)
	n, err := ab.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, p[:n])
}

func TestAudioBufferDropsOldest(t *testing.T) {
	ab := NewAudioBuffer(4)
	assert.Zero(t, ab.Write([]byte{1, 2, 3, 4}))
	assert.Equal(t, 2, ab.Write([]byte{5, 6}))

	p := make([]byte, 8)
	n, err := ab.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5, 6}, p[:n])
}

func TestAudioBufferFlush(t *testing.T) {
	ab := NewAudioBuffer(16)
	ab.Write([]byte{1, 2, 3})
	assert.Equal(t, 3, ab.Flush())
	assert.Zero(t, ab.Flush())

	ab.Write([]byte{9})
	p := make([]byte, 4)
	n, err := ab.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, p[:n])
}

func TestAudioBufferReadBlocksUntilWrite(t *testing.T) {
	ab := NewAudioBuffer(16)
	got := make(chan []byte, 1)
	go func() {
		p := make([]byte, 4)
		n, err := ab.Read(p)
		if err == nil {
			got <- p[:n]
		}
	}()

	time.Sleep(10 * time.Millisecond)
	ab.Write([]byte{7})
	select {
	case data := <-got:
		assert.Equal(t, []byte{7}, data)
	case <-time.After(time.Second):
		t.Fatal("read did not unblock after write")
	}
}

func TestAudioBufferCloseUnblocksReader(t *testing.T) {
	ab := NewAudioBuffer(16)
	errC := make(chan error, 1)
	go func() {
		p := make([]byte, 4)
		_, err := ab.Read(p)
		errC <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, ab.Close())
	select {
	case err := <-errC:
		assert.Equal(t, io.EOF, err)
	case <-time.After(time.Second):
		t.Fatal("read did not unblock after close")
	}
}

func TestAudioBufferDrainsBeforeEOF(t *testing.T) {
	ab := NewAudioBuffer(16)
	ab.Write([]byte{1, 2})
	require.NoError(t, ab.Close())

	p := make([]byte, 4)
	n, err := ab.Read(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, p[:n])

	_, err = ab.Read(p)
	assert.Equal(t, io.EOF, err)
}
