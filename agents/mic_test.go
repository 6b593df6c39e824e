package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimatePCM(t *testing.T) {
	pcm := []int16{10, 11, 12, 20, 21, 22, 30}
	out := decimatePCM(pcm, 3)
	require.Len(t, out, 6)
	assert.Equal(t, []byte{10, 0, 20, 0, 30, 0}, out)
}

func TestDecimatePCMFactorClamp(t *testing.T) {
	pcm := []int16{1, 2, 3}
	assert.Equal(t, decimatePCM(pcm, 1), decimatePCM(pcm, 0))
	assert.Len(t, decimatePCM(pcm, 1), 6)
}

func TestDecimatePCMNegativeSamples(t *testing.T) {
	out := decimatePCM([]int16{-1}, 1)
	assert.Equal(t, []byte{0xFF, 0xFF}, out)
}
