package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetenv(t *testing.T) {
	t.Setenv("TEST_STR", "hello")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_BAD_INT", "forty-two")

	s, err := Getenv(GetenvString, "TEST_STR", true, "")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	i, err := Getenv(GetenvInt, "TEST_INT", true, 0)
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	b, err := Getenv(GetenvBool, "TEST_BOOL", true, false)
	require.NoError(t, err)
	assert.True(t, b)

	_, err = Getenv(GetenvInt, "TEST_BAD_INT", true, 0)
	require.Error(t, err)
}

func TestGetenvUnset(t *testing.T) {
	v, err := Getenv(GetenvInt, "TEST_ABSENT_VAR", false, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = Getenv(GetenvString, "TEST_ABSENT_VAR", true, "")
	require.Error(t, err)
}

func TestMustGetenvPanics(t *testing.T) {
	assert.Equal(t, "x", MustGetenv(GetenvString, "TEST_ABSENT_VAR", false, "x"))
	assert.Panics(t, func() {
		MustGetenv(GetenvString, "TEST_ABSENT_VAR", true, "")
	})
}
