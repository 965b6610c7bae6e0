package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedRequiresInit(t *testing.T) {
	Log = nil
	_, err := Named("http")
	assert.Error(t, err)
}

func TestInitAndNamed(t *testing.T) {
	require.NoError(t, Init(Config{Debug: true}))
	t.Cleanup(func() { Log = nil })

	l, err := Named("http")
	require.NoError(t, err)
	assert.Equal(t, "http", l.Name)
	assert.Equal(t, Log.LogsPath, l.LogsPath)
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Infof("discarded %d", 1)
	assert.Equal(t, "nop", l.Name)
}
