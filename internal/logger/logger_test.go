package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.log")
	closer, err := Init(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)

	Log.WithField("turn", 3).Debug("Chain resolved")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"turn":3`)
	assert.Contains(t, string(raw), "Chain resolved")
}

func TestInitLevelFallback(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	closer, err := Init(Options{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.ErrorLevel, Log.GetLevel())

	closer, err = Init(Options{Level: "nonsense"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
