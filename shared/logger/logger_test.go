package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() {
		Log.SetOutput(os.Stderr)
		Log.SetLevel(logrus.InfoLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", "trend-finder.log")
	require.NoError(t, Init("debug", path))
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Log.WithField("niche", "bonsai").Info("hello from the test")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from the test")
	assert.Contains(t, string(data), "niche=bonsai")
}

func TestInitUnknownLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { Log.SetOutput(os.Stderr) })

	require.NoError(t, Init("chatty", ""))
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
