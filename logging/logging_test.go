package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackfast/config"
)

func TestInitLogger(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetOutput(os.Stderr)
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	testCases := []struct {
		name          string
		cfg           config.LoggingConfig
		wantLevel     logrus.Level
		wantJSON      bool
		wantStdStream *os.File
	}{
		{
			name:          "json to stderr",
			cfg:           config.LoggingConfig{Level: "debug", Format: "json", Output: "stderr"},
			wantLevel:     logrus.DebugLevel,
			wantJSON:      true,
			wantStdStream: os.Stderr,
		},
		{
			name:          "invalid level falls back to info",
			cfg:           config.LoggingConfig{Level: "loud", Format: "text", Output: "stdout"},
			wantLevel:     logrus.InfoLevel,
			wantStdStream: os.Stdout,
		},
		{
			name:          "empty output means stdout",
			cfg:           config.LoggingConfig{Level: "warn"},
			wantLevel:     logrus.WarnLevel,
			wantStdStream: os.Stdout,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := InitLogger(tc.cfg)
			assert.Equal(t, tc.wantLevel, logrus.GetLevel())
			assert.Equal(t, tc.wantStdStream, out)
			_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tc.wantJSON, isJSON)
		})
	}
}

func TestInitLogger_File(t *testing.T) {
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	path := filepath.Join(t.TempDir(), "stackfast.log")
	out := InitLogger(config.LoggingConfig{Level: "info", Format: "json", Output: path})

	file, ok := out.(*os.File)
	require.True(t, ok)
	t.Cleanup(func() { file.Close() })

	logrus.Info("hello")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
