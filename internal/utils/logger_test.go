package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	log, err := NewLogger(EnvLocal, path)
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	log.Infow("hello", "op", "test")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"op":"test"`) {
		t.Fatalf("log file missing structured field: %s", data)
	}
}

func TestLevelFor(t *testing.T) {
	cases := map[string]zapcore.Level{
		EnvLocal: zapcore.DebugLevel,
		EnvDev:   zapcore.InfoLevel,
		EnvProd:  zapcore.WarnLevel,
		"":       zapcore.WarnLevel,
	}
	for env, want := range cases {
		if got := levelFor(env); got != want {
			t.Errorf("levelFor(%q) = %v, want %v", env, got, want)
		}
	}
}
