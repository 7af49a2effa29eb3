package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreGlobal(t *testing.T) {
	t.Helper()
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	prevTime := zerolog.TimeFieldFormat
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		zerolog.TimeFieldFormat = prevTime
	})
}

func TestSetupJSONFile(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "app.log")

	err := Setup(LogConfig{Level: "debug", Format: "json", TimeFormat: zerolog.TimeFormatUnix, Output: path})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	l := WithRequestID("req-1")
	l.Debug().Msg("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry["request_id"] != "req-1" || entry["message"] != "hello" || entry["level"] != "debug" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupLevelFilter(t *testing.T) {
	restoreGlobal(t)
	path := filepath.Join(t.TempDir(), "app.log")

	if err := Setup(LogConfig{Level: "WARN", Format: "json", Output: path}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	l := WithComponent("test")
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "dropped") || !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("log = %q", data)
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	restoreGlobal(t)
	if err := Setup(LogConfig{Level: "loud", Output: "stderr"}); err == nil {
		t.Error("expected an error for an unknown level")
	}
}
