package logger

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"postboard/internal/models"
	"postboard/internal/version"
)

func testVersion() version.Info {
	return version.Info{
		Version:    "test",
		GitCommit:  "abc1234",
		BuildDate:  "2026-01-01T00:00:00Z",
		InstanceID: "instance-1",
		Hostname:   "testhost",
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  slog.Level
		expectErr bool
	}{
		{name: "debug", input: "debug", expected: slog.LevelDebug},
		{name: "info", input: "info", expected: slog.LevelInfo},
		{name: "warn", input: "warn", expected: slog.LevelWarn},
		{name: "warning alias", input: "warning", expected: slog.LevelWarn},
		{name: "error", input: "error", expected: slog.LevelError},
		{name: "uppercase", input: "DEBUG", expected: slog.LevelDebug},
		{name: "mixed case", input: "Info", expected: slog.LevelInfo},
		{name: "invalid", input: "invalid", expectErr: true},
		{name: "empty", input: "", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLevel(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error for input %q, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error for input %q: %v", tt.input, err)
				return
			}
			if level != tt.expected {
				t.Errorf("expected level %v, got %v", tt.expected, level)
			}
		})
	}
}

func TestSetupStdout(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		cfg := models.LoggingConfig{Level: "info", Format: format, Output: "stdout"}

		logger, closer, err := Setup(cfg, testVersion())
		if err != nil {
			t.Fatalf("unexpected error for format %q: %v", format, err)
		}
		if closer != nil {
			t.Error("expected nil closer for stdout")
		}
		if logger == nil {
			t.Fatal("expected non-nil logger")
		}
	}
}

func TestSetupStderr(t *testing.T) {
	cfg := models.LoggingConfig{Level: "warn", Format: "json", Output: "stderr"}

	logger, closer, err := Setup(cfg, testVersion())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closer != nil {
		t.Error("expected nil closer for stderr")
	}
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestSetupFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "postboard.log")

	cfg := models.LoggingConfig{
		Level:    "info",
		Format:   "json",
		Output:   "file",
		FilePath: logFile,
	}

	logger, closer, err := Setup(cfg, testVersion())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closer == nil {
		t.Fatal("expected non-nil closer for file output")
	}

	logger.Info("hello from the test")
	if err := closer.Close(); err != nil {
		t.Fatalf("failed to close log file: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if record["msg"] != "hello from the test" {
		t.Errorf("unexpected msg field: %v", record["msg"])
	}
	if record["service"] != "postboard" {
		t.Errorf("expected service attribute, got %v", record["service"])
	}
	if record["instance_id"] != "instance-1" {
		t.Errorf("expected instance_id attribute, got %v", record["instance_id"])
	}
}

func TestSetupFileOutputRequiresPath(t *testing.T) {
	cfg := models.LoggingConfig{Level: "info", Format: "json", Output: "file"}

	_, _, err := Setup(cfg, testVersion())
	if err == nil {
		t.Fatal("expected error for file output without path")
	}
	if !strings.Contains(err.Error(), "file path") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	cfg := models.LoggingConfig{Level: "verbose", Format: "json", Output: "stdout"}

	_, _, err := Setup(cfg, testVersion())
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestSetupInvalidOutput(t *testing.T) {
	cfg := models.LoggingConfig{Level: "info", Format: "json", Output: "syslog"}

	_, _, err := Setup(cfg, testVersion())
	if err == nil {
		t.Fatal("expected error for unsupported output")
	}
}
