package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "JSON format to stdout",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Console format to stderr",
			config: Config{
				Level:  "debug",
				Format: "console",
				Output: "stderr",
			},
			wantErr: false,
		},
		{
			name: "Invalid log level defaults to info",
			config: Config{
				Level:  "invalid",
				Format: "json",
				Output: "stdout",
			},
			wantErr: false,
		},
		{
			name: "Unwritable file path",
			config: Config{
				Level:  "info",
				Format: "json",
				Output: "/nonexistent-dir/app.log",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewLogger() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("Expected non-nil logger")
			}
		})
	}
}

func newBufferLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := NewLogger(Config{Level: level, Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestLoggerLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, "warn")

	logger.Debug("dropped")
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("Expected info to be filtered, got %q", buf.String())
	}

	logger.Warn("kept")
	if entry := lastEntry(t, buf); entry["message"] != "kept" {
		t.Errorf("Expected message kept, got %v", entry["message"])
	}
}

func TestLoggerWithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.WithDownloadID("dl-1").WithUserID("user-1").WithRequestID("req-1").Info("tagged")

	entry := lastEntry(t, buf)
	if entry["download_id"] != "dl-1" {
		t.Errorf("Expected download_id dl-1, got %v", entry["download_id"])
	}
	if entry["user_id"] != "user-1" {
		t.Errorf("Expected user_id user-1, got %v", entry["user_id"])
	}
	if entry["request_id"] != "req-1" {
		t.Errorf("Expected request_id req-1, got %v", entry["request_id"])
	}

	logger.WithFields(map[string]interface{}{"key1": "value1", "key2": 123}).Info("fields")
	entry = lastEntry(t, buf)
	if entry["key1"] != "value1" {
		t.Errorf("Expected key1=value1, got %v", entry["key1"])
	}
}

func TestLogHTTPRequest(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.LogHTTPRequest("GET", "/api/downloads", "192.168.1.1", 200, 100*time.Millisecond)
	entry := lastEntry(t, buf)
	if entry["level"] != "info" {
		t.Errorf("Expected info level, got %v", entry["level"])
	}

	logger.LogHTTPRequest("GET", "/api/downloads", "192.168.1.1", 500, time.Millisecond)
	entry = lastEntry(t, buf)
	if entry["level"] != "error" {
		t.Errorf("Expected error level for 5xx, got %v", entry["level"])
	}
}

func TestLogDownloadEvent(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.LogDownloadEvent("dl-123", "added", "pending", map[string]interface{}{
		"target_path": "/data/movies",
	})

	entry := lastEntry(t, buf)
	if entry["event"] != "added" || entry["status"] != "pending" {
		t.Errorf("Unexpected entry %v", entry)
	}
	if entry["target_path"] != "/data/movies" {
		t.Errorf("Expected target_path detail, got %v", entry["target_path"])
	}
}

func TestLogAuthEvent(t *testing.T) {
	logger, buf := newBufferLogger(t, "info")

	logger.LogAuthEvent("login", "alice", "10.0.0.1", false)
	entry := lastEntry(t, buf)
	if entry["level"] != "warn" {
		t.Errorf("Expected warn level for failed login, got %v", entry["level"])
	}
}

func TestNewNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("discarded")
	logger.WithField("k", "v").Error("discarded")
}

func TestNewDefaultLogger(t *testing.T) {
	logger, err := NewDefaultLogger()
	if err != nil {
		t.Errorf("NewDefaultLogger() error = %v", err)
	}
	if logger == nil {
		t.Error("Expected non-nil logger from NewDefaultLogger")
	}
}

func BenchmarkLogInfo(b *testing.B) {
	logger := NewNopLogger()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message")
	}
}
