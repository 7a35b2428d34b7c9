package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNew_NilConfigUsesDefaults(t *testing.T) {

	log, err := New(nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if log == nil {
		t.Fatal("expected a logger")
	}
	log.Info("boot")
	_ = log.Sync()
}

func TestNew_TeesIntoLogFile(t *testing.T) {

	path := filepath.Join(t.TempDir(), "refi.log")
	cfg := DefaultConfig()
	cfg.LogFile = path

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Info("analysis stored", zap.String("report_id", "abc-123"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}

	line := string(data)
	if !strings.Contains(line, `"msg":"analysis stored"`) {
		t.Errorf("expected JSON message in log file, got: %s", line)
	}
	if !strings.Contains(line, `"report_id":"abc-123"`) {
		t.Errorf("expected structured field in log file, got: %s", line)
	}
	if !strings.Contains(line, `"timestamp"`) {
		t.Errorf("expected timestamp key in log file, got: %s", line)
	}
}

func TestNew_DebugLevelInDevelopment(t *testing.T) {

	path := filepath.Join(t.TempDir(), "refi.log")
	cfg := DefaultConfig()
	cfg.LogFile = path
	cfg.Development = true

	log, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	log.Debug("cache hit")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "cache hit") {
		t.Error("expected debug entry in development mode")
	}
}
