package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLoggerRoutesByLevel(t *testing.T) {
	var stdout, stderr bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "lostfound.log")

	log, cleanup, err := setupLogger("info", logPath, &stdout, &stderr)
	if err != nil {
		t.Fatalf("setupLogger: %v", err)
	}
	log.Debug("hidden")
	log.Info("hello")
	log.Error("broken")
	cleanup()

	if !strings.Contains(stdout.String(), "hello") {
		t.Errorf("expected info on stdout, got %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "broken") {
		t.Error("expected errors to stay off stdout")
	}
	if !strings.Contains(stderr.String(), "broken") {
		t.Errorf("expected error on stderr, got %q", stderr.String())
	}
	if strings.Contains(stdout.String()+stderr.String(), "hidden") {
		t.Error("expected debug to be filtered")
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 2 {
		t.Errorf("expected 2 JSON lines in log file, got %d", lines)
	}
}

func TestSetupLoggerRejectsBadLevel(t *testing.T) {
	if _, _, err := setupLogger("loud", "", &bytes.Buffer{}, &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown level")
	}
}
