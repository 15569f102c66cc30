package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileLoggerHonoursLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "brain.log")
	log, closeFn, err := New(Options{Level: "warn", File: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("hidden")
	log.Warn("shown", "pos", 3)
	if err := closeFn(); err != nil {
		t.Fatalf("close error = %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if strings.Contains(string(b), "hidden") || !strings.Contains(string(b), "msg=shown pos=3") {
		t.Fatalf("log = %q", b)
	}
}

func TestVerboseLogsDebugToStderr(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Level: "error", Verbose: true, Stderr: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Debug("fetch", "rows", 4)
	if !strings.Contains(buf.String(), "level=DEBUG msg=fetch rows=4") {
		t.Fatalf("stderr = %q", buf.String())
	}
	Discard().Error("nothing")
}
