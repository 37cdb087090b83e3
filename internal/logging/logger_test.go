package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backmassage/supermin/internal/config"
)

func TestNewLogger_NoFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	l, err := NewLogger(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.Info("test message")
}

func TestNewLogger_WithFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.ColorMode = config.ColorNever
	cfg.LogFile = filepath.Join(dir, "logs", "supermin.log")
	l, err := New(&cfg, &bytes.Buffer{}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file")
	l.Success("done")
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(cfg.LogFile)
	if !bytes.Contains(b, []byte("[INFO] to file")) {
		t.Errorf("log file content: %s", string(b))
	}
	if !bytes.Contains(b, []byte("[SUCCESS] done")) {
		t.Errorf("log file content: %s", string(b))
	}
}

func TestLogger_RoutesErrorsToStderr(t *testing.T) {
	cfg := config.DefaultConfig()
	var stdout, stderr bytes.Buffer
	l, err := New(&cfg, &stdout, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	l.Info("hello %s", "world")
	l.Warn("careful")
	l.Error("broken")

	if !strings.Contains(stdout.String(), "[INFO] hello world") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "[WARN] careful") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "broken") {
		t.Errorf("error leaked to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "[ERROR] broken") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLogger_DebugNeedsVerbose(t *testing.T) {
	cfg := config.DefaultConfig()
	var stdout bytes.Buffer
	l, err := New(&cfg, &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hidden")
	l.Close()
	if strings.Contains(stdout.String(), "hidden") {
		t.Errorf("debug printed without verbose: %q", stdout.String())
	}

	cfg.Verbose = true
	stdout.Reset()
	l, err = New(&cfg, &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("shown")
	l.Close()
	if !strings.Contains(stdout.String(), "[DEBUG] shown") {
		t.Errorf("debug missing with verbose: %q", stdout.String())
	}
}
