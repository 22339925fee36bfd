package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetOutputWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "debug")
	defer func() { Logger = nil }()

	Info("search complete", "count", 2)
	Debug("debounce armed")

	out := buf.String()
	if !strings.Contains(out, "search complete") || !strings.Contains(out, "count=2") {
		t.Errorf("missing info line, got:\n%s", out)
	}
	if !strings.Contains(out, "debounce armed") {
		t.Errorf("debug level should be enabled, got:\n%s", out)
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, "warn")
	defer func() { Logger = nil }()

	Info("hidden")
	Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn should be written")
	}
}

func TestHelpersBeforeInit(t *testing.T) {
	Logger = nil
	Info("no-op")
	Error("no-op")
	if WithPrefix("x") == nil {
		t.Error("WithPrefix should never return nil")
	}
}

func TestInitCreatesDatedFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	if err := Init(dir, "info"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Close()
	Logger = nil

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "gitexplorer-") {
		t.Fatalf("unexpected log files: %v", entries)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "gitexplorer started") {
		t.Errorf("log file missing startup line:\n%s", data)
	}
}
