package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		wantErr  bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		lvl, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if lvl != tt.expected {
			t.Errorf("ParseLevel(%q) = %d, want %d", tt.input, lvl, tt.expected)
		}
	}
}

func TestLoggerFormatAndFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo, "run42")

	l.Debug("hidden %d", 1)
	l.Info("Processing %s", "https://example.com/v")
	l.Warn("Move not possible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	pattern := regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2} \[INFO\] 'run42' - Processing https://example.com/v$`)
	if !pattern.MatchString(lines[0]) {
		t.Errorf("unexpected line format: %q", lines[0])
	}
	if !strings.Contains(lines[1], "[WARN]") {
		t.Errorf("expected WARN line, got %q", lines[1])
	}

	if l.Enabled(LevelDebug) || !l.Enabled(LevelInfo) || !l.Enabled(LevelError) {
		t.Error("Enabled() does not follow the configured level")
	}
	if l.RunID() != "run42" {
		t.Errorf("RunID() = %q, want run42", l.RunID())
	}
	if Discard().Enabled(LevelError) {
		t.Error("a discard logger should have every level disabled")
	}
}

func TestLoggerWrite(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelTrace, "")

	n, err := l.Write([]byte("http: TLS handshake error\n"))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != len("http: TLS handshake error\n") {
		t.Errorf("Write() = %d, want full length", n)
	}
	if !strings.HasSuffix(strings.TrimSpace(buf.String()), "- http: TLS handshake error") {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	l.Write([]byte("   \n"))
	if buf.Len() != 0 {
		t.Errorf("blank writes should be dropped, got %q", buf.String())
	}
}

func TestOpenAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	for i := 0; i < 2; i++ {
		l, err := Open(path, LevelInfo, false, "id")
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		l.Info("line %d", i)
		if err := l.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("expected 2 appended lines, got %d: %q", got, data)
	}
}
