package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{"debug": DebugLevel, "warn": WarnLevel, "loud": InfoLevel, "": InfoLevel}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQuietLoggerWritesFileOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	l := New(Config{Level: InfoLevel, OutputPath: path, MaxSize: 1, Quiet: true})
	l.Named("session").Info("saved", String("video", "v1"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	line := string(data)
	if !strings.Contains(line, `"logger":"session"`) || !strings.Contains(line, `"video":"v1"`) {
		t.Fatalf("log line = %s", line)
	}
}

func TestNamedBeforeInitIsNop(t *testing.T) {
	if Named("x") == nil {
		t.Fatal("nil logger")
	}
}
