package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestEmit_JSONLine(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Warn("catalog: source failed", Fields{"source": "backend", "attempt": 2})

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, line)
	}
	if entry["level"] != "warn" {
		t.Errorf("expected level warn, got %v", entry["level"])
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok || fields["source"] != "backend" {
		t.Errorf("expected source field, got %v", entry["fields"])
	}
}

func TestEmit_UnmarshalableField(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Error("bad field", Fields{"ch": make(chan int)})

	if !strings.Contains(buf.String(), "marshal_error") {
		t.Errorf("expected marshal_error fallback, got %s", buf.String())
	}
}
