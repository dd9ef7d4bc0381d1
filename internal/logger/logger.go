package logger

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Fields carries structured context for a log line.
type Fields map[string]interface{}

type logEntry struct {
	Timestamp string `json:"ts"`
	Level     string `json:"level"`
	Message   string `json:"msg"`
	Fields    Fields `json:"fields,omitempty"`
}

var (
	mu     sync.Mutex
	output = log.New(os.Stdout, "", 0)
)

// SetOutput redirects log lines, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = log.New(w, "", 0)
	mu.Unlock()
}

func emit(level, msg string, fields Fields) {
	entry := logEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		// unmarshalable field value; keep the message
		entry.Fields = Fields{"marshal_error": err.Error()}
		data, _ = json.Marshal(entry)
	}
	mu.Lock()
	output.Println(string(data))
	mu.Unlock()
}

func Info(msg string, fields Fields) {
	emit("info", msg, fields)
}

func Warn(msg string, fields Fields) {
	emit("warn", msg, fields)
}

func Error(msg string, fields Fields) {
	emit("error", msg, fields)
}
