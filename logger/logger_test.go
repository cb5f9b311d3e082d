package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLast(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry LogEntry
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestLogWritesJSONEntry(t *testing.T) {
	var buf bytes.Buffer
	l := New(DEBUG, &buf)
	l.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	l.Info("order shipped", map[string]interface{}{"order_id": "o-1", "count": 2})

	entry := decodeLast(t, &buf)
	if entry.Level != "INFO" || entry.Message != "order shipped" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Timestamp != "2024-01-02T03:04:05Z" {
		t.Fatalf("timestamp = %s", entry.Timestamp)
	}
	if entry.Fields["order_id"] != "o-1" {
		t.Fatalf("fields = %v", entry.Fields)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(WARN, &buf)

	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below WARN, got %q", buf.String())
	}

	l.Error("shown")
	if entry := decodeLast(t, &buf); entry.Level != "ERROR" {
		t.Fatalf("level = %s", entry.Level)
	}
}

func TestSensitiveFieldsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	l := New(DEBUG, &buf)

	l.Warn("sign in", map[string]interface{}{
		"seller_id":    "s1",
		"password":     "hunter22",
		"DATABASE_URL": "postgres://u:p@db/x",
		"err":          errors.New("boom"),
	})

	entry := decodeLast(t, &buf)
	if entry.Fields["password"] != "[REDACTED]" || entry.Fields["DATABASE_URL"] != "[REDACTED]" {
		t.Fatalf("credentials leaked: %v", entry.Fields)
	}
	if entry.Fields["seller_id"] != "s1" {
		t.Fatalf("seller_id = %v", entry.Fields["seller_id"])
	}
	if entry.Fields["err"] != "boom" {
		t.Fatalf("err = %v", entry.Fields["err"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"", INFO, false},
		{"debug", DEBUG, false},
		{"Warning", WARN, false},
		{"ERROR", ERROR, false},
		{"loud", INFO, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
