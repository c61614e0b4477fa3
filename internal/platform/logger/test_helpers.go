package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer collects JSON log lines written by concurrent goroutines,
// such as the outbox relay and HTTP handlers in the same test.
type TestLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *TestLogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// GetLogEntries decodes one JSON object per non-blank line.
func (b *TestLogBuffer) GetLogEntries() ([]map[string]interface{}, error) {
	var entries []map[string]interface{}
	sc := bufio.NewScanner(strings.NewReader(b.String()))
	for line := 1; sc.Scan(); line++ {
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("log line %d: %w", line, err)
		}
		entries = append(entries, entry)
	}
	return entries, sc.Err()
}

func newBufferedLogger() (*TestLogBuffer, *slog.Logger) {
	buf := &TestLogBuffer{}
	return buf, slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// SetupTestLogger makes a buffered debug logger the slog default for the
// duration of the test.
func SetupTestLogger(t *testing.T) (*TestLogBuffer, *slog.Logger) {
	t.Helper()

	buf, l := newBufferedLogger()
	previous := slog.Default()
	slog.SetDefault(l)
	t.Cleanup(func() { slog.SetDefault(previous) })
	return buf, l
}

// NewTestContext returns a context whose logger writes to the returned
// buffer, leaving the slog default alone so parallel tests stay isolated.
func NewTestContext(t *testing.T) (context.Context, *TestLogBuffer) {
	t.Helper()

	buf, l := newBufferedLogger()
	return WithLogger(context.Background(), l), buf
}

// CaptureLogs returns whatever fn logs through the logger it is handed.
func CaptureLogs(t *testing.T, fn func(*slog.Logger)) string {
	t.Helper()

	buf, l := newBufferedLogger()
	fn(l)
	return buf.String()
}

func AssertLogContains(t *testing.T, buf *TestLogBuffer, content string) {
	t.Helper()

	if logs := buf.String(); !strings.Contains(logs, content) {
		t.Errorf("log does not contain %q\nlog:\n%s", content, logs)
	}
}

// AssertLogField passes when at least one entry has field set to expected.
// Numbers decode as float64.
func AssertLogField(t *testing.T, buf *TestLogBuffer, field string, expected interface{}) {
	t.Helper()

	entries, err := buf.GetLogEntries()
	if err != nil {
		t.Fatalf("parse log entries: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no log entries written")
	}
	for _, entry := range entries {
		if entry[field] == expected {
			return
		}
	}
	t.Errorf("no log entry has %s=%v", field, expected)
}
