// Package testlog provides a discarding logrus logger whose entries can be
// checked by tests.
package testlog

import (
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

// Hook records every entry fired on the logger it is installed on.
type Hook struct {
	mu      sync.Mutex
	entries []logrus.Entry
}

// New sets up a test logger that produces no output. Use the returned hook
// to make assertions about what was logged.
func New() (*logrus.Logger, *Hook) {
	l := logrus.New()
	l.Out = io.Discard
	l.SetLevel(logrus.DebugLevel)

	hook := new(Hook)
	l.Hooks.Add(hook)
	return l, hook
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *Hook) Fire(e *logrus.Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := make(logrus.Fields, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	h.entries = append(h.entries, logrus.Entry{
		Logger:  e.Logger,
		Time:    e.Time,
		Level:   e.Level,
		Data:    data,
		Message: e.Message,
	})
	return nil
}

// Entries returns a copy of the recorded entries.
func (h *Hook) Entries() []logrus.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]logrus.Entry(nil), h.entries...)
}

// Reset forgets all recorded entries.
func (h *Hook) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// String renders all entries with the text formatter, space separated.
func (h *Hook) String() string {
	f := &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}

	var out []string
	for _, e := range h.Entries() {
		e := e
		if b, err := f.Format(&e); err == nil {
			out = append(out, strings.TrimSpace(string(b)))
		}
	}
	return strings.Join(out, " ")
}

// CheckContained fails tb unless at least one of strs was logged.
func (h *Hook) CheckContained(tb testing.TB, strs ...string) {
	tb.Helper()

	s := h.String()
	for _, str := range strs {
		if strings.Contains(s, str) {
			return
		}
	}
	if len(strs) > 0 {
		tb.Fatalf("got entries:\n%v\nexpected to find one of:\n%v", s, strs)
	}
}

// CheckAllContained fails tb unless all of strs were logged.
func (h *Hook) CheckAllContained(tb testing.TB, strs ...string) {
	tb.Helper()

	s := h.String()
	for _, str := range strs {
		if !strings.Contains(s, str) {
			tb.Fatalf("got entries:\n%v\nexpected to find `%s`", s, str)
		}
	}
}

// CheckNotContained fails tb if any of strs was logged.
func (h *Hook) CheckNotContained(tb testing.TB, strs ...string) {
	tb.Helper()

	s := h.String()
	for _, str := range strs {
		if strings.Contains(s, str) {
			tb.Fatalf("got `%s`, expected none in %s", str, s)
		}
	}
}

// CheckLevelCount fails tb unless exactly n entries were logged at level.
func (h *Hook) CheckLevelCount(tb testing.TB, level logrus.Level, n int) {
	tb.Helper()

	var got int
	for _, e := range h.Entries() {
		if e.Level == level {
			got++
		}
	}
	if got != n {
		tb.Fatalf("got %d %s entries, want %d: %s", got, level, n, h.String())
	}
}
