package log

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/latinkbd/kbdswitch/apitypes"
)

// EventLogger writes one line per event applied to a session.
type EventLogger interface {
	Record(session string, ev apitypes.Event, before, after apitypes.SessionState)
}

type eventLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewEventLogger returns an EventLogger writing to w. A nil writer yields a
// logger that drops everything.
func NewEventLogger(w io.Writer) EventLogger {
	return &eventLogger{w: w, now: time.Now}
}

// Record emits "<time> <session> <event> switch=a->b shift=a->b kbd=a->b".
func (l *eventLogger) Record(session string, ev apitypes.Event, before, after apitypes.SessionState) {
	if l.w == nil {
		return
	}
	line := fmt.Sprintf("%s %s %s switch=%s->%s shift=%s->%s kbd=%s->%s\n",
		l.now().Format("2006/01/02 15:04:05.000"),
		session,
		describe(ev),
		before.SwitchState, after.SwitchState,
		before.ShiftState, after.ShiftState,
		kind(before), kind(after),
	)
	l.mu.Lock()
	_, _ = io.WriteString(l.w, line)
	l.mu.Unlock()
}

func describe(ev apitypes.Event) string {
	switch ev.Type {
	case apitypes.EventKey:
		if code, err := ev.KeyCode(); err == nil {
			return fmt.Sprintf("key(%d)", code)
		}
	case apitypes.EventPointers:
		return fmt.Sprintf("pointers(%d)", ev.Count)
	case apitypes.EventGeometry:
		return fmt.Sprintf("geometry(%d,%s)", ev.Width, ev.Orientation)
	case apitypes.EventPreference:
		return fmt.Sprintf("preference(%s=%s)", ev.Key, ev.PrefValue)
	}
	return ev.Type
}

func kind(s apitypes.SessionState) string {
	if s.Layout == "" {
		return "-"
	}
	return s.Layout
}
