package scenario

import (
	"errors"
	"fmt"

	"github.com/latinkbd/kbdswitch/apitypes"
	"github.com/latinkbd/kbdswitch/internal/headless"
)

var ErrMismatch = errors.New("scenario expectations not met")

type StepResult struct {
	Index      int
	Note       string
	Event      apitypes.Event
	State      apitypes.SessionState
	Err        error
	Mismatches []string
}

func (r StepResult) Failed() bool { return len(r.Mismatches) > 0 }

type Report struct {
	Name  string
	Steps []StepResult
}

// Failures counts the steps with at least one mismatch.
func (r *Report) Failures() int {
	n := 0
	for _, s := range r.Steps {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Err returns ErrMismatch when any step failed.
func (r *Report) Err() error {
	if n := r.Failures(); n > 0 {
		return fmt.Errorf("%w: %s: %d of %d steps failed", ErrMismatch, r.Name, n, len(r.Steps))
	}
	return nil
}

// Run replays doc on a fresh session. Every step runs even after a
// mismatch; the returned error is only set when the session cannot start.
func Run(doc *Document, opts headless.Options) (*Report, error) {
	s, err := headless.NewSession("replay", doc.Session, opts)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer s.Close()

	report := &Report{Name: doc.Name, Steps: make([]StepResult, 0, len(doc.Steps))}
	for i, step := range doc.Steps {
		st, err := s.Apply(step.Event)
		res := StepResult{Index: i + 1, Note: step.Note, Event: step.Event, State: st, Err: err}
		res.Mismatches = check(step.Expect, st, err)
		report.Steps = append(report.Steps, res)
	}
	return report, nil
}

func check(e *Expect, st apitypes.SessionState, err error) []string {
	var out []string
	wantErr := e != nil && e.Error
	switch {
	case err != nil && !wantErr:
		out = append(out, fmt.Sprintf("unexpected error: %v", err))
	case err == nil && wantErr:
		out = append(out, "expected the event to fail")
	}
	if e == nil {
		return out
	}
	str := func(name, want, got string) {
		if want != "" && want != got {
			out = append(out, fmt.Sprintf("%s: want %q, got %q", name, want, got))
		}
	}
	flag := func(name string, want *bool, got bool) {
		if want != nil && *want != got {
			out = append(out, fmt.Sprintf("%s: want %v, got %v", name, *want, got))
		}
	}
	str("layout", e.Layout, st.Layout)
	str("mode", e.Mode, st.Mode)
	str("switchState", e.SwitchState, st.SwitchState)
	str("shiftState", e.ShiftState, st.ShiftState)
	str("theme", e.Theme, st.Theme)
	flag("shifted", e.Shifted, st.Shifted)
	flag("shiftLocked", e.ShiftLocked, st.ShiftLocked)
	flag("momentary", e.Momentary, st.Momentary)
	return out
}
