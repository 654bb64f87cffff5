package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/latinkbd/kbdswitch/internal/headless"
	"github.com/latinkbd/kbdswitch/internal/log"
	"github.com/latinkbd/kbdswitch/internal/prefs"
	"github.com/latinkbd/kbdswitch/internal/scenario"
	"github.com/latinkbd/kbdswitch/switcher"
)

type Replay struct {
	Files    []string        `arg:"" help:"Scenario files (.json, .yaml, .yml or .toml)" type:"existingfile"`
	Switcher switcher.Config `embed:"" prefix:"switcher."`
	Prefs    string          `help:"Preference file used as the base of every replayed session" type:"path" env:"KBDSWITCH_PREFS"`
	Verbose  bool            `help:"Print every step, not only the failing ones" short:"v"`
}

// Run is called by Kong when the replay command is executed.
func (r *Replay) Run(logger *slog.Logger, events log.EventLogger) error {
	return r.Execute(os.Stdout, logger, events)
}

// Execute replays every file and writes a report to w. All files run; the
// returned error joins the failures.
func (r *Replay) Execute(w io.Writer, logger *slog.Logger, events log.EventLogger) error {
	if len(r.Files) == 0 {
		return errors.New("no scenario files given")
	}
	opts := headless.Options{Switcher: r.Switcher, Events: events, Logger: logger}
	if r.Prefs != "" {
		store, err := prefs.Open(r.Prefs)
		if err != nil {
			return err
		}
		opts.BasePrefs = store
	}

	var errs []error
	for _, path := range r.Files {
		if err := r.replayFile(w, path, opts, logger); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Replay) replayFile(w io.Writer, path string, opts headless.Options, logger *slog.Logger) error {
	doc, err := scenario.Load(path)
	if err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", path, err)
		return err
	}
	name := doc.Name
	if name == "" {
		name = filepath.Base(path)
	}
	logger.Debug("replaying scenario", "file", path, "steps", len(doc.Steps))

	report, err := scenario.Run(doc, opts)
	if err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", name, err)
		return fmt.Errorf("%s: %w", path, err)
	}
	for _, step := range report.Steps {
		if !step.Failed() && !r.Verbose {
			continue
		}
		status := "ok  "
		if step.Failed() {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  %s %3d %-15s layout=%s state=%s", status, step.Index, step.Event.Type, step.State.Layout, step.State.SwitchState)
		if step.Note != "" {
			fmt.Fprintf(w, " (%s)", step.Note)
		}
		fmt.Fprintln(w)
		for _, m := range step.Mismatches {
			fmt.Fprintf(w, "         %s\n", m)
		}
	}
	if err := report.Err(); err != nil {
		fmt.Fprintf(w, "FAIL %s: %d of %d steps failed\n", name, report.Failures(), len(report.Steps))
		return err
	}
	fmt.Fprintf(w, "ok   %s: %d steps\n", name, len(report.Steps))
	return nil
}
