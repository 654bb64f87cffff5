//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
)

const (
	unitName = "kbdswitch.service"
	unitPath = "/etc/systemd/system/" + unitName
)

var unitTemplate = template.Must(template.New("unit").Funcs(template.FuncMap{"quote": strconv.Quote}).Parse(`[Unit]
Description=kbdswitch keyboard session server
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{quote .Exe}} server
WorkingDirectory={{.Dir}}
{{- if .Config}}
Environment=KBDSWITCH_CONFIG={{.Config}}
{{- end}}
Restart=on-failure

[Install]
WantedBy=multi-user.target
`))

func systemdUnitContent(exePath, configPath string) string {
	var b strings.Builder
	_ = unitTemplate.Execute(&b, struct{ Exe, Dir, Config string }{exePath, filepath.Dir(exePath), configPath})
	return b.String()
}

func install(logger *slog.Logger, configPath string) error {
	exe, err := currentExecutable()
	if err != nil {
		return err
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return fmt.Errorf("resolve service config: %w", err)
		}
	}
	if err := os.WriteFile(unitPath, []byte(systemdUnitContent(exe, configPath)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", unitPath, err)
	}
	for _, step := range [][]string{{"daemon-reload"}, {"enable", unitName}, {"restart", unitName}} {
		if err := systemctl(step...); err != nil {
			return err
		}
	}
	logger.Info("service installed", "unit", unitPath, "exe", exe, "config", configPath)
	return nil
}

// uninstall keeps going after a failed step so a half-installed unit is
// still cleaned up.
func uninstall(logger *slog.Logger) error {
	var errs []error
	for _, step := range [][]string{{"stop", unitName}, {"disable", unitName}} {
		errs = append(errs, systemctl(step...))
	}
	if err := os.Remove(unitPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		errs = append(errs, err)
	}
	errs = append(errs, systemctl("daemon-reload"))
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logger.Info("service removed", "unit", unitPath)
	return nil
}

func systemctl(args ...string) error {
	out, err := exec.Command("systemctl", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}
