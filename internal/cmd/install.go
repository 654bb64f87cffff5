package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Install registers the server as a system service.
type Install struct {
	ServiceConfig string `help:"Configuration file the service loads" type:"existingfile" name:"service-config"`
}

func (c *Install) Run(logger *slog.Logger) error { return install(logger, c.ServiceConfig) }

// Uninstall stops and removes the system service.
type Uninstall struct{}

func (c *Uninstall) Run(logger *slog.Logger) error { return uninstall(logger) }

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
