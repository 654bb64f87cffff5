//go:build !linux

package cmd

import (
	"errors"
	"log/slog"
)

func install(*slog.Logger, string) error { return errors.ErrUnsupported }

func uninstall(*slog.Logger) error { return errors.ErrUnsupported }
