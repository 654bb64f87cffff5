// Package config declares the kbdswitch command line.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/latinkbd/kbdswitch/internal/cmd"
)

// CLI is the root kong command.
type CLI struct {
	Version kong.VersionFlag `help:"Print the version and exit"`
	Config  string           `help:"Path to a JSON, YAML or TOML configuration file" type:"path" env:"KBDSWITCH_CONFIG"`
	Log     Log              `embed:"" prefix:"log."`

	Server      cmd.Server        `cmd:"" help:"Serve headless keyboard sessions over TCP"`
	Replay      cmd.Replay        `cmd:"" help:"Run scenario files against a headless session"`
	Interactive cmd.Interactive   `cmd:"" help:"Drive a keyboard session from the terminal"`
	ConfigCmd   cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration file helpers"`
	Install     cmd.Install       `cmd:"" help:"Install the server as a system service"`
	Uninstall   cmd.Uninstall     `cmd:"" help:"Remove the system service"`
}

// Log configures the process logger.
type Log struct {
	Level     string `help:"Log level" enum:"trace,debug,info,warn,warning,error" default:"info" env:"KBDSWITCH_LOG_LEVEL"`
	File      string `help:"Also write logs to this file" type:"path" env:"KBDSWITCH_LOG_FILE"`
	TraceFile string `help:"Write one line per applied keyboard event to this file" type:"path" env:"KBDSWITCH_LOG_TRACE_FILE"`
}
