package api

import "time"

// ServerConfig represents the server subcommand configuration.
type ServerConfig struct {
	Addr              string        `help:"API server listen address" default:":3300" env:"KBDSWITCH_API_ADDR"`
	Password          string        `help:"Require clients to authenticate with this password; empty disables authentication" env:"KBDSWITCH_API_PASSWORD"`
	ConnectionTimeout time.Duration `help:"Idle timeout for request connections; streams are exempt" default:"30s" env:"KBDSWITCH_API_CONNECTION_TIMEOUT"`
}
