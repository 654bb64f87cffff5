package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/latinkbd/kbdswitch/internal/config"
	"github.com/latinkbd/kbdswitch/internal/configpaths"
	"github.com/latinkbd/kbdswitch/internal/log"
	"github.com/latinkbd/kbdswitch/internal/version"

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(findUserConfig(args))

	var cli config.CLI
	parser := kong.Must(&cli,
		kong.Name("kbdswitch"),
		kong.Description("Headless keyboard switcher sessions"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		// Earlier files win over later ones; flags and env override all of them.
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)
	ctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	logger, closers, err := log.SetupLogger(cli.Log.Level, cli.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "kbdswitch: set up logger: %v\n", err)
		return 2
	}
	events, traceFile := openEventLog(cli.Log, logger.Warn)
	if traceFile != nil {
		closers = append(closers, traceFile)
	}
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	ctx.Bind(logger)
	ctx.BindTo(events, (*log.EventLogger)(nil))
	if err := ctx.Run(); err != nil {
		logger.Error("command failed", "command", ctx.Command(), "error", err)
		return 1
	}
	return 0
}

// openEventLog picks where applied events are traced: the trace file when
// set, stdout at trace level, nowhere otherwise.
func openEventLog(cfg config.Log, warn func(msg string, args ...any)) (log.EventLogger, io.Closer) {
	switch {
	case cfg.TraceFile != "":
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			warn("event trace disabled", "file", cfg.TraceFile, "error", err)
			return log.NewEventLogger(nil), nil
		}
		return log.NewEventLogger(f), f
	case strings.EqualFold(cfg.Level, "trace"):
		return log.NewEventLogger(os.Stdout), nil
	default:
		return log.NewEventLogger(nil), nil
	}
}

// findUserConfig looks for --config ahead of kong so the file can feed the
// configuration loaders.
func findUserConfig(args []string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv("KBDSWITCH_CONFIG")
}
