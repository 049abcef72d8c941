// Package cli implements the comfortcast command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	urfave "github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"comfortcast/config"
	"comfortcast/logging"
	"comfortcast/ml"
)

const (
	appConfigKey = "app-config"

	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"

	exitGeneric      = 1
	exitInvalidInput = 2
	exitNotFound     = 3
	exitIncompatible = 4
	exitSchema       = 5
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	configFlag = &urfave.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the YAML config file",
		Value:   config.DefaultPath,
		EnvVars: []string{"COMFORTCAST_CONFIG"},
	}

	logLevelFlag = &urfave.StringFlag{
		Name:  "log-level",
		Usage: "Log level [debug, info, warn, error] (overrides config)",
	}

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Shorthand for --log-level debug",
	}

	modelsDirFlag = &urfave.StringFlag{
		Name:  "models-dir",
		Usage: "Directory holding model_<ID>.json artifacts (overrides config)",
	}

	outputFlag = &urfave.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format [text, json, yaml]",
		Value:   formatText,
	}
)

// Execute runs the CLI and exits with a code describing the failure, if any.
func Execute() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

type appConfig struct {
	Config *config.Config
	Logger *zap.Logger
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

func newApp(stdout, stderr io.Writer) *urfave.App {
	return &urfave.App{
		Name:            "comfortcast",
		Version:         fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:        time.Now(),
		HideHelpCommand: true,
		Usage:           "Predict occupant thermal comfort from a pre-trained model",
		UsageText:       "comfortcast [global options] " + argsUsage(),
		ArgsUsage:       argsUsage(),
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags: []urfave.Flag{
			configFlag,
			logLevelFlag,
			debugFlag,
			modelsDirFlag,
			outputFlag,
		},
		Commands: []*urfave.Command{
			predictCmd,
			serveCmd,
		},
		Before: func(c *urfave.Context) error {
			cfg, err := config.Load(c.String(configFlag.Name), c.IsSet(configFlag.Name))
			if err != nil {
				return err
			}
			if dir := c.String(modelsDirFlag.Name); dir != "" {
				cfg.Models.Dir = dir
			}
			if level := c.String(logLevelFlag.Name); level != "" {
				cfg.Log.Level = level
			}
			if c.Bool(debugFlag.Name) {
				cfg.Log.Level = "debug"
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				Config: cfg,
				Logger: logging.New(cfg.Log, c.App.ErrWriter),
			}
			return nil
		},
		After: func(c *urfave.Context) error {
			if cfg, ok := c.App.Metadata[appConfigKey].(*appConfig); ok && cfg.Logger != nil {
				cfg.Logger.Sync()
			}
			return nil
		},
		Action: func(c *urfave.Context) error {
			if c.NArg() == 0 {
				return urfave.ShowAppHelp(c)
			}
			return runPredict(c)
		},
		OnUsageError:   usageError,
		ExitErrHandler: func(*urfave.Context, error) {},
	}
}

// usageError reports flag parsing failures as invalid input without printing help.
// A negative first argument parses as an unknown flag.
func usageError(_ *urfave.Context, err error, _ bool) error {
	return fmt.Errorf("%w: %v (use -- before a negative first argument)", ml.ErrInvalidInput, err)
}

func argsUsage() string {
	usage := ""
	for i, name := range ml.ArgNames() {
		if i > 0 {
			usage += " "
		}
		usage += name
	}
	return usage
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, ml.ErrInvalidInput):
		return exitInvalidInput
	case errors.Is(err, ml.ErrArtifactNotFound):
		return exitNotFound
	case errors.Is(err, ml.ErrIncompatibleArtifact):
		return exitIncompatible
	case errors.Is(err, ml.ErrSchemaMismatch):
		return exitSchema
	default:
		return exitGeneric
	}
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML, "yml":
		return yaml.NewEncoder(w).Encode(v)
	case formatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "  ")
		return e.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
