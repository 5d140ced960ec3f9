// Package cli implements the larder command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/larder/internal/logging"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitAllFailed = 2
)

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	logLevel  string
	logFormat string
}

// app is the state shared by subcommands once configuration is loaded.
type app struct {
	flags  rootFlags
	v      *viper.Viper
	cfg    types.Config
	logger *slog.Logger
}

// NewRootCmd creates the top-level "larder" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "larder",
		Short: "Export embedded SQLite databases to JSON or YAML documents",
		Long: "Larder dumps every table of one or more SQLite database files into one\n" +
			"structured document per database, keyed by table name.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.larder)")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(newExportCmd(a))
	root.AddCommand(newTablesCmd(a))
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// load reads configuration for cmd and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	v, err := newViper(a.flags.configDir)
	if err != nil {
		return usageError(err)
	}
	bindFlags(v, cmd)

	cfg, err := loadConfig(v)
	if err != nil {
		return usageError(err)
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return usageError(err)
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Debug("loaded config", "path", used)
	}

	a.v, a.cfg, a.logger = v, cfg, logger
	return nil
}

func usageError(err error) error {
	return &exitError{code: exitUserError, err: err}
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(NewRootCmd(), os.Args[1:], os.Stderr))
}

// run executes root with args and maps the outcome to an exit code.
func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintf(stderr, "larder: %s\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}
