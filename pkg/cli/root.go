package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/routeset/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool
	logLevel   string
	logFormat  string

	// logger is built from the log flags before any subcommand runs.
	logger = logging.Nop()

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "routeset",
	Short: "routeset routes HTTP requests to endpoints described in route files",
	Long: `routeset matches HTTP requests against a table of endpoints.

Each request path yields an ordered set of candidate endpoints. Policies for
host, method, headers, query, token claims, the body (raw, JSONPath, XPath,
GraphQL operation) and expressions narrow the set, fan-outs expand it, and
the first valid candidate wins.`,
	SilenceUsage:      true,
	SilenceErrors:     true, // We handle errors in Main()
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.SetHelpTemplate(rootCmd.HelpTemplate() + `
Every flag can also be set with a ROUTESET_ environment variable, e.g.
ROUTESET_CONFIG=routes.yaml or ROUTESET_LOG_LEVEL=debug.
`)
}

func preRun(cmd *cobra.Command, _ []string) error {
	if err := applyEnv(cmd); err != nil {
		return err
	}
	return setupLogging(cmd)
}

func setupLogging(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(logFormat)
	if err != nil {
		return err
	}
	logger = logging.New(logging.Config{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs the CLI and exits the process.
func Execute() {
	os.Exit(Main())
}

// componentLogger returns the CLI logger scoped to a component.
func componentLogger(name string) *slog.Logger {
	return logger.With("component", name)
}
