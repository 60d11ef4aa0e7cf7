package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"execauth/internal/config"
	"execauth/internal/execcred"
	"execauth/pkg/logging"
)

// Exit codes for CLI commands. These follow common conventions so scripts
// can tell configuration problems apart from plugin failures.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfig indicates the execauth configuration is invalid.
	ExitCodeConfig = 2
	// ExitCodePlugin indicates the exec plugin failed or produced invalid output.
	ExitCodePlugin = 3
)

// Global flags shared by all subcommands.
var (
	configFile   string
	logLevelFlag string
)

// rootCmd represents the base command for the execauth application.
var rootCmd = &cobra.Command{
	Use:   "execauth",
	Short: "Obtain cluster credentials from an exec plugin",
	Long: `execauth obtains short-lived bearer tokens (or client TLS material)
for authenticating to a remote API server by invoking an external,
user-configured credential plugin and caching the result until it
nears expiry.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Logs go to stderr so stdout stays machine-readable.
		logging.InitForCLI(parseLogLevel(logLevelFlag), os.Stderr)
	},
}

// SetVersion sets the version for the root command.
// Called from the main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "execauth version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps the error taxonomy to semantic exit codes.
func getExitCode(err error) int {
	var configErr *execcred.ConfigurationError
	if errors.As(err, &configErr) {
		return ExitCodeConfig
	}

	var execErr *execcred.ExecutionError
	if errors.As(err, &execErr) {
		return ExitCodePlugin
	}

	var validationErr *execcred.ValidationError
	if errors.As(err, &validationErr) {
		return ExitCodePlugin
	}

	return ExitCodeError
}

func parseLogLevel(level string) logging.LogLevel {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// loadConfig loads and validates the configuration honoring the --config flag.
func loadConfig() (config.Config, error) {
	path := configFile
	if path == "" {
		path = config.DefaultConfigFilePath()
	}

	cfg, err := config.LoadConfigFile(path)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.config/execauth/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())
}
