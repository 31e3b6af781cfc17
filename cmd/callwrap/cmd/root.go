package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/callwrap/pkg/logging"
	"github.com/psantana5/callwrap/pkg/tracing"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
	otlpEndpoint string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "callwrap",
	Short: "CLI for issuing wrapped remote calls",
	Long: `callwrap is a command line interface for issuing cancellable,
timeout-bounded remote HTTP calls through the callwrap wrapper, and for
running a local stub upstream to exercise it against.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.callwrap/config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config or info)")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP HTTP endpoint for traces, e.g. localhost:4318 (tracing disabled when empty)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		// Search config in home directory with name ".callwrap/config" (without extension)
		configDir := filepath.Join(home, ".callwrap")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// Bind specific environment variables
	viper.BindEnv("timeout_millis", "CALLWRAP_TIMEOUT_MILLIS")
	viper.BindEnv("log_level", "CALLWRAP_LOG_LEVEL")

	// Config file is optional; env vars still apply when it is absent.
	// Precedence: flag > env > file > default.
	_ = viper.ReadInConfig()

	logLevel = resolveLogLevel(logLevel, viper.GetString("log_level"))
}

// resolveLogLevel picks the effective log level: flag value first, then the
// config/env value, then "info".
func resolveLogLevel(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if configValue != "" {
		return configValue
	}
	return "info"
}

// OutputFormat returns the requested output format
func OutputFormat() string {
	return outputFormat
}

// IsJSONOutput returns true if JSON output is requested
func IsJSONOutput() bool {
	return outputFormat == "json"
}

// NewCLILogger builds the logger shared by the CLI commands
func NewCLILogger() *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(logLevel), false)
}

// ConfiguredTimeoutMillis returns the timeout from config/env, 0 when unset
// (the wrapper then applies its own default).
func ConfiguredTimeoutMillis() int {
	return viper.GetInt("timeout_millis")
}

// NewTracingProvider initializes tracing for a CLI command. Spans stay
// in-process unless --otlp-endpoint is set.
func NewTracingProvider(logger *logging.Logger) (*tracing.Provider, error) {
	return tracing.InitTracer(tracing.Config{
		ServiceName:    "callwrap",
		ServiceVersion: Version,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        otlpEndpoint != "",
	}, logger)
}
