package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fjglira/mddoctest/internal/config"
)

var (
	cfgFile string
	verbose bool
	log     = logrus.New()
)

// rootCmd is the base command for mddoctest.
var rootCmd = &cobra.Command{
	Use:   "mddoctest",
	Short: "Run the JavaScript examples in your documentation as tests",
	Long: `mddoctest reads documentation files (Markdown, AsciiDoc), extracts the
JavaScript code blocks and runs each one in an isolated sandbox. A block
fails when it throws; the failure is reported at its line in the document.

Modules, globals and hooks available to the examples are configured in a
YAML file (mddoctest.yaml).`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(cmd.ErrOrStderr())
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig returns the validated configuration and the directory script
// paths are relative to. A missing default config file means defaults; a
// missing file named with --config is an error.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		log.Debugf("No %s found, using defaults", cfgFile)
		return config.DefaultConfig(), ".", nil
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, "", err
	}

	if !verbose && cfg.Logging.Level != "" {
		if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
			log.SetLevel(level)
		}
	}
	return cfg, filepath.Dir(cfgFile), nil
}
