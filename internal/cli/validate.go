package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fjglira/mddoctest/internal/config"
	"github.com/fjglira/mddoctest/internal/runner"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the mddoctest.yaml configuration file",
	Long: `Loads the configuration file and checks for errors, missing required fields,
and invalid values. Script files are read and a sandbox is built once, so
conflicting globals and failing setup scripts are reported too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		if _, err := buildRunner(cfg, filepath.Dir(cfgFile)); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file %q is valid.\n", cfgFile)
		log.Debugf("Loaded config: %+v", cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// buildRunner wires the parser registry and engine for cfg.
func buildRunner(cfg *config.Config, baseDir string) (*runner.Runner, error) {
	rc, err := runner.FromConfig(cfg, baseDir, log)
	if err != nil {
		return nil, err
	}
	return runner.New(rc, log)
}
