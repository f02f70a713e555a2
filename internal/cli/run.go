package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fjglira/mddoctest/internal/config"
	"github.com/fjglira/mddoctest/internal/domain"
	"github.com/fjglira/mddoctest/internal/report"
	"github.com/fjglira/mddoctest/internal/scanner"
)

var keepGoing bool

var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Run the code examples found in documentation",
	Long: `Runs every JavaScript example in the given documents or directories. With
no arguments the input directories of the configuration file are scanned.
Pass - to read the document paths from stdin, one per line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, baseDir, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("keep-going") {
			cfg.Execution.KeepGoing = keepGoing
		}
		return runDocs(cmd, cfg, baseDir, args)
	},
}

func init() {
	runCmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "report unparsable documents and continue")
	rootCmd.AddCommand(runCmd)
}

// runDocs wires all components, runs the documents and prints the report.
func runDocs(cmd *cobra.Command, cfg *config.Config, baseDir string, args []string) error {
	r, err := buildRunner(cfg, baseDir)
	if err != nil {
		return err
	}
	r.KeepGoing = cfg.Execution.KeepGoing

	rep := report.NewReporter(cmd.OutOrStdout(), cfgFile)
	r.OnResult = rep.Progress

	paths := args
	if len(args) == 1 && args[0] == "-" {
		paths, err = readPaths(cmd.InOrStdin())
		if err != nil {
			return domain.NewError("read", "stdin", 0, "failed to read document paths", err)
		}
	}
	if len(paths) == 0 {
		paths = cfg.Input.Directories
	}

	recursive := cfg.Input.Recursive == nil || *cfg.Input.Recursive
	docs, err := scanner.NewScanner(cfg.Input.Include, cfg.Input.Exclude, recursive).Scan(paths)
	if err != nil {
		return err
	}
	log.WithField("documents", len(docs)).Debug("Documents discovered")

	results, err := r.Run(docs)
	if err != nil {
		return err
	}

	summary := rep.Report(results)
	if !summary.OK() {
		return fmt.Errorf("%d of %d snippet(s) failed", summary.Failed, len(results))
	}
	return nil
}

// readPaths reads one path per line, ignoring blank lines.
func readPaths(in io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	return paths, sc.Err()
}
