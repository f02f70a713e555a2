// Package runner wires parsing and execution into the single entry point
// that turns document paths into results.
package runner

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/mddoctest/internal/domain"
	"github.com/fjglira/mddoctest/internal/engine"
	"github.com/fjglira/mddoctest/internal/parser"
)

// Config is everything RunCore needs besides the paths.
type Config struct {
	Extract parser.Options
	Engine  engine.Options
}

// RunCore parses and runs each document in order and returns the flattened
// results. It logs nothing.
func RunCore(paths []string, cfg Config) ([]domain.Result, error) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	r, err := New(cfg, log)
	if err != nil {
		return nil, err
	}
	return r.Run(paths)
}

// New builds the parser registry and engine described by cfg. Every
// configuration problem is returned here, wrapping domain.ErrConfiguration.
func New(cfg Config, log logrus.FieldLogger) (*Runner, error) {
	registry, err := parser.NewDefaultRegistry(cfg.Extract)
	if err != nil {
		return nil, configError("", "invalid extract options", err)
	}
	eng, err := engine.New(cfg.Engine, log)
	if err != nil {
		return nil, err
	}
	return NewRunner(registry, eng, log), nil
}

// Runner is the top-level orchestrator.
type Runner struct {
	registry parser.ParserRegistry
	engine   *engine.Engine
	log      logrus.FieldLogger

	// OnResult, when set, is called after each snippet result is recorded.
	OnResult func(domain.Result)
	// KeepGoing logs unparsable documents and continues with the next one
	// instead of returning the parse error.
	KeepGoing bool
}

// NewRunner creates a Runner with all dependencies.
func NewRunner(r parser.ParserRegistry, e *engine.Engine, log logrus.FieldLogger) *Runner {
	return &Runner{
		registry: r,
		engine:   e,
		log:      log,
	}
}

// Run reads, parses and executes each document: read → parse → execute.
// Documents and snippets are processed sequentially in the given order.
func (r *Runner) Run(paths []string) ([]domain.Result, error) {
	var results []domain.Result

	for _, path := range paths {
		r.log.Debugf("Processing: %s", path)

		content, err := os.ReadFile(path)
		if err != nil {
			return results, domain.NewErrorWithSuggestion("read", path, 0,
				"failed to read file",
				"check that the file exists and has read permissions",
				err)
		}

		docResults, err := r.RunContent(path, content)
		results = append(results, docResults...)
		if err != nil {
			return results, err
		}
	}

	r.log.Infof("Evaluated %d snippet(s) from %d document(s)", len(results), len(paths))
	return results, nil
}

// RunContent parses and executes one document that is already in memory.
// The parser is chosen by the extension of name; names without a known
// extension are read as Markdown.
func (r *Runner) RunContent(name string, content []byte) ([]domain.Result, error) {
	p, err := r.registry.ParserFor(filepath.Ext(name))
	if err != nil {
		r.log.Warnf("No parser for %s, skipping", name)
		return nil, nil
	}

	doc, err := p.Parse(name, content)
	if err != nil {
		if r.KeepGoing {
			r.log.WithError(err).Errorf("Skipping unparsable document %s", name)
			return nil, nil
		}
		return nil, err
	}

	if len(doc.Snippets) == 0 {
		r.log.Debugf("No snippets found in %s", name)
		return nil, nil
	}
	r.log.WithField("shared", doc.ShareCodeInFile).
		Debugf("Found %d snippet(s) in %s", len(doc.Snippets), name)

	results := r.engine.TestDocument(doc)
	if r.OnResult != nil {
		for _, res := range results {
			r.OnResult(res)
		}
	}
	return results, nil
}
