// Package engine executes the snippets of a parsed document and records one
// result per snippet.
package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/mddoctest/internal/domain"
	"github.com/fjglira/mddoctest/internal/sandbox"
	"github.com/fjglira/mddoctest/internal/transpile"
)

// TransformOptions controls the source transform step.
type TransformOptions struct {
	Disabled bool
	Target   string
}

// Options is the run configuration. It is read, never modified.
type Options struct {
	Require      map[string]any
	RegexRequire []sandbox.RegexRequire
	Globals      map[string]any
	Setup        []sandbox.Script
	Transform    TransformOptions
	// BeforeEach runs before every snippet that is executed. An error fails
	// that snippet only.
	BeforeEach func() error
	// TransformCode rewrites snippet code before any other processing.
	TransformCode func(code string) string
	Console       sandbox.ConsoleSink
	// Timeout bounds each snippet's execution. Zero means no limit.
	Timeout time.Duration
}

// Engine runs documents.
type Engine struct {
	opts       Options
	sandboxCfg sandbox.Config
	transpiler *transpile.Transpiler
	log        logrus.FieldLogger
}

// New validates the options and builds an Engine. Every configuration problem
// is reported here, before any snippet runs, wrapped in domain.ErrConfiguration.
func New(opts Options, log logrus.FieldLogger) (*Engine, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	resolver, err := sandbox.NewResolver(opts.Require, opts.RegexRequire)
	if err != nil {
		return nil, configError(err)
	}
	cfg := sandbox.Config{
		Resolver: resolver,
		Globals:  opts.Globals,
		Setup:    opts.Setup,
		Console:  opts.Console,
	}

	// A throwaway context surfaces conflicting globals and failing setup
	// scripts now rather than once per snippet.
	if _, err := sandbox.New(cfg); err != nil {
		return nil, configError(err)
	}

	e := &Engine{opts: opts, sandboxCfg: cfg, log: log}
	if !opts.Transform.Disabled {
		t, err := transpile.New(transpile.Options{Target: opts.Transform.Target})
		if err != nil {
			return nil, configError(err)
		}
		e.transpiler = t
	}
	return e, nil
}

func configError(err error) error {
	return domain.NewErrorWithSuggestion("config", "", 0,
		"invalid sandbox configuration",
		"check the sandbox and transform sections of the configuration file",
		fmt.Errorf("%w: %w", domain.ErrConfiguration, err))
}

// TestDocument runs every snippet of doc in order and returns one result per
// snippet. Failures never stop the remaining snippets.
func (e *Engine) TestDocument(doc *domain.ParsedDocument) []domain.Result {
	results := make([]domain.Result, 0, len(doc.Snippets))

	var shared *sandbox.Sandbox
	for _, snippet := range doc.Snippets {
		if snippet.Skip {
			results = append(results, domain.Result{Status: domain.StatusSkip, Snippet: snippet})
			e.logResult(results[len(results)-1])
			continue
		}

		var (
			sb  *sandbox.Sandbox
			err error
		)
		if doc.ShareCodeInFile {
			if shared == nil {
				shared, err = sandbox.New(e.sandboxCfg)
			}
			sb = shared
		} else {
			sb, err = sandbox.New(e.sandboxCfg)
		}

		var result domain.Result
		if err != nil {
			result = domain.Result{Status: domain.StatusFail, Snippet: snippet, Stack: err.Error()}
		} else {
			result = e.testSnippet(sb, snippet)
		}
		results = append(results, result)
		e.logResult(result)
	}
	return results
}

// testSnippet transforms, compiles and executes one snippet in sb.
func (e *Engine) testSnippet(sb *sandbox.Sandbox, snippet domain.Snippet) (result domain.Result) {
	result = domain.Result{Status: domain.StatusPass, Snippet: snippet, ContextID: sb.ID}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result.Status = domain.StatusFail
			result.Stack = fmt.Sprintf("panic: %v", r)
		}
		result.Duration = time.Since(start)
	}()

	code := snippet.Code
	if e.opts.TransformCode != nil {
		code = e.opts.TransformCode(code)
	}

	prg, wrapped, err := e.compile(code)
	trace := func(err error) string {
		stack := sandbox.Trace(err)
		if wrapped {
			stack = sandbox.ShiftColumns(stack, 1, -len(functionBodyOpen))
		}
		return stack
	}
	if err != nil {
		result.Status = domain.StatusFail
		result.Stack = trace(err)
		return result
	}

	if e.opts.BeforeEach != nil {
		if err := e.opts.BeforeEach(); err != nil {
			result.Status = domain.StatusFail
			result.Stack = fmt.Sprintf("BeforeEachError: %v", err)
			return result
		}
	}

	if err := sb.Run(prg, e.opts.Timeout); err != nil {
		result.Status = domain.StatusFail
		result.Stack = trace(err)
	}
	return result
}

// functionBodyOpen precedes the first snippet line when a snippet is run as
// a function body; columns on that line are shifted by its length.
const functionBodyOpen = "(function () {"

// compile prepares code for execution. Code that uses a top-level return is
// retried as a function body opened on its first line, so line numbers hold.
// wrapped reports whether the retry was taken.
func (e *Engine) compile(code string) (prg *goja.Program, wrapped bool, err error) {
	prg, err = e.build(code)
	if err != nil && needsFunctionBody(err) {
		prg, err = e.build(functionBodyOpen + code + "\n})();")
		return prg, true, err
	}
	return prg, false, err
}

func (e *Engine) build(code string) (*goja.Program, error) {
	if e.transpiler != nil {
		var err error
		code, err = e.transpiler.Transform(sandbox.SnippetFile, code)
		if err != nil {
			return nil, err
		}
	}
	return sandbox.Compile(code)
}

func needsFunctionBody(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "Illegal return") || strings.Contains(msg, "Top-level return")
}

func (e *Engine) logResult(r domain.Result) {
	e.log.WithFields(logrus.Fields{
		"file":    r.Snippet.FileName,
		"line":    r.Snippet.LineNumber,
		"status":  r.Status,
		"context": r.ContextID,
	}).Debug("Snippet evaluated")
}
