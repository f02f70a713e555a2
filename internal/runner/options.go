package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjglira/mddoctest/internal/config"
	"github.com/fjglira/mddoctest/internal/domain"
	"github.com/fjglira/mddoctest/internal/engine"
	"github.com/fjglira/mddoctest/internal/hook"
	"github.com/fjglira/mddoctest/internal/parser"
	"github.com/fjglira/mddoctest/internal/sandbox"
)

// FromConfig translates a loaded configuration file into run options.
// Script paths are resolved relative to baseDir, normally the directory of
// the configuration file.
func FromConfig(cfg *config.Config, baseDir string, log logrus.FieldLogger) (Config, error) {
	l := loader{baseDir: baseDir}

	extract := parser.DefaultOptions()
	if len(cfg.Extract.Languages) > 0 {
		extract.Languages = cfg.Extract.Languages
	}
	if cfg.Extract.PseudocodePattern != nil {
		extract.PseudocodePattern = *cfg.Extract.PseudocodePattern
	}

	opts := engine.Options{
		Require: make(map[string]any, len(cfg.Sandbox.Require)),
		Globals: cfg.Sandbox.Globals,
		Transform: engine.TransformOptions{
			Disabled: !cfg.TransformEnabled(),
			Target:   cfg.Transform.Target,
		},
	}

	for name, m := range cfg.Sandbox.Require {
		if m.Script == "" {
			opts.Require[name] = m.Value
			continue
		}
		script, err := l.load(m.Script)
		if err != nil {
			return Config{}, err
		}
		opts.Require[name] = sandbox.ScriptModule{Script: script}
	}

	for _, r := range cfg.Sandbox.RegexRequire {
		handler, err := l.handler(r)
		if err != nil {
			return Config{}, err
		}
		opts.RegexRequire = append(opts.RegexRequire, sandbox.RegexRequire{Pattern: r.Pattern, Handler: handler})
	}

	for _, path := range cfg.Sandbox.Setup {
		script, err := l.load(path)
		if err != nil {
			return Config{}, err
		}
		opts.Setup = append(opts.Setup, script)
	}

	transformCode, err := replacer(cfg.Transform.Replace)
	if err != nil {
		return Config{}, err
	}
	opts.TransformCode = transformCode

	if len(cfg.Hooks.BeforeEach) > 0 {
		h, err := hook.NewShellHook(&cfg.Hooks, log)
		if err != nil {
			return Config{}, err
		}
		opts.BeforeEach = h.Run
	}

	if cfg.Execution.ShowConsole {
		opts.Console = sandbox.LogSink(log)
	}

	if cfg.Execution.Timeout != "" {
		d, err := time.ParseDuration(cfg.Execution.Timeout)
		if err != nil {
			return Config{}, configError("", "invalid execution.timeout", err)
		}
		opts.Timeout = d
	}

	return Config{Extract: extract, Engine: opts}, nil
}

// replacer chains the rewrite rules in order. It returns nil when there are none.
func replacer(rules []config.ReplaceConfig) (func(string) string, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	type rule struct {
		re   *regexp.Regexp
		with string
	}
	compiled := make([]rule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, configError("", fmt.Sprintf("invalid transform.replace pattern %q", r.Pattern), err)
		}
		compiled = append(compiled, rule{re: re, with: r.With})
	}
	return func(code string) string {
		for _, r := range compiled {
			code = r.re.ReplaceAllString(code, r.with)
		}
		return code
	}, nil
}

type loader struct {
	baseDir string
}

// load reads a script file. The returned Path is the one used in traces.
func (l loader) load(path string) (sandbox.Script, error) {
	full := path
	if !filepath.IsAbs(full) {
		full = filepath.Join(l.baseDir, path)
	}
	src, err := os.ReadFile(full)
	if err != nil {
		return sandbox.Script{}, configError(full, "failed to read script", err)
	}
	return sandbox.Script{Path: full, Source: string(src)}, nil
}

func (l loader) handler(r config.RegexRequireConfig) (sandbox.Handler, error) {
	if r.Script == "" {
		value := r.Value
		return func([]string) (any, error) { return value, nil }, nil
	}
	script, err := l.load(r.Script)
	if err != nil {
		return nil, err
	}
	module := sandbox.ScriptModule{Script: script}
	return func(match []string) (any, error) {
		return sandbox.ScriptCall{Module: module, Args: match}, nil
	}, nil
}

func configError(file, message string, err error) error {
	return domain.NewError("config", file, 0, message, fmt.Errorf("%w: %w", domain.ErrConfiguration, err))
}
