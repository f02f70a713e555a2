// Package sandbox runs JavaScript snippets in isolated goja runtimes.
//
// A Sandbox sees only what it is given: a require function backed by a
// Resolver, a console bound to a ConsoleSink, the configured globals and
// whatever the setup scripts define. Nothing from the host process leaks in.
package sandbox

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/google/uuid"
)

// SnippetFile is the script name snippets are compiled under. It is the
// marker Locate looks for in failure traces. It must survive URL resolution
// unchanged, since source-mapped positions report it as a resolved URL.
const SnippetFile = "snippet.js"

// reserved names cannot be overridden by globals.
var reserved = []string{"require", "console"}

// Script is JavaScript source evaluated inside a sandbox.
type Script struct {
	Path   string
	Source string
}

// Config describes how each sandbox is populated.
type Config struct {
	Resolver *Resolver
	Globals  map[string]any
	Setup    []Script
	Console  ConsoleSink
}

// Validate reports configuration problems that do not need a runtime.
func (c Config) Validate() error {
	if c.Resolver == nil {
		return errors.New("sandbox config has no resolver")
	}
	for _, name := range reserved {
		if _, ok := c.Globals[name]; ok {
			return fmt.Errorf("global %q conflicts with the sandbox's own %s", name, name)
		}
	}
	return nil
}

// Materializer is implemented by values that must be built inside the
// runtime that requires them.
type Materializer interface {
	Materialize(s *Sandbox) (goja.Value, error)
}

// Sandbox is one evaluation context.
type Sandbox struct {
	ID       string
	vm       *goja.Runtime
	resolver *Resolver
	modules  map[string]goja.Value // script modules by path
}

// New creates a runtime and injects require, console and globals, then runs
// the setup scripts.
func New(cfg Config) (*Sandbox, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sink := cfg.Console
	if sink == nil {
		sink = Discard
	}

	s := &Sandbox{
		ID:       uuid.NewString(),
		vm:       goja.New(),
		resolver: cfg.Resolver,
		modules:  make(map[string]goja.Value),
	}

	if err := s.vm.Set("require", s.require); err != nil {
		return nil, fmt.Errorf("inject require: %w", err)
	}
	console, err := newConsole(s.vm, sink)
	if err != nil {
		return nil, fmt.Errorf("inject console: %w", err)
	}
	if err := s.vm.Set("console", console); err != nil {
		return nil, fmt.Errorf("inject console: %w", err)
	}

	for name, v := range cfg.Globals {
		value, err := s.value(v)
		if err != nil {
			return nil, fmt.Errorf("global %q: %w", name, err)
		}
		if err := s.vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("global %q: %w", name, err)
		}
	}

	for _, script := range cfg.Setup {
		if _, err := s.vm.RunScript(script.Path, script.Source); err != nil {
			return nil, fmt.Errorf("setup script %s: %w", script.Path, err)
		}
	}
	return s, nil
}

// Compile parses snippet code under SnippetFile.
func Compile(code string) (*goja.Program, error) {
	return goja.Compile(SnippetFile, code, false)
}

// Run executes a compiled snippet. A positive timeout interrupts the runtime
// when it elapses. An interrupt never outlives the run it was armed for.
func (s *Sandbox) Run(prg *goja.Program, timeout time.Duration) error {
	var (
		mu    sync.Mutex
		done  bool
		timer *time.Timer
	)
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() {
			mu.Lock()
			defer mu.Unlock()
			if !done {
				s.vm.Interrupt(fmt.Sprintf("TimeoutError: snippet did not finish within %s", timeout))
			}
		})
	}
	_, err := s.vm.RunProgram(prg)
	if timer != nil {
		mu.Lock()
		done = true
		timer.Stop()
		mu.Unlock()
	}
	s.vm.ClearInterrupt()
	return err
}

// require is the sandbox's module loader.
func (s *Sandbox) require(call goja.FunctionCall) goja.Value {
	name := call.Argument(0).String()
	v, err := s.resolver.Resolve(name)
	if err != nil {
		panic(s.vm.NewGoError(err))
	}
	value, err := s.value(v)
	if err != nil {
		var ex *goja.Exception
		if errors.As(err, &ex) {
			panic(ex.Value())
		}
		panic(s.vm.NewGoError(err))
	}
	return value
}

// value converts a host value into this runtime.
func (s *Sandbox) value(v any) (goja.Value, error) {
	if m, ok := v.(Materializer); ok {
		return m.Materialize(s)
	}
	return s.vm.ToValue(v), nil
}
