// Package transpile down-levels snippet syntax with esbuild before it is
// handed to the interpreter.
package transpile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// DefaultTarget is used when no target is configured.
const DefaultTarget = "es2017"

var targets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// Targets lists the accepted target names.
func Targets() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options configures a Transpiler.
type Options struct {
	Target string
}

// Transpiler rewrites snippet source to the configured language level.
// Output is CommonJS, so import statements become require calls, and
// carries an inline source map pointing back at the input.
type Transpiler struct {
	target api.Target
}

// New creates a Transpiler. An unknown target is an error.
func New(opts Options) (*Transpiler, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Target))
	if name == "" {
		name = DefaultTarget
	}
	target, ok := targets[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform target %q (available: %s)", opts.Target, strings.Join(Targets(), ", "))
	}
	return &Transpiler{target: target}, nil
}

// Transform rewrites code. file names the source in positions and in the
// source map.
func (t *Transpiler) Transform(file, code string) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:     api.LoaderJS,
		Format:     api.FormatCommonJS,
		Target:     t.target,
		Sourcemap:  api.SourceMapInline,
		Sourcefile: file,
	})
	if len(result.Errors) > 0 {
		return "", &Error{File: file, Messages: result.Errors}
	}
	return string(result.Code), nil
}

// Error carries the diagnostics esbuild reported.
type Error struct {
	File     string
	Messages []api.Message
}

// Error renders the diagnostics as a trace, one frame per message, so that
// failure locations can be recovered from it like from a runtime trace.
func (e *Error) Error() string {
	var b strings.Builder
	for i, m := range e.Messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("TransformError: ")
		b.WriteString(m.Text)
		if m.Location != nil {
			fmt.Fprintf(&b, "\n\tat %s:%d:%d", e.File, m.Location.Line, m.Location.Column+1)
		}
	}
	return b.String()
}
