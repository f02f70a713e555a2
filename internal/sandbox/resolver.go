package sandbox

import (
	"fmt"
	"regexp"
)

// Handler builds a module from a regular expression match. match[0] is the
// full match and the rest are the capture groups.
type Handler func(match []string) (any, error)

// RegexRequire maps a module-name pattern to a handler.
type RegexRequire struct {
	Pattern string
	Handler Handler
}

// ModuleNotFoundError is returned when no pattern and no literal entry
// provides the requested module.
type ModuleNotFoundError struct {
	Name string
}

func (e *ModuleNotFoundError) Error() string {
	return fmt.Sprintf("Attempted to require '%s' but it was not found in the configuration. "+
		"Add '%s' to the require section (or a matching regex_require pattern) of your configuration.",
		e.Name, e.Name)
}

type compiledPattern struct {
	re      *regexp.Regexp
	handler Handler
}

// Resolver answers require calls. Patterns are tried in order before the
// literal table; the first matching pattern wins.
type Resolver struct {
	patterns []compiledPattern
	modules  map[string]any
}

// NewResolver compiles the patterns. The inputs are not retained mutably:
// the literal table is copied.
func NewResolver(modules map[string]any, patterns []RegexRequire) (*Resolver, error) {
	r := &Resolver{modules: make(map[string]any, len(modules))}
	for name, v := range modules {
		r.modules[name] = v
	}
	for _, p := range patterns {
		if p.Handler == nil {
			return nil, fmt.Errorf("regex require %q has no handler", p.Pattern)
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("regex require %q: %w", p.Pattern, err)
		}
		r.patterns = append(r.patterns, compiledPattern{re: re, handler: p.Handler})
	}
	return r, nil
}

// Resolve returns the value for a module name or a *ModuleNotFoundError.
func (r *Resolver) Resolve(name string) (any, error) {
	for _, p := range r.patterns {
		if match := p.re.FindStringSubmatch(name); match != nil {
			return p.handler(match)
		}
	}
	if v, ok := r.modules[name]; ok {
		return v, nil
	}
	return nil, &ModuleNotFoundError{Name: name}
}
