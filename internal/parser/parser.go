package parser

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/fjglira/mddoctest/internal/domain"
)

// Parser extracts executable snippets from a document.
type Parser interface {
	Parse(filePath string, content []byte) (*domain.ParsedDocument, error)
	SupportedExtensions() []string
}

// ParserRegistry maps file extensions to parsers.
type ParserRegistry interface {
	Register(parser Parser)
	ParserFor(extension string) (Parser, error)
}

// Options controls which blocks the parsers treat as snippets.
type Options struct {
	// Languages are the fence info tags that mark a runnable block,
	// matched case-insensitively.
	Languages []string
	// PseudocodePattern drops snippets whose code matches it. Empty disables
	// the filter.
	PseudocodePattern string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Languages:         []string{"javascript", "js", "es6"},
		PseudocodePattern: `\.\.\.`,
	}
}

// compiled holds the regular expressions derived from Options.
type compiled struct {
	languages  string
	pseudocode *regexp.Regexp
}

func compileOptions(opts Options) (*compiled, error) {
	if len(opts.Languages) == 0 {
		return nil, fmt.Errorf("at least one snippet language is required")
	}
	quoted := make([]string, len(opts.Languages))
	for i, lang := range opts.Languages {
		quoted[i] = regexp.QuoteMeta(strings.TrimSpace(lang))
	}
	c := &compiled{languages: strings.Join(quoted, "|")}
	if opts.PseudocodePattern != "" {
		re, err := regexp.Compile(opts.PseudocodePattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pseudocode pattern: %w", err)
		}
		c.pseudocode = re
	}
	return c, nil
}

// keep reports whether a snippet survives the pseudocode filter.
func (c *compiled) keep(s domain.Snippet) bool {
	return c.pseudocode == nil || !c.pseudocode.MatchString(s.Code)
}

// DefaultRegistry is a thread-safe parser registry with fallback support.
type DefaultRegistry struct {
	mu       sync.RWMutex
	parsers  map[string]Parser
	fallback Parser
}

// NewRegistry creates a new DefaultRegistry.
func NewRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		parsers: make(map[string]Parser),
	}
}

// NewDefaultRegistry registers the Markdown and AsciiDoc parsers built from
// opts, with Markdown as the fallback for unknown extensions.
func NewDefaultRegistry(opts Options) (*DefaultRegistry, error) {
	md, err := NewMarkdownParser(opts)
	if err != nil {
		return nil, err
	}
	adoc, err := NewAsciiDocParser(opts)
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	r.Register(md)
	r.Register(adoc)
	r.SetFallback(md)
	return r, nil
}

// Register adds a parser to the registry for each of its supported extensions.
func (r *DefaultRegistry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range p.SupportedExtensions() {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		r.parsers[ext] = p
	}
}

// SetFallback sets the fallback parser for unregistered extensions.
func (r *DefaultRegistry) SetFallback(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = p
}

// ParserFor returns the parser registered for the given file extension.
// If no parser is found, it returns the fallback parser if set.
func (r *DefaultRegistry) ParserFor(extension string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	if p, ok := r.parsers[ext]; ok {
		return p, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("no parser registered for extension %q", extension)
}
