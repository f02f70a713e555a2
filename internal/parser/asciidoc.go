package parser

import (
	"regexp"
	"strings"

	"github.com/fjglira/mddoctest/internal/domain"
)

const (
	asciidocSkipDirective  = "// skip-example"
	asciidocShareDirective = "// share-code-between-examples"
)

// Matches == Heading, === Subheading, etc.
var asciidocHeadingRe = regexp.MustCompile(`^(={2,6})\s+(.+)$`)

// AsciiDocParser extracts [source,js] listing blocks from AsciiDoc documents.
type AsciiDocParser struct {
	opts    *compiled
	grammar *grammar
}

// NewAsciiDocParser creates a new AsciiDocParser.
func NewAsciiDocParser(opts Options) (*AsciiDocParser, error) {
	c, err := compileOptions(opts)
	if err != nil {
		return nil, err
	}
	delim := regexp.MustCompile(`^----+$`)
	return &AsciiDocParser{
		opts: c,
		grammar: &grammar{
			name:      "asciidoc",
			preamble:  regexp.MustCompile(`(?i)^\[source,\s*(?:` + c.languages + `)\s*(?:,.*)?\]$`),
			opener:    delim,
			closer:    delim,
			skip:      asciidocSkipDirective,
			share:     asciidocShareDirective,
			closeHint: "close every [source,js] listing with a ---- delimiter line",
		},
	}, nil
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *AsciiDocParser) SupportedExtensions() []string {
	return []string{".adoc", ".asciidoc"}
}

// Parse extracts snippets and headings from an AsciiDoc document.
func (p *AsciiDocParser) Parse(filePath string, content []byte) (*domain.ParsedDocument, error) {
	st, err := p.grammar.extract(filePath, content)
	if err != nil {
		return nil, err
	}

	headings := asciidocHeadings(content)
	attachSections(st.snippets, headings)

	parsed := &domain.ParsedDocument{
		FilePath:        filePath,
		FileType:        p.grammar.name,
		Headings:        headings,
		ShareCodeInFile: st.shareCode,
	}
	for _, s := range st.snippets {
		if p.opts.keep(s) {
			parsed.Snippets = append(parsed.Snippets, s)
		}
	}
	return parsed, nil
}

// asciidocHeadings collects section titles outside listing blocks.
func asciidocHeadings(content []byte) []domain.Heading {
	var headings []domain.Heading
	inListing := false
	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "----") && strings.Trim(line, "-") == "" {
			inListing = !inListing
			continue
		}
		if inListing {
			continue
		}
		if m := asciidocHeadingRe.FindStringSubmatch(line); m != nil {
			headings = append(headings, domain.Heading{
				Level: len(m[1]) - 1, // == is level 1, === is level 2
				Text:  strings.TrimSpace(m[2]),
				Line:  i + 1,
			})
		}
	}
	return headings
}
