package parser

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/fjglira/mddoctest/internal/domain"
)

const (
	markdownSkipDirective  = "<!-- skip-example -->"
	markdownShareDirective = "<!-- share-code-between-examples -->"
)

// MarkdownParser extracts fenced JavaScript blocks from Markdown documents.
type MarkdownParser struct {
	opts    *compiled
	grammar *grammar
}

// NewMarkdownParser creates a new MarkdownParser.
func NewMarkdownParser(opts Options) (*MarkdownParser, error) {
	c, err := compileOptions(opts)
	if err != nil {
		return nil, err
	}
	return &MarkdownParser{
		opts: c,
		grammar: &grammar{
			name:      "markdown",
			opener:    regexp.MustCompile("(?i)^```\\s*(?:" + c.languages + ")\\s*$"),
			closer:    regexp.MustCompile("^```$"),
			skip:      markdownSkipDirective,
			share:     markdownShareDirective,
			closeHint: "close every ```js block with a line containing only ```",
		},
	}, nil
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *MarkdownParser) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdx"}
}

// Parse extracts snippets and headings from a Markdown document.
func (p *MarkdownParser) Parse(filePath string, content []byte) (*domain.ParsedDocument, error) {
	st, err := p.grammar.extract(filePath, content)
	if err != nil {
		return nil, err
	}

	headings, err := markdownHeadings(content)
	if err != nil {
		return nil, domain.NewErrorWithSuggestion("parse", filePath, 0,
			"failed to walk markdown AST",
			"check the markdown file for syntax issues",
			err)
	}
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

// markdownHeadings walks the goldmark AST and returns headings in order.
func markdownHeadings(content []byte) ([]domain.Heading, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	var headings []domain.Heading
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		node, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		lineNum := 0
		if node.Lines().Len() > 0 {
			lineNum = lineNumber(content, node.Lines().At(0).Start)
		} else if node.HasChildren() {
			// For ATX headings, use the child text segment position
			if first, ok := node.FirstChild().(*ast.Text); ok {
				lineNum = lineNumber(content, first.Segment.Start)
			}
		}
		headings = append(headings, domain.Heading{
			Level: node.Level,
			Text:  extractText(node, content),
			Line:  lineNum,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings, err
}

// extractText gets the text content of a heading node.
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// lineNumber calculates the 1-based line number for a byte offset.
func lineNumber(content []byte, offset int) int {
	return bytes.Count(content[:offset], []byte("\n")) + 1
}
