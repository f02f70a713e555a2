package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fjglira/mddoctest/internal/domain"
)

// grammar describes how one markup dialect delimits snippets and directives.
// All matchers see the trimmed line.
type grammar struct {
	name string
	// preamble, when set, must be the line right before the opener
	// (AsciiDoc's [source,js] attribute line).
	preamble *regexp.Regexp
	opener   *regexp.Regexp
	closer   *regexp.Regexp
	skip     string
	share    string
	// closeHint is shown when a block is left open.
	closeHint string
}

// extractState is the whole state of the line machine.
// A snippet is open while the last one is incomplete.
type extractState struct {
	fileName    string
	snippets    []domain.Snippet
	lines       []string // code lines of the open snippet
	pendingSkip bool
	shareCode   bool
	armed       bool // preamble seen on the previous line
}

func (s *extractState) open() *domain.Snippet {
	if n := len(s.snippets); n > 0 && !s.snippets[n-1].Complete {
		return &s.snippets[n-1]
	}
	return nil
}

// step applies one line to the state.
func (g *grammar) step(s *extractState, line string, lineNo int) error {
	trimmed := strings.TrimSpace(line)

	if cur := s.open(); cur != nil {
		switch {
		case g.closer.MatchString(trimmed):
			if len(s.lines) > 0 {
				cur.Code = strings.Join(s.lines, "\n") + "\n"
			}
			cur.Complete = true
			s.lines = nil
		case g.preamble == nil && g.opener.MatchString(trimmed):
			return domain.NewErrorWithSuggestion("parse", s.fileName, lineNo,
				fmt.Sprintf("code block opened inside the block started at line %d", cur.LineNumber),
				g.closeHint,
				domain.ErrNestedFence)
		default:
			s.lines = append(s.lines, line)
		}
		return nil
	}

	armed := s.armed
	s.armed = false

	switch {
	case g.preamble != nil && g.preamble.MatchString(trimmed):
		s.armed = true
	case g.opener.MatchString(trimmed) && (g.preamble == nil || armed):
		s.snippets = append(s.snippets, domain.Snippet{
			FileName:   s.fileName,
			LineNumber: lineNo,
			Skip:       s.pendingSkip,
		})
		s.pendingSkip = false
	case trimmed == g.skip:
		s.pendingSkip = true
	case trimmed == g.share:
		s.shareCode = true
	}
	return nil
}

// extract runs the machine over the whole document.
func (g *grammar) extract(fileName string, content []byte) (*extractState, error) {
	st := &extractState{fileName: fileName}

	for i, line := range strings.Split(string(content), "\n") {
		if err := g.step(st, strings.TrimSuffix(line, "\r"), i+1); err != nil {
			return nil, err
		}
	}

	if cur := st.open(); cur != nil {
		return nil, domain.NewErrorWithSuggestion("parse", fileName, cur.LineNumber,
			"code block is never closed",
			g.closeHint,
			domain.ErrUnterminatedBlock)
	}
	return st, nil
}

// attachSections sets each snippet's Section to the nearest heading above it.
func attachSections(snippets []domain.Snippet, headings []domain.Heading) {
	for i := range snippets {
		for _, h := range headings {
			if h.Line >= snippets[i].LineNumber {
				break
			}
			snippets[i].Section = h.Text
		}
	}
}
