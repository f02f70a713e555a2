package sandbox

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/dop251/goja"
)

// snippetPosition matches runtime frames ("at snippet.js:3:7(12)",
// "at f (snippet.js:3:7(12))") and compiler errors ("SyntaxError: snippet.js:
// Line 3:7 Unexpected token"). The name must start the line or follow a
// space or parenthesis, so lib/snippet.js is not a snippet frame.
var snippetPosition = regexp.MustCompile(`(?:^|[\s(])` + regexp.QuoteMeta(SnippetFile) + `:(?: Line )?(\d+):(\d+)`)

// Trace renders an execution error as its full native trace.
func Trace(err error) string {
	if err == nil {
		return ""
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return interrupted.String()
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return ex.String()
	}
	return err.Error()
}

// Locate finds the innermost snippet position in a trace. Line and column
// are relative to the executed snippet; ok is false when the trace carries
// no snippet frame.
func Locate(stack string) (line, column int, ok bool) {
	m := snippetPosition.FindStringSubmatch(stack)
	if m == nil {
		return 0, 0, false
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	column, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, false
	}
	return line, column, true
}

// ShiftColumns moves every snippet position on the given line by delta
// columns, never below column 1. Positions on other lines are unchanged.
func ShiftColumns(stack string, line, delta int) string {
	var b strings.Builder
	last := 0
	for _, m := range snippetPosition.FindAllStringSubmatchIndex(stack, -1) {
		l, err := strconv.Atoi(stack[m[2]:m[3]])
		if err != nil || l != line {
			continue
		}
		column, err := strconv.Atoi(stack[m[4]:m[5]])
		if err != nil {
			continue
		}
		b.WriteString(stack[last:m[4]])
		b.WriteString(strconv.Itoa(max(column+delta, 1)))
		last = m[5]
	}
	b.WriteString(stack[last:])
	return b.String()
}
