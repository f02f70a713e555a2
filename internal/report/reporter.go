// Package report prints results with failure locations translated back
// into document coordinates.
package report

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fjglira/mddoctest/internal/domain"
	"github.com/fjglira/mddoctest/internal/sandbox"
)

// Summary counts results by status.
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
}

// OK reports whether the run had no failures.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// Summarize counts results without printing.
func Summarize(results []domain.Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case domain.StatusPass:
			s.Passed++
		case domain.StatusFail:
			s.Failed++
		case domain.StatusSkip:
			s.Skipped++
		}
	}
	return s
}

// Location returns file:line[:column] of a result in the source document.
// Without a snippet frame in the trace it falls back to the start fence line.
func Location(r domain.Result) string {
	if line, column, ok := sandbox.Locate(r.Stack); ok {
		return fmt.Sprintf("%s:%d:%d", r.Snippet.FileName, r.Snippet.LineNumber+line, column)
	}
	return fmt.Sprintf("%s:%d", r.Snippet.FileName, r.Snippet.LineNumber)
}

// colorScheme defines the colors used for each status.
type colorScheme struct {
	pass  *color.Color
	fail  *color.Color
	skip  *color.Color
	label *color.Color
	muted *color.Color
}

func newColorScheme(enabled bool) *colorScheme {
	s := &colorScheme{
		pass:  color.New(color.FgGreen),
		fail:  color.New(color.FgRed),
		skip:  color.New(color.FgYellow),
		label: color.New(color.FgBlue),
		muted: color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{s.pass, s.fail, s.skip, s.label, s.muted} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return s
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	notDefinedRe = regexp.MustCompile(`(\w+) is not defined`)
	notFoundRe   = regexp.MustCompile(`Attempted to require '([^']+)'`)
	titleCase    = cases.Title(language.English)
)

var hints = template.Must(template.New("hints").Parse(`
{{- define "global" -}}
You can declare {{.Name}} in the globals section of {{.ConfigFile}}.

For example:
  # {{.ConfigFile}}
  sandbox:
    globals:
      {{.Name}}: ...
{{end}}
{{- define "module" -}}
Provide '{{.Name}}' in the require section of {{.ConfigFile}}.

For example:
  # {{.ConfigFile}}
  sandbox:
    require:
      {{.Name}}:
        script: ./doctest/{{.Name}}.js
{{end}}`))

type hintData struct {
	Name       string
	ConfigFile string
}

// Reporter writes progress marks, failure details and a summary.
type Reporter struct {
	out        io.Writer
	scheme     *colorScheme
	configFile string
}

// NewReporter creates a Reporter. Colors are used only when out is a terminal.
// configFile is named in hints.
func NewReporter(out io.Writer, configFile string) *Reporter {
	return &Reporter{
		out:        out,
		scheme:     newColorScheme(isTerminal(out)),
		configFile: configFile,
	}
}

// Progress prints one mark per result: "." pass, "x" fail, "-" skip.
func (r *Reporter) Progress(res domain.Result) {
	switch res.Status {
	case domain.StatusPass:
		r.scheme.pass.Fprint(r.out, ".")
	case domain.StatusFail:
		r.scheme.fail.Fprint(r.out, "x")
	case domain.StatusSkip:
		r.scheme.skip.Fprint(r.out, "-")
	}
}

// Report prints every failure followed by the counts and returns them.
func (r *Reporter) Report(results []domain.Result) Summary {
	fmt.Fprintln(r.out)
	for _, res := range results {
		if res.Status == domain.StatusFail {
			r.printFailure(res)
		}
	}

	s := Summarize(results)
	r.scheme.pass.Fprintf(r.out, "%s: %d\n", titleCase.String("passed"), s.Passed)
	if s.Skipped > 0 {
		r.scheme.skip.Fprintf(r.out, "%s: %d\n", titleCase.String("skipped"), s.Skipped)
	}
	if s.OK() {
		r.scheme.pass.Fprintln(r.out, "\nSuccess!")
	} else {
		r.scheme.fail.Fprintf(r.out, "%s: %d\n", titleCase.String("failed"), s.Failed)
	}
	return s
}

func (r *Reporter) printFailure(res domain.Result) {
	header := "Failed - " + Location(res)
	if res.Snippet.Section != "" {
		header += " (" + res.Snippet.Section + ")"
	}
	r.scheme.fail.Fprintln(r.out, header)

	details := relevantStackDetails(res.Stack)
	fmt.Fprintln(r.out, details)

	if m := notFoundRe.FindStringSubmatch(details); m != nil {
		r.hint("module", m[1])
	} else if m := notDefinedRe.FindStringSubmatch(details); m != nil {
		r.hint("global", m[1])
	}
	fmt.Fprintln(r.out)
}

func (r *Reporter) hint(name, subject string) {
	var b strings.Builder
	if err := hints.ExecuteTemplate(&b, name, hintData{Name: subject, ConfigFile: r.configFile}); err != nil {
		return
	}
	r.scheme.muted.Fprint(r.out, b.String())
}

// relevantStackDetails keeps the message part of a trace, dropping frames.
func relevantStackDetails(stack string) string {
	lines := strings.Split(strings.TrimRight(stack, "\n"), "\n")
	var kept []string
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "at ") {
			break
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return strings.TrimRight(stack, "\n")
	}
	return strings.Join(kept, "\n")
}
