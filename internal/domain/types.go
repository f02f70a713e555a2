package domain

import "time"

// ParsedDocument holds the result of parsing a single document file.
type ParsedDocument struct {
	FilePath        string
	FileType        string    // "markdown", "asciidoc"
	Snippets        []Snippet // Executable snippets in document order
	Headings        []Heading // Document structure (for section context)
	ShareCodeInFile bool      // All snippets run in one evaluation context
}

// Snippet represents a single fenced code block extracted from a document.
type Snippet struct {
	Code       string // Lines between the fences, newline-joined
	FileName   string // Originating document path
	LineNumber int    // 1-based line number of the start fence
	Complete   bool   // A closing fence was found
	Skip       bool   // Preceded by a skip directive
	Section    string // Nearest heading above the snippet
}

// Heading represents a document heading for section context.
type Heading struct {
	Level int
	Text  string
	Line  int
}

// Status is the outcome of a single snippet.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is produced for every evaluated or skipped snippet.
type Result struct {
	Status    Status
	Snippet   Snippet
	Stack     string        // Raw failure trace, empty unless Status is fail
	ContextID string        // Evaluation context the snippet ran in
	Duration  time.Duration
}
