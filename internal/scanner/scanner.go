// Package scanner turns the paths given on the command line or in the
// configuration into the ordered list of documents to test.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fjglira/mddoctest/internal/domain"
)

// Scanner discovers documents.
type Scanner interface {
	Scan(paths []string) ([]string, error)
}

// FileScanner walks directories with filepath.WalkDir. Files named
// explicitly are kept as given, even when no include pattern matches them.
type FileScanner struct {
	Include   []string
	Exclude   []string
	Recursive bool
}

// NewScanner creates a new FileScanner.
func NewScanner(include, exclude []string, recursive bool) *FileScanner {
	return &FileScanner{Include: include, Exclude: exclude, Recursive: recursive}
}

// Scan expands every path in order. Documents found under one directory are
// sorted; a document reached twice is returned once, at its first position.
func (s *FileScanner) Scan(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var docs []string
	add := func(p string) {
		key := filepath.Clean(p)
		if !seen[key] {
			seen[key] = true
			docs = append(docs, p)
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, domain.NewErrorWithSuggestion("scan", p, 0,
				"cannot access path",
				"pass existing documents or directories",
				err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		found, err := s.walk(p)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return docs, nil
}

func (s *FileScanner) walk(rootDir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Get path relative to rootDir for pattern matching
		relPath, relErr := filepath.Rel(rootDir, path)
		if relErr != nil {
			relPath = path
		}

		if d.IsDir() {
			if relPath == "." {
				return nil
			}
			if !s.Recursive || s.excluded(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.excluded(relPath) {
			return nil
		}
		for _, pattern := range s.Include {
			if matchGlob(relPath, pattern) {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})

	if err != nil {
		return nil, domain.NewError("scan", rootDir, 0, "failed to scan directory", err)
	}

	sort.Strings(files)
	return files, nil
}

func (s *FileScanner) excluded(relPath string) bool {
	for _, exc := range s.Exclude {
		if matchGlob(relPath, exc) {
			return true
		}
	}
	return false
}

// matchGlob matches a path against a glob pattern, supporting ** for recursive matching.
func matchGlob(path, pattern string) bool {
	if strings.Contains(pattern, "**") {
		parts := strings.SplitN(pattern, "**", 2)
		prefix := strings.TrimSuffix(parts[0], string(filepath.Separator))
		suffix := strings.TrimPrefix(parts[1], string(filepath.Separator))

		if prefix != "" {
			if path != prefix && !strings.HasPrefix(path, prefix+string(filepath.Separator)) {
				return false
			}
			path = strings.TrimPrefix(path, prefix)
			path = strings.TrimPrefix(path, string(filepath.Separator))
		}

		if suffix == "" {
			return true
		}

		// Try matching suffix against each possible subpath
		pathParts := strings.Split(path, string(filepath.Separator))
		for i := range pathParts {
			subPath := strings.Join(pathParts[i:], string(filepath.Separator))
			if matched, _ := filepath.Match(suffix, subPath); matched {
				return true
			}
		}
		return false
	}

	if matched, _ := filepath.Match(pattern, filepath.Base(path)); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
