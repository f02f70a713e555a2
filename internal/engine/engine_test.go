package engine_test

import (
	"errors"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/fjglira/mddoctest/internal/domain"
	"github.com/fjglira/mddoctest/internal/engine"
	"github.com/fjglira/mddoctest/internal/sandbox"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func document(shared bool, codes ...string) *domain.ParsedDocument {
	doc := &domain.ParsedDocument{FilePath: "doc.md", ShareCodeInFile: shared}
	for i, code := range codes {
		doc.Snippets = append(doc.Snippets, domain.Snippet{
			Code:       code,
			FileName:   "doc.md",
			LineNumber: 10 * (i + 1),
			Complete:   true,
		})
	}
	return doc
}

func statuses(results []domain.Result) []domain.Status {
	out := make([]domain.Status, len(results))
	for i, r := range results {
		out[i] = r.Status
	}
	return out
}

var _ = Describe("Engine", func() {
	var opts engine.Options

	BeforeEach(func() {
		opts = engine.Options{Transform: engine.TransformOptions{Disabled: true}}
	})

	testDocument := func(doc *domain.ParsedDocument) []domain.Result {
		e, err := engine.New(opts, quietLogger())
		Expect(err).ToNot(HaveOccurred())
		return e.TestDocument(doc)
	}

	It("should pass a snippet that completes", func() {
		results := testDocument(document(false, "5 - 3\n"))
		Expect(results).To(HaveLen(1))
		Expect(results[0].Status).To(Equal(domain.StatusPass))
		Expect(results[0].Stack).To(BeEmpty())
		Expect(results[0].Snippet.LineNumber).To(Equal(10))
	})

	It("should fail a snippet that throws and keep its trace", func() {
		results := testDocument(document(false, "var a = 1;\nundefinedVariable.prop;\n"))
		Expect(results[0].Status).To(Equal(domain.StatusFail))
		Expect(results[0].Stack).To(ContainSubstring("undefinedVariable is not defined"))

		line, _, ok := sandbox.Locate(results[0].Stack)
		Expect(ok).To(BeTrue())
		Expect(line).To(Equal(2))
	})

	It("should record skipped snippets without running them", func() {
		doc := document(false, "throw new Error('never');\n", "1 + 1;\n")
		doc.Snippets[0].Skip = true

		results := testDocument(doc)
		Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusSkip, domain.StatusPass}))
		Expect(results[0].ContextID).To(BeEmpty())
	})

	It("should continue after a failing snippet", func() {
		results := testDocument(document(false, "1;\n", "throw new Error('boom');\n", "2;\n"))
		Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusPass, domain.StatusFail, domain.StatusPass}))
	})

	It("should return no results for a document without snippets", func() {
		Expect(testDocument(document(false))).To(BeEmpty())
	})

	It("should fail a syntax error without running it", func() {
		results := testDocument(document(false, "var a = 1;\nvar = ;\n"))
		Expect(results[0].Status).To(Equal(domain.StatusFail))
		line, _, ok := sandbox.Locate(results[0].Stack)
		Expect(ok).To(BeTrue())
		Expect(line).To(Equal(2))
	})

	Describe("evaluation contexts", func() {
		It("should isolate snippets by default", func() {
			results := testDocument(document(false, "var x = 5;\n", "if (x !== 5) throw new Error('x');\n"))
			Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusPass, domain.StatusFail}))
			Expect(results[1].Stack).To(ContainSubstring("x is not defined"))
			Expect(results[0].ContextID).ToNot(Equal(results[1].ContextID))
		})

		It("should share one context when the document asks for it", func() {
			results := testDocument(document(true, "var x = 5;\n", "if (x !== 5) throw new Error('x');\n"))
			Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusPass, domain.StatusPass}))
			Expect(results[0].ContextID).To(Equal(results[1].ContextID))
		})

		It("should keep state from a failed snippet in a shared context", func() {
			results := testDocument(document(true, "var x = 5;\nthrow new Error('late');\n", "if (x !== 5) throw new Error('x');\n"))
			Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusFail, domain.StatusPass}))
		})

		It("should not leak shared state between documents", func() {
			e, err := engine.New(opts, quietLogger())
			Expect(err).ToNot(HaveOccurred())

			first := e.TestDocument(document(true, "var x = 5;\n"))
			second := e.TestDocument(document(true, "x;\n"))
			Expect(first[0].Status).To(Equal(domain.StatusPass))
			Expect(second[0].Status).To(Equal(domain.StatusFail))
		})
	})

	Describe("require", func() {
		It("should provide configured modules", func() {
			opts.Require = map[string]any{"config": map[string]any{"answer": 42}}
			results := testDocument(document(false, "if (require('config').answer !== 42) throw new Error('bad');\n"))
			Expect(results[0].Status).To(Equal(domain.StatusPass))
		})

		It("should prefer regex handlers over literal modules", func() {
			opts.Require = map[string]any{"lib/a": "literal"}
			opts.RegexRequire = []sandbox.RegexRequire{{
				Pattern: `^lib/(.*)$`,
				Handler: func(m []string) (any, error) { return "regex:" + m[1], nil },
			}}
			results := testDocument(document(false, "if (require('lib/a') !== 'regex:a') throw new Error(require('lib/a'));\n"))
			Expect(results[0].Status).To(Equal(domain.StatusPass))
		})

		It("should fail with the missing module name", func() {
			results := testDocument(document(false, "require('x');\n"))
			Expect(results[0].Status).To(Equal(domain.StatusFail))
			Expect(results[0].Stack).To(ContainSubstring("'x'"))
		})

		It("should fail when a handler errors", func() {
			opts.RegexRequire = []sandbox.RegexRequire{{
				Pattern: `.*`,
				Handler: func([]string) (any, error) { return nil, errors.New("handler broke") },
			}}
			results := testDocument(document(false, "require('anything');\n"))
			Expect(results[0].Stack).To(ContainSubstring("handler broke"))
		})
	})

	Describe("hooks", func() {
		It("should run BeforeEach once per executed snippet", func() {
			calls := 0
			opts.BeforeEach = func() error { calls++; return nil }

			doc := document(false, "1;\n", "2;\n", "3;\n")
			doc.Snippets[1].Skip = true
			testDocument(doc)
			Expect(calls).To(Equal(2))
		})

		It("should fail only the snippet whose BeforeEach errors", func() {
			calls := 0
			opts.BeforeEach = func() error {
				calls++
				if calls == 1 {
					return errors.New("boom")
				}
				return nil
			}

			results := testDocument(document(false, "1;\n", "2;\n"))
			Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusFail, domain.StatusPass}))
			Expect(results[0].Stack).To(ContainSubstring("BeforeEachError: boom"))
		})

		It("should apply TransformCode before execution", func() {
			opts.TransformCode = func(code string) string {
				return strings.ReplaceAll(code, "PLACEHOLDER", "1")
			}
			results := testDocument(document(false, "if (PLACEHOLDER !== 1) throw new Error('placeholder');\n"))
			Expect(results[0].Status).To(Equal(domain.StatusPass))
		})
	})

	Describe("execution", func() {
		It("should allow a top-level return", func() {
			results := testDocument(document(false, "var a = 1;\nif (a) return;\nthrow new Error('unreachable');\n"))
			Expect(results[0].Status).To(Equal(domain.StatusPass))
		})

		It("should keep line numbers of a snippet with a top-level return", func() {
			results := testDocument(document(false, "if (false) return;\n\nundefinedVariable;\n"))
			line, _, ok := sandbox.Locate(results[0].Stack)
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal(3))
		})

		It("should report line-1 columns of a function-body snippet as written", func() {
			results := testDocument(document(false, "undefinedVariable; return;\n"))
			Expect(results[0].Status).To(Equal(domain.StatusFail))
			line, column, ok := sandbox.Locate(results[0].Stack)
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal(1))
			Expect(column).To(Equal(1))
		})

		It("should stop a snippet that exceeds the timeout", func() {
			opts.Timeout = 50 * time.Millisecond
			results := testDocument(document(false, "while (true) {}\n", "1;\n"))
			Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusFail, domain.StatusPass}))
			Expect(results[0].Stack).To(ContainSubstring("TimeoutError"))
		})

		It("should record how long each snippet took", func() {
			results := testDocument(document(false, "1;\n"))
			Expect(results[0].Duration).To(BeNumerically(">", 0))
		})

		It("should produce identical results when an isolated document runs twice", func() {
			e, err := engine.New(opts, quietLogger())
			Expect(err).ToNot(HaveOccurred())
			doc := document(false, "var n = 1;\n", "missing;\n", "throw new Error('skipped');\n")
			doc.Snippets[2].Skip = true

			first := e.TestDocument(doc)
			second := e.TestDocument(doc)
			Expect(statuses(first)).To(Equal([]domain.Status{domain.StatusPass, domain.StatusFail, domain.StatusSkip}))
			Expect(statuses(second)).To(Equal(statuses(first)))
			for i := range first {
				Expect(second[i].Snippet).To(Equal(first[i].Snippet))
			}
		})

		It("should produce the same statuses when a shared document runs twice", func() {
			e, err := engine.New(opts, quietLogger())
			Expect(err).ToNot(HaveOccurred())
			doc := document(true, "var n = 1;\n", "if (n !== 1) throw new Error('n');\n", "missing;\n")

			Expect(statuses(e.TestDocument(doc))).To(Equal(statuses(e.TestDocument(doc))))
		})
	})

	Describe("with the source transform", func() {
		BeforeEach(func() {
			opts.Transform = engine.TransformOptions{Target: "es2017"}
		})

		It("should run modern syntax", func() {
			results := testDocument(document(false, "const f = (a, b = 2) => a ?? b;\nif (f(null) !== 2) throw new Error('f');\n"))
			Expect(results[0].Status).To(Equal(domain.StatusPass))
		})

		It("should resolve import statements through require", func() {
			opts.Require = map[string]any{"greeter": map[string]any{"name": "docs"}}
			results := testDocument(document(false, "import { name } from 'greeter';\nif (name !== 'docs') throw new Error(name);\n"))
			Expect(results[0].Status).To(Equal(domain.StatusPass))
		})

		It("should translate runtime errors back to snippet lines", func() {
			results := testDocument(document(false, "const a = 1;\n\nundefinedVariable.prop;\n"))
			Expect(results[0].Status).To(Equal(domain.StatusFail))
			Expect(results[0].Stack).To(ContainSubstring("undefinedVariable is not defined"))

			line, _, ok := sandbox.Locate(results[0].Stack)
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal(3))
		})

		It("should report transform errors as failures with a position", func() {
			results := testDocument(document(false, "var a = 1;\nvar = ;\n"))
			Expect(results[0].Status).To(Equal(domain.StatusFail))
			line, _, ok := sandbox.Locate(results[0].Stack)
			Expect(ok).To(BeTrue())
			Expect(line).To(Equal(2))
		})

		It("should share var declarations in a shared context", func() {
			results := testDocument(document(true, "var total = 2;\n", "if (total * 21 !== 42) throw new Error('total');\n"))
			Expect(statuses(results)).To(Equal([]domain.Status{domain.StatusPass, domain.StatusPass}))
		})
	})

	Describe("configuration", func() {
		It("should reject globals that shadow require or console", func() {
			opts.Globals = map[string]any{"require": "nope"}
			_, err := engine.New(opts, quietLogger())
			Expect(errors.Is(err, domain.ErrConfiguration)).To(BeTrue())
		})

		It("should reject invalid regex patterns", func() {
			opts.RegexRequire = []sandbox.RegexRequire{{Pattern: "([", Handler: func([]string) (any, error) { return nil, nil }}}
			_, err := engine.New(opts, quietLogger())
			Expect(errors.Is(err, domain.ErrConfiguration)).To(BeTrue())
		})

		It("should reject an unknown transform target", func() {
			opts.Transform = engine.TransformOptions{Target: "es1"}
			_, err := engine.New(opts, quietLogger())
			Expect(errors.Is(err, domain.ErrConfiguration)).To(BeTrue())
		})

		It("should reject setup scripts that throw", func() {
			opts.Setup = []sandbox.Script{{Path: "setup.js", Source: "throw new Error('setup');"}}
			_, err := engine.New(opts, quietLogger())
			Expect(errors.Is(err, domain.ErrConfiguration)).To(BeTrue())
		})
	})
})
