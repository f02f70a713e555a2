package sandbox_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fjglira/mddoctest/internal/sandbox"
)

var _ = Describe("Resolver", func() {
	It("should resolve literal modules", func() {
		r, err := sandbox.NewResolver(map[string]any{"lodash": "lodash-value"}, nil)
		Expect(err).ToNot(HaveOccurred())

		v, err := r.Resolve("lodash")
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal("lodash-value"))
	})

	It("should prefer a matching pattern over a literal entry", func() {
		r, err := sandbox.NewResolver(
			map[string]any{"lib/a": "literal"},
			[]sandbox.RegexRequire{{
				Pattern: `^lib/(.*)$`,
				Handler: func(m []string) (any, error) { return "regex:" + m[1], nil },
			}},
		)
		Expect(err).ToNot(HaveOccurred())

		v, err := r.Resolve("lib/a")
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal("regex:a"))
	})

	It("should use the first matching pattern", func() {
		r, err := sandbox.NewResolver(nil, []sandbox.RegexRequire{
			{Pattern: `^a`, Handler: func([]string) (any, error) { return 1, nil }},
			{Pattern: `^ab`, Handler: func([]string) (any, error) { return 2, nil }},
		})
		Expect(err).ToNot(HaveOccurred())

		v, err := r.Resolve("abc")
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(1))
	})

	It("should pass the full match and the groups to the handler", func() {
		var got []string
		r, err := sandbox.NewResolver(nil, []sandbox.RegexRequire{{
			Pattern: `^(\w+)/(\w+)$`,
			Handler: func(m []string) (any, error) { got = m; return nil, nil },
		}})
		Expect(err).ToNot(HaveOccurred())

		_, err = r.Resolve("org/pkg")
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal([]string{"org/pkg", "org", "pkg"}))
	})

	It("should name the missing module", func() {
		r, err := sandbox.NewResolver(nil, nil)
		Expect(err).ToNot(HaveOccurred())

		_, err = r.Resolve("x")
		var notFound *sandbox.ModuleNotFoundError
		Expect(errors.As(err, &notFound)).To(BeTrue())
		Expect(notFound.Name).To(Equal("x"))
		Expect(err.Error()).To(ContainSubstring("Attempted to require 'x'"))
	})

	It("should not see later changes to the module table", func() {
		modules := map[string]any{"a": 1}
		r, err := sandbox.NewResolver(modules, nil)
		Expect(err).ToNot(HaveOccurred())
		delete(modules, "a")

		_, err = r.Resolve("a")
		Expect(err).ToNot(HaveOccurred())
	})

	It("should reject invalid patterns and missing handlers", func() {
		_, err := sandbox.NewResolver(nil, []sandbox.RegexRequire{{Pattern: "([", Handler: func([]string) (any, error) { return nil, nil }}})
		Expect(err).To(HaveOccurred())

		_, err = sandbox.NewResolver(nil, []sandbox.RegexRequire{{Pattern: "a"}})
		Expect(err).To(HaveOccurred())
	})
})
