package exprdoc

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderGolden renders doc for all of its targets and compares the output
// with testdata/golden/{doc.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/exprdoc -update
func RenderGolden(t *testing.T, doc *Document, opts ...Option) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, doc.Name, Format(doc, opts...))
}
