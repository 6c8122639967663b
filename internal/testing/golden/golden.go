// Package golden compares export output against files under testdata/golden.
// Run tests with -update to rewrite them.
package golden

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Assert compares got with testdata/golden/<name>.golden.
func Assert(t *testing.T, name string, got []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, got)
}
