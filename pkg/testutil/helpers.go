// Package testutil provides common utility functions for testing.
package testutil

import (
	"strings"
	"testing"

	"github.com/iwvelando/hp12c/internal/calculator"
)

// Press applies the space separated key tokens in seq to s, failing the
// test on an unknown token.
func Press(t testing.TB, e *calculator.Engine, s calculator.State, seq string) calculator.State {
	t.Helper()
	keys, err := calculator.ParseKeys(strings.Fields(seq))
	if err != nil {
		t.Fatalf("invalid key sequence %q: %v", seq, err)
	}
	for _, k := range keys {
		s = e.Apply(s, k)
	}
	return s
}

// Run applies seq to a fresh power-on state of e.
func Run(t testing.TB, e *calculator.Engine, seq string) calculator.State {
	t.Helper()
	return Press(t, e, e.NewState(), seq)
}
