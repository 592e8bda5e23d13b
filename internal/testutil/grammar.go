package testutil

import (
	"io"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/rules"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MustCompile compiles reg with every producer as a root and fails the
// test on error.
func MustCompile(t testing.TB, reg *rules.Registry, opts ...compiler.Option) *compiler.Grammar {
	t.Helper()
	g, err := compiler.Compile(reg, nil, opts...)
	require.NoError(t, err)
	return g
}

// WeightRegistry recognizes "<key> <number> <units>" and converts to grams.
// It is the smallest grammar that exercises all three phases.
func WeightRegistry() *rules.Registry {
	reg := rules.NewRegistry()
	reg.Fragment("number", `\d+ (?: \. \d+ )?`)
	reg.Keyword("units", `kg | g`)
	reg.Keyword("key", `weight | mass`)
	reg.Producer("weight", `key number units`, func(tok *ir.Token) []ir.Trait {
		v, err := strconv.ParseFloat(tok.Groups.First("number"), 64)
		if err != nil {
			return nil
		}
		if tok.Groups.First("units") == "kg" {
			v *= 1000
		}
		return []ir.Trait{{Name: "body_mass", Values: []float64{v}, Units: []string{"g"}}}
	})
	return reg
}

// WeightGrammar compiles WeightRegistry.
func WeightGrammar(t testing.TB) *compiler.Grammar {
	t.Helper()
	return MustCompile(t, WeightRegistry())
}
