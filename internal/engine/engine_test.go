package engine

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traiter/internal/compiler"
	"github.com/roach88/traiter/internal/ir"
	"github.com/roach88/traiter/internal/rules"
	"github.com/roach88/traiter/internal/testutil"
)

func TestParse_EndToEnd(t *testing.T) {
	p := New(testutil.WeightGrammar(t))

	traits := p.Parse("weight 20 kg")
	require.Len(t, traits, 1)
	assert.Equal(t, "body_mass", traits[0].Name)
	assert.Equal(t, 20000.0, traits[0].Value())
	assert.Equal(t, []string{"g"}, traits[0].Units)
	start, end := traits[0].Span()
	assert.Equal(t, 0, start)
	assert.Equal(t, 12, end)

	assert.Empty(t, p.Parse("no weight here"))
	assert.NotNil(t, p.Parse(""), "empty text yields an empty list")
}

func TestParse_ClosureOfOneProducer(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("unused", `zzz`)
	reg.Fragment("a", `a`)
	reg.Fragment("b", `b`)
	reg.Fragment("c", `c`)
	reg.Fragment("d", `d`)
	reg.Fragment("e", `e`)
	reg.Replacer("ab", `a b`)
	reg.Producer("p", `ab c d e`, func(*ir.Token) []ir.Trait { return []ir.Trait{{Name: "p"}} })

	g, err := compiler.Compile(reg, []string{"p"})
	require.NoError(t, err)
	var compiled []string
	for _, alt := range g.Alternatives() {
		compiled = append(compiled, alt.Rule.Name)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "ab", "p"}, compiled)

	traits := New(g).Parse("a b c d e")
	require.Len(t, traits, 1)
	assert.Equal(t, "p", traits[0].Name)
	start, end := traits[0].Span()
	assert.Equal(t, 0, start)
	assert.Equal(t, 9, end)

	assert.Empty(t, New(g).Parse("zzz"), "rules outside the closure are not scanned")
}

func TestParse_LongestMatchWins(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("a", `a`)
	reg.Fragment("ab", `ab`)
	reg.Producer("p", `a | ab`, func(*ir.Token) []ir.Trait { return []ir.Trait{{}} })

	tr, err := New(testutil.MustCompile(t, reg)).Trace("ab")
	require.NoError(t, err)

	require.Len(t, tr.Scanned, 1)
	assert.Equal(t, "ab", tr.Scanned[0].Rule)
	assert.Equal(t, 0, tr.Scanned[0].Start)
	assert.Equal(t, 2, tr.Scanned[0].End)
}

func TestParse_PriorityBeatsLength(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("word", `[a-z]+`, rules.Last())
	reg.Fragment("short", `ab`)
	reg.Producer("p", `short | word`, func(*ir.Token) []ir.Trait { return []ir.Trait{{}} })

	tr, err := New(testutil.MustCompile(t, reg)).Trace("abc")
	require.NoError(t, err)

	require.Len(t, tr.Scanned, 1, "the longer word overlaps the winner and is dropped")
	assert.Equal(t, "short", tr.Scanned[0].Rule)
	assert.Equal(t, 2, tr.Scanned[0].End)
}

func TestParse_DeclarationOrderBreaksTies(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("first", `x`)
	reg.Fragment("second", `x`)
	reg.Producer("p", `first | second`, func(tok *ir.Token) []ir.Trait {
		return []ir.Trait{{Label: tok.Groups.Names()[0]}}
	})

	traits := New(testutil.MustCompile(t, reg)).Parse("x")
	require.Len(t, traits, 1)
	assert.Equal(t, "first", traits[0].Label)
}

func TestParse_NameAndSpanDefaults(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("number", `\d+`)
	reg.Producer("count", `number`, func(*ir.Token) []ir.Trait {
		return []ir.Trait{{Values: []float64{1}}}
	})

	traits := New(testutil.MustCompile(t, reg, compiler.WithName("counts"))).Parse("xx 42")
	require.Len(t, traits, 1)
	assert.Equal(t, "counts", traits[0].Name)
	assert.Equal(t, 3, traits[0].Start)
	assert.Equal(t, 5, traits[0].End)
}

func TestParse_GroupsMapBackToText(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("number", `\d+`)
	reg.Replacer("pair", `(?<lo> number ) (?<hi> number )`)
	reg.Producer("out", `pair`, func(tok *ir.Token) []ir.Trait {
		return []ir.Trait{{Label: tok.Groups.First("lo") + "-" + tok.Groups.First("hi")}}
	})

	tr, err := New(testutil.MustCompile(t, reg)).Trace("10 20")
	require.NoError(t, err)

	require.Len(t, tr.Passes, 1)
	require.Len(t, tr.Passes[0], 1)
	pair := tr.Passes[0][0]
	assert.Equal(t, "pair", pair.Rule)
	assert.Equal(t, 0, pair.Start)
	assert.Equal(t, 5, pair.End)
	assert.Equal(t, []string{"10", "20"}, pair.Groups.All("number"), "covered tokens keep their groups")
	assert.Equal(t, "10 20", pair.Groups.First("pair"), "replacers capture by default")
	assert.Equal(t, "10", pair.Groups.First("lo"))
	assert.Equal(t, "20", pair.Groups.First("hi"))

	require.Len(t, tr.Traits, 1)
	assert.Equal(t, "10-20", tr.Traits[0].Label)
}

func TestParse_RejectedSpanIsNotReoffered(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("number", `\d+`)
	reg.Producer("even", `number`, func(tok *ir.Token) []ir.Trait {
		n, _ := strconv.Atoi(tok.Groups.First("number"))
		if n%2 != 0 {
			return nil
		}
		return []ir.Trait{{Values: []float64{float64(n)}}}
	}, rules.First())
	reg.Producer("any", `number`, func(*ir.Token) []ir.Trait {
		return []ir.Trait{{Label: "any"}}
	})

	tr, err := New(testutil.MustCompile(t, reg)).Trace("3 4")
	require.NoError(t, err)

	require.Len(t, tr.Traits, 1)
	assert.Equal(t, 4.0, tr.Traits[0].Value())
	assert.Equal(t, 2, tr.Traits[0].Start)
	assert.Equal(t, 1, tr.Rejected)
}

func TestParse_FixUpVeto(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("number", `\d+`)
	reg.Producer("count", `number`, func(*ir.Token) []ir.Trait { return []ir.Trait{{}} })

	notFirst := func(tr *ir.Trait, text []rune) bool { return tr.Start > 0 }
	tr, err := New(testutil.MustCompile(t, reg, compiler.WithFixUps(notFirst))).Trace("1 2")
	require.NoError(t, err)

	require.Len(t, tr.Traits, 1)
	assert.Equal(t, 2, tr.Traits[0].Start)
	assert.Equal(t, 1, tr.Vetoed)
}

func TestParse_PassCeiling(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("f", `x`)
	reg.Replacer("r1", `f`)
	reg.Replacer("r2", `r1`)
	reg.Producer("p", `r1 | r2`, func(tok *ir.Token) []ir.Trait {
		if tok.Groups.Has("r2") {
			return []ir.Trait{{Label: "r2"}}
		}
		return []ir.Trait{{Label: "r1"}}
	})
	g := testutil.MustCompile(t, reg)

	tr, err := New(g).Trace("x")
	require.NoError(t, err)
	assert.Len(t, tr.Passes, 2)
	require.Len(t, tr.Traits, 1)
	assert.Equal(t, "r2", tr.Traits[0].Label)

	limited := New(g, WithMaxPasses(1), WithLogger(testutil.DiscardLogger()))
	tr, err = limited.Trace("x")
	require.Error(t, err)
	assert.True(t, IsPassLimitError(err))
	assert.Len(t, tr.Passes, 1)
	require.Len(t, tr.Traits, 1)
	assert.Equal(t, "r1", tr.Traits[0].Label, "produce runs on the last stream reached")

	traits := limited.Parse("x")
	require.Len(t, traits, 1, "Parse degrades instead of failing")
}

func TestParse_Deterministic(t *testing.T) {
	text := "weight 20 kg, mass 3.5 g; weight 7 g"
	first := New(testutil.WeightGrammar(t)).Parse(text)
	require.Len(t, first, 3)

	for range 10 {
		assert.Equal(t, first, New(testutil.WeightGrammar(t)).Parse(text))
	}
}

func TestParse_TokensNeverOverlap(t *testing.T) {
	reg := rules.NewRegistry()
	reg.Fragment("number", `\d+`)
	reg.Fragment("range", `{number} - {number}`)
	reg.Fragment("word", `\w+`, rules.Last())
	reg.Replacer("key", `word`)
	reg.Producer("p", `key range | range | number`, func(*ir.Token) []ir.Trait { return []ir.Trait{{}} })
	p := New(testutil.MustCompile(t, reg))

	for _, text := range []string{"a 1-2 3", "1-2-3-4", "abc12-34 x 5", "", "----"} {
		tr, err := p.Trace(text)
		require.NoError(t, err)

		streams := append([][]*ir.Token{tr.Scanned}, tr.Passes...)
		for _, tokens := range streams {
			for i := 1; i < len(tokens); i++ {
				assert.LessOrEqual(t, tokens[i-1].End, tokens[i].Start, "text %q", text)
			}
		}
		for i := 1; i < len(tr.Traits); i++ {
			assert.LessOrEqual(t, tr.Traits[i-1].Start, tr.Traits[i].Start)
		}
	}
}

func TestTrace_Final(t *testing.T) {
	tr := &Trace{Scanned: []*ir.Token{{Rule: "a"}}}
	assert.Equal(t, "a", tr.Final()[0].Rule)

	tr.Passes = [][]*ir.Token{{{Rule: "b"}}}
	assert.Equal(t, "b", tr.Final()[0].Rule)
}
