package pattern

import (
	"strings"
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamer(t *testing.T) {
	n := NewNamer()
	assert.Equal(t, "units__1", n.Next("units"))
	assert.Equal(t, "units__2", n.Next("units"))
	assert.Equal(t, "key__3", n.Next("key"))
	assert.Equal(t, 3, n.Count())
}

func TestLogicalName(t *testing.T) {
	tests := []struct {
		compiled string
		want     string
	}{
		{"units__12", "units"},
		{"shorthand_sep__3", "shorthand_sep"},
		{"units", "units"},
		{"a__b", "a__b"},
		{"x__", "x__"},
	}
	for _, tt := range tests {
		t.Run(tt.compiled, func(t *testing.T) {
			assert.Equal(t, tt.want, LogicalName(tt.compiled))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"python group", `(?P<sep> [:/-] ) \d+ (?P=sep)`, `(?<sep> [:/-] ) \d+ \k<sep>`},
		{"already normalized", `(?<a> x ) \k<a>`, `(?<a> x ) \k<a>`},
		{"quoted form", `(?'a' x ) \k'a'`, `(?<a> x ) \k<a>`},
		{"escaped paren is literal", `\(?P<x> y`, `\(?P<x> y`},
		{"inside class", `[(?P<x>]`, `[(?P<x>]`},
		{"lookbehind untouched", `(?<! [a-z] ) (?<= \d )`, `(?<! [a-z] ) (?<= \d )`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRenameGroupsKeepsWrapper(t *testing.T) {
	p := `(?<shorthand> (?<tl> \d+ ) (?<sep> - ) (?<tal> \d+ ) )`
	out, renames := RenameGroups(p, NewNamer(), true)

	assert.Equal(t, `(?<shorthand> (?<tl__1> \d+ ) (?<sep__2> - ) (?<tal__3> \d+ ) )`, out)
	require.Len(t, renames, 4)
	assert.Equal(t, Rename{Old: "shorthand", New: "shorthand", Pos: 0}, renames[0])
	assert.Equal(t, "sep__2", renames[2].New)
	assert.Equal(t, "(?<sep__2>", out[renames[2].Pos:renames[2].Pos+len("(?<sep__2>")])
}

func TestRenameGroupsAll(t *testing.T) {
	out, _ := RenameGroups(`(?<a> x ) (?<a> y )`, NewNamer(), false)
	assert.Equal(t, `(?<a__1> x ) (?<a__2> y )`, out)
}

func TestRenameGroupsIdempotentShape(t *testing.T) {
	once, _ := RenameGroups(`(?<w> (?<a> x ) )`, NewNamer(), true)
	twice, _ := RenameGroups(once, NewNamer(), true)

	assert.Equal(t, once, twice, "a fresh namer over renamed text yields the same names")
}

func TestRelinkBackrefsLexicalTie(t *testing.T) {
	// Two copies of the same fragment: each back-reference must bind to the
	// declaration in its own copy.
	frag := `(?<sep> [:/-] ) \d+ \k<sep> \d+`
	p := `(?<both> ` + frag + ` \s+ ` + frag + ` )`

	out, err := Compile(p, NewNamer(), true)
	require.NoError(t, err)

	assert.Equal(t,
		`(?<both> (?<sep__1> [:/-] ) \d+ \k<sep__1> \d+ \s+ (?<sep__2> [:/-] ) \d+ \k<sep__2> \d+ )`,
		out)
}

func TestRelinkBackrefsForwardReference(t *testing.T) {
	out, err := Compile(`(?: \k<a> | x ) (?<a> y )`, NewNamer(), false)
	require.NoError(t, err)
	assert.Equal(t, `(?: \k<a__1> | x ) (?<a__1> y )`, out)
}

func TestRelinkBackrefsUndefined(t *testing.T) {
	_, err := Compile(`(?<a> x ) \k<missing>`, NewNamer(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestCompiledBackrefConsistency(t *testing.T) {
	p, err := Compile(`(?<sh> \d+ (?<sep> [:/-] ) \d+ \k<sep> \d+ \k<sep> \d+ )`, NewNamer(), true)
	require.NoError(t, err)

	re := regexp2.MustCompile(`^`+p+`$`, regexp2.IgnoreCase|regexp2.IgnorePatternWhitespace)

	ok, err := re.MatchString("11-22-33-44")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = re.MatchString("11-22/33-44")
	require.NoError(t, err)
	assert.False(t, ok, "mixed separators must not match")
}

func TestReferences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", `key units number`, []string{"key", "units", "number"}},
		{"dedup", `key number | number`, []string{"key", "number"}},
		{"lookbehind", `(?<! other_wt ) (?: body mass | mass )`, []string{"other_wt", "body", "mass"}},
		{"named group", `(?<key> key_with_units ) range`, []string{"key_with_units", "range"}},
		{"backref and escapes", `\k<x> \b foo \d+`, []string{"foo"}},
		{"escape glued to word", `\bkey`, []string{"key"}},
		{"inline options", `(?i) a (?x-s: b )`, []string{"a", "b"}},
		{"quantifier", `number{2,3}`, []string{"number"}},
		{"comment", "key # not a ref\n units", []string{"key", "units"}},
		{"python syntax", `(?P<k> key ) (?P=k)`, []string{"key"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, References(tt.in))
		})
	}
}

func TestFragmentReferences(t *testing.T) {
	got := FragmentReferences(`{number} \s* (?: - {number} )? {units}{1,2} \p{L} \{literal}`)
	assert.Equal(t, []string{"number", "units"}, got)
}

func TestSubstituteReferences(t *testing.T) {
	codes := map[string]string{"key": "0001", "number": "0002"}
	resolve := func(w string) (string, error) {
		code, ok := codes[w]
		if !ok {
			return "", assert.AnError
		}
		return "(?:" + code + ";)", nil
	}

	out, err := SubstituteReferences(`(?<k> key ) number+`, resolve)
	require.NoError(t, err)
	assert.Equal(t, `(?<k> (?:0001;) ) (?:0002;)+`, out)

	_, err = SubstituteReferences(`key missing other`, resolve)
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), assert.AnError.Error()), "every failure is reported")
}

func TestExpandFragments(t *testing.T) {
	out, err := ExpandFragments(`{number} - {number}`, func(name string) (string, error) {
		return `(?<` + name + `> \d+ )`, nil
	})
	require.NoError(t, err)
	assert.Equal(t, `(?<number> \d+ ) - (?<number> \d+ )`, out)
	assert.Equal(t, []string{"number", "number"}, GroupNames(out))
}
