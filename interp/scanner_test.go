package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, src string) []token {
	t.Helper()
	s := newScanner([]byte(src))
	var toks []token
	for {
		tok, err := s.next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.kind == tEOF {
			return toks
		}
	}
}

func TestScanner_KeywordsVsIdentsVsAliases(t *testing.T) {
	toks := scanAll(t, "def foo Bar")
	assert.Equal(t, tKeyword, toks[0].kind)
	assert.Equal(t, tIdent, toks[1].kind)
	assert.Equal(t, tAlias, toks[2].kind)
}

func TestScanner_PredicateIdentifiers(t *testing.T) {
	toks := scanAll(t, "contains? has_key?")
	assert.Equal(t, "contains?", toks[0].lit)
	assert.Equal(t, "has_key?", toks[1].lit)
}

func TestScanner_Numbers(t *testing.T) {
	toks := scanAll(t, "42 3.14 1_000 2.5e3")
	assert.Equal(t, tInt, toks[0].kind)
	assert.Equal(t, int64(42), toks[0].ival)
	assert.Equal(t, tFloat, toks[1].kind)
	assert.InDelta(t, 3.14, toks[1].fval, 1e-9)
	assert.Equal(t, int64(1000), toks[2].ival)
	assert.InDelta(t, 2500.0, toks[3].fval, 1e-9)
}

func TestScanner_Atoms(t *testing.T) {
	toks := scanAll(t, `:ok :"quoted atom"`)
	assert.Equal(t, tAtom, toks[0].kind)
	assert.Equal(t, "ok", toks[0].lit)
	assert.Equal(t, tAtom, toks[1].kind)
	assert.Equal(t, "quoted atom", toks[1].lit)
}

func TestScanner_StringEscapesAndInterpolationMarker(t *testing.T) {
	toks := scanAll(t, `"a\nb #{1 + 2} c"`)
	require.Equal(t, tString, toks[0].kind)
	assert.Equal(t, "a\nb #{1 + 2} c", toks[0].lit)
}

func TestScanner_OperatorsLongestMatchFirst(t *testing.T) {
	toks := scanAll(t, "=== !== == != >= <= && || <> ++ |> ->")
	wantLits := []string{"===", "!==", "==", "!=", ">=", "<=", "&&", "||", "<>", "++", "|>"}
	for i, lit := range wantLits {
		assert.Equal(t, lit, toks[i].lit, "token %d", i)
	}
	assert.Equal(t, tArrow, toks[len(wantLits)].kind)
}

func TestScanner_MapAndCaptureOperators(t *testing.T) {
	toks := scanAll(t, "%{} &f/1")
	assert.Equal(t, tOp, toks[0].kind)
	assert.Equal(t, "%", toks[0].lit)
	assert.Equal(t, tOp, toks[3].kind)
	assert.Equal(t, "&", toks[3].lit)
}

func TestScanner_AttributeName(t *testing.T) {
	toks := scanAll(t, "@moduledoc")
	assert.Equal(t, tAttrName, toks[0].kind)
	assert.Equal(t, "moduledoc", toks[0].lit)
}

func TestScanner_Sigil(t *testing.T) {
	toks := scanAll(t, "~s(hello)")
	assert.Equal(t, tSigilStart, toks[0].kind)
	assert.Equal(t, "s", toks[0].lit)
	assert.Equal(t, "hello", toks[0].raw)
}

func TestScanner_SigilPreservesInternalWhitespace(t *testing.T) {
	toks := scanAll(t, "~w(one two three)")
	assert.Equal(t, "one two three", toks[0].raw)
}

func TestScanner_SigilHandlesNestedDelimiters(t *testing.T) {
	toks := scanAll(t, "~s[a [nested] b]")
	assert.Equal(t, "a [nested] b", toks[0].raw)
}

func TestScanner_NewlineSignificant(t *testing.T) {
	toks := scanAll(t, "a\nb")
	assert.Equal(t, tIdent, toks[0].kind)
	assert.Equal(t, tNewline, toks[1].kind)
	assert.Equal(t, tIdent, toks[2].kind)
}

func TestScanner_CommentsIgnored(t *testing.T) {
	toks := scanAll(t, "a # a trailing comment\nb")
	assert.Equal(t, tIdent, toks[0].kind)
	assert.Equal(t, tNewline, toks[1].kind)
	assert.Equal(t, tIdent, toks[2].kind)
}

func TestScanner_UnterminatedStringErrors(t *testing.T) {
	s := newScanner([]byte(`"unterminated`))
	_, err := s.next()
	assert.Error(t, err)
}
