package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veloxlang/velox/pkgs/charstream"
)

const (
	identStartSymbols = "_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	identSymbols      = "_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

const (
	tokEOS = iota
	tokIllegal
	tokInteger
	tokReal
	tokString
	tokIdent
	tokIf
	tokAssign
	tokPlus
	tokLParen
	tokRParen
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	b.SetEndOfSourceToken(tokEOS).
		SetIllegalToken(tokIllegal).
		SetIntegerToken(tokInteger).
		SetRealToken(tokReal).
		SetStringToken(tokString).
		SetIdent(identStartSymbols, identSymbols, tokIdent).
		AddWhitespace(" \t\r\n").
		SetStringBody(" !#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[]^_`abcdefghijklmnopqrstuvwxyz{|}~").
		AddEscape('n', '\n').
		AddEscape('t', '\t').
		AddEscape('"', '"').
		AddEscape('\\', '\\').
		SetBlockComment("/*", "*/").
		SetLineComment("//").
		EnableHexLiterals()
	require.NoError(t, b.AddKeyword("if", tokIf))
	require.NoError(t, b.AddKeyword("=", tokAssign))
	require.NoError(t, b.AddKeyword("+", tokPlus))
	require.NoError(t, b.AddKeyword("(", tokLParen))
	require.NoError(t, b.AddKeyword(")", tokRParen))
	return b
}

func scanAll(t *testing.T, s *Scanner, src string) []Token {
	t.Helper()
	s.Reset(charstream.NewStringStream(src))
	var toks []Token
	for {
		tok, err := s.NextToken()
		require.NoError(t, err)
		if tok.Kind == tokEOS {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestIdentifierAndKeyword(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	toks := scanAll(t, s, "if iffy")
	require.Len(t, toks, 2)
	require.Equal(t, tokIf, toks[0].Kind)
	require.Equal(t, tokIdent, toks[1].Kind)
	require.Equal(t, "iffy", toks[1].Str)
}

func TestOperators(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	toks := scanAll(t, s, "x = (1+2)")
	kinds := make([]int, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	require.Equal(t, []int{tokIdent, tokAssign, tokLParen, tokInteger, tokPlus, tokInteger, tokRParen}, kinds)
}

func TestIntegerAndReal(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	toks := scanAll(t, s, "42 3.5 0x1F")
	require.Len(t, toks, 3)
	require.Equal(t, tokInteger, toks[0].Kind)
	require.Equal(t, int64(42), toks[0].Int)
	require.Equal(t, tokReal, toks[1].Kind)
	require.InDelta(t, 3.5, toks[1].Real, 1e-9)
	require.Equal(t, tokInteger, toks[2].Kind)
	require.Equal(t, int64(31), toks[2].Int)
}

func TestStringLiteralWithEscapes(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	toks := scanAll(t, s, `"hi\nthere"`)
	require.Len(t, toks, 1)
	require.Equal(t, tokString, toks[0].Kind)
	require.Equal(t, "hi\nthere", toks[0].Str)
}

// An empty string literal ("") is not recognized as a valid token: the
// closing-delimiter transition exists only out of the string-body state,
// so a delimiter immediately following the opening one falls through to
// the automaton's invalid-character handling.
func TestEmptyStringLiteralIsError(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	s.Reset(charstream.NewStringStream(`""`))
	_, err = s.NextToken()
	require.Error(t, err)
}

func TestUnterminatedStringIsError(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	s.Reset(charstream.NewStringStream(`"oops`))
	_, err = s.NextToken()
	require.Error(t, err)
}

func TestBlockAndLineCommentsAreSkipped(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	toks := scanAll(t, s, "1 /* comment\nspans lines */ + 2 // trailing\n")
	kinds := make([]int, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	require.Equal(t, []int{tokInteger, tokPlus, tokInteger}, kinds)
}

func TestInvalidCharacterIsError(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	s.Reset(charstream.NewStringStream("1 ~ 2"))
	_, err = s.NextToken()
	require.NoError(t, err)
	_, err = s.NextToken()
	require.Error(t, err)
}

func TestTokenPosition(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	toks := scanAll(t, s, "a\n  bb")
	require.Len(t, toks, 2)
	require.Equal(t, TokenPos{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	require.Equal(t, TokenPos{Line: 2, Column: 3, Offset: 4}, toks[1].Pos)
}

func TestRealLiteralCombinesIntegerAndFraction(t *testing.T) {
	s, err := testBuilder(t).Build()
	require.NoError(t, err)

	toks := scanAll(t, s, "12.25 .5")
	require.Len(t, toks, 2)
	require.Equal(t, tokReal, toks[0].Kind)
	require.InDelta(t, 12.25, toks[0].Real, 1e-9)
	require.Equal(t, tokReal, toks[1].Kind)
	require.InDelta(t, 0.5, toks[1].Real, 1e-9)
}

func TestConfigBuildsScanner(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"identStart": "_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
		"identCont": "_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
		"whitespace": " \t\r\n",
		"keywords": {"if": 10, "=": 11}
	}`))
	require.NoError(t, err)

	b, err := cfg.NewBuilder()
	require.NoError(t, err)
	b.SetEndOfSourceToken(tokEOS).
		SetIllegalToken(tokIllegal).
		SetIntegerToken(tokInteger).
		SetRealToken(tokReal).
		SetIdentToken(tokIdent)

	s, err := b.Build()
	require.NoError(t, err)

	toks := scanAll(t, s, "if x")
	require.Len(t, toks, 2)
	require.Equal(t, 10, toks[0].Kind)
	require.Equal(t, tokIdent, toks[1].Kind)
}
