package source

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/veloxlang/velox/pkgs/charstream"
	"github.com/veloxlang/velox/pkgs/scanner"
)

const (
	tokEOS = iota
	tokIdent
	tokInt
	tokIllegal
)

func testScanner(t *testing.T) *scanner.Scanner {
	t.Helper()
	b := scanner.NewBuilder()
	b.SetEndOfSourceToken(tokEOS).
		SetIllegalToken(tokIllegal).
		SetIntegerToken(tokInt).
		SetRealToken(tokInt).
		SetIdent("_abcdefghijklmnopqrstuvwxyz", "_abcdefghijklmnopqrstuvwxyz0123456789", tokIdent).
		AddWhitespace(" \t\r\n")
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestAdvanceAndCurrent(t *testing.T) {
	s := testScanner(t)
	s.Reset(charstream.NewStringStream("abc 123"))
	src := New(s)

	require.NoError(t, src.Advance())
	require.Equal(t, tokIdent, src.CurrentKind())
	require.Equal(t, "abc", src.CurrentStr())

	require.NoError(t, src.Advance())
	require.Equal(t, tokInt, src.CurrentKind())
	require.Equal(t, int64(123), src.CurrentInt())
}

func TestPeekDoesNotDoubleConsume(t *testing.T) {
	s := testScanner(t)
	s.Reset(charstream.NewStringStream("abc 123"))
	src := New(s)
	require.NoError(t, src.Advance())

	peeked, err := src.Peek()
	require.NoError(t, err)
	require.Equal(t, tokInt, peeked.Kind)

	// peeking again must return the same token without re-scanning
	peekedAgain, err := src.Peek()
	require.NoError(t, err)
	require.Equal(t, peeked, peekedAgain)

	require.NoError(t, src.Advance())
	require.Equal(t, tokInt, src.CurrentKind())

	require.NoError(t, src.Advance())
	require.Equal(t, tokEOS, src.CurrentKind())
}

func TestSaveRestoreRewindsOverHistory(t *testing.T) {
	s := testScanner(t)
	s.Reset(charstream.NewStringStream("abc def ghi"))
	src := New(s)
	require.NoError(t, src.Advance())
	require.NoError(t, src.Advance())
	require.Equal(t, "def", src.CurrentStr())

	m := src.Save()

	require.NoError(t, src.Advance())
	require.Equal(t, "ghi", src.CurrentStr())

	src.Restore(m)
	require.Equal(t, "def", src.CurrentStr())

	// advancing after a restore replays the buffered token, never the
	// scanner (which has already consumed the stream past this point)
	require.NoError(t, src.Advance())
	require.Equal(t, "ghi", src.CurrentStr())
}

func drain(t *testing.T, src *Source) []scanner.Token {
	t.Helper()
	var out []scanner.Token
	for {
		require.NoError(t, src.Advance())
		tok := src.Current()
		out = append(out, tok)
		if tok.Kind == tokEOS {
			return out
		}
	}
}

func TestMementoReplayRoundTrip(t *testing.T) {
	s := testScanner(t)
	s.Reset(charstream.NewStringStream("abc 42 def"))
	direct := drain(t, New(s))

	s.Reset(charstream.NewStringStream("abc 42 def"))
	m, err := Record(s, tokEOS)
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)
	decoded, err := UnmarshalMemento(data)
	require.NoError(t, err)

	replayed := drain(t, FromMemento(decoded))
	require.Empty(t, cmp.Diff(direct, replayed))
}

func TestReplayPastEndStaysOnEndOfSource(t *testing.T) {
	s := testScanner(t)
	s.Reset(charstream.NewStringStream("abc"))
	m, err := Record(s, tokEOS)
	require.NoError(t, err)

	src := FromMemento(m)
	require.NoError(t, src.Advance())
	require.Equal(t, tokIdent, src.CurrentKind())
	require.NoError(t, src.Advance())
	require.Equal(t, tokEOS, src.CurrentKind())
	require.NoError(t, src.Advance())
	require.Equal(t, tokEOS, src.CurrentKind())
}

func TestMementoChecksumMismatch(t *testing.T) {
	s := testScanner(t)
	s.Reset(charstream.NewStringStream("abc"))
	m, err := Record(s, tokEOS)
	require.NoError(t, err)

	data, err := m.Marshal()
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF

	_, err = UnmarshalMemento(data)
	require.Error(t, err)
}
