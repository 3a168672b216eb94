package parser

import (
	"golang.org/x/text/unicode/norm"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/charstream"
	"github.com/veloxlang/velox/pkgs/source"
)

// ScannedToken is a scanner.Token flattened to this package's own Kind,
// for callers (cmd/velox's `tokens` subcommand) that want the raw token
// stream without building an AST.
type ScannedToken struct {
	Kind Kind
	Str  string
	Int  int64
	Real float64
	Line int
}

// Tokenize runs the Velox lexer over text and returns every token up to
// and including EOS, the same NFC-normalized text ParseWithScanner feeds
// the scanner.
func Tokenize(text string) ([]ScannedToken, error) {
	s, err := newScanner()
	if err != nil {
		return nil, err
	}
	s.Reset(charstream.NewStringStream(norm.NFC.String(text)))

	var out []ScannedToken
	for {
		tok, err := s.NextToken()
		if err != nil {
			return out, err
		}
		out = append(out, ScannedToken{
			Kind: Kind(tok.Kind), Str: tok.Str, Int: tok.Int, Real: tok.Real,
			Line: tok.Pos.Line,
		})
		if Kind(tok.Kind) == EOS {
			return out, nil
		}
	}
}

// RecordTokens scans text with the Velox lexer and returns the complete
// token stream as a replayable source.Memento.
func RecordTokens(text string) (source.Memento, error) {
	s, err := newScanner()
	if err != nil {
		return source.Memento{}, err
	}
	s.Reset(charstream.NewStringStream(norm.NFC.String(text)))
	return source.Record(s, int(EOS))
}

// ParseMemento parses a previously recorded token stream instead of
// scanning source text, skipping tokenization entirely.
func ParseMemento(m source.Memento) (*ast.Node, error) {
	p := &Parser{src: source.FromMemento(m)}
	if err := p.src.Advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}
