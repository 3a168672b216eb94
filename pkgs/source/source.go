// Package source wraps a scanner into the token-stream view the parser
// consumes: a current token, one-token lookahead (Peek), and save/restore
// over an internal token history. The same history doubles as the
// persistable memento — a scanned token stream serializes to a byte
// sequence of (kind, position, payload) records and can later be replayed
// through a Source with no scanner behind it, skipping re-tokenization
// when the same script runs repeatedly.
package source

import (
	"crypto/subtle"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/veloxlang/velox/pkgs/scanner"
)

// TokenSource produces a token stream; scanner.Scanner satisfies it.
type TokenSource interface {
	NextToken() (scanner.Token, error)
}

// Source is the token-stream view the parser consumes. Every scanned
// token is retained in an internal history, so the stream position moves
// freely backwards over already-seen tokens (Restore) and only ever asks
// the scanner for genuinely new ones. idx == -1 is the before-first
// state; a token at idx+1 means a lookahead is pending (the "peeked"
// state); otherwise the next Advance scans.
type Source struct {
	src    TokenSource
	tokens []scanner.Token
	idx    int
}

// New wraps src. The caller must have already attached the scanner to a
// character stream (scanner.Scanner.Reset).
func New(src TokenSource) *Source {
	return &Source{src: src, idx: -1}
}

// FromMemento builds a Source that replays a previously recorded token
// stream from its beginning, with no scanner behind it.
func FromMemento(m Memento) *Source {
	tokens := make([]scanner.Token, len(m.Tokens))
	copy(tokens, m.Tokens)
	return &Source{tokens: tokens, idx: -1}
}

func (src *Source) fetch() error {
	if src.src == nil {
		// Replaying a recorded stream: past its end, stay on the final
		// token (a recorded stream ends in end-of-source, which a live
		// scanner would likewise keep returning).
		if len(src.tokens) > 0 {
			return nil
		}
		return fmt.Errorf("source: empty token stream")
	}
	tok, err := src.src.NextToken()
	if err != nil {
		return err
	}
	src.tokens = append(src.tokens, tok)
	return nil
}

// Advance consumes the current token and makes the next one current,
// scanning only if the history holds no lookahead. It must be called once
// before the first Current.
func (src *Source) Advance() error {
	if src.idx+1 >= len(src.tokens) {
		if err := src.fetch(); err != nil {
			return err
		}
	}
	if src.idx+1 < len(src.tokens) {
		src.idx++
	}
	return nil
}

// Current returns the token Advance last produced. Calling it before the
// first Advance returns the zero Token.
func (src *Source) Current() scanner.Token {
	if src.idx < 0 || src.idx >= len(src.tokens) {
		return scanner.Token{}
	}
	return src.tokens[src.idx]
}

// Peek returns the token after the current one without consuming it: the
// next Advance promotes the peeked token instead of re-scanning, so the
// underlying scanner is never double-consumed.
func (src *Source) Peek() (scanner.Token, error) {
	if src.idx+1 >= len(src.tokens) {
		if err := src.fetch(); err != nil {
			return scanner.Token{}, err
		}
	}
	if src.idx+1 < len(src.tokens) {
		return src.tokens[src.idx+1], nil
	}
	return src.tokens[len(src.tokens)-1], nil
}

// CurrentKind, CurrentStr, CurrentInt and CurrentReal are typed
// convenience getters over Current()'s payload.
func (src *Source) CurrentKind() int             { return src.Current().Kind }
func (src *Source) CurrentStr() string           { return src.Current().Str }
func (src *Source) CurrentInt() int64            { return src.Current().Int }
func (src *Source) CurrentReal() float64         { return src.Current().Real }
func (src *Source) CurrentPos() scanner.TokenPos { return src.Current().Pos }

// Memento is a snapshot of the token stream scanned so far plus the
// position within it: one (kind, position, payload) record per token.
type Memento struct {
	Tokens []scanner.Token
	Index  int
}

// Save captures the stream position and every token scanned so far.
func (src *Source) Save() Memento {
	tokens := make([]scanner.Token, len(src.tokens))
	copy(tokens, src.tokens)
	return Memento{Tokens: tokens, Index: src.idx}
}

// Restore rewinds the stream position to a previously saved one. The live
// history is kept when it already extends past the memento's — both cover
// the same stream, and the longer prefix saves re-scans the underlying
// scanner could not repeat.
func (src *Source) Restore(m Memento) {
	if len(m.Tokens) > len(src.tokens) {
		src.tokens = make([]scanner.Token, len(m.Tokens))
		copy(src.tokens, m.Tokens)
	}
	src.idx = m.Index
}

// Record drains ts up to and including the first token of kind eosKind
// and returns the complete stream as a replayable memento.
func Record(ts TokenSource, eosKind int) (Memento, error) {
	var tokens []scanner.Token
	for {
		tok, err := ts.NextToken()
		if err != nil {
			return Memento{}, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == eosKind {
			return Memento{Tokens: tokens, Index: -1}, nil
		}
	}
}

type mementoWire struct {
	Payload  []byte
	Checksum [blake2b.Size256]byte
}

// Marshal encodes m as CBOR with a blake2b-256 checksum, so a persisted
// token stream that has been corrupted or hand-edited is rejected on
// replay rather than silently mis-tokenizing the script.
func (m Memento) Marshal() ([]byte, error) {
	payload, err := cbor.Marshal(m)
	if err != nil {
		return nil, err
	}
	wire := mementoWire{Payload: payload, Checksum: blake2b.Sum256(payload)}
	return cbor.Marshal(wire)
}

// UnmarshalMemento decodes data produced by Memento.Marshal, verifying its
// checksum in constant time.
func UnmarshalMemento(data []byte) (Memento, error) {
	var wire mementoWire
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return Memento{}, err
	}
	want := blake2b.Sum256(wire.Payload)
	if subtle.ConstantTimeCompare(want[:], wire.Checksum[:]) != 1 {
		return Memento{}, fmt.Errorf("source: memento checksum mismatch")
	}
	var m Memento
	if err := cbor.Unmarshal(wire.Payload, &m); err != nil {
		return Memento{}, err
	}
	return m, nil
}
