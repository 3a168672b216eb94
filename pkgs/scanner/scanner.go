package scanner

import (
	"github.com/veloxlang/velox/pkgs/charstream"
	"github.com/veloxlang/velox/pkgs/diag"
	"github.com/veloxlang/velox/pkgs/fsm"
)

// Scanner drives a compiled automaton one character at a time over a
// charstream.Stream, producing Tokens. Build it with Builder.Build; it is
// not safe for concurrent use, but Reset lets one Scanner be reused
// across multiple sources.
type Scanner struct {
	main         *fsm.Runtime
	blockComment *fsm.Runtime
	lineComment  *fsm.Runtime

	ignoreTokens         map[int]bool
	blockCommentStartTok int
	lineCommentStartTok  int
	errorMessages        []string

	src     charstream.Stream
	line    int
	col     int
	offset  int
	backlog []rune

	// position of the most recently read character, before the
	// line/column/offset counters advanced past it.
	chLine   int
	chCol    int
	chOffset int

	tokenType  int
	intValue   int64
	realValue  float64
	realFactor float64
	stringVal  []rune
	tokLine    int
	tokCol     int
	tokOffset  int
	markedPos  bool
	pending    []command
}

// Reset re-attaches the scanner to src, discarding any in-flight token
// state and rewinding position tracking to line 1, column 1.
func (s *Scanner) Reset(src charstream.Stream) {
	s.src = src
	s.line, s.col, s.offset = 1, 1, 0
	s.backlog = s.backlog[:0]
	s.main.Reset()
	if s.blockComment != nil {
		s.blockComment.Reset()
	}
	if s.lineComment != nil {
		s.lineComment.Reset()
	}
}

func (s *Scanner) queue(c command) {
	s.pending = append(s.pending, c)
}

// nextChar returns the next rune, preferring any pushed-back lookahead,
// and keeps line/column/offset tracking in sync with it.
func (s *Scanner) nextChar() rune {
	var ch rune
	if n := len(s.backlog); n > 0 {
		ch = s.backlog[n-1]
		s.backlog = s.backlog[:n-1]
	} else if s.src.IsEndOfStream() {
		ch = charstream.EndOfSource
	} else {
		ch = s.src.NextChar()
	}
	s.chLine, s.chCol, s.chOffset = s.line, s.col, s.offset
	if ch != charstream.EndOfSource {
		s.offset++
		if ch == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
	}
	return ch
}

// pushBack undoes exactly one nextChar call, restoring position tracking.
// The scan loop only ever looks one character past the end of a token, so
// a single-slot reversal is always correct here.
func (s *Scanner) pushBack(ch rune) {
	s.backlog = append(s.backlog, ch)
	s.line, s.col, s.offset = s.chLine, s.chCol, s.chOffset
}

func (s *Scanner) resetTokenState() {
	s.tokenType = -1
	s.intValue = 0
	s.realValue = 0
	s.realFactor = 1
	s.stringVal = s.stringVal[:0]
	s.markedPos = false
	s.pending = s.pending[:0]
	// Tokens whose first state carries no mark-start flag (end-of-source
	// in particular) default to the position scanning began at.
	s.tokLine, s.tokCol, s.tokOffset = s.line, s.col, s.offset
}

// commit applies one scan step's flags, then reduces and executes its
// queued commands.
func (s *Scanner) commit(flags uint, ch rune) error {
	if flags&flagAddStringChar != 0 {
		s.stringVal = append(s.stringVal, ch)
	} else if flags&flagMarkTokenStart != 0 && !s.markedPos {
		s.tokLine, s.tokCol, s.tokOffset = s.chLine, s.chCol, s.chOffset
		s.markedPos = true
	}
	return s.reduceAndExecute()
}

// discard drops this step's queued commands without executing them —
// used when a lookahead character fails to extend the current token.
func (s *Scanner) discard() {
	s.pending = s.pending[:0]
}

// reduceAndExecute keeps, for each command kind queued this step, only
// the highest-priority instance (ties keep whichever was queued first),
// then applies each survivor to the in-progress token.
func (s *Scanner) reduceAndExecute() error {
	var reduced []*command
	byKind := map[cmdKind]*command{}
	for i := range s.pending {
		c := &s.pending[i]
		if existing, ok := byKind[c.kind]; ok {
			existing.merge(*c)
			continue
		}
		cp := *c
		reduced = append(reduced, &cp)
		byKind[c.kind] = reduced[len(reduced)-1]
	}
	s.pending = s.pending[:0]

	for _, c := range reduced {
		switch c.kind {
		case cmdSetToken:
			s.tokenType = c.token
		case cmdAddChar:
			s.stringVal = append(s.stringVal, c.ch)
		case cmdAddInt:
			s.intValue = s.intValue*c.base + int64(c.digit)
		case cmdAddReal:
			s.realFactor *= float64(c.base)
			s.realValue += float64(c.digit) / s.realFactor
		case cmdEmitError:
			return diag.NewScanError(s.line, "%s", s.errorMessages[c.errIdx])
		}
	}
	return nil
}

// scan runs the two-phase maximal-munch loop over rt: advance
// unconditionally until an accepting state is reached, then keep
// extending one character at a time only while doing so stays accepting.
// The first extension that fails to transition or lands on a
// non-accepting state is rolled back: its queued commands are discarded
// and its lookahead character is pushed back for the next scan.
func (s *Scanner) scan(rt *fsm.Runtime) (Token, error) {
	rt.Reset()
	s.resetTokenState()

	ch := s.nextChar()
	for {
		accepting, err := rt.Process(ch, s)
		if err != nil {
			return Token{}, diag.NewScanError(s.line, "invalid character %q", ch)
		}
		if cerr := s.commit(rt.Flags(), ch); cerr != nil {
			return Token{}, cerr
		}
		ch = s.nextChar()
		if accepting {
			break
		}
	}
	for {
		accepting, err := rt.Process(ch, s)
		if err != nil || !accepting {
			s.discard()
			break
		}
		if cerr := s.commit(rt.Flags(), ch); cerr != nil {
			return Token{}, cerr
		}
		ch = s.nextChar()
	}
	s.pushBack(ch)

	// A real literal accumulates its integer part in intValue and its
	// fraction in realValue; the token's real payload is their sum.
	return Token{
		Kind: s.tokenType,
		Pos:  TokenPos{Line: s.tokLine, Column: s.tokCol, Offset: s.tokOffset},
		Str:  string(s.stringVal),
		Int:  s.intValue,
		Real: float64(s.intValue) + s.realValue,
	}, nil
}

// scanOnce scans one token from the main automaton, transparently
// consuming and discarding any block or line comment it encounters along
// the way.
func (s *Scanner) scanOnce() (Token, error) {
	tok, err := s.scan(s.main)
	if err != nil {
		return Token{}, err
	}
	for tok.Kind == s.blockCommentStartTok || tok.Kind == s.lineCommentStartTok {
		var sub *fsm.Runtime
		if tok.Kind == s.blockCommentStartTok {
			sub = s.blockComment
		} else {
			sub = s.lineComment
		}
		if sub == nil {
			return Token{}, diag.NewScanError(s.line, "comment encountered but not configured")
		}
		if _, err := s.scan(sub); err != nil {
			return Token{}, err
		}
		tok, err = s.scan(s.main)
		if err != nil {
			return Token{}, err
		}
	}
	return tok, nil
}

// NextToken returns the next token, silently skipping whitespace.
func (s *Scanner) NextToken() (Token, error) {
	for {
		tok, err := s.scanOnce()
		if err != nil {
			return Token{}, err
		}
		if !s.ignoreTokens[tok.Kind] {
			return tok, nil
		}
	}
}
