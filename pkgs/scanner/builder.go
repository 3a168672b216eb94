package scanner

import (
	"fmt"

	"github.com/veloxlang/velox/pkgs/fsm"
)

// Internal pseudo-tokens, never returned from NextToken: they signal the
// main automaton to hand control to a comment-eating sub-automaton, or
// mark whitespace to be silently skipped. Caller token kinds are expected
// to be non-negative, so negative values are a safe private namespace.
const (
	tokWhitespace        = -1
	tokBlockCommentStart = -2
	tokBlockCommentEnd   = -3
	tokLineCommentStart  = -4
	tokLineCommentEnd    = -5
)

const (
	flagMarkTokenStart uint = 1 << 0
	// flagAddStringChar appends the current character to the token's
	// string value without going through the command queue. No built-in
	// Builder state sets it — string bodies accumulate through the
	// add-char command — but callers constructing automata by hand can.
	flagAddStringChar uint = 1 << 1
)

type specialToken int

const (
	specialIdent specialToken = iota
	specialEOS
	specialIllegal
	specialInteger
	specialReal
	specialString
)

type keywordEntry struct {
	lit   string
	token int
}

// Builder assembles a Scanner from a declarative description of a
// language's lexical surface: identifier/whitespace/string alphabets,
// integer and real number literals (with optional hex), string escapes,
// block/line comments, and a keyword/operator table. Build compiles the
// description into an automaton and returns a ready Scanner.
type Builder struct {
	identStart map[rune]bool
	identCont  map[rune]bool
	whitespace map[rune]bool
	stringBody map[rune]bool

	keywordOrder []keywordEntry
	keywordSet   map[string]bool

	decimalSeparator rune
	stringDelimiter  rune
	escapeChar       rune
	escapes          map[rune]rune

	blockCommentStart, blockCommentEnd string
	lineComment                        string

	hexLiterals bool
	colorToken  *int

	special map[specialToken]int

	// build-time state, populated by Build.
	nfa          *fsm.NFA
	start        uint
	qString      uint
	qStringStart uint
	qStringError uint
	qStringEnd   uint

	msgStringNotClosed       int
	msgIllegalEscape         int
	msgBlockCommentNotClosed int
	msgInvalidChar           int
}

// NewBuilder returns a Builder with the conventional defaults: decimal
// separator '.', string delimiter '"', escape character '\'.
func NewBuilder() *Builder {
	return &Builder{
		identStart:       map[rune]bool{},
		identCont:        map[rune]bool{},
		whitespace:       map[rune]bool{},
		stringBody:       map[rune]bool{},
		keywordSet:       map[string]bool{},
		decimalSeparator: '.',
		stringDelimiter:  '"',
		escapeChar:       '\\',
		escapes:          map[rune]rune{},
		special:          map[specialToken]int{},
	}
}

func runeSet(s string) map[rune]bool {
	m := make(map[rune]bool, len(s))
	for _, r := range s {
		m[r] = true
	}
	return m
}

// SetIdent configures identifiers: startSymbols may begin one, symbols
// may continue one, and token is the kind emitted for them.
func (b *Builder) SetIdent(startSymbols, symbols string, token int) *Builder {
	b.special[specialIdent] = token
	b.identStart = runeSet(startSymbols)
	b.identCont = runeSet(symbols)
	return b
}

func (b *Builder) SetIdentToken(token int) *Builder { b.special[specialIdent] = token; return b }
func (b *Builder) AddIdentStart(chars string) *Builder {
	for _, r := range chars {
		b.identStart[r] = true
	}
	return b
}
func (b *Builder) AddIdentCont(chars string) *Builder {
	for _, r := range chars {
		b.identCont[r] = true
	}
	return b
}

// AddWhitespace marks chars as whitespace: runs of them scan to a token
// that NextToken silently discards.
func (b *Builder) AddWhitespace(chars string) *Builder {
	for _, r := range chars {
		b.whitespace[r] = true
	}
	return b
}

func (b *Builder) SetEndOfSourceToken(token int) *Builder { b.special[specialEOS] = token; return b }
func (b *Builder) SetIllegalToken(token int) *Builder     { b.special[specialIllegal] = token; return b }
func (b *Builder) SetIntegerToken(token int) *Builder     { b.special[specialInteger] = token; return b }
func (b *Builder) SetRealToken(token int) *Builder        { b.special[specialReal] = token; return b }
func (b *Builder) SetStringToken(token int) *Builder      { b.special[specialString] = token; return b }
func (b *Builder) SetDecimalSeparator(ch rune) *Builder   { b.decimalSeparator = ch; return b }
func (b *Builder) SetStringDelimiter(ch rune) *Builder    { b.stringDelimiter = ch; return b }
func (b *Builder) SetEscapeChar(ch rune) *Builder         { b.escapeChar = ch; return b }
func (b *Builder) AddEscape(seq, target rune) *Builder    { b.escapes[seq] = target; return b }
func (b *Builder) SetStringBody(chars string) *Builder    { b.stringBody = runeSet(chars); return b }

// EnableHexLiterals turns on 0x-prefixed hexadecimal integer literals.
func (b *Builder) EnableHexLiterals() *Builder { b.hexLiterals = true; return b }

// SetColorToken turns on '#'-prefixed 6- or 8-hex-digit color literals
// (e.g. #ff00aa, #ff00aaff), emitted as token with the hex digits (sans
// '#') in Token.Str.
func (b *Builder) SetColorToken(token int) *Builder { t := token; b.colorToken = &t; return b }

func (b *Builder) SetBlockComment(start, end string) *Builder {
	b.blockCommentStart, b.blockCommentEnd = start, end
	return b
}
func (b *Builder) SetLineComment(prefix string) *Builder { b.lineComment = prefix; return b }

// HasKeyword reports whether lit is already registered.
func (b *Builder) HasKeyword(lit string) bool { return b.keywordSet[lit] }

// AddKeyword registers a literal token — a reserved word or an operator,
// the distinction only matters internally by whether its first rune can
// also start an identifier. Both are built as literal tries from the
// start state, so "=" and "==" (or "if" and an identifier "iffy") share
// their NFA prefix until the powerset construction resolves the longest
// match.
func (b *Builder) AddKeyword(lit string, token int) error {
	if lit == "" {
		return fmt.Errorf("scanner: keyword must not be empty")
	}
	if token < 0 {
		return fmt.Errorf("scanner: token must be >= 0, got %d", token)
	}
	if b.keywordSet[lit] {
		return fmt.Errorf("scanner: ambiguous keyword %q", lit)
	}
	b.keywordSet[lit] = true
	b.keywordOrder = append(b.keywordOrder, keywordEntry{lit, token})
	return nil
}

func (b *Builder) verify() error {
	if _, ok := b.special[specialEOS]; !ok {
		return fmt.Errorf("scanner: no token specified for end-of-source symbol")
	}
	if _, ok := b.special[specialIllegal]; !ok {
		return fmt.Errorf("scanner: no token specified for illegal symbols")
	}
	if _, ok := b.special[specialInteger]; !ok {
		return fmt.Errorf("scanner: no token specified for integers")
	}
	if _, ok := b.special[specialReal]; !ok {
		return fmt.Errorf("scanner: no token specified for floating-point numbers")
	}
	if _, ok := b.special[specialIdent]; ok {
		if len(b.identStart) == 0 {
			return fmt.Errorf("scanner: no start symbols defined for identifiers")
		}
		if len(b.identCont) == 0 {
			return fmt.Errorf("scanner: no symbols defined for identifiers")
		}
	}
	if _, ok := b.special[specialString]; ok {
		if b.stringBody[b.stringDelimiter] {
			return fmt.Errorf("scanner: string delimiter must not be part of string body symbols")
		}
	}
	return nil
}

func (b *Builder) collectAlphabet() map[rune]bool {
	a := map[rune]bool{}
	for ch := range b.whitespace {
		a[ch] = true
	}
	if _, ok := b.special[specialIdent]; ok {
		for ch := range b.identStart {
			a[ch] = true
		}
		for ch := range b.identCont {
			a[ch] = true
		}
	}
	if _, ok := b.special[specialString]; ok {
		for ch := range b.stringBody {
			a[ch] = true
		}
		a[b.stringDelimiter] = true
		a[b.escapeChar] = true
	}
	if b.blockCommentStart != "" && b.blockCommentEnd != "" {
		for _, ch := range b.blockCommentStart {
			a[ch] = true
		}
		for _, ch := range b.blockCommentEnd {
			a[ch] = true
		}
	}
	if len(a) > 0 {
		for _, ch := range b.lineComment {
			a[ch] = true
		}
	}
	a[b.decimalSeparator] = true
	a[fsm.EndOfSource] = true
	for _, kw := range b.keywordOrder {
		for _, ch := range kw.lit {
			a[ch] = true
		}
	}
	for ch := rune('0'); ch <= '9'; ch++ {
		a[ch] = true
	}
	if b.hexLiterals {
		for ch := rune('a'); ch <= 'f'; ch++ {
			a[ch] = true
		}
		for ch := rune('A'); ch <= 'F'; ch++ {
			a[ch] = true
		}
		a['x'] = true
		a['X'] = true
	}
	if b.colorToken != nil {
		a['#'] = true
		for ch := rune('a'); ch <= 'f'; ch++ {
			a[ch] = true
		}
		for ch := rune('A'); ch <= 'F'; ch++ {
			a[ch] = true
		}
	}
	return a
}

func setTokenFunc(token int, pr priority) fsm.EnterAction {
	return func(sym rune, ctx interface{}) {
		ctx.(*Scanner).queue(command{kind: cmdSetToken, priority: pr, token: token})
	}
}

func setTokenAndAddCharFunc(token int, pr priority) fsm.EnterAction {
	return func(sym rune, ctx interface{}) {
		s := ctx.(*Scanner)
		s.queue(command{kind: cmdSetToken, priority: pr, token: token})
		s.queue(command{kind: cmdAddChar, priority: pr, ch: sym})
	}
}

func addCharFunc(pr priority) fsm.EnterAction {
	return func(sym rune, ctx interface{}) {
		ctx.(*Scanner).queue(command{kind: cmdAddChar, priority: pr, ch: sym})
	}
}

func errorFunc(errIdx int, pr priority) fsm.EnterAction {
	return func(sym rune, ctx interface{}) {
		ctx.(*Scanner).queue(command{kind: cmdEmitError, priority: pr, errIdx: errIdx})
	}
}

// Build compiles the configuration into a Scanner. It fails if a
// required special token is missing, identifiers are only half
// configured, or the keyword/operator table collapses ambiguously.
func (b *Builder) Build() (*Scanner, error) {
	if err := b.verify(); err != nil {
		return nil, err
	}

	var errMsgs []string
	addMsg := func(s string) int {
		errMsgs = append(errMsgs, s)
		return len(errMsgs) - 1
	}
	b.msgStringNotClosed = addMsg("string literal not closed")
	b.msgIllegalEscape = addMsg("illegal escape sequence")
	b.msgBlockCommentNotClosed = addMsg("block comment not closed")
	b.msgInvalidChar = addMsg("invalid character")

	alphabet := b.collectAlphabet()

	b.nfa = fsm.NewNFA()

	b.start = b.nfa.BeginState()
	b.nfa.SetStartState()
	b.nfa.SetName("START")
	b.nfa.EndState()

	if err := b.buildWhitespace(); err != nil {
		return nil, err
	}
	if err := b.buildEndOfSource(); err != nil {
		return nil, err
	}
	if err := b.buildNumbers(); err != nil {
		return nil, err
	}
	for _, kw := range b.keywordOrder {
		if err := b.buildKeyword(kw); err != nil {
			return nil, err
		}
	}
	if _, ok := b.special[specialIdent]; ok {
		if err := b.buildIdent(); err != nil {
			return nil, err
		}
	}
	if _, ok := b.special[specialString]; ok {
		if err := b.buildString(alphabet); err != nil {
			return nil, err
		}
		if err := b.buildEscapes(alphabet); err != nil {
			return nil, err
		}
	}
	if b.colorToken != nil {
		if err := b.buildColorLiteral(); err != nil {
			return nil, err
		}
	}
	if b.blockCommentStart != "" && b.blockCommentEnd != "" {
		if err := b.buildLiteralMarker(b.blockCommentStart, tokBlockCommentStart); err != nil {
			return nil, err
		}
	}
	if b.lineComment != "" {
		if err := b.buildLiteralMarker(b.lineComment, tokLineCommentStart); err != nil {
			return nil, err
		}
	}

	dfa, err := fsm.Build(b.nfa)
	if err != nil {
		return nil, err
	}

	// Powerset construction leaves dead ends wherever no feature claimed
	// a symbol: a state with no transitions that also isn't accepting.
	// Such a state can only be reached by a character the rest of the
	// automaton doesn't recognize, so turn it into an accepting error
	// state instead of leaving it a trap the runtime would reject with a
	// generic "no transition" error.
	for i := 0; i < dfa.NumStates(); i++ {
		if !dfa.IsDeadEnd(uint(i)) {
			continue
		}
		dfa.BeginStateAt(uint(i))
		dfa.SetAccepting(true)
		dfa.SetEnterAction(errorFunc(b.msgInvalidChar, NormalPriority))
		dfa.EndState()
	}

	var blockDFA, lineDFA *fsm.DFA
	if b.blockCommentStart != "" && b.blockCommentEnd != "" {
		blockDFA, err = b.buildBlockCommentAutomaton(alphabet)
		if err != nil {
			return nil, err
		}
	}
	if b.lineComment != "" {
		lineDFA, err = b.buildLineCommentAutomaton(alphabet)
		if err != nil {
			return nil, err
		}
	}

	main, err := fsm.NewRuntime(dfa)
	if err != nil {
		return nil, err
	}

	s := &Scanner{
		main:                 main,
		errorMessages:        errMsgs,
		ignoreTokens:         map[int]bool{tokWhitespace: true},
		blockCommentStartTok: tokBlockCommentStart,
		lineCommentStartTok:  tokLineCommentStart,
		line:                 1,
		col:                  1,
	}
	if blockDFA != nil {
		rt, err := fsm.NewRuntime(blockDFA)
		if err != nil {
			return nil, err
		}
		s.blockComment = rt
	}
	if lineDFA != nil {
		rt, err := fsm.NewRuntime(lineDFA)
		if err != nil {
			return nil, err
		}
		s.lineComment = rt
	}
	return s, nil
}

func (b *Builder) buildWhitespace() error {
	if len(b.whitespace) == 0 {
		return nil
	}
	ws := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(setTokenFunc(tokWhitespace, NormalPriority))
	for ch := range b.whitespace {
		b.nfa.AddTransition(ch, ws)
	}
	b.nfa.EndState()

	b.nfa.BeginStateAt(b.start)
	for ch := range b.whitespace {
		b.nfa.AddTransition(ch, ws)
	}
	b.nfa.EndState()
	return nil
}

func (b *Builder) buildEndOfSource() error {
	tok := b.special[specialEOS]
	eos := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(setTokenFunc(tok, NormalPriority))
	b.nfa.EndState()

	b.nfa.BeginStateAt(b.start)
	b.nfa.AddTransition(fsm.EndOfSource, eos)
	b.nfa.EndState()
	return nil
}

func (b *Builder) buildNumbers() error {
	intTok := b.special[specialInteger]
	realTok := b.special[specialReal]

	qInt := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(func(sym rune, ctx interface{}) {
		s := ctx.(*Scanner)
		s.queue(command{kind: cmdAddInt, priority: NormalPriority, digit: int(sym - '0'), base: 10})
		s.queue(command{kind: cmdSetToken, priority: NormalPriority, token: intTok})
	})
	for ch := rune('0'); ch <= '9'; ch++ {
		b.nfa.AddTransition(ch, qInt)
	}
	b.nfa.EndState()

	qIntStart := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetFlags(flagMarkTokenStart)
	b.nfa.SetEnterAction(func(sym rune, ctx interface{}) {
		s := ctx.(*Scanner)
		s.queue(command{kind: cmdAddInt, priority: NormalPriority, digit: int(sym - '0'), base: 10})
		s.queue(command{kind: cmdSetToken, priority: NormalPriority, token: intTok})
	})
	for ch := rune('0'); ch <= '9'; ch++ {
		b.nfa.AddTransition(ch, qInt)
	}
	b.nfa.EndState()

	b.nfa.BeginStateAt(b.start)
	for ch := rune('0'); ch <= '9'; ch++ {
		b.nfa.AddTransition(ch, qIntStart)
	}
	b.nfa.EndState()

	qReal := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(func(sym rune, ctx interface{}) {
		s := ctx.(*Scanner)
		s.queue(command{kind: cmdAddReal, priority: NormalPriority, digit: int(sym - '0'), base: 10})
		s.queue(command{kind: cmdSetToken, priority: NormalPriority, token: realTok})
	})
	for ch := rune('0'); ch <= '9'; ch++ {
		b.nfa.AddTransition(ch, qReal)
	}
	b.nfa.EndState()

	qRealStart := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(setTokenFunc(realTok, LowPriority))
	for ch := rune('0'); ch <= '9'; ch++ {
		b.nfa.AddTransition(ch, qReal)
	}
	b.nfa.EndState()

	b.nfa.BeginStateAt(b.start)
	b.nfa.AddTransition(b.decimalSeparator, qRealStart)
	b.nfa.EndState()

	b.nfa.BeginStateAt(qInt)
	b.nfa.AddTransition(b.decimalSeparator, qRealStart)
	b.nfa.EndState()

	b.nfa.BeginStateAt(qIntStart)
	b.nfa.AddTransition(b.decimalSeparator, qRealStart)
	b.nfa.EndState()

	if b.hexLiterals {
		if err := b.buildHex(intTok); err != nil {
			return err
		}
	}
	return nil
}

func addHexTransitions(nfa *fsm.NFA, target uint) {
	for ch := rune('0'); ch <= '9'; ch++ {
		nfa.AddTransition(ch, target)
	}
	for ch := rune('a'); ch <= 'f'; ch++ {
		nfa.AddTransition(ch, target)
	}
	for ch := rune('A'); ch <= 'F'; ch++ {
		nfa.AddTransition(ch, target)
	}
}

func hexDigit(ch rune) int {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		return int(ch-'a') + 10
	default:
		return int(ch-'A') + 10
	}
}

func (b *Builder) buildHex(intTok int) error {
	qHex := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(func(sym rune, ctx interface{}) {
		s := ctx.(*Scanner)
		s.queue(command{kind: cmdAddInt, priority: NormalPriority, digit: hexDigit(sym), base: 16})
		s.queue(command{kind: cmdSetToken, priority: NormalPriority, token: intTok})
	})
	addHexTransitions(b.nfa, qHex)
	b.nfa.EndState()

	qHexStart2 := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	addHexTransitions(b.nfa, qHex)
	b.nfa.EndState()

	qHexStart1 := b.nfa.BeginState()
	b.nfa.AddTransition('x', qHexStart2)
	b.nfa.AddTransition('X', qHexStart2)
	b.nfa.SetEnterAction(setTokenFunc(intTok, NormalPriority))
	b.nfa.EndState()

	b.nfa.BeginStateAt(b.start)
	b.nfa.AddTransition('0', qHexStart1)
	b.nfa.EndState()
	return nil
}

func (b *Builder) buildIdent() error {
	tok := b.special[specialIdent]

	qIdent := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(setTokenAndAddCharFunc(tok, NormalPriority))
	for ch := range b.identCont {
		b.nfa.AddTransition(ch, qIdent)
	}
	b.nfa.EndState()

	qIdentStart := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetFlags(flagMarkTokenStart)
	b.nfa.SetEnterAction(setTokenAndAddCharFunc(tok, NormalPriority))
	for ch := range b.identCont {
		b.nfa.AddTransition(ch, qIdent)
	}
	b.nfa.EndState()

	b.nfa.BeginStateAt(b.start)
	for ch := range b.identStart {
		b.nfa.AddTransition(ch, qIdentStart)
	}
	b.nfa.EndState()
	return nil
}

// buildKeyword builds a literal trie from the start state for one
// keyword/operator. If its first rune can also start an identifier, the
// intermediate states double as identifier-continuation states (so
// "iffy" scans as an identifier, not "if" followed by "fy"); the final
// state's keyword-wins command is queued at HighPriority so it beats the
// generic identifier continuation's NormalPriority one on a tie.
func (b *Builder) buildKeyword(kw keywordEntry) error {
	runes := []rune(kw.lit)
	isIdentLike := b.identStart[runes[0]]

	if _, err := b.nfa.BeginStateAt(b.start); err != nil {
		return err
	}
	first := true
	for _, ch := range runes {
		q := b.nfa.CreateState()
		if err := b.nfa.AddTransition(ch, q); err != nil {
			return err
		}
		b.nfa.EndState()
		if _, err := b.nfa.BeginStateAt(q); err != nil {
			return err
		}
		if first {
			b.nfa.AddFlags(flagMarkTokenStart)
			first = false
		}
		if isIdentLike {
			b.nfa.SetEnterAction(addCharFunc(NormalPriority))
		}
	}
	b.nfa.SetAccepting(true)
	if isIdentLike {
		b.nfa.SetEnterAction(setTokenAndAddCharFunc(kw.token, HighPriority))
	} else {
		b.nfa.SetEnterAction(setTokenFunc(kw.token, NormalPriority))
	}
	b.nfa.EndState()
	return nil
}

func (b *Builder) buildLiteralMarker(lit string, token int) error {
	runes := []rune(lit)
	if _, err := b.nfa.BeginStateAt(b.start); err != nil {
		return err
	}
	for _, ch := range runes {
		q := b.nfa.CreateState()
		if err := b.nfa.AddTransition(ch, q); err != nil {
			return err
		}
		b.nfa.EndState()
		if _, err := b.nfa.BeginStateAt(q); err != nil {
			return err
		}
	}
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(setTokenFunc(token, NormalPriority))
	b.nfa.EndState()
	return nil
}

func (b *Builder) buildString(alphabet map[rune]bool) error {
	tok := b.special[specialString]

	qError := b.nfa.BeginState()
	b.nfa.SetName("STRING_ERROR")
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(errorFunc(b.msgStringNotClosed, NormalPriority))
	b.nfa.EndState()
	b.qStringError = qError

	qEnd := b.nfa.BeginState()
	b.nfa.SetName("STRING_END")
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(setTokenFunc(tok, NormalPriority))
	b.nfa.EndState()
	b.qStringEnd = qEnd

	qString := b.nfa.BeginState()
	b.nfa.SetName("STRING")
	b.nfa.SetEnterAction(addCharFunc(NormalPriority))
	for ch := range alphabet {
		if ch == b.escapeChar {
			continue
		} else if b.stringBody[ch] {
			b.nfa.AddTransition(ch, qString)
		} else if ch != b.stringDelimiter {
			b.nfa.AddTransition(ch, qError)
		}
	}
	b.nfa.AddTransition(b.stringDelimiter, qEnd)
	b.nfa.EndState()
	b.qString = qString

	qStart := b.nfa.BeginState()
	b.nfa.SetName("STRING_START")
	b.nfa.SetFlags(flagMarkTokenStart)
	for ch := range alphabet {
		if ch == b.escapeChar {
			continue
		} else if b.stringBody[ch] {
			b.nfa.AddTransition(ch, qString)
		} else if ch != b.stringDelimiter {
			b.nfa.AddTransition(ch, qError)
		}
	}
	b.nfa.EndState()
	b.qStringStart = qStart

	b.nfa.BeginStateAt(b.start)
	b.nfa.AddTransition(b.stringDelimiter, qStart)
	b.nfa.EndState()
	return nil
}

func (b *Builder) buildEscapes(alphabet map[rune]bool) error {
	if len(b.escapes) == 0 {
		if b.stringBody[b.escapeChar] {
			b.nfa.BeginStateAt(b.qStringStart)
			b.nfa.AddTransition(b.escapeChar, b.qString)
			b.nfa.EndState()
			b.nfa.BeginStateAt(b.qString)
			b.nfa.AddTransition(b.escapeChar, b.qString)
			b.nfa.EndState()
		}
		return nil
	}

	qEscapeError := b.nfa.BeginState()
	b.nfa.SetAccepting(true)
	b.nfa.SetEnterAction(errorFunc(b.msgIllegalEscape, NormalPriority))
	b.nfa.EndState()

	qEscapeStart := b.nfa.BeginState()
	for ch := range alphabet {
		if _, ok := b.escapes[ch]; !ok {
			b.nfa.AddTransition(ch, qEscapeError)
		}
	}
	b.nfa.EndState()

	for seq, target := range b.escapes {
		qEscape := b.nfa.BeginState()
		tgt := target
		b.nfa.SetEnterAction(func(sym rune, ctx interface{}) {
			ctx.(*Scanner).queue(command{kind: cmdAddChar, priority: NormalPriority, ch: tgt})
		})
		for ch := range alphabet {
			if ch == b.escapeChar {
				b.nfa.AddTransition(b.escapeChar, qEscape)
			} else if b.stringBody[ch] {
				b.nfa.AddTransition(ch, b.qString)
			} else if ch != b.stringDelimiter {
				b.nfa.AddTransition(ch, b.qStringError)
			}
		}
		b.nfa.AddTransition(b.stringDelimiter, b.qStringEnd)
		b.nfa.EndState()

		b.nfa.BeginStateAt(qEscapeStart)
		b.nfa.AddTransition(seq, qEscape)
		b.nfa.EndState()
	}

	b.nfa.BeginStateAt(b.qString)
	b.nfa.AddTransition(b.escapeChar, qEscapeStart)
	b.nfa.EndState()
	b.nfa.BeginStateAt(b.qStringStart)
	b.nfa.AddTransition(b.escapeChar, qEscapeStart)
	b.nfa.EndState()
	return nil
}

// buildColorLiteral builds '#' followed by 6 or 8 hex digits (an RGB or
// RGBA color), e.g. #ff00aa or #ff00aaff.
func (b *Builder) buildColorLiteral() error {
	tok := *b.colorToken
	const hexDigits = "0123456789abcdefABCDEF"

	states := make([]uint, 8)
	for i := 0; i < 8; i++ {
		q := b.nfa.BeginState()
		if i == 5 || i == 7 {
			b.nfa.SetAccepting(true)
			b.nfa.SetEnterAction(setTokenAndAddCharFunc(tok, NormalPriority))
		} else {
			b.nfa.SetEnterAction(addCharFunc(NormalPriority))
		}
		b.nfa.EndState()
		states[i] = q
	}
	for i := 0; i < 7; i++ {
		b.nfa.BeginStateAt(states[i])
		for _, ch := range hexDigits {
			b.nfa.AddTransition(ch, states[i+1])
		}
		b.nfa.EndState()
	}

	hashState := b.nfa.BeginState()
	b.nfa.SetFlags(flagMarkTokenStart)
	b.nfa.EndState()
	b.nfa.BeginStateAt(hashState)
	for _, ch := range hexDigits {
		b.nfa.AddTransition(ch, states[0])
	}
	b.nfa.EndState()

	b.nfa.BeginStateAt(b.start)
	b.nfa.AddTransition('#', hashState)
	b.nfa.EndState()
	return nil
}

func (b *Builder) buildBlockCommentAutomaton(alphabet map[rune]bool) (*fsm.DFA, error) {
	nfa := fsm.NewNFA()

	qError := nfa.BeginState()
	nfa.SetAccepting(true)
	nfa.SetEnterAction(errorFunc(b.msgBlockCommentNotClosed, NormalPriority))
	nfa.EndState()

	qStart := nfa.BeginState()
	nfa.SetStartState()
	for ch := range alphabet {
		if ch == fsm.EndOfSource {
			nfa.AddTransition(ch, qError)
		} else {
			nfa.AddTransition(ch, qStart)
		}
	}

	runes := []rune(b.blockCommentEnd)
	for _, ch := range runes {
		q := nfa.CreateState()
		nfa.AddTransition(ch, q)
		nfa.EndState()
		nfa.BeginStateAt(q)
	}
	nfa.SetAccepting(true)
	nfa.SetEnterAction(setTokenFunc(tokBlockCommentEnd, NormalPriority))
	nfa.EndState()

	return fsm.Build(nfa)
}

func (b *Builder) buildLineCommentAutomaton(alphabet map[rune]bool) (*fsm.DFA, error) {
	nfa := fsm.NewNFA()

	qEnd := nfa.BeginState()
	nfa.SetAccepting(true)
	nfa.SetEnterAction(setTokenFunc(tokLineCommentEnd, NormalPriority))
	nfa.EndState()

	qStart := nfa.BeginState()
	nfa.SetStartState()
	for ch := range alphabet {
		if ch != fsm.EndOfSource && ch != '\n' {
			nfa.AddTransition(ch, qStart)
		}
	}
	nfa.AddTransition(fsm.EndOfSource, qEnd)
	nfa.AddTransition('\n', qEnd)
	nfa.EndState()

	return fsm.Build(nfa)
}
