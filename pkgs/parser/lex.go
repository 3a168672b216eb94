package parser

import "github.com/veloxlang/velox/pkgs/scanner"

// keywords maps every Velox reserved word to its token kind. Each entry
// is overlaid on the identifier automaton at build time, so a reserved
// word wins over a generic identifier only on an exact match.
var keywords = map[string]Kind{
	"true": TRUE, "false": FALSE, "undefined": UNDEFINED,
	"if": IF, "else": ELSE, "while": WHILE, "do": DO, "for": FOR,
	"function": FUNCTION, "class": CLASS, "new": NEW,
	"return": RETURN, "break": BREAK, "continue": CONTINUE,
	"print": PRINT, "import": IMPORT, "global": GLOBAL,
}

// accentedLetters enumerates the precomposed (NFC) Latin-1 Supplement
// letters permitted in identifiers, so a name like "café" or "Müller"
// scans as one IDENT token rather than stopping at the first non-ASCII
// rune. Composed form only: decomposed input is folded to this set by
// ParseWithScanner's NFC normalization before it ever reaches the
// scanner.
const accentedLetters = "àáâãäåæçèéêëìíîïðñòóôõöøùúûüýþ" +
	"ÀÁÂÃÄÅÆÇÈÉÊËÌÍÎÏÐÑÒÓÔÕÖØÙÚÛÜÝÞß"

const (
	identStart = "_abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ" + accentedLetters
	identCont  = identStart + "0123456789"
	digits     = "0123456789"
	whitespace = " \t\r\n"
	// stringBody enumerates every printable ASCII byte except the
	// delimiter (") and the escape character (\), which the scanner
	// builder handles through its own escape machinery. SetStringBody
	// only accepts literal character enumerations, never ranges, so
	// this is spelled out in full rather than expressed as a range.
	stringBody = " !#$%&'()*+,-./0123456789:;<=>?@" +
		"ABCDEFGHIJKLMNOPQRSTUVWXYZ[]^_`" +
		"abcdefghijklmnopqrstuvwxyz{|}~"
)

// newScanner builds the scanner.Scanner that drives the Velox lexer,
// wiring the full token surface token.go declares onto scanner.Builder's
// declarative configuration.
func newScanner() (*scanner.Scanner, error) {
	b := scanner.NewBuilder()
	b.SetEndOfSourceToken(int(EOS)).
		SetIllegalToken(int(ILLEGAL)).
		SetIntegerToken(int(INTEGER)).
		SetRealToken(int(REAL)).
		SetStringToken(int(STRING)).
		SetIdent(identStart, identCont, int(IDENT)).
		AddWhitespace(whitespace).
		SetDecimalSeparator('.').
		SetStringDelimiter('"').
		SetEscapeChar('\\').
		SetStringBody(stringBody).
		EnableHexLiterals().
		SetColorToken(int(COLOR)).
		SetBlockComment("/*", "*/").
		SetLineComment("//")

	b.AddEscape('n', '\n')
	b.AddEscape('t', '\t')
	b.AddEscape('r', '\r')
	b.AddEscape('"', '"')
	b.AddEscape('\\', '\\')
	b.AddEscape('0', 0)

	for lit, kind := range keywords {
		if err := b.AddKeyword(lit, int(kind)); err != nil {
			return nil, err
		}
	}

	operators := map[string]Kind{
		"(": LEFT_PAREN, ")": RIGHT_PAREN,
		"[": LEFT_BRACKET, "]": RIGHT_BRACKET,
		"{": LEFT_BRACE, "}": RIGHT_BRACE,
		";": SEMICOLON, ",": COMMA, ".": DOT,
		"+": ADD, "-": SUB, "*": MUL, "/": DIV, "%": MOD,
		"=": ASSIGN, "+=": ASSIGN_ADD, "-=": ASSIGN_SUB,
		"*=": ASSIGN_MUL, "/=": ASSIGN_DIV, "%=": ASSIGN_MOD,
		"++": INCREMENT, "--": DECREMENT,
		"<": LESS_THAN, "<=": LESS_EQUAL,
		">": GREATER_THAN, ">=": GREATER_EQUAL,
		"==": EQUAL, "!=": NOT_EQUAL,
		"!": NOT, "&&": LOG_AND, "||": LOG_OR,
	}
	for lit, kind := range operators {
		if err := b.AddKeyword(lit, int(kind)); err != nil {
			return nil, err
		}
	}

	return b.Build()
}
