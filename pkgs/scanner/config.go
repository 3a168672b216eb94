package scanner

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["identStart", "identCont", "whitespace", "keywords"],
	"properties": {
		"identStart": {"type": "string"},
		"identCont": {"type": "string"},
		"whitespace": {"type": "string"},
		"stringBody": {"type": "string"},
		"stringDelimiter": {"type": "string", "maxLength": 1},
		"escapeChar": {"type": "string", "maxLength": 1},
		"escapes": {
			"type": "object",
			"additionalProperties": {"type": "string", "maxLength": 1}
		},
		"blockCommentStart": {"type": "string"},
		"blockCommentEnd": {"type": "string"},
		"lineComment": {"type": "string"},
		"hexLiterals": {"type": "boolean"},
		"keywords": {
			"type": "object",
			"additionalProperties": {"type": "integer", "minimum": 0}
		}
	}
}`

const configSchemaID = "velox://scanner/config.schema.json"

var configSchema = mustCompileConfigSchema()

func mustCompileConfigSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(configSchemaID, bytes.NewReader([]byte(configSchemaJSON))); err != nil {
		panic(err)
	}
	return c.MustCompile(configSchemaID)
}

// Config is a declarative description of a scanner's lexical alphabet,
// validated against a JSON schema before being turned into a Builder. It
// intentionally omits the numeric ids for end-of-source/illegal/
// integer/real/string tokens: those belong to the parser's token-kind
// space, not this alphabet description, and must be set on the returned
// Builder by the caller.
type Config struct {
	IdentStart        string            `json:"identStart"`
	IdentCont         string            `json:"identCont"`
	Whitespace        string            `json:"whitespace"`
	StringBody        string            `json:"stringBody"`
	StringDelimiter   string            `json:"stringDelimiter"`
	EscapeChar        string            `json:"escapeChar"`
	Escapes           map[string]string `json:"escapes"`
	BlockCommentStart string            `json:"blockCommentStart"`
	BlockCommentEnd   string            `json:"blockCommentEnd"`
	LineComment       string            `json:"lineComment"`
	HexLiterals       bool              `json:"hexLiterals"`
	Keywords          map[string]int    `json:"keywords"`
}

// LoadConfig validates data against the scanner config schema and
// decodes it into a Config.
func LoadConfig(data []byte) (*Config, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if err := configSchema.Validate(v); err != nil {
		return nil, err
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func firstRune(s string, fallback rune) rune {
	for _, r := range s {
		return r
	}
	return fallback
}

// NewBuilder applies c onto a fresh Builder. The caller still must call
// SetEndOfSourceToken, SetIllegalToken, SetIntegerToken, SetRealToken
// and, if strings are wanted, SetStringToken, and, if identifiers are
// wanted, SetIdentToken before Build — those numeric ids are parser-defined, not part of this
// declarative alphabet.
func (c *Config) NewBuilder() (*Builder, error) {
	b := NewBuilder()
	b.AddWhitespace(c.Whitespace)
	b.AddIdentStart(c.IdentStart)
	b.AddIdentCont(c.IdentCont)

	if c.StringBody != "" {
		b.SetStringBody(c.StringBody)
	}
	if c.StringDelimiter != "" {
		b.SetStringDelimiter(firstRune(c.StringDelimiter, '"'))
	}
	if c.EscapeChar != "" {
		b.SetEscapeChar(firstRune(c.EscapeChar, '\\'))
	}
	for seq, target := range c.Escapes {
		b.AddEscape(firstRune(seq, 0), firstRune(target, 0))
	}
	if c.BlockCommentStart != "" && c.BlockCommentEnd != "" {
		b.SetBlockComment(c.BlockCommentStart, c.BlockCommentEnd)
	}
	if c.LineComment != "" {
		b.SetLineComment(c.LineComment)
	}
	if c.HexLiterals {
		b.EnableHexLiterals()
	}
	for lit, token := range c.Keywords {
		if err := b.AddKeyword(lit, token); err != nil {
			return nil, err
		}
	}
	return b, nil
}
