package overlay

import "strings"

// TokenKind tags one compiled template token.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenClock
	TokenBitrateAndTotal
	TokenDebugOverlay
	TokenSpeed
	TokenAltitude
	TokenDistance
)

// Token is one element of a compiled overlay template: literal text or a
// telemetry substitution.
type Token struct {
	Kind TokenKind
	Text string // literal content for TokenText
}

// keywords maps the recognized placeholders (matched case-insensitively,
// braces included) to their token kinds.
var keywords = []struct {
	word string
	kind TokenKind
}{
	{"{time}", TokenClock},
	{"{bitrateandtotal}", TokenBitrateAndTotal},
	{"{debugoverlay}", TokenDebugOverlay},
	{"{speed}", TokenSpeed},
	{"{altitude}", TokenAltitude},
	{"{distance}", TokenDistance},
}

// ParseFormat compiles a template string into an ordered token list. Literal
// "\n" escape sequences become newlines before scanning. At each '{' the six
// fixed keywords are tested case-insensitively; on a match pending literal
// text is flushed and the cursor jumps past the keyword. Anything else,
// including unmatched '{', passes through as literal text.
//
// The token list is built once and reused for every render; a template
// change means constructing a new renderer.
func ParseFormat(template string) []Token {
	template = strings.ReplaceAll(template, `\n`, "\n")

	var tokens []Token
	var literal strings.Builder
	flush := func() {
		if literal.Len() > 0 {
			tokens = append(tokens, Token{Kind: TokenText, Text: literal.String()})
			literal.Reset()
		}
	}

	i := 0
	for i < len(template) {
		if template[i] == '{' {
			matched := false
			for _, kw := range keywords {
				end := i + len(kw.word)
				if end <= len(template) && strings.EqualFold(template[i:end], kw.word) {
					flush()
					tokens = append(tokens, Token{Kind: kw.kind})
					i = end
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		literal.WriteByte(template[i])
		i++
	}
	flush()
	return tokens
}
