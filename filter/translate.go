package filter

import (
	"strings"
	"unicode"
)

var keywords = map[string]string{
	"AND": "&&",
	"OR":  "||",
	"NOT": "!",
}

// Translate rewrites the portal filter syntax into the canonical one:
// a single = becomes ==, <> becomes != and the AND, OR and NOT keywords
// become &&, || and !. Keywords are case-insensitive. Quoted strings
// are copied unchanged.
func Translate(expr string) string {
	var b strings.Builder
	runes := []rune(expr)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'' || r == '"':
			end := closingQuote(runes, i)
			b.WriteString(string(runes[i:end]))
			i = end - 1
		case r == '=':
			prev := rune(0)
			if i > 0 {
				prev = runes[i-1]
			}

			next := rune(0)
			if i+1 < len(runes) {
				next = runes[i+1]
			}

			if strings.ContainsRune("=!<>", prev) || next == '=' {
				b.WriteRune(r)
				continue
			}

			b.WriteString("==")
		case r == '<' && i+1 < len(runes) && runes[i+1] == '>':
			b.WriteString("!=")
			i++
		case isIdentStart(r):
			end := i
			for end < len(runes) && isIdentPart(runes[end]) {
				end++
			}

			word := string(runes[i:end])
			if op, ok := keywords[strings.ToUpper(word)]; ok {
				b.WriteString(op)
			} else {
				b.WriteString(word)
			}
			i = end - 1
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// closingQuote returns the index just past the closing quote,
// or the end of input if the string is not terminated.
func closingQuote(runes []rune, start int) int {
	q := runes[start]
	for i := start + 1; i < len(runes); i++ {
		if runes[i] == '\\' {
			i++
			continue
		}

		if runes[i] == q {
			return i + 1
		}
	}

	return len(runes)
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
