package filter

import (
	"strings"
	"unicode"

	"github.com/paulmach/webmap/util"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokCompare
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	Kind tokenKind
	Text string
	Num  float64
	Pos  int
}

type lexError struct {
	error
	Pos int
}

// lex splits a canonical expression into tokens.
func lex(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{Kind: tokLParen, Text: "(", Pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{Kind: tokRParen, Text: ")", Pos: i})
			i++
		case r == '&' || r == '|':
			if i+1 >= len(runes) || runes[i+1] != r {
				return nil, &lexError{errors.Errorf("unexpected %q", r), i}
			}

			kind := tokAnd
			if r == '|' {
				kind = tokOr
			}

			tokens = append(tokens, token{Kind: kind, Text: string(runes[i : i+2]), Pos: i})
			i += 2
		case r == '=' || r == '!' || r == '<' || r == '>':
			op := string(r)
			if i+1 < len(runes) && runes[i+1] == '=' {
				op += "="
			}

			switch op {
			case "=":
				return nil, &lexError{errors.New("unexpected single '='"), i}
			case "!":
				tokens = append(tokens, token{Kind: tokNot, Text: op, Pos: i})
			default:
				tokens = append(tokens, token{Kind: tokCompare, Text: op, Pos: i})
			}

			i += len(op)
		case r == '\'' || r == '"':
			s, end, err := lexString(runes, i)
			if err != nil {
				return nil, err
			}

			tokens = append(tokens, token{Kind: tokString, Text: s, Pos: i})
			i = end
		case unicode.IsDigit(r) || ((r == '-' || r == '.') && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			end := i + 1
			for end < len(runes) && isNumberPart(runes[end], runes[end-1]) {
				end++
			}

			text := string(runes[i:end])
			num, ok := util.ToFloat64(text)
			if !ok {
				return nil, &lexError{errors.Errorf("invalid number %q", text), i}
			}

			tokens = append(tokens, token{Kind: tokNumber, Text: text, Num: num, Pos: i})
			i = end
		case isIdentStart(r):
			end := i
			for end < len(runes) && isIdentPart(runes[end]) {
				end++
			}

			tokens = append(tokens, token{Kind: tokIdent, Text: string(runes[i:end]), Pos: i})
			i = end
		default:
			return nil, &lexError{errors.Errorf("unexpected %q", r), i}
		}
	}

	return append(tokens, token{Kind: tokEOF, Pos: len(runes)}), nil
}

func lexString(runes []rune, start int) (string, int, error) {
	q := runes[start]

	var b strings.Builder
	for i := start + 1; i < len(runes); i++ {
		switch runes[i] {
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			}
		case q:
			return b.String(), i + 1, nil
		default:
			b.WriteRune(runes[i])
		}
	}

	return "", 0, &lexError{errors.New("unterminated string"), start}
}

func isNumberPart(r, prev rune) bool {
	if unicode.IsDigit(r) || r == '.' || r == 'e' || r == 'E' {
		return true
	}

	return (r == '-' || r == '+') && (prev == 'e' || prev == 'E')
}
