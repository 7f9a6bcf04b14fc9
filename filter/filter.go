// Package filter evaluates portal filter expressions, field comparisons
// joined with AND/OR, against feature attributes.
package filter

import (
	"strings"

	"github.com/paulmach/webmap/feature"

	"github.com/pkg/errors"
)

// Compile translates the portal expression and parses it into a condition.
// Returns a *CompileError with details about what exactly went wrong.
func Compile(expr string) (Condition, error) {
	canonical := Translate(expr)

	tokens, err := lex(canonical)
	if err != nil {
		le := err.(*lexError)
		return nil, &CompileError{Cause: le.error, Input: expr, Pos: le.Pos}
	}

	p := &parser{tokens: tokens}
	cond, err := p.parseOr()
	if err == nil && p.peek().Kind != tokEOF {
		err = errors.Errorf("unexpected %q", p.peek().Text)
	}

	if err != nil {
		return nil, &CompileError{
			Cause: errors.WithMessage(err, "filter"),
			Input: expr,
			Pos:   p.peek().Pos,
		}
	}

	return cond, nil
}

// Apply returns the features matching the expression in their original
// order. An empty expression returns the input unchanged. An expression
// that does not compile matches nothing and the *CompileError is returned.
func Apply(features []*feature.Feature, expr string) ([]*feature.Feature, error) {
	if strings.TrimSpace(expr) == "" {
		return features, nil
	}

	cond, err := Compile(expr)
	if err != nil {
		return []*feature.Feature{}, err
	}

	return Match(features, cond), nil
}

// Match returns the features the condition evaluates to true for.
func Match(features []*feature.Feature, cond Condition) []*feature.Feature {
	result := make([]*feature.Feature, 0, len(features))
	for _, f := range features {
		if cond.Eval(NewContext(f)) {
			result = append(result, f)
		}
	}

	return result
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.Kind != tokEOF {
		p.pos++
	}

	return t
}

func (p *parser) parseOr() (Condition, error) {
	c, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	conds := anyCond{c}
	for p.peek().Kind == tokOr {
		p.next()

		c, err := p.parseAnd()
		if err != nil {
			return nil, errors.WithMessage(err, "or")
		}

		conds = append(conds, c)
	}

	if len(conds) == 1 {
		return conds[0], nil
	}

	return conds, nil
}

func (p *parser) parseAnd() (Condition, error) {
	c, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	conds := allCond{c}
	for p.peek().Kind == tokAnd {
		p.next()

		c, err := p.parseUnary()
		if err != nil {
			return nil, errors.WithMessage(err, "and")
		}

		conds = append(conds, c)
	}

	if len(conds) == 1 {
		return conds[0], nil
	}

	return conds, nil
}

func (p *parser) parseUnary() (Condition, error) {
	switch p.peek().Kind {
	case tokNot:
		p.next()

		c, err := p.parseUnary()
		if err != nil {
			return nil, errors.WithMessage(err, "not")
		}

		return &notCond{Cond: c}, nil
	case tokLParen:
		p.next()

		c, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if t := p.next(); t.Kind != tokRParen {
			return nil, errors.Errorf("expected ')', got %q", t.Text)
		}

		return c, nil
	}

	return p.parseCompare()
}

func (p *parser) parseCompare() (Condition, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	op := p.next()
	if op.Kind != tokCompare {
		return nil, errors.Errorf("expected comparison after %q", describe(left))
	}

	right, err := p.parseOperand()
	if err != nil {
		return nil, errors.WithMessage(err, op.Text)
	}

	return &compareCond{Left: left, Op: op.Text, Right: right}, nil
}

func (p *parser) parseOperand() (operand, error) {
	t := p.next()
	switch t.Kind {
	case tokIdent:
		switch strings.ToLower(t.Text) {
		case "true", "false":
			return operand{Literal: strings.ToLower(t.Text)}, nil
		}

		return operand{Field: t.Text}, nil
	case tokNumber:
		return operand{Literal: t.Num, Num: t.Num, IsNum: true}, nil
	case tokString:
		return operand{Literal: t.Text}, nil
	case tokEOF:
		return operand{}, errors.New("unexpected end of expression")
	}

	return operand{}, errors.Errorf("unexpected %q", t.Text)
}

func describe(o operand) string {
	if o.Field != "" {
		return o.Field
	}

	if s, ok := o.Literal.(string); ok {
		return s
	}

	return "number"
}
