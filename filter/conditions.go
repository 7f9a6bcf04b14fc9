package filter

import (
	"strings"

	"github.com/paulmach/webmap/util"
)

// A Condition is something that evaluates to a boolean.
type Condition interface {
	Eval(*Context) bool
}

///////////////////////////////////////
// allCond

type allCond []Condition

func (ac allCond) Eval(ctx *Context) bool {
	for _, c := range ac {
		if !c.Eval(ctx) {
			return false
		}
	}

	return true
}

///////////////////////////////////////
// anyCond

type anyCond []Condition

func (ac anyCond) Eval(ctx *Context) bool {
	for _, c := range ac {
		if c.Eval(ctx) {
			return true
		}
	}

	return false
}

///////////////////////////////////////
// notCond

type notCond struct {
	Cond Condition
}

func (nc *notCond) Eval(ctx *Context) bool {
	return !nc.Cond.Eval(ctx)
}

///////////////////////////////////////
// compareCond

// operand is either a field reference or a literal.
type operand struct {
	Field string

	Literal interface{}
	Num     float64
	IsNum   bool
}

func (o operand) value(ctx *Context) (interface{}, bool) {
	if o.Field != "" {
		return ctx.Value(o.Field)
	}

	return o.Literal, true
}

func (o operand) number(v interface{}) (float64, bool) {
	if o.Field == "" {
		return o.Num, o.IsNum
	}

	return util.ParseNumericField(v)
}

type compareCond struct {
	Left  operand
	Op    string
	Right operand
}

// Eval compares the operands numerically if both are numbers,
// otherwise as strings. A missing field never matches.
func (cc *compareCond) Eval(ctx *Context) bool {
	lv, ok := cc.Left.value(ctx)
	if !ok || lv == nil {
		return false
	}

	rv, ok := cc.Right.value(ctx)
	if !ok || rv == nil {
		return false
	}

	ln, lok := cc.Left.number(lv)
	rn, rok := cc.Right.number(rv)
	if lok && rok {
		return compare(ln, rn, cc.Op)
	}

	return compareStrings(util.FieldString(lv), util.FieldString(rv), cc.Op)
}

func compare(a, b float64, op string) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case "<=":
		return a <= b
	}

	return false
}

func compareStrings(a, b string, op string) bool {
	c := strings.Compare(a, b)
	switch op {
	case "==":
		return c == 0
	case "!=":
		return c != 0
	case ">":
		return c > 0
	case ">=":
		return c >= 0
	case "<":
		return c < 0
	case "<=":
		return c <= 0
	}

	return false
}
