package filter

import (
	"github.com/paulmach/webmap/feature"
)

// Context is the evaluation context of a single feature.
type Context struct {
	Feature *feature.Feature
}

// NewContext creates a context for evaluating conditions on the feature.
func NewContext(f *feature.Feature) *Context {
	return &Context{Feature: f}
}

// Value returns the attribute of the feature.
func (ctx *Context) Value(field string) (interface{}, bool) {
	if ctx.Feature == nil {
		return nil, false
	}

	return ctx.Feature.Value(field)
}
