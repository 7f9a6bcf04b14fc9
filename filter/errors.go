package filter

import "fmt"

// CompileError represents an error during the compiling
// of a filter expression.
type CompileError struct {
	Cause error // reported by the lexer or parser

	// Input is the expression as authored, Pos is the byte offset
	// into the translated expression where parsing stopped.
	Input string
	Pos   int
}

// Error returns a summary of the error.
func (e *CompileError) Error() string {
	return e.Cause.Error()
}

// Detail returns the error with the expression that caused it.
func (e *CompileError) Detail() string {
	return fmt.Sprintf("%v: %q (at %d)", e.Cause, e.Input, e.Pos)
}
