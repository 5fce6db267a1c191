// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jval

import "fmt"

// An ErrKind classifies the reason for a *SyntaxError.
type ErrKind byte

// The kinds of error reported by the scanner and the stream parser. The zero
// kind is OtherError, which covers failures that do not arise from the input
// text itself, such as I/O errors from the underlying reader.
const (
	OtherError      ErrKind = iota // an error not otherwise classified
	UnexpectedEOF                  // input ended inside a token or value
	UnexpectedToken                // a valid token in an invalid position
	InvalidNumber                  // a malformed or unrepresentable number literal
	InvalidString                  // a malformed string literal
	InvalidLiteral                 // a misspelled null, true, or false constant
	TrailingData                   // extra input after a complete value
	NestingTooDeep                 // nesting exceeds the allowed depth
)

var errKindStr = [...]string{
	OtherError:      "other error",
	UnexpectedEOF:   "unexpected end of input",
	UnexpectedToken: "unexpected token",
	InvalidNumber:   "invalid number",
	InvalidString:   "invalid string",
	InvalidLiteral:  "invalid literal",
	TrailingData:    "trailing data",
	NestingTooDeep:  "nesting too deep",
}

func (e ErrKind) String() string {
	v := int(e)
	if v >= len(errKindStr) {
		return "unknown error"
	}
	return errKindStr[v]
}

// A SyntaxError reports an error that occurred in parsing the input.
// Errors arising from the input itself are classified by kind and record
// the offset and line/column position where the problem occurred.
type SyntaxError struct {
	Kind     ErrKind // the classification of the error
	Offset   int     // the byte offset where the error occurred
	Location LineCol // the line and column where the error occurred
	Message  string  // a human-readable description of the error

	err error // the underlying error, if any
}

// Error satisfies the error interface.
func (s *SyntaxError) Error() string {
	return fmt.Sprintf("at %v: %s", s.Location, s.Message)
}

// Unwrap returns the underlying error wrapped by s, if any.
func (s *SyntaxError) Unwrap() error { return s.err }
