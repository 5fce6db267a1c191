// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jval

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf16"

	"go4.org/mem"
)

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid Token = iota // invalid token
	LBrace               // left brace "{"
	RBrace               // right brace "}"
	LSquare              // left square bracket "["
	RSquare              // right square bracket "]"
	Comma                // comma ","
	Colon                // colon ":"
	Integer              // number: integer with no fraction or exponent
	Number               // number with fraction and/or exponent
	String               // quoted string
	True                 // constant: true
	False                // constant: false
	Null                 // constant: null

	BlockComment // comment: /* ... */
	LineComment  // comment: // ... <LF>

	// Do not modify the order of these constants without updating the
	// self-delimiting token check below.
)

var tokenStr = [...]string{
	Invalid: "invalid token",
	LBrace:  `"{"`,
	RBrace:  `"}"`,
	LSquare: `"["`,
	RSquare: `"]"`,
	Comma:   `","`,
	Colon:   `":"`,
	Integer: "integer",
	Number:  "number",
	String:  "string",
	True:    "true",
	False:   "false",
	Null:    "null",

	BlockComment: "block commment",
	LineComment:  "line comment",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// A Scanner reads lexical tokens from an input stream.  Each call to Next
// advances the scanner to the next token, or reports an error.
type Scanner struct {
	r        *bufio.Reader
	comments bool         // allow comments
	buf      bytes.Buffer // current token
	tbuf     [][]byte     // allocation pool
	tok      Token
	err      error

	pos, end int // start and end offsets of current token
	last     int // size in bytes of last-read input rune

	// Apparent line and column offsets (0-based)
	pline, pcol int
	eline, ecol int
	uline, ucol int // saved offsets to restore on unrune
}

// NewScanner constructs a new lexical scanner that consumes input from r.
func NewScanner(r io.Reader) *Scanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Scanner{r: br}
}

// AllowComments configures the scanner to report (true) or reject (false)
// comment tokens. Comments are a non-standard exension of the JSON spec.  If
// enabled, C++ style block comments (/* ... */) and line comments (// ...)
// are recognized and emitted as tokens.
func (s *Scanner) AllowComments(ok bool) { s.comments = ok }

// Next advances s to the next token of the input and reports whether a token
// is available. Once Next has returned false, it will continue to do so for
// all future calls. Call Err to recover the reason why scanning stopped; Err
// reports nil if scanning stopped at the end of the input.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	s.buf.Reset()
	s.tok = Invalid
	s.pos, s.pline, s.pcol = s.end, s.eline, s.ecol

	for {
		ch, err := s.rune()
		if err == io.EOF {
			return false
		} else if err != nil {
			return s.fail(err)
		}

		// Discard whitespace.
		if isSpace(ch) {
			s.pos, s.pline, s.pcol = s.end, s.eline, s.ecol
			continue
		}

		// Handle punctuation.
		if t, ok := selfDelim(ch); ok {
			s.buf.WriteRune(ch)
			s.tok = t
			return true
		}

		// Handle numbers.
		if isNumStart(ch) {
			return s.scanNumber(ch)
		}
		if ch == '.' {
			return s.failStartf(InvalidNumber, "no digits before decimal point")
		}

		// Handle string values.
		if ch == '"' {
			return s.scanString(ch)
		}

		// Handle comments, if enabled.
		if ch == '/' && s.comments {
			return s.scanComment(ch)
		}

		// Handle constants: true, false, null
		var want mem.RO
		switch ch {
		case 't':
			s.tok = True
			want = mem.S("true")
		case 'f':
			s.tok = False
			want = mem.S("false")
		case 'n':
			s.tok = Null
			want = mem.S("null")
		default:
			return s.failStartf(UnexpectedToken, "unexpected %q", ch)
		}
		if !s.scanName(ch) {
			return false
		} else if got := mem.B(s.buf.Bytes()); !got.Equal(want) {
			return s.failStartf(InvalidLiteral, "unknown constant %q", got.StringCopy())
		}
		return true // OK, token is already set
	}
}

// Token returns the type of the current token.
func (s *Scanner) Token() Token { return s.tok }

// Err returns the error that terminated scanning, or nil if scanning stopped
// at the end of the input. Errors arising from the input text have concrete
// type *SyntaxError.
func (s *Scanner) Err() error { return s.err }

// Text returns the undecoded text of the current token.  The return value is
// only valid until the next call of Next. The caller must copy the contents of
// the returned slice if it is needed beyond that.
func (s *Scanner) Text() []byte { return s.buf.Bytes() }

// Copy returns a copy of the undecoded text of the current token.
func (s *Scanner) Copy() []byte { return s.copyOf(s.buf.Bytes()) }

// Unescape returns the decoded text of the current token, which must be of
// type String. It panics if the current token is not a string.
func (s *Scanner) Unescape() []byte {
	if s.tok != String {
		panic("current token is not a string")
	}
	dec, err := Unquote(s.buf.Bytes())
	if err != nil {
		panic(err)
	}
	return dec
}

// Span returns the location span of the current token.
func (s *Scanner) Span() Span { return Span{Pos: s.pos, End: s.end} }

// Location returns the complete location of the current token.
func (s *Scanner) Location() Location {
	return Location{
		Span:  s.Span(),
		First: LineCol{Line: s.pline + 1, Column: s.pcol},
		Last:  LineCol{Line: s.eline + 1, Column: s.ecol},
	}
}

func (s *Scanner) scanString(open rune) bool {
	s.buf.WriteRune(open)
	for {
		ch, err := s.rune()
		if err == io.EOF {
			return s.failf(InvalidString, "unterminated string: %w", io.ErrUnexpectedEOF)
		} else if err != nil {
			return s.fail(err)
		}
		if ch == open {
			s.buf.WriteRune(ch)
			s.tok = String
			return true
		}

		if ch == '\\' {
			s.buf.WriteRune(ch)
			if !s.scanEscape() {
				return false
			}
		} else if ch < ' ' {
			return s.failf(InvalidString, "unescaped control %q", ch)
		} else if ch > unicode.MaxRune {
			return s.failf(InvalidString, "invalid Unicode rune %q", ch)
		} else {
			s.buf.WriteRune(ch)
		}
	}
}

// scanEscape scans the remainder of a \-escape, with the leading backslash
// already consumed and appended to the token buffer.
func (s *Scanner) scanEscape() bool {
	ch, err := s.rune()
	if err == io.EOF {
		return s.failf(InvalidString, "incomplete escape: %w", io.ErrUnexpectedEOF)
	} else if err != nil {
		return s.fail(err)
	}
	switch ch {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		s.buf.WriteByte(byte(ch))
		return true
	case 'u':
		s.buf.WriteByte(byte(ch))
		return s.scanUnicode()
	}
	return s.failf(InvalidString, "invalid %q after escape", ch)
}

// scanUnicode scans the 4-digit payload of a Unicode escape, plus the paired
// second escape if the payload is a high surrogate. Unpaired surrogates are
// invalid.
func (s *Scanner) scanUnicode() bool {
	v, ok := s.readHex4()
	if !ok {
		return false
	}
	if !utf16.IsSurrogate(v) {
		return true
	} else if v >= 0xDC00 {
		return s.failf(InvalidString, `unpaired low surrogate \u%04x`, v)
	}

	// A high surrogate must be immediately followed by an escaped low
	// surrogate to complete the pair.
	for _, want := range "\\u" {
		ch, err := s.rune()
		if err == io.EOF {
			return s.failf(InvalidString, "incomplete escape: %w", io.ErrUnexpectedEOF)
		} else if err != nil {
			return s.fail(err)
		} else if ch != want {
			return s.failf(InvalidString, `unpaired high surrogate \u%04x`, v)
		}
		s.buf.WriteRune(ch)
	}
	w, ok := s.readHex4()
	if !ok {
		return false
	}
	if utf16.DecodeRune(v, w) == unicode.ReplacementChar {
		return s.failf(InvalidString, `invalid surrogate pair \u%04x\u%04x`, v, w)
	}
	return true
}

func (s *Scanner) scanNumber(start rune) bool {
	s.buf.WriteRune(start)

	if start == '-' {
		// If there is a leading sign, we need at least one digit.
		// Otherwise, we already have one in start.
		ch, ok := s.require(InvalidNumber, isDigit, "digit")
		if !ok {
			return false
		}
		s.buf.WriteRune(ch)
	}

	// Consume the remainder of an integer.
	_, ch, err := s.readWhile(isDigit)
	if err != nil && err != io.EOF {
		return s.fail(err)
	}

	// Check for extra leading zeroes, which are disallowed by the JSON spec.
	// That is: 0.12 is OK, 01.2 is not.
	if hasExtraLeadingZeroes(s.buf.Bytes()) {
		return s.failStartf(InvalidNumber, "extra leading zeroes")
	}
	if err == io.EOF {
		s.tok = Integer
		return true
	}

	// If a decimal point follows, consume a fractional part.
	var isFloat bool
	if ch == '.' {
		s.buf.WriteRune(ch)
		var nr int
		nr, ch, err = s.readWhile(isDigit)
		if err != nil && err != io.EOF {
			return s.fail(err)
		} else if nr == 0 {
			return s.failf(InvalidNumber, "no digits after decimal point")
		}
		isFloat = true
		if err == io.EOF {
			s.tok = Number
			return true
		}
	}

	// If an exponent follows, consume it.
	if ch != 'E' && ch != 'e' {
		s.unrune()
		if isFloat {
			s.tok = Number
		} else {
			s.tok = Integer
		}
		return true
	}

	s.buf.WriteRune(ch)
	ch, ok := s.require(InvalidNumber, isExpStart, "sign or digit")
	if !ok {
		return false
	}
	s.buf.WriteRune(ch)
	nr, _, err := s.readWhile(isDigit)
	if nr == 0 && (ch == '-' || ch == '+') {
		// It's OK to have no digits if the previous rune was not a sign,
		// otherwise we have to have at least one.
		return s.failf(InvalidNumber, "missing exponent digits")
	} else if err == io.EOF {
		s.tok = Number
		return true
	} else if err != nil {
		return s.fail(err)
	}
	s.unrune()
	s.tok = Number
	return true
}

func (s *Scanner) scanComment(first rune) bool {
	s.buf.WriteRune(first)
	ch, err := s.rune()
	if err == io.EOF {
		return s.failf(UnexpectedEOF, "unexpected end of input in comment: %w", io.ErrUnexpectedEOF)
	} else if err != nil {
		return s.fail(err)
	}
	switch ch {
	case '/': // line comment to LF
		s.buf.WriteRune(ch)
		_, end, err := s.readWhile(isNotLF)
		if err == nil {
			s.buf.WriteRune(end)
		} else if err != io.EOF {
			return s.fail(err)
		}
		s.tok = LineComment
		return true

	case '*': // block comment
		s.buf.WriteRune(ch)
		for {
			_, end, err := s.readWhile(isNotStar)
			if err == io.EOF {
				return s.failf(UnexpectedEOF, "unterminated block comment: %w", io.ErrUnexpectedEOF)
			} else if err != nil {
				return s.fail(err)
			}
			s.buf.WriteRune(end) // end == '*'

			// Check whether we have "*/", which would end the comment.
			next, err := s.rune()
			if err == io.EOF {
				return s.failf(UnexpectedEOF, "unterminated block comment: %w", io.ErrUnexpectedEOF)
			} else if err != nil {
				return s.fail(err)
			}
			s.buf.WriteRune(next)
			if next == '/' {
				s.tok = BlockComment
				return true
			}

			// We saw "*" but not "/", so keep scanning for the end of the block.
		}

	default:
		s.unrune()
		return s.failf(UnexpectedToken, "invalid %q in comment", ch)
	}
}

func (s *Scanner) scanName(first rune) bool {
	s.buf.WriteRune(first)
	_, _, err := s.readWhile(isNameRune)
	if err == io.EOF {
		return true
	} else if err != nil {
		return s.fail(err)
	}
	s.unrune()
	return true
}

func (s *Scanner) rune() (rune, error) {
	ch, nb, err := s.r.ReadRune()
	s.last = nb
	s.uline, s.ucol = s.eline, s.ecol
	s.end += nb
	if ch == '\n' {
		s.eline++
		s.ecol = 0
	} else {
		s.ecol += nb
	}
	return ch, err
}

func (s *Scanner) unrune() {
	s.end -= s.last
	s.eline, s.ecol = s.uline, s.ucol
	s.last = 0
	s.r.UnreadRune()
}

// require reads a single rune matching f from the input, or records an error
// mentioning the desired label. The flag reports whether a matching rune was
// found.
func (s *Scanner) require(kind ErrKind, f func(rune) bool, label string) (rune, bool) {
	ch, err := s.rune()
	if err == io.EOF {
		return 0, s.failf(kind, "want %s, got error: %w", label, io.ErrUnexpectedEOF)
	} else if err != nil {
		return 0, s.fail(err)
	} else if !f(ch) {
		s.unrune()
		return 0, s.failf(kind, "got %q, want %s", ch, label)
	}
	return ch, true
}

// readWhile consumes runes matching f from the input until EOF or until a rune
// not matching f is found. The first non-matching rune (if any) is returned.
// It is the caller's responsibility to unread this rune, if desired.
// The int reports the number of runes consumed.
func (s *Scanner) readWhile(f func(rune) bool) (int, rune, error) {
	var nr int
	for {
		ch, err := s.rune()
		if err != nil {
			return nr, 0, err
		} else if !f(ch) {
			return nr, ch, nil
		}
		s.buf.WriteRune(ch)
		nr++
	}
}

// readHex4 reads exactly 4 hexadecimal digits from the input and reports the
// code unit they spell.
func (s *Scanner) readHex4() (rune, bool) {
	var v rune
	for i := 0; i < 4; i++ {
		ch, err := s.rune()
		if err == io.EOF {
			return 0, s.failf(InvalidString, "incomplete escape: %w", io.ErrUnexpectedEOF)
		} else if err != nil {
			return 0, s.fail(err)
		} else if !isHexDigit(ch) {
			return 0, s.failf(InvalidString, "not a hex digit: %q", ch)
		}
		s.buf.WriteRune(ch)
		v = v<<4 | hexValue(ch)
	}
	return v, true
}

func hexValue(ch rune) rune {
	switch {
	case ch >= '0' && ch <= '9':
		return ch - '0'
	case ch >= 'a' && ch <= 'f':
		return ch - 'a' + 10
	default:
		return ch - 'A' + 10
	}
}

// fail records err, which must be non-nil, as a scan failure at the current
// input position. Errors of this arity are not syntax errors; they reflect a
// failure of the underlying reader.
func (s *Scanner) fail(err error) bool {
	s.tok = Invalid
	s.err = &SyntaxError{
		Kind:     OtherError,
		Offset:   s.end,
		Location: LineCol{Line: s.eline + 1, Column: s.ecol},
		Message:  err.Error(),
		err:      err,
	}
	return false
}

// failf records a syntax error of the given kind at the current position.
func (s *Scanner) failf(kind ErrKind, msg string, args ...any) bool {
	return s.failAt(kind, s.end, LineCol{Line: s.eline + 1, Column: s.ecol}, msg, args...)
}

// failStartf records a syntax error of the given kind at the position where
// the current token began.
func (s *Scanner) failStartf(kind ErrKind, msg string, args ...any) bool {
	return s.failAt(kind, s.pos, LineCol{Line: s.pline + 1, Column: s.pcol}, msg, args...)
}

func (s *Scanner) failAt(kind ErrKind, off int, where LineCol, msg string, args ...any) bool {
	err := fmt.Errorf(msg, args...)
	s.tok = Invalid
	s.err = &SyntaxError{
		Kind:     kind,
		Offset:   off,
		Location: where,
		Message:  err.Error(),
		err:      errors.Unwrap(err),
	}
	return false
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\r' || ch == '\n' || ch == '\t'
}

func isNotStar(ch rune) bool  { return ch != '*' }
func isNotLF(ch rune) bool    { return ch != '\n' }
func isNumStart(ch rune) bool { return ch == '-' || isDigit(ch) }
func isExpStart(ch rune) bool { return ch == '-' || ch == '+' || isDigit(ch) }
func isDigit(ch rune) bool    { return '0' <= ch && ch <= '9' }
func isNameRune(ch rune) bool { return ch >= 'a' && ch <= 'z' }

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// hasExtraLeadingZeroes reports whether the representation of an integer in
// buf has redundant leading zeroes, disallowed by the JSON grammar.
//
// OK: 0, 0.1, -1.0, -0.1 are all OK.
// Bad: -01, 01.2, -01.0, 00.1.
func hasExtraLeadingZeroes(buf []byte) bool {
	if buf[0] == '-' {
		buf = buf[1:] // skip leading sign
	}
	if buf[0] == '0' {
		// A leading zero is OK if it's the only digit.
		return len(buf) > 1
	}
	return false
}

var self = [...]Token{LBrace, RBrace, LSquare, RSquare, Comma, Colon}

func selfDelim(ch rune) (Token, bool) {
	i := strings.IndexRune("{}[],:", ch)
	if i >= 0 {
		return self[i], true
	}
	return Invalid, false
}

func (s *Scanner) copyOf(text []byte) []byte {
	const minBlockSlop = 4
	const smallSizeFraction = 16
	const bufBlockBytes = 16384

	// For values bigger than smallSizeFraction of the block size, don't bother
	// batching, make an outright copy.
	if len(text) >= bufBlockBytes/smallSizeFraction {
		return append([]byte(nil), text...)
	}

	// Look for a block with space enough to hold a copy of text.
	i := 0
	for i < len(s.tbuf) {
		if n := len(s.tbuf[i]) + len(text); n < cap(s.tbuf[i]) {
			// There is room in this block.
			break
		} else if cap(s.tbuf[i])-len(text) < minBlockSlop {
			// There is no room in this block, but it is nearly-enough full.
			// Allocate a fresh block at this location and release the old one.
			// The old block will be retained until all its tokens are released.
			s.tbuf[i] = make([]byte, 0, bufBlockBytes)
			break
		}
		i++
	}
	if i == len(s.tbuf) {
		// No block had room; add a new empty one to the arena.
		s.tbuf = append(s.tbuf, make([]byte, 0, bufBlockBytes))
	}
	p := len(s.tbuf[i])
	s.tbuf[i] = append(s.tbuf[i], text...)
	return s.tbuf[i][p : p+len(text)]
}
