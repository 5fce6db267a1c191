// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package ast

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/creachadair/jval"
)

// A Parser wraps options for parsing values. A zero Parser is ready for use
// with default settings.
type Parser struct {
	// MaxDepth, if positive, sets the maximum permitted nesting depth of
	// values. If zero or negative, a default depth limit applies.
	MaxDepth int

	// Interner, if non-nil, is used to intern object keys during parsing.
	// Sharing an interner across parses shares the keys too.
	Interner jval.Interner
}

// Parse parses and returns the values encoded by r. Any values already
// complete when an error occurs are returned along with the error.
func (p Parser) Parse(r io.Reader) ([]Value, error) {
	h := &parseHandler{intern: p.Interner}
	st := p.newStream(r)
	var vs []Value
	for {
		err := st.ParseOne(h)
		if err == io.EOF {
			return vs, nil
		} else if err != nil {
			return vs, err
		}
		v, err := h.result()
		if err != nil {
			return vs, err
		}
		vs = append(vs, v)
	}
}

// ParseSingle parses a single value encoded by r, which must comprise the
// whole of the input apart from whitespace.
func (p Parser) ParseSingle(r io.Reader) (Value, error) {
	h := &parseHandler{intern: p.Interner}
	if err := p.newStream(r).ParseSingle(h); err != nil {
		return nil, err
	}
	return h.result()
}

func (p Parser) newStream(r io.Reader) *jval.Stream {
	st := jval.NewStream(r)
	if p.MaxDepth > 0 {
		st.SetMaxDepth(p.MaxDepth)
	}
	return st
}

// Parse parses and returns the values encoded by r using default options.
func Parse(r io.Reader) ([]Value, error) { return Parser{}.Parse(r) }

// ParseSingle parses a single value encoded by r using default options. The
// value must comprise the whole of the input apart from whitespace.
func ParseSingle(r io.Reader) (Value, error) { return Parser{}.ParseSingle(r) }

// AnchorValue decodes the text of the data token at loc into the
// corresponding Value. It reports an error if the token at loc does not
// carry a value, or if its text cannot be decoded.
func AnchorValue(loc jval.Anchor) (Value, error) {
	switch loc.Token() {
	case jval.String:
		dec, err := jval.Unquote(loc.Text())
		if err != nil {
			return nil, err
		}
		return String(dec), nil
	case jval.Integer:
		text := string(loc.Text())
		z, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			// Out of range for int64, keep the value as floating point.
			return parseFloatValue(loc, text)
		}
		return Number{text: text, z: z, isInt: true}, nil
	case jval.Number:
		return parseFloatValue(loc, string(loc.Text()))
	case jval.True:
		return Bool(true), nil
	case jval.False:
		return Bool(false), nil
	case jval.Null:
		return Null, nil
	default:
		return nil, fmt.Errorf("token %v does not carry a value", loc.Token())
	}
}

// parseFloatValue decodes text as a floating-point number. Values too small
// to represent round quietly toward zero, but values too large to represent
// are reported as an error at the position of loc.
func parseFloatValue(loc jval.Anchor, text string) (Value, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, err
	}
	if math.IsInf(v, 0) {
		pos := loc.Location()
		return nil, &jval.SyntaxError{
			Kind:     jval.InvalidNumber,
			Offset:   pos.Pos,
			Location: pos.First,
			Message:  fmt.Sprintf("number %q out of range", text),
		}
	}
	return Number{text: text, value: v}, nil
}

// A parseHandler implements the jval.Handler interface to construct abstract
// syntax trees for values.
type parseHandler struct {
	stk    []Value
	intern jval.Interner
}

// result returns the completed value from the stack and resets the handler
// for the next parse.
func (h *parseHandler) result() (Value, error) {
	if len(h.stk) != 1 {
		return nil, errors.New("incomplete value")
	}
	v := unptr(h.stk[0])
	h.stk = h.stk[:0]
	return v, nil
}

// reduce pops the top of the stack and attaches it to the partial value
// below it. A lone value is left in place for the handler to report.
func (h *parseHandler) reduce() error {
	if len(h.stk) > 1 {
		return h.reduceValue(h.pop())
	}
	return nil
}

// reduceValue attaches v to the partial value atop the stack. If the stack
// is empty, v itself becomes the top of the stack.
func (h *parseHandler) reduceValue(v Value) error {
	v = unptr(v)
	if len(h.stk) == 0 {
		h.push(v)
		return nil
	}
	switch prev := h.stk[len(h.stk)-1].(type) {
	case *Member:
		prev.Value = v
	case *Object:
		// already attached to the object by BeginMember
	case *Array:
		*prev = append(*prev, v)
	}
	return nil
}

// unptr converts pointers to partially-built objects and arrays into their
// completed forms.
func unptr(v Value) Value {
	switch t := v.(type) {
	case *Object:
		return *t
	case *Array:
		return *t
	}
	return v
}

func (h *parseHandler) top() Value { return h.stk[len(h.stk)-1] }

func (h *parseHandler) pop() Value {
	last := h.top()
	h.stk = h.stk[:len(h.stk)-1]
	return last
}

func (h *parseHandler) push(v Value) { h.stk = append(h.stk, v) }

func (h *parseHandler) BeginObject(loc jval.Anchor) error {
	h.push(new(Object))
	return nil
}

func (h *parseHandler) EndObject(loc jval.Anchor) error { return h.reduce() }

func (h *parseHandler) BeginArray(loc jval.Anchor) error {
	h.push(new(Array))
	return nil
}

func (h *parseHandler) EndArray(loc jval.Anchor) error { return h.reduce() }

func (h *parseHandler) BeginMember(loc jval.Anchor) error {
	dec, err := jval.Unquote(loc.Text())
	if err != nil {
		return err
	}

	// The object this member belongs to is atop the stack.  Attach the new
	// member to its collection eagerly, so that when reducing the stack after
	// the value is known, we don't have to handle the key again.
	m := &Member{Key: String(h.intern.Intern(dec))}
	obj := h.top().(*Object)
	*obj = append(*obj, m)
	h.push(m)
	return nil
}

func (h *parseHandler) EndMember(loc jval.Anchor) error { return h.reduce() }

func (h *parseHandler) Value(loc jval.Anchor) error {
	v, err := AnchorValue(loc)
	if err != nil {
		return err
	}
	return h.reduceValue(v)
}

func (h *parseHandler) EndOfInput(loc jval.Anchor) {}
