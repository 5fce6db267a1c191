// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package ast defines an abstract syntax tree for JSON values,
// and a parser that constructs syntax trees from JSON source.
package ast

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/creachadair/jval"
)

// ErrExtraInput is reported when unconsumed input remains after a complete
// value has been parsed from an input that should contain only one.
var ErrExtraInput = errors.New("extra input after value")

// A Value is an arbitrary JSON value.
type Value interface {
	// JSON converts the value into JSON source text.
	JSON() string

	// String converts the value into a human-readable representation, not
	// necessarily JSON.
	String() string
}

// A Keyer is a value that can be used as an object key.
type Keyer interface {
	Key() string
}

// A Text is a value that carries a string of text.
type Text interface {
	Value
	Keyer
}

// An Object is a collection of key-value members.
type Object []*Member

// Find returns the first member of o with the given key, or nil.
func (o Object) Find(key string) *Member {
	for _, m := range o {
		if string(m.Key) == key {
			return m
		}
	}
	return nil
}

// Len returns the number of members in the object.
func (o Object) Len() int { return len(o) }

// Sort sorts the object in ascending order by key, preserving the relative
// order of members with equal keys.
func (o Object) Sort() {
	slices.SortStableFunc(o, func(a, b *Member) int {
		return cmp.Compare(a.Key, b.Key)
	})
}

// JSON renders o as JSON source text.
func (o Object) JSON() string {
	if len(o) == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	sb.WriteString(o[0].JSON())
	for _, m := range o[1:] {
		sb.WriteByte(',')
		sb.WriteString(m.JSON())
	}
	sb.WriteByte('}')
	return sb.String()
}

func (o Object) String() string { return fmt.Sprintf("Object(len=%d)", len(o)) }

// A Member is a single key-value pair belonging to an Object.
type Member struct {
	Key   String
	Value Value
}

// Field constructs an object member with the given key and value.
// The value must be a string, int, float, bool, nil, or ast.Value, otherwise
// Field will panic.
func Field(key string, value any) *Member {
	return &Member{Key: String(key), Value: ToValue(value)}
}

// JSON renders the member as JSON source text.
func (m *Member) JSON() string { return m.Key.JSON() + ":" + m.Value.JSON() }

func (m *Member) String() string { return fmt.Sprintf("Member(key=%q)", string(m.Key)) }

// An Array is a sequence of values.
type Array []Value

// Len returns the number of values in the array.
func (a Array) Len() int { return len(a) }

// JSON renders a as JSON source text.
func (a Array) JSON() string {
	if len(a) == 0 {
		return "[]"
	}
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(a[0].JSON())
	for _, v := range a[1:] {
		sb.WriteByte(',')
		sb.WriteString(v.JSON())
	}
	sb.WriteByte(']')
	return sb.String()
}

func (a Array) String() string { return fmt.Sprintf("Array(len=%d)", len(a)) }

// A Number is a JSON number as parsed from source text. It records whether
// the source spelled an integer or a floating-point value, and retains the
// original spelling for rendering.
type Number struct {
	text  string
	value float64
	z     int64
	isInt bool
}

// IsInt reports whether n is representable as an integer.
func (n Number) IsInt() bool { return n.isInt }

// Int returns the value of n truncated to an integer.
func (n Number) Int() int64 {
	if n.isInt {
		return n.z
	}
	return int64(n.value)
}

// Float returns the value of n as a floating-point number.
func (n Number) Float() float64 {
	if n.isInt {
		return float64(n.z)
	}
	return n.value
}

// JSON renders n as JSON source text, preferring its original spelling if one
// is available.
func (n Number) JSON() string {
	if n.text != "" {
		return n.text
	}
	if n.isInt {
		return strconv.FormatInt(n.z, 10)
	}
	return strconv.FormatFloat(n.value, 'g', -1, 64)
}

func (n Number) String() string { return n.JSON() }

// Numeric is the interface satisfied by numeric values, including Number,
// Int, and Float.
type Numeric interface {
	Value

	// Int returns the value as an int64, truncating toward zero.
	Int() int64

	// Float returns the value as a float64.
	Float() float64
}

// An Int is a JSON number with an integer value.
type Int int64

// Int returns the value of z as an int64.
func (z Int) Int() int64 { return int64(z) }

// Float returns the value of z as a float64.
func (z Int) Float() float64 { return float64(z) }

// JSON renders z as JSON source text.
func (z Int) JSON() string { return strconv.FormatInt(int64(z), 10) }

func (z Int) String() string { return z.JSON() }

// A Float is a JSON number with a floating-point value.
type Float float64

// Int returns the value of f truncated to an int64.
func (f Float) Int() int64 { return int64(f) }

// Float returns the value of f as a float64.
func (f Float) Float() float64 { return float64(f) }

// JSON renders f as JSON source text.
func (f Float) JSON() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

func (f Float) String() string { return f.JSON() }

// A Bool is a JSON boolean constant, true or false.
type Bool bool

// JSON renders b as JSON source text.
func (b Bool) JSON() string { return strconv.FormatBool(bool(b)) }

func (b Bool) String() string { return b.JSON() }

// A String is a JSON string value. The contents of a String are fully
// unescaped.
type String string

// Len returns the length in bytes of the string.
func (s String) Len() int { return len(s) }

// Key satisfies the Keyer interface.
func (s String) Key() string { return string(s) }

// Quote converts s into its quoted form.
func (s String) Quote() Quoted { return Quoted{text: string(jval.Quote(string(s)))} }

// JSON renders s as JSON source text.
func (s String) JSON() string { return string(jval.Quote(string(s))) }

// String returns the unescaped text of the string.
func (s String) String() string { return string(s) }

// A Quoted is a quoted JSON string value, with its escapes intact.
type Quoted struct{ text string }

// Len returns the length in bytes of the quoted text.
func (q Quoted) Len() int { return len(q.text) }

// Key satisfies the Keyer interface. The key is unescaped.
func (q Quoted) Key() string { return string(q.Unquote()) }

// Unquote converts q into its unescaped form.
func (q Quoted) Unquote() String {
	dec, err := jval.Unquote([]byte(q.text))
	if err != nil {
		panic(err)
	}
	return String(dec)
}

// JSON renders q as JSON source text.
func (q Quoted) JSON() string { return q.text }

func (q Quoted) String() string { return q.text }

// Null represents the JSON null constant. The length of Null is zero.
var Null nullValue

type nullValue struct{}

// Len returns 0, the length of the null constant.
func (nullValue) Len() int { return 0 }

// JSON renders the null constant as JSON source text.
func (nullValue) JSON() string { return "null" }

func (nullValue) String() string { return "null" }

// ToValue converts a plain string, int, float, bool, or nil into the
// corresponding ast.Value. If v is already an ast.Value, it is returned as
// written. ToValue panics if v does not have one of these types.
func ToValue(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case string:
		return String(t)
	case int:
		return Int(t)
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case bool:
		return Bool(t)
	}
	panic(fmt.Sprintf("value %[1]v of type %[1]T cannot be converted", v))
}

// ArrayOf constructs an Array from the given values. The values must be
// convertible per the rules of ToValue, or ArrayOf will panic.
func ArrayOf[T any](vs ...T) Array {
	out := make(Array, len(vs))
	for i, v := range vs {
		out[i] = ToValue(v)
	}
	return out
}

// Path traverses a path of object keys and array offsets sequentially from v,
// and returns the value so reached. Path elements must be strings (object
// keys), ints (array or object offsets), or functions with the signature
// func(Value) (Value, error). Negative offsets index backward from the end
// of the value. If the path cannot be traversed completely, Path returns v
// unchanged along with an error describing the first blocked step.
func Path(v Value, path ...any) (Value, error) {
	cur := v
	for _, elt := range path {
		cur = deref(cur)
		switch t := elt.(type) {
		case func(Value) (Value, error):
			w, err := t(cur)
			if err != nil {
				return v, err
			}
			cur = w
		case string:
			o, ok := cur.(Object)
			if !ok {
				return v, fmt.Errorf("cannot traverse %T with key %q", cur, t)
			}
			m := o.Find(t)
			if m == nil {
				return v, fmt.Errorf("key %q not found", t)
			}
			cur = m.Value
		case int:
			switch c := cur.(type) {
			case Array:
				i, ok := checkBound(t, len(c))
				if !ok {
					return v, fmt.Errorf("offset %d out of range for array of %d", t, len(c))
				}
				cur = c[i]
			case Object:
				i, ok := checkBound(t, len(c))
				if !ok {
					return v, fmt.Errorf("offset %d out of range for object of %d", t, len(c))
				}
				cur = c[i].Value
			default:
				return v, fmt.Errorf("cannot traverse %T with offset %d", cur, t)
			}
		default:
			return v, fmt.Errorf("invalid path element %T", elt)
		}
	}
	return deref(cur), nil
}

// checkBound reports whether offset i is in range for a value of length n,
// and returns the equivalent non-negative offset. Negative offsets index
// backward from the end.
func checkBound(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

// deref returns the value of v if v is an object member, otherwise v itself.
func deref(v Value) Value {
	if m, ok := v.(*Member); ok {
		return m.Value
	}
	return v
}
