// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package tq

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creachadair/jval/ast"
)

func pathElem(key any) Query {
	switch t := key.(type) {
	case string:
		s, ok := isMarked(t)
		if ok {
			return Get(s)
		} else if rest, ok := strings.CutPrefix(s, "%%"); ok {
			return objKey("%" + rest)
		} else if rest, ok := strings.CutPrefix(s, "%"); ok {
			return NKey(rest)
		}
		return objKey(s)
	case int:
		return nthQuery(t)
	case Query:
		return t
	case ast.Value:
		return constQuery{t}
	default:
		panic(fmt.Sprintf("invalid path element %T", key))
	}
}

type objKey string

func (o objKey) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(obj ast.Object) (Env, ast.Value, error) {
		mem := obj.Find(string(o))
		if mem == nil {
			return e, nil, fmt.Errorf("key %q not found", o)
		}
		return e, mem.Value, nil
	})
}

type nKeyQuery string

func (o nKeyQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(obj ast.Object) (Env, ast.Value, error) {
		for _, mem := range obj {
			if strings.EqualFold(string(mem.Key), string(o)) {
				return e, mem.Value, nil
			}
		}
		return e, nil, fmt.Errorf("key %q not found", o)
	})
}

type nthQuery int

func (nq nthQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(a ast.Array) (Env, ast.Value, error) {
		idx := int(nq)
		if idx < 0 {
			idx += len(a)
		}
		if idx < 0 || idx >= len(a) {
			return e, nil, fmt.Errorf("index %d out of range (0..%d)", nq, len(a))
		}
		return e, a[idx], nil
	})
}

type sliceQuery struct{ lo, hi int }

func (q sliceQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(arr ast.Array) (Env, ast.Value, error) {
		lox := q.lo
		if lox < 0 {
			lox += len(arr)
		}
		hix := q.hi
		if hix <= 0 {
			hix += len(arr)
		}
		if lox < 0 || lox >= len(arr) {
			return e, nil, fmt.Errorf("index %d out of range (0..%d)", q.lo, len(arr))
		} else if hix < 0 || hix > len(arr) {
			return e, nil, fmt.Errorf("index %d out of range (0..%d)", q.hi, len(arr))
		} else if lox > hix {
			return e, nil, fmt.Errorf("index start %d > end %d", q.lo, q.hi)
		}
		return e, arr[lox:hix], nil
	})
}

type pickQuery []int

func (q pickQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(arr ast.Array) (Env, ast.Value, error) {
		var out ast.Array
		for _, off := range q {
			if off < 0 {
				off += len(arr)
			}
			if off < 0 || off >= len(arr) {
				return e, nil, fmt.Errorf("index %d out of range (0..%d)", off, len(arr))
			}
			out = append(out, arr[off])
		}
		return e, out, nil
	})
}

type eachQuery struct{ Query }

func (q eachQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(a ast.Array) (Env, ast.Value, error) {
		var out ast.Array
		for i, elt := range a {
			_, v, err := q.Query.eval(e, elt)
			if err != nil {
				return e, nil, fmt.Errorf("index %d: %w", i, err)
			}
			out = append(out, v)
		}
		return e, out, nil
	})
}

type lenQuery struct{}

func (lenQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	if t, ok := v.(interface {
		Len() int
	}); ok {
		return e, ast.Int(t.Len()), nil
	}
	return e, nil, fmt.Errorf("cannot take length of %T", v)
}

type recQuery struct{ Query }

func (q recQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	var out ast.Array

	type entry struct {
		e Env
		v ast.Value
	}
	stk := []entry{{e, v}}
	for len(stk) != 0 {
		next := stk[len(stk)-1]
		stk = stk[:len(stk)-1]

		ne, r, err := q.Query.eval(next.e, next.v)
		if err == nil {
			if a, ok := r.(ast.Array); ok {
				out = append(out, a...)
			} else {
				out = append(out, r)
			}
		}

		// N.B. Push in reverse order, so we visit in lexical order.
		switch t := next.v.(type) {
		case ast.Object:
			for i := len(t) - 1; i >= 0; i-- {
				stk = append(stk, entry{ne, t[i].Value})
			}
		case ast.Array:
			for i := len(t) - 1; i >= 0; i-- {
				stk = append(stk, entry{ne, t[i]})
			}
		}
	}

	if len(out) == 0 {
		return e, nil, errors.New("no matches")
	}
	return e, out, nil
}

type delQuery struct{ name string }

func (d delQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	// As a special case, treat null as equivalent to an empty object.
	if v == ast.Null {
		return e, v, nil
	}
	return with(e, v, func(o ast.Object) (Env, ast.Value, error) {
		found := o.Find(d.name)
		if found == nil {
			return e, o, nil
		}
		res := make(ast.Object, 0, o.Len()-1)
		for _, m := range o {
			if m == found {
				continue
			}
			res = append(res, m)
		}
		return e, res, nil
	})
}

type setQuery struct {
	name string
	q    Query
}

func (s setQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	_, t, err := s.q.eval(e, v)
	if err != nil {
		return e, nil, err
	}
	if v == ast.Null {
		v = ast.Object{}
	}
	return with(e, v, func(o ast.Object) (Env, ast.Value, error) {
		found := o.Find(s.name)
		if found == nil {
			return e, append(o, ast.Field(s.name, t)), nil
		}
		out := make(ast.Object, len(o))
		for i, m := range o {
			if m == found {
				out[i] = ast.Field(s.name, t)
			} else {
				out[i] = m
			}
		}
		return e, out, nil
	})
}

type constQuery struct{ ast.Value }

func (c constQuery) eval(e Env, _ ast.Value) (Env, ast.Value, error) {
	return e, c.Value, nil
}

type globQuery struct{}

func (globQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	switch t := v.(type) {
	case ast.Object:
		out := make(ast.Array, len(t))
		for i, m := range t {
			out[i] = m.Value
		}
		return e, out, nil
	case ast.Array:
		return e, t, nil
	default:
		return e, nil, errors.New("no matching values")
	}
}

type keysQuery struct{}

func (keysQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	var out ast.Array
	if o, ok := v.(ast.Object); ok {
		for _, m := range o {
			out = append(out, m.Key)
		}
		return e, out, nil
	} else if v == ast.Null {
		return e, out, nil
	}

	return e, nil, fmt.Errorf("cannot list keys of %T", v)
}

// isMarked reports whether s begins with a "$" parameter marker, and if so
// returns the parameter name. A "$$" prefix escapes a literal "$" at the
// start of an object key, and in that case isMarked returns s with one "$"
// removed. The solitary name "$" denotes the root binding.
func isMarked(s string) (string, bool) {
	if s == "$" {
		return s, true
	} else if strings.HasPrefix(s, "$$") {
		return s[1:], false
	} else if strings.HasPrefix(s, "$") {
		return s[1:], true
	}
	return s, false
}

// paramName normalizes a parameter name by removing a leading "$" marker, so
// that Get("$x") and Get("x") refer to the same binding. The solitary name
// "$" is preserved.
func paramName(s string) string {
	if s == "$" {
		return s
	}
	return strings.TrimPrefix(s, "$")
}

type letQuery struct {
	lt   Let
	body Query
}

func (q letQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	for _, b := range q.lt {
		_, w, err := b.Q.eval(e, v)
		if err != nil {
			return e, nil, err
		}
		e = e.Bind(b.Name, w)
	}
	return q.body.eval(e, v)
}

type getQuery struct{ name string }

func (q getQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	if w, ok := e.lookup(q.name); ok {
		return e, w, nil
	}
	return e, nil, fmt.Errorf("parameter %q not found", q.name)
}

type asQuery struct {
	name string
	q    Query
}

func (q asQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	_, w, err := q.q.eval(e, v)
	if err != nil {
		return e, nil, err
	}
	return e.Bind(q.name, w), v, nil
}

type refQuery struct{ Query }

func (r refQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	_, w, err := r.Query.eval(e, v)
	if err != nil {
		return e, nil, err
	}
	switch t := w.(type) {
	case ast.Int:
		return nthQuery(int(t)).eval(e, v)
	case ast.Number:
		return nthQuery(int(t.Int())).eval(e, v)
	case ast.Keyer:
		return objKey(t.Key()).eval(e, v)
	}
	return e, nil, fmt.Errorf("value %T is not a valid reference", w)
}

type selectQuery struct{ Query }

func (q selectQuery) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(a ast.Array) (Env, ast.Value, error) {
		var out ast.Array
		for _, elt := range a {
			if _, _, err := q.Query.eval(e, elt); err == nil {
				out = append(out, elt)
			}
		}
		return e, out, nil
	})
}

func with[T ast.Value](e Env, v ast.Value, f func(T) (Env, ast.Value, error)) (Env, ast.Value, error) {
	if v, ok := v.(T); ok {
		return f(v)
	}
	var zero T
	return e, nil, fmt.Errorf("got %T, want %T", v, zero)
}

// A scope is one frame of an environment. Frames are chained parent-ward and
// never modified after creation, so extended environments share structure.
type scope struct {
	name  string
	value ast.Value
	up    *scope
}

func (e Env) lookup(name string) (ast.Value, bool) {
	for cur := e.scope; cur != nil; cur = cur.up {
		if cur.name == name {
			return cur.value, true
		}
	}
	return nil, false
}
