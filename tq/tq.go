// Package tq implements structural traversal queries over JSON values.
//
// A query describes a syntactic substructure of a JSON syntax tree, such as an
// object member, array element, or a path through the tree. Evaluating a query
// against a concrete JSON value traverses the structure described by the query
// and returns the resulting value.
//
// The simplest query is for a "path", a sequence of object keys and/or array
// indices that describes a path from the root of a JSON value. For example,
// given the JSON value:
//
//	[{"a": 1, "b": 2}, {"c": {"d": true}, "e": false}]
//
// the query
//
//	tq.Path(1, "c", "d")
//
// yields the value "true".
//
// # Environments
//
// A query is evaluated in an environment of named parameter bindings. The
// root value of the evaluation is bound to the parameter "$", and queries
// such as As and Store may add bindings of their own. A string path element
// beginning with "$" refers to the binding with that name; write "$$" to
// escape a literal "$" at the start of an object key. A string path element
// beginning with "%" matches its object key without regard to case.
package tq

import (
	"errors"
	"fmt"

	"github.com/creachadair/jval/ast"
)

// Eval evaluates the given query beginning from root, returning the resulting
// value or an error. The root value is bound to the parameter "$" in the
// environment visible to the query. An error is reported if the result does
// not have type T.
func Eval[T ast.Value](root ast.Value, q Query) (T, error) {
	var zero T
	_, v, err := q.eval(Env{}.Bind("$", root), root)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("result type %T does not match", v)
	}
	return out, nil
}

// A Query describes a traversal of a JSON value. The behavior of a query is
// defined in terms of how it maps its input to an output. Both the input and
// the output are JSON structures.
type Query interface {
	eval(Env, ast.Value) (Env, ast.Value, error)
}

// An Env is an environment of parameter bindings visible to a query
// evaluation. The zero Env is empty and ready for use. Bindings added to an
// environment shadow earlier bindings of the same name; an Env is otherwise
// immutable once created.
type Env struct {
	scope *scope
}

// Bind returns a copy of e in which name is bound to v. A leading "$" on
// name is ignored, so that Bind and Get agree on parameter names.
func (e Env) Bind(name string, v ast.Value) Env {
	return Env{scope: &scope{name: paramName(name), value: v, up: e.scope}}
}

// Get returns the value bound to name in e, or nil if none is bound. A
// leading "$" on name is ignored, so Get("$x") and Get("x") are equivalent.
// The name "$" itself designates the root value of the evaluation.
func (e Env) Get(name string) ast.Value {
	v, _ := e.lookup(paramName(name))
	return v
}

// Eval evaluates q starting from v in the environment e, and returns the
// updated environment along with the result.
func (e Env) Eval(v ast.Value, q Query) (Env, ast.Value, error) { return q.eval(e, v) }

// A Func is a function that can be used as a query. The function receives
// the current environment and input value, and returns a possibly-updated
// environment along with its output value.
type Func func(Env, ast.Value) (Env, ast.Value, error)

func (f Func) eval(e Env, v ast.Value) (Env, ast.Value, error) { return f(e, v) }

// Path traverses a sequence of nested object keys or array indices from the
// input value.  If no keys are specified, the input is returned. Each key must
// be a string (an object key or parameter reference), an int (an array
// offset), an ast.Value (a constant), or a nested Query.
func Path(keys ...any) Query {
	if len(keys) == 1 {
		return pathElem(keys[0])
	}
	pq := make(Seq, 0, len(keys))
	for _, key := range keys {
		q := pathElem(key)
		if sq, ok := q.(Seq); ok {
			pq = append(pq, sq...)
		} else {
			pq = append(pq, q)
		}
	}
	return pq
}

// Get returns a query that yields the value bound to name in the environment,
// ignoring its input. The query fails if the name is not bound.
func Get(name string) Query { return getQuery{paramName(name)} }

// As evaluates the given path (as Path) against its input, binds the result
// to name in the environment, and yields its input unchanged. With no path,
// As binds the input value itself.
func As(name string, keys ...any) Query { return asQuery{paramName(name), Path(keys...)} }

// Map returns a query that applies f to its input value and yields the
// result. The query fails if the input does not have type T, or if f reports
// an error.
func Map[T, U ast.Value](f func(T) (U, error)) Query {
	return Func(func(e Env, v ast.Value) (Env, ast.Value, error) {
		t, ok := v.(T)
		if !ok {
			var zero T
			return e, nil, fmt.Errorf("got %T, want %T", v, zero)
		}
		w, err := f(t)
		if err != nil {
			return e, nil, err
		}
		return e, w, nil
	})
}

// Match returns a query that yields its input unmodified if the input has
// type T and f reports true for it, and otherwise fails.
func Match[T ast.Value](f func(T) bool) Query {
	return Func(func(e Env, v ast.Value) (Env, ast.Value, error) {
		if t, ok := v.(T); ok && f(t) {
			return e, v, nil
		}
		return e, nil, errors.New("value does not match")
	})
}

// Store evaluates the given path (as Path) against its input, stores the
// result into *ptr, and yields its input unchanged. It reports an error if
// the path does not match, or if its result does not have type T.
func Store[T ast.Value](ptr *T, keys ...any) Query {
	q := Path(keys...)
	return Func(func(e Env, v ast.Value) (Env, ast.Value, error) {
		_, w, err := q.eval(e, v)
		if err != nil {
			return e, nil, err
		}
		t, ok := w.(T)
		if !ok {
			return e, nil, fmt.Errorf("result type %T does not match target", w)
		}
		*ptr = t
		return e, v, nil
	})
}

// Ref evaluates the given path (as Path) against its input, and uses its
// result as an index to traverse the input: a numeric result selects the
// corresponding array offset, a text result selects the corresponding object
// member.
func Ref(keys ...any) Query { return refQuery{Path(keys...)} }

// NKey returns a query that selects the value of the first object member
// whose key matches name without regard to case.
func NKey(name string) Query { return nKeyQuery(name) }

// Select constructs an array of the elements of its input array for which
// the given path (as Path) matches.
func Select(keys ...any) Query { return selectQuery{Path(keys...)} }

// Keys yields an array of the member keys of its input, which must be an
// object. As a special case, the keys of null are empty.
func Keys() Query { return keysQuery{} }

// Delete removes the member with the given key from its input, which must be
// an object. Deleting a key that is not present is not an error. As a
// special case, deleting any key from null yields null.
func Delete(key string) Query { return delQuery{key} }

// Set replaces the value of the member with the given key in its input
// object, or appends a new member if the key is not present. As a special
// case, setting a key on null yields a new object with only that member.
func Set(key string, v ast.Value) Query { return setQuery{key, constQuery{v}} }

// A FilterFunc is a query that constructs an array of the elements of its
// input array for which the function reports true.
type FilterFunc func(ast.Value) bool

func (f FilterFunc) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(a ast.Array) (Env, ast.Value, error) {
		var out ast.Array
		for _, elt := range a {
			if f(elt) {
				out = append(out, elt)
			}
		}
		return e, out, nil
	})
}

// Mapping constructs an array in which each value is replaced by the result of
// calling the specified function on the corresponding input value.
type Mapping func(ast.Value) ast.Value

func (q Mapping) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	return with(e, v, func(a ast.Array) (Env, ast.Value, error) {
		out := make(ast.Array, len(a))
		for i, elt := range a {
			out[i] = q(elt)
		}
		return e, out, nil
	})
}

// Slice selects a slice of an array from offsets lo to hi.  The range includes
// lo but excludes hi. Negative offsets select from the end of the array.
// If hi == 0, the length of the array is used.
func Slice(lo, hi int) Query { return sliceQuery{lo, hi} }

// Pick constructs an array by picking the designated offsets from an array.
// Negative offsets select from the end of the input array.
func Pick(offsets ...int) Query { return pickQuery(offsets) }

// Len returns an integer representing the length of the root.
//
// For an object, the length is the number of members.
// For an array, the length is the number of elements.
// For a string, the length is the length of the string.
// For null, the length is zero.
func Len() Query { return lenQuery{} }

// Seq is a sequential composition of queries. An empty sequence selects the
// input value; otherwise, each query is applied to the result produced by the
// previous query in the sequence. Parameters bound by the queries in the
// sequence are visible to the queries that follow them.
type Seq []Query

func (q Seq) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	cur := v
	for _, sq := range q {
		var err error
		e, cur, err = sq.eval(e, cur)
		if err != nil {
			return e, nil, err
		}
	}
	return e, cur, nil
}

// Alt is a query that selects among a sequence of alternatives.  It returns
// the value of the first alternative that does not report an error, along
// with any parameters that alternative bound. Parameters bound by failed
// alternatives are discarded. If no alternative succeeds, the query fails.
// An empty Alt fails on all inputs.
type Alt []Query

func (q Alt) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	for _, alt := range q {
		if ne, w, err := alt.eval(e, v); err == nil {
			return ne, w, nil
		}
	}
	return e, nil, errors.New("no matching alternatives")
}

// A Let is an ordered sequence of name/query bindings. Each query is
// evaluated against the input value and its result is bound to the
// corresponding name; the names of earlier bindings are visible to the
// queries of later ones. The bindings take effect for a query attached with
// In.
type Let []struct {
	Name string
	Q    Query
}

// In returns a query that evaluates the given path (as Path) on its input,
// in the environment constructed by the bindings of lt.
func (lt Let) In(keys ...any) Query { return letQuery{lt, Path(keys...)} }

// Recur applies a query to each recursive descendant of its input and returns
// an array of the resulting values. The arguments have the same constraints as
// Path.
func Recur(keys ...any) Query { return recQuery{Path(keys...)} }

// Each applies a query to each element of an array and returns an array of the
// resulting values. It fails if the input is not an array.  The arguments have
// the same constraints as Path.
func Each(keys ...any) Query { return eachQuery{Path(keys...)} }

// Object constructs an object with the given keys mapped to the results of
// matching the query values against its input. The members of the resulting
// object are in unspecified order; use the Sort method of an ast.Object if a
// fixed order is required.
type Object map[string]Query

func (o Object) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	var out ast.Object
	for key, q := range o {
		_, val, err := q.eval(e, v)
		if err != nil {
			return e, nil, fmt.Errorf("match %q: %w", key, err)
		}
		out = append(out, ast.Field(key, val))
	}
	return e, out, nil
}

// Array constructs an array containing the values produced by matching the
// given queries against its input.
type Array []Query

func (a Array) eval(e Env, v ast.Value) (Env, ast.Value, error) {
	out := make(ast.Array, len(a))
	for i, q := range a {
		_, val, err := q.eval(e, v)
		if err != nil {
			return e, nil, fmt.Errorf("index %d: %w", i, err)
		}
		out[i] = val
	}
	return e, out, nil
}

// A Value query ignores its input and returns the given value.  The value must
// be a string, int, float, bool, nil, or ast.Value.
func Value(v any) Query { return constQuery{ast.ToValue(v)} }

// A Glob query returns an array of its inputs. If the input is an array, the
// array is returned unchanged. if the input is an object, the result is an
// array of all the object values.
func Glob() Query { return globQuery{} }
