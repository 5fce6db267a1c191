package jpath

import (
	"fmt"

	"github.com/creachadair/jval/tq"
)

// Compile compiles e into a query that evaluates the path expression.
// Filter and script steps are not supported, and report an error.
func Compile(e Expr) (tq.Query, error) {
	keys, err := compileSteps(e)
	if err != nil {
		return nil, err
	}
	return tq.Path(keys...), nil
}

func compileSteps(steps []Step) ([]any, error) {
	var keys []any
	for i, s := range steps {
		switch s.Op {
		case Member, Name, QName:
			if s.Op == Member && s.IsWild() {
				return compileWild(keys, steps[i+1:])
			}
			keys = append(keys, s.Arg)

		case Wildcard:
			return compileWild(keys, steps[i+1:])

		case Recur:
			// The rest of the path applies to each value the recursion
			// reaches, so it folds into the recursive query.
			rest, err := compileSteps(steps[i+1:])
			if err != nil {
				return nil, err
			}
			if s.IsWild() {
				keys = append(keys, tq.Recur(tq.Glob()))
				if len(rest) != 0 {
					keys = append(keys, tq.Each(rest...))
				}
			} else {
				keys = append(keys, tq.Recur(append([]any{s.Arg}, rest...)...))
			}
			return keys, nil

		case Index:
			if len(s.List) == 1 {
				keys = append(keys, s.List[0])
			} else {
				keys = append(keys, tq.Pick(s.List...))
			}

		case Slice:
			lo, hi := s.Bounds()
			keys = append(keys, tq.Slice(lo, hi))

		case Filter, Script:
			return nil, fmt.Errorf("cannot compile %v step", s.Op)

		default:
			return nil, fmt.Errorf("invalid step %v", s.Op)
		}
	}
	return keys, nil
}

// compileWild compiles a wildcard step. A trailing wildcard expands the
// children of the current value; otherwise the rest of the path applies to
// each child.
func compileWild(keys []any, rest []Step) ([]any, error) {
	keys = append(keys, tq.Glob())
	rk, err := compileSteps(rest)
	if err != nil {
		return nil, err
	}
	if len(rk) != 0 {
		keys = append(keys, tq.Each(rk...))
	}
	return keys, nil
}
