// Package jpath implements a minimal JSONPath expression parser.
package jpath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

/*
Grammar:

  expr = root steps
  root = "$"
 steps = step [steps]
  step = "." name
  step = ".." name
  step = "[" value "]"
  step = "[" slice "]"
  name = WORD
  name = "'" QTEXT "'"
  name = "*"
 value = name
 value = INDEX
 value = script
 value = filter
 slice = INDEX ":" INDEX
script = "(" TEXT ")"
filter = "?(" TEXT ")"

  WORD = RE `\w+`
 QTEXT = RE `([^']|\\')*`
 INDEX = RE `-?\d+`
  TEXT = { all text with nested parentheses }

Source:
  https://www.ietf.org/archive/id/draft-goessner-dispatch-jsonpath-00.html
*/

// An Expr is a parsed JSONPath expression.
type Expr []Step

// Parse parses s as a JSONPath expression.
func Parse(s string) (Expr, error) {
	st, _, err := parseExpr(s)
	if err != nil {
		return Expr{}, err
	}
	return st, nil
}

func (e Expr) String() string {
	var buf strings.Builder
	buf.WriteString("$")
	for _, s := range e {
		switch s.Op {
		case Member, Recur:
			if s.Quoted {
				fmt.Fprintf(&buf, "%s'%s'", s.Op, s.Arg)
			} else {
				fmt.Fprint(&buf, s.Op, s.Arg)
			}

		case QName:
			fmt.Fprintf(&buf, "['%s']", s.Arg)

		case Index:
			fmt.Fprintf(&buf, "[%s]", joinInts(s.List))

		case Slice:
			fmt.Fprintf(&buf, "[%s:%s]", s.Lo, s.Hi)

		case Script:
			fmt.Fprintf(&buf, "[(%s)]", s.Arg)

		case Filter:
			fmt.Fprintf(&buf, "[?(%s)]", s.Arg)

		default:
			fmt.Fprintf(&buf, "[%s]", s.Arg)
		}
	}
	return buf.String()
}

func parseExpr(s string) ([]Step, string, error) {
	t, ok := strings.CutPrefix(s, "$")
	if !ok {
		return nil, s, errors.New("missing root marker")
	}
	return parseSteps(t)
}

func parseSteps(s string) (steps []Step, rest string, _ error) {
	for s != "" {
		step, rest, err := parseStep(s)
		if err != nil {
			return nil, s, err
		}
		steps = append(steps, step)
		s = rest
	}
	return steps, s, nil
}

func parseStep(s string) (_ Step, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, ".."); ok {
		kind, name, u, err := parseName(t)
		if err != nil {
			return Step{}, s, fmt.Errorf("invalid ..name: %w", err)
		}
		return Step{Op: Recur, Arg: name, Quoted: kind == QName}, u, nil
	}
	if t, ok := strings.CutPrefix(s, "."); ok {
		kind, name, u, err := parseName(t)
		if err != nil {
			return Step{}, s, fmt.Errorf("invalid .name: %w", err)
		}
		return Step{Op: Member, Arg: name, Quoted: kind == QName}, u, nil
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		out, u, err := parseValue(t)
		if err != nil {
			return Step{}, t, err
		}
		if out.Op == Slice {
			hi, rest, err := parseIndex(u)
			if err == nil {
				out.Hi = hi
				u = rest
			} else if out.Lo == "" {
				return Step{}, u, errors.New("invalid slice")
			}
		}
		u, ok := strings.CutPrefix(u, "]")
		if !ok {
			return Step{}, u, errors.New("missing close bracket")
		}
		return out, u, nil
	}
	return Step{}, s, errors.New("invalid path step")
}

func parseName(s string) (kind Op, name, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "*"); ok {
		return Wildcard, "*", t, nil
	}
	if m := wordRE.FindStringSubmatch(s); m != nil {
		return Name, m[1], s[len(m[0]):], nil
	}
	if m := quoteRE.FindStringSubmatch(s); m != nil {
		return QName, m[1], s[len(m[0]):], nil
	}
	return Invalid, "", s, errors.New("invalid name")
}

func parseIndex(s string) (text, rest string, _ error) {
	if m := indexRE.FindStringSubmatch(s); m != nil {
		return m[1], s[len(m[0]):], nil
	}
	return "", "", errors.New("invalid index")
}

func parseValue(s string) (_ Step, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "?("); ok {
		text, rest, err := parseScript(t)
		return Step{Op: Filter, Arg: text}, rest, err
	}
	if t, ok := strings.CutPrefix(s, "("); ok {
		text, rest, err := parseScript(t)
		return Step{Op: Script, Arg: text}, rest, err
	}
	if text, rest, err := parseIndex(s); err == nil {
		if u, ok := strings.CutPrefix(rest, ":"); ok {
			return Step{Op: Slice, Lo: text}, u, nil
		}
		return Step{Op: Index, List: splitInts(text)}, rest, nil
	}
	if u, ok := strings.CutPrefix(s, ":"); ok {
		return Step{Op: Slice}, u, nil
	}
	if kind, text, rest, err := parseName(s); err == nil {
		return Step{Op: kind, Arg: text, Quoted: kind == QName}, rest, nil
	}
	return Step{}, s, fmt.Errorf("invalid value: %q", s)
}

func parseScript(s string) (text, rest string, _ error) {
	i, np := 0, 1
	for i < len(s) {
		if s[i] == ')' {
			np--
			if np == 0 {
				break
			}
		} else if s[i] == '(' {
			np++
		}
		i++
	}
	if np > 0 {
		return "", s, errors.New("unbalanced parentheses")
	}
	return s[:i], s[i+1:], nil
}

// splitInts parses a comma-separated list of integers. The index pattern
// admits only valid integer text.
func splitInts(text string) []int {
	fs := strings.Split(text, ",")
	ns := make([]int, len(fs))
	for i, f := range fs {
		ns[i], _ = strconv.Atoi(f)
	}
	return ns
}

func joinInts(ns []int) string {
	ss := make([]string, len(ns))
	for i, n := range ns {
		ss[i] = strconv.Itoa(n)
	}
	return strings.Join(ss, ",")
}

var (
	wordRE  = regexp.MustCompile(`^(\w+)`)
	indexRE = regexp.MustCompile(`^(-?\d+(?:,-?\d+)*)`)
	quoteRE = regexp.MustCompile(`^'([^\']*)'`)
)

// An Op is a path operator.
type Op byte

const (
	Invalid  Op = iota // invalid operator
	Member             // member lookup (.)
	Index              // array index lookup
	Slice              // array slice
	Wildcard           // wildcard expansion (*)
	Name               // unquoted name expansion
	QName              // quoted name expansion
	Recur              // recur operator
	Filter             // filter operator
	Script             // script operator
)

var opText = map[Op]string{
	Invalid:  "invalid",
	Member:   ".",
	Index:    "index",
	Slice:    "slice",
	Wildcard: "*",
	Name:     "name",
	QName:    "qname",
	Recur:    "..",
	Filter:   "?(...)",
	Script:   "(...)",
}

func (o Op) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return opText[Invalid]
}

// A Step is a single step of a JSONPath expression.
type Step struct {
	Op     Op
	Arg    string // the name, filter, or script text of the step
	Quoted bool   // whether a name was quoted in the source
	List   []int  // the index arguments of an Index step
	Lo, Hi string // the bounds of a Slice step, as written
}

// IsWild reports whether s is an unquoted wildcard name.
func (s Step) IsWild() bool { return !s.Quoted && s.Arg == "*" }

// Bounds reports the bounds of a Slice step. A bound left empty in the
// source is reported as 0.
func (s Step) Bounds() (lo, hi int) {
	lo, _ = strconv.Atoi(s.Lo)
	hi, _ = strconv.Atoi(s.Hi)
	return
}
