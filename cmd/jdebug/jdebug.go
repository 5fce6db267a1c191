// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Program jdebug parses a JSON value and prints what the parser produced.
// It exists to poke at inputs while debugging the parser and its consumers.
//
// Examples:
//
//	jdebug -s '{"a": [1, 2]}'
//	jdebug -f testdata/input.json --path '$.episodes[0].title'
//	jdebug -f - --jwcc < policy.hujson
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/creachadair/jval"
	"github.com/creachadair/jval/ast"
	"github.com/creachadair/jval/jpath"
	"github.com/creachadair/jval/jwcc"
	"github.com/creachadair/jval/tq"
	"github.com/davecgh/go-spew/spew"
)

var cli struct {
	String   *string `help:"Parse this text as the input." short:"s" xor:"input" required:""`
	File     *string `help:"Read input from this file, or stdin if the name is -." short:"f" xor:"input" required:""`
	JWCC     bool    `help:"Allow comments and trailing commas (JWCC) in the input." name:"jwcc"`
	Path     string  `help:"Evaluate this JSONPath expression against the parsed value."`
	MaxDepth int     `help:"Limit nesting to this many levels (strict mode)." default:"512"`
	JSON     bool    `help:"Print the result as JSON instead of a debug dump."`
}

// dumper elides addresses, capacities, and String methods so that the dump
// shows the tree structure and is stable from run to run.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func main() {
	kong.Parse(&cli,
		kong.Name("jdebug"),
		kong.Description("Parse a JSON value and print what the parser produced."),
		kong.UsageOnError(),
	)
	if err := run(os.Stdout); err != nil {
		var serr *jval.SyntaxError
		if errors.As(err, &serr) {
			fmt.Fprintf(os.Stderr, "jdebug: %v (offset %d)\n", err, serr.Offset)
		} else {
			fmt.Fprintf(os.Stderr, "jdebug: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(w io.Writer) error {
	in, err := openInput()
	if err != nil {
		return err
	}
	defer in.Close()

	v, err := parseValue(in)
	if err != nil {
		return err
	}

	if cli.Path != "" {
		v, err = evalPath(v, cli.Path)
		if err != nil {
			return err
		}
	}

	if cli.JSON {
		fmt.Fprintln(w, v.JSON())
		return nil
	}
	dumper.Fdump(w, v)
	return nil
}

// openInput returns a reader for the input selected by the flags.
func openInput() (io.ReadCloser, error) {
	switch {
	case cli.String != nil:
		return io.NopCloser(strings.NewReader(*cli.String)), nil
	case *cli.File == "-":
		return io.NopCloser(os.Stdin), nil
	default:
		return os.Open(*cli.File)
	}
}

// parseValue parses the input in the selected mode. In JWCC mode the result
// is the commented document.
func parseValue(r io.Reader) (ast.Value, error) {
	if cli.JWCC {
		d, err := jwcc.Parse(r)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	p := ast.Parser{MaxDepth: cli.MaxDepth, Interner: make(jval.Interner)}
	return p.ParseSingle(r)
}

// evalPath compiles expr as a JSONPath query and evaluates it against v.
// Commented documents are undecorated before evaluation.
func evalPath(v ast.Value, expr string) (ast.Value, error) {
	e, err := jpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	q, err := jpath.Compile(e)
	if err != nil {
		return nil, err
	}
	if d, ok := v.(*jwcc.Document); ok {
		v = d.Undecorate()
	}
	return tq.Eval[ast.Value](v, q)
}
