// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jval_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/creachadair/jval"
	"github.com/google/go-cmp/cmp"
)

func TestScanner(t *testing.T) {
	tests := []struct {
		input string
		want  []jval.Token
	}{
		// Empty inputs
		{"", nil},
		{"  ", nil},
		{"\n\n  \n", nil},
		{"\t  \r\n \t  \r\n", nil},

		// Constants
		{"true false null", []jval.Token{jval.True, jval.False, jval.Null}},

		// Punctuation
		{"{ [ ] } , :", []jval.Token{
			jval.LBrace, jval.LSquare, jval.RSquare, jval.RBrace, jval.Comma, jval.Colon,
		}},

		// Strings
		{`"" "a b c" "a\nb\tc"`, []jval.Token{jval.String, jval.String, jval.String}},
		{`"\"\\\/\b\f\n\r\t"`, []jval.Token{jval.String}},
		{`"\u0000\u01fc\uAA9c"`, []jval.Token{jval.String}},

		// Numbers
		{`0 -1 5139 2.3 5e+9 3.6E+4 -0.001E-100`, []jval.Token{
			jval.Integer, jval.Integer, jval.Integer,
			jval.Number, jval.Number, jval.Number, jval.Number,
		}},

		// Mixed types
		{`{true,"false":-15 null[]}`, []jval.Token{
			jval.LBrace, jval.True, jval.Comma, jval.String, jval.Colon,
			jval.Integer, jval.Null, jval.LSquare, jval.RSquare, jval.RBrace,
		}},
		{`{"a": true, "b":[null, 1, 0.5]}`, []jval.Token{
			jval.LBrace,
			jval.String, jval.Colon, jval.True, jval.Comma,
			jval.String, jval.Colon,
			jval.LSquare,
			jval.Null, jval.Comma, jval.Integer, jval.Comma, jval.Number,
			jval.RSquare,
			jval.RBrace,
		}},
		{`"a",1,true
       false["b"]
       `, []jval.Token{
			jval.String, jval.Comma, jval.Integer, jval.Comma, jval.True,
			jval.False, jval.LSquare, jval.String, jval.RSquare,
		}},
	}

	for _, test := range tests {
		var got []jval.Token
		s := jval.NewScanner(strings.NewReader(test.input))
		for s.Next() {
			got = append(got, s.Token())
		}
		if s.Err() != nil {
			t.Errorf("Next failed: %v", s.Err())
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Input: %#q\nTokens: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestScanner_withComments(t *testing.T) {
	tests := []struct {
		input string
		want  []jval.Token
		coms  []string
	}{
		{"/* block comment */\n\n\n", []jval.Token{jval.BlockComment},
			[]string{"/* block comment */"}},
		{"// line 1\n\n// line 2\n", []jval.Token{jval.LineComment, jval.LineComment},
			[]string{"// line 1\n", "// line 2\n"}}, // N.B. includes terminating newline, if present
		{"// line at EOF", []jval.Token{jval.LineComment},
			[]string{"// line at EOF"}},
		{`{
 "x": 1, // howdy do
 "y" /* hide me */ : 2.0 }`, []jval.Token{
			jval.LBrace, jval.String, jval.Colon, jval.Integer, jval.Comma, jval.LineComment,
			jval.String, jval.BlockComment, jval.Colon, jval.Number, jval.RBrace,
		}, []string{
			"// howdy do\n", "/* hide me */",
		}},

		{`"a" // line
false /*
  this is a comment
*/ 1 null [ {} ]`, []jval.Token{
			jval.String, jval.LineComment, jval.False, jval.BlockComment,
			jval.Integer, jval.Null, jval.LSquare, jval.LBrace, jval.RBrace, jval.RSquare,
		}, []string{
			"// line\n", "/*\n  this is a comment\n*/",
		}},

		{"/* x */\n{\n}//foo", []jval.Token{
			jval.BlockComment, jval.LBrace, jval.RBrace, jval.LineComment,
		}, []string{
			"/* x */", "//foo",
		}},

		{"/**\n*/", []jval.Token{jval.BlockComment}, []string{"/**\n*/"}},

		{`/**/"foo"/***/"bar"/****/"baz"/*****/false/*x*/null`, []jval.Token{
			jval.BlockComment, jval.String,
			jval.BlockComment, jval.String,
			jval.BlockComment, jval.String,
			jval.BlockComment, jval.False,
			jval.BlockComment, jval.Null,
		}, []string{
			"/**/", "/***/", "/****/", "/*****/", "/*x*/",
		}},
	}

	for _, test := range tests {
		var got []jval.Token
		var coms []string
		s := jval.NewScanner(strings.NewReader(test.input))
		s.AllowComments(true)
		for s.Next() {
			got = append(got, s.Token())
			if tok := s.Token(); tok == jval.LineComment || tok == jval.BlockComment {
				coms = append(coms, string(s.Text()))
			}
		}
		if s.Err() != nil {
			t.Errorf("Next failed: %v", s.Err())
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Input: %#q\nTokens: (-want, +got)\n%s", test.input, diff)
		}
		if diff := cmp.Diff(test.coms, coms); diff != "" {
			t.Errorf("Input: %#q\nComments: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestScanner_decodeAs(t *testing.T) {
	mustScan := func(t *testing.T, input string, want jval.Token) *jval.Scanner {
		t.Helper()
		s := jval.NewScanner(strings.NewReader(input))
		if !s.Next() {
			t.Fatalf("Next failed: %v", s.Err())
		} else if s.Token() != want {
			t.Fatalf("Next token: got %v, want %v", s.Token(), want)
		}
		return s
	}

	t.Run("Integer", func(t *testing.T) {
		mustScan(t, `-15`, jval.Integer)
	})
	t.Run("Number", func(t *testing.T) {
		mustScan(t, `3.25e-5`, jval.Number)
	})
	t.Run("Constants", func(t *testing.T) {
		mustScan(t, `true`, jval.True)
		mustScan(t, `false`, jval.False)
		mustScan(t, `null`, jval.Null)
	})
	t.Run("String", func(t *testing.T) {
		const wantText = `"a\tb\u0020c\n"` // as written, without quotes
		const wantDec = "a\tb c\n"         // with escapes undone
		s := mustScan(t, `"a\tb\u0020c\n"`, jval.String)
		text := s.Text()
		if got := string(text); got != wantText {
			t.Errorf("Text: got %#q, want %#q", got, wantText)
		}
		if u, err := jval.Unquote(text); err != nil {
			t.Errorf("Unquote failed: %v", err)
		} else if got := string(u); got != wantDec {
			t.Errorf("Unquote: got %#q, want %#q", got, wantDec)
		}
	})
	t.Run("Unescape", func(t *testing.T) {
		s := mustScan(t, `"a\u0026b"`, jval.String)
		if got := string(s.Unescape()); got != "a&b" {
			t.Errorf("Unescape: got %#q, want %#q", got, "a&b")
		}
	})
}

func TestQuote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", `""`},
		{" ", `" "`},
		{"a\t\nb", `"a\t\nb"`},
		{"\x00\x01\x02", `"\u0000\u0001\u0002"`},
		{`a "b c\" d"`, `"a \"b c\\\" d\""`},
		{`\ufffd`, `"\\ufffd"`},
		{"\u2028 \u2029 \ufffd", `"\u2028 \u2029 \ufffd"`},
		{"This is the end\v", `"This is the end\u000b"`},
		{"<\x1e>", `"<\u001e>"`},
	}
	for _, test := range tests {
		got := string(jval.Quote(test.input))
		if got != test.want {
			t.Errorf("Input: %#q\nGot:  %#q\nWant: %#q", test.input, got, test.want)
		}
	}
}

func TestScannerLoc(t *testing.T) {
	type tokPos struct {
		Tok jval.Token
		Pos string
	}
	tests := []struct {
		input string
		want  []tokPos
	}{
		{"", nil},
		{"{ }", []tokPos{{jval.LBrace, "1:0-1"}, {jval.RBrace, "1:2-3"}}},
		{`"foo" // bar`, []tokPos{{jval.String, "1:0-5"}, {jval.LineComment, "1:6-12"}}},
		{"/* ok */\ntrue\n false\n", []tokPos{{jval.BlockComment, "1:0-8"}, {jval.True, "2:0-4"}, {jval.False, "3:1-6"}}},
		{"/* abc */", []tokPos{{jval.BlockComment, "1:0-9"}}},
		{"/* ok\n*/\n null", []tokPos{{jval.BlockComment, "1:0-2:2"}, {jval.Null, "3:1-5"}}},
		{"// first\n[1, /*x*/, 2\n]", []tokPos{
			{jval.LineComment, "1:0-2:0"}, {jval.LSquare, "2:0-1"}, {jval.Integer, "2:1-2"},
			{jval.Comma, "2:2-3"}, {jval.BlockComment, "2:4-9"}, {jval.Comma, "2:9-10"},
			{jval.Integer, "2:11-12"}, {jval.RSquare, "3:0-1"},
		}},
	}
	for _, tc := range tests {
		var got []tokPos
		s := jval.NewScanner(strings.NewReader(tc.input))
		s.AllowComments(true)
		for s.Next() {
			got = append(got, tokPos{s.Token(), s.Location().String()})
		}
		if s.Err() != nil {
			t.Errorf("Next failed: %v", s.Err())
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Input: %#q\nTokens: (-want, +got)\n%s", tc.input, diff)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input string
		want  string
		fail  bool
	}{
		{``, ``, true},                        // missing quotes
		{`"missing quote`, ``, true},          // missing quotes
		{`missing quote"`, ``, true},          // missing quotes
		{`""`, ``, false},                     // ok
		{`"ok go"`, "ok go", false},           // ok
		{`"abc\ndef"`, "abc\ndef", false},     // C escapes
		{`"\tabc\n"`, "\tabc\n", false},       // C escapes
		{`"\b\f\n\r\t"`, "\b\f\n\r\t", false}, // C escapes
		{`"a \u0026 b"`, "a & b", false},      // short Unicode escape
		{`"\u"`, ``, true},                    // incomplete Unicode escape
		{`"\u00"`, ``, true},                  // incomplete Unicode escape
		{`"\u00x9"`, "\ufffd", false},         // invalid Unicode escape
		{`"\u019 "`, "\ufffd", false},         // invalid Unicode escape
		{`"a\"b"`, `a"b`, false},              // ok
		{`"a\\b\\cd"`, `a\b\cd`, false},       // ok
	}

	for _, test := range tests {
		got, err := jval.Unquote([]byte(test.input))
		if err != nil {
			if !test.fail {
				t.Errorf("Unquote(%#q): got %v, want no error", test.input, err)
			} else {
				t.Logf("Unquote(%#q): got expected error: %v", test.input, err)
			}
		} else if err == nil && test.fail {
			t.Errorf("Unquote(%#q): got nil, want error", test.input)
		}
		if cmp := string(got); cmp != test.want {
			t.Errorf("Unquote(%#q): got %#q, want %#q", test.input, cmp, test.want)
		}
	}
}

func TestScannerErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  jval.ErrKind
	}{
		{`"unterminated`, jval.InvalidString},
		{`"bad \q escape"`, jval.InvalidString},
		{`"bad \u001 escape"`, jval.InvalidString},
		{`"tab	character"`, jval.InvalidString},
		{`01`, jval.InvalidNumber},
		{`-`, jval.InvalidNumber},
		{`1.`, jval.InvalidNumber},
		{`1.e5`, jval.InvalidNumber},
		{`.5`, jval.InvalidNumber},
		{`6e`, jval.InvalidNumber},
		{`6e+`, jval.InvalidNumber},
		{`tru`, jval.InvalidLiteral},
		{`falsy`, jval.InvalidLiteral},
		{`nul`, jval.InvalidLiteral},
		{`/* unterminated`, jval.UnexpectedEOF},
		{`/+ not a comment`, jval.UnexpectedToken},
		{`@`, jval.UnexpectedToken},
	}
	for _, test := range tests {
		s := jval.NewScanner(strings.NewReader(test.input))
		s.AllowComments(true)
		for s.Next() {
		}
		err := s.Err()
		if err == nil {
			t.Errorf("Input %#q: scan succeeded, want error", test.input)
			continue
		}
		var serr *jval.SyntaxError
		if !errors.As(err, &serr) {
			t.Errorf("Input %#q: got %v, want *SyntaxError", test.input, err)
		} else if serr.Kind != test.kind {
			t.Errorf("Input %#q: got kind %v, want %v", test.input, serr.Kind, test.kind)
		}
	}
}
