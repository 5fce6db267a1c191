// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

// Package jval implements a JSON scanner and parser.
//
// # Scanning
//
// The Scanner type implements a lexical scanner for JSON.  Construct a scanner
// from an io.Reader and call its Next method to iterate over the stream. Next
// advances to the next input token and reports whether one is available:
//
//	s := jval.NewScanner(input)
//	for s.Next() {
//	   log.Printf("Next token: %v", s.Token())
//	}
//
// Once Next has returned false, Err reports why scanning stopped. Err reports
// nil if the whole input was consumed, a *jval.SyntaxError if the input text
// was invalid, or the error from the underlying reader:
//
//	if s.Err() != nil {
//	   log.Fatalf("Scanning failed: %v", s.Err())
//	}
//
// A syntax error carries the classification of the failure and the offset and
// line/column position in the input where it occurred:
//
//	var serr *jval.SyntaxError
//	if errors.As(s.Err(), &serr) {
//	   log.Fatalf("Offset %d (%v): %s", serr.Offset, serr.Kind, serr.Message)
//	}
//
// # Streaming
//
// The Stream type implements an event-driven stream parser for JSON.  The
// parser works by calling methods on a Handler value to report the structure
// of the input. In case of error, parsing is terminated and an error of
// concrete type *jval.SyntaxError is returned.
//
// Construct a Stream from an io.Reader, and call its Parse method. Parse
// returns nil if the input was fully processed without error. If a Handler
// method reports an error, parsing stops and that error is returned.
//
//	s := jval.NewStream(input)
//	if err := s.Parse(handler); err != nil {
//	   log.Fatalf("Parse failed: %v", err)
//	}
//
// To parse a single value from the front of the input, call ParseOne. This
// method returns io.EOF if no further values are available:
//
//	if err := s.ParseOne(handle); err == io.EOF {
//	   log.Print("No more input")
//	} else if err != nil {
//	   log.Printf("ParseOne failed: %v", err)
//	}
//
// To parse an input comprising exactly one value, call ParseSingle. It
// reports a syntax error of kind UnexpectedEOF for an empty input, and one
// of kind TrailingData if input remains after the first value.
//
// The parser limits the nesting depth of objects and arrays it will consume
// before reporting an error of kind NestingTooDeep, so that deeply-nested
// input cannot exhaust the goroutine stack. Use SetMaxDepth to adjust the
// limit.
//
// # Handlers
//
// The Handler interface accepts parser events from a Stream. The methods of
// a handler correspond to the syntax of JSON values:
//
//	JSON type  | Methods                   | Description
//	---------- | ------------------------- | ---------------------------------
//	object     | BeginObject, EndObject    | { ... }
//	array      | BeginArray, EndArray      | [ ... ]
//	member     | BeginMember, EndMember    | "key": value
//	value      | Value                     | true, false, null, number, string
//	--         | EndOfInput                | end of input
//
// Each method is passed an Anchor value that can be used to retrieve location
// and type information. See the comments on the Handler type for the meaning
// of each method's anchor value. The Anchor passed to a handler method is only
// valid for the duration of that method call; the handler must copy any data
// it needs to retain beyond the lifetime of the call.
//
// The parser ensures that corresponding Begin and End methods are correctly
// paired, or that a SyntaxError is reported.
package jval
