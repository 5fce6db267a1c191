// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jval

import (
	"bytes"
	"errors"

	"github.com/creachadair/jval/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added.
func Quote(src string) []byte {
	esc := escape.Quote(mem.S(src))
	out := make([]byte, 0, len(esc)+2)
	out = append(out, '"')
	out = append(out, esc...)
	return append(out, '"')
}

// Unquote decodes a JSON string value.  Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents.
//
// Invalid escapes are replaced by the Unicode replacement rune. Unquote
// reports an error for an incomplete escape sequence.
func Unquote(src []byte) ([]byte, error) {
	if len(src) < 2 || !bytes.HasPrefix(src, []byte(`"`)) || !bytes.HasSuffix(src, []byte(`"`)) {
		return nil, errors.New("missing quotations")
	}
	return escape.Unquote(mem.B(src[1 : len(src)-1]))
}
