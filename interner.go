// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package jval

// An Interner maps byte slices to interned string copies of their contents,
// so that repeated occurrences of the same text share one string. The keys
// of the map are the interned strings themselves.
//
// A nil Interner is ready for use, but does not intern anything; each call
// on a nil Interner returns a fresh copy of its input.
type Interner map[string]string

// Intern returns a string equal to text, reusing an existing copy if one has
// already been interned.
func (n Interner) Intern(text []byte) string {
	if n == nil {
		return string(text)
	}
	if s, ok := n[string(text)]; ok {
		return s
	}
	s := string(text)
	n[s] = s
	return s
}
