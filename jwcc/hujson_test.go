// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package jwcc_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/creachadair/jval/jwcc"
	"github.com/google/go-cmp/cmp"
	"github.com/tailscale/hujson"
)

// The hujson package implements the same JWCC format. Parsing the same input
// with both and comparing the standard JSON each delivers checks the value
// structure independently of how comments are attached.
func TestHuJSONAgreement(t *testing.T) {
	d, err := jwcc.Parse(strings.NewReader(basicInput))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := d.Undecorate().JSON()

	std, err := hujson.Standardize([]byte(basicInput))
	if err != nil {
		t.Fatalf("Standardize: %v", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, std); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if diff := cmp.Diff(got, buf.String()); diff != "" {
		t.Errorf("Parsed values disagree (-jwcc, +hujson):\n%s", diff)
	}
}

// Formatted output must remain parseable by hujson, and standardizing it must
// preserve the underlying value.
func TestHuJSONFormat(t *testing.T) {
	d, err := jwcc.Parse(strings.NewReader(basicInput))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var buf bytes.Buffer
	if err := jwcc.Format(&buf, d); err != nil {
		t.Fatalf("Format: %v", err)
	}
	v, err := hujson.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("hujson does not accept formatter output: %v", err)
	}
	v.Standardize()

	var std bytes.Buffer
	if err := json.Compact(&std, v.Pack()); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if diff := cmp.Diff(d.Undecorate().JSON(), std.String()); diff != "" {
		t.Errorf("Formatted value changed (-parsed, +formatted):\n%s", diff)
	}
}
