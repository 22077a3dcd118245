// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"errors"
	"strings"
	"testing"
)

const twoEntryRange = "0018A45C4D1DEF81644B54AB7F969B88D65:1\n003D68EB55068C33ACE09247EE4C639306B:2"

func TestEvaluate(t *testing.T) {
	cases := []struct {
		name   string
		digest Digest
		body   string
		want   Exposure
	}{
		{"first line", Digest("ABCDE0018A45C4D1DEF81644B54AB7F969B88D65"), twoEntryRange, Exposure{true, 1}},
		{"second line", Digest("ABCDE003D68EB55068C33ACE09247EE4C639306B"), twoEntryRange, Exposure{true, 2}},
		{"no match", Digest("ABCDEFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF"), twoEntryRange, Exposure{false, 0}},
		{"lowercase response", Digest("ABCDE0018A45C4D1DEF81644B54AB7F969B88D65"), strings.ToLower(twoEntryRange), Exposure{true, 1}},
		{"lowercase digest", Digest("abcde0018a45c4d1def81644b54ab7f969b88d65"), twoEntryRange, Exposure{true, 1}},
		{"crlf", Fingerprint([]byte("password")), sampleRange, Exposure{true, 9545824}},
		{"padding entry", Digest("ABCDE012C192B2F16F82EA0EB9EF18D9D539B0DD"), sampleRange, Exposure{false, 0}},
		{"empty body", Fingerprint([]byte("password")), "", Exposure{false, 0}},
	}

	for _, tc := range cases {
		got, anomalies := Evaluate(tc.digest, tc.body)
		if got != tc.want {
			t.Errorf("%s: Evaluate: %+v, want: %+v", tc.name, got, tc.want)
		}
		if len(anomalies) != 0 {
			t.Errorf("%s: there should be no anomalies, got %v", tc.name, anomalies)
		}
	}
}

func TestEvaluate_SkipsMalformedLines(t *testing.T) {
	body := "garbage\n" +
		"0018A45C4D1DEF81644B54AB7F969B88D65:many\n" +
		"SHORT:3\n" +
		"003D68EB55068C33ACE09247EE4C639306B:-4\n" +
		"\n" +
		"1E4C9B93F3F0682250B6CF8331B7EE68FD8:42\n"

	got, anomalies := Evaluate(Fingerprint([]byte("password")), body)
	if got != (Exposure{true, 42}) {
		t.Errorf("Evaluate should keep scanning past bad lines, got %+v", got)
	}
	if len(anomalies) != 4 {
		t.Fatalf("There should be 4 anomalies, got %d: %v", len(anomalies), anomalies)
	}

	var pa *ParseAnomaly
	if !errors.As(anomalies[0], &pa) || pa.Line != 1 {
		t.Errorf("First anomaly should be line 1, got %v", anomalies[0])
	}

	// A malformed count on the matching suffix is not a match.
	got, _ = Evaluate(Digest("ABCDE0018A45C4D1DEF81644B54AB7F969B88D65"), body)
	if got.Exposed {
		t.Errorf("A line with an invalid count should not match, got %+v", got)
	}
}

func TestParseRange(t *testing.T) {
	entries, anomalies := ParseRange(sampleRange + "nope\n")
	if len(entries) != 4 {
		t.Errorf("There should be 4 entries, got %d", len(entries))
	}
	if len(anomalies) != 1 {
		t.Errorf("There should be 1 anomaly, got %d", len(anomalies))
	}
	if entries[2] != (Entry{Suffix: "1E4C9B93F3F0682250B6CF8331B7EE68FD8", Count: 9545824}) {
		t.Errorf("Unexpected entry %+v", entries[2])
	}
}
