// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Entry is one SUFFIX:COUNT line of a range response.
type Entry struct {
	Suffix string
	Count  int64
}

// Exposure is the outcome of matching a digest against a range response.
type Exposure struct {
	Exposed bool  `json:"exposed"`
	Count   int64 `json:"count"`
}

// ParseAnomaly describes a range response line that was skipped.
type ParseAnomaly struct {
	Line   int
	Text   string
	Reason string
}

func (p *ParseAnomaly) Error() string {
	return fmt.Sprintf("malformed range line %d %q: %s", p.Line, p.Text, p.Reason)
}

// ParseRange reads every well-formed entry of a range response. Malformed lines are skipped
// and reported, one bad line never aborts the whole scan.
func ParseRange(body string) ([]Entry, []error) {
	var entries []Entry
	var anomalies []error

	scanLines(body, func(n int, line string) bool {
		entry, anomaly := parseLine(n, line)
		if anomaly != nil {
			anomalies = append(anomalies, anomaly)
		} else if entry != nil {
			entries = append(entries, *entry)
		}
		return true
	})

	return entries, anomalies
}

// Evaluate looks for the suffix of d in a range response. Count 0 entries are the padding
// added by the API and never mean the digest was exposed.
func Evaluate(d Digest, body string) (Exposure, []error) {
	suffix := strings.ToUpper(d.Suffix())
	var anomalies []error
	result := Exposure{}

	scanLines(body, func(n int, line string) bool {
		entry, anomaly := parseLine(n, line)
		if anomaly != nil {
			anomalies = append(anomalies, anomaly)
			return true
		}

		if entry != nil && entry.Suffix == suffix {
			result = Exposure{Exposed: entry.Count > 0, Count: entry.Count}
			return false
		}
		return true
	})

	return result, anomalies
}

func scanLines(body string, fn func(n int, line string) bool) {
	scanner := bufio.NewScanner(strings.NewReader(body))
	n := 0
	for scanner.Scan() {
		n++
		if !fn(n, scanner.Text()) {
			return
		}
	}
}

// parseLine returns nil, nil for blank lines.
func parseLine(n int, line string) (*Entry, *ParseAnomaly) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	suffix, count, found := strings.Cut(line, ":")
	if !found {
		return nil, &ParseAnomaly{Line: n, Text: line, Reason: "missing separator"}
	}

	suffix = strings.ToUpper(strings.TrimSpace(suffix))
	if len(suffix) != SuffixLen || !isHex(suffix) {
		return nil, &ParseAnomaly{Line: n, Text: line, Reason: "suffix is not a 35 character hash"}
	}

	c, err := strconv.ParseInt(strings.TrimSpace(count), 10, 64)
	if err != nil || c < 0 {
		return nil, &ParseAnomaly{Line: n, Text: line, Reason: "count is not a non-negative integer"}
	}

	return &Entry{Suffix: suffix, Count: c}, nil
}
