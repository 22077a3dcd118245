// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/alvinbaena/pwdguard/pkg/secret"
)

type fakeRanges struct {
	mu       sync.Mutex
	body     string
	err      error
	prefixes []string
}

func (f *fakeRanges) Range(_ context.Context, prefix string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefixes = append(f.prefixes, prefix)
	return f.body, f.err
}

func (f *fakeRanges) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prefixes)
}

func TestEngine_Check(t *testing.T) {
	ranges := &fakeRanges{body: sampleRange}
	engine := NewEngine(ranges, WithLogger(zerolog.Nop()))

	result := engine.Check(context.Background(), secret.FromString("password"))
	if result.Status != Exposed || result.Count != 9545824 {
		t.Errorf("Password should be exposed 9545824 times, got %+v", result)
	}
	if result.Exposure() != (Exposure{true, 9545824}) {
		t.Errorf("Unexpected exposure %+v", result.Exposure())
	}
	if len(ranges.prefixes) != 1 || ranges.prefixes[0] != "5BAA6" {
		t.Errorf("Only the prefix should be queried, got %v", ranges.prefixes)
	}

	result = engine.Check(context.Background(), secret.FromString("1mag@saG(@31*sasd."))
	if result.Status != Clean || result.Exposure() != (Exposure{}) || result.Err != nil {
		t.Errorf("Password should be clean, got %+v", result)
	}
}

func TestEngine_Failures(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"rate limited", ErrRateLimited},
		{"service error", &ServiceError{StatusCode: http.StatusInternalServerError}},
		{"transport error", &TransportError{Err: errors.New("connection refused")}},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		engine := NewEngine(&fakeRanges{err: tc.err}, WithLogger(zerolog.New(&buf)))

		result := engine.Check(context.Background(), secret.FromString("password"))
		if result.Status != Unknown {
			t.Errorf("%s: status should be unknown, got %s", tc.name, result.Status)
		}
		if result.Exposure() != (Exposure{false, 0}) {
			t.Errorf("%s: exposure should be {false 0}, got %+v", tc.name, result.Exposure())
		}
		if !errors.Is(result.Err, tc.err) {
			t.Errorf("%s: error should be kept, got %v", tc.name, result.Err)
		}
		if result.RateLimited() != (tc.err == ErrRateLimited) {
			t.Errorf("%s: RateLimited should only be set for 429", tc.name)
		}

		out := buf.String()
		if !strings.Contains(out, "5BAA6") {
			t.Errorf("%s: the failure should be logged with the range, got %s", tc.name, out)
		}
		if strings.Contains(out, "password") || strings.Contains(out, "1E4C9B93F3F0682250B6CF8331B7EE68FD8") {
			t.Errorf("%s: credential or suffix should never be logged, got %s", tc.name, out)
		}
	}
}

func TestEngine_CountsAnomalies(t *testing.T) {
	engine := NewEngine(&fakeRanges{body: "bad\n" + sampleRange}, WithLogger(zerolog.Nop()))
	result := engine.CheckDigest(context.Background(), Fingerprint([]byte("password")))

	if result.Status != Exposed {
		t.Errorf("Password should be exposed, got %s", result.Status)
	}
	if result.Anomalies != 1 {
		t.Errorf("There should be 1 anomaly, got %d", result.Anomalies)
	}
}

func TestEngine_CheckDigest_Invalid(t *testing.T) {
	ranges := &fakeRanges{body: sampleRange}
	engine := NewEngine(ranges, WithLogger(zerolog.Nop()))

	for _, d := range []Digest{"", "AB", "5BAA6", Digest(strings.Repeat("Z", DigestLen)), Digest(strings.Repeat("A", DigestLen+1))} {
		result := engine.CheckDigest(context.Background(), d)
		if result.Status != Unknown || !errors.Is(result.Err, ErrInvalidDigest) {
			t.Errorf("CheckDigest(%q) should be unknown with ErrInvalidDigest, got %+v", d, result)
		}
	}
	if ranges.calls() != 0 {
		t.Errorf("Invalid digests should not be looked up, got %v", ranges.prefixes)
	}

	result := engine.CheckDigest(context.Background(), Digest("5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8"))
	if result.Status != Exposed || result.Count != 9545824 {
		t.Errorf("Lowercase digest should be exposed 9545824 times, got %+v", result)
	}
	if ranges.prefixes[0] != "5BAA6" {
		t.Errorf("Prefix should be uppercase, got %s", ranges.prefixes[0])
	}
}

func TestEngine_RealClient(t *testing.T) {
	_, client := newRangeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	result := NewEngine(client, WithLogger(zerolog.Nop())).Check(context.Background(), secret.FromString("password"))
	if result.Status != Unknown || !result.RateLimited() {
		t.Errorf("A 429 should be reported as rate limited, got %+v", result)
	}
}

func TestStatus_String(t *testing.T) {
	if Clean.String() != "clean" || Exposed.String() != "exposed" || Unknown.String() != "unknown" {
		t.Errorf("Unexpected status names")
	}
}

func TestResult_Reason(t *testing.T) {
	cases := []struct {
		result Result
		want   string
	}{
		{Result{Status: Clean}, ""},
		{Result{Status: Exposed, Count: 3}, ""},
		{Result{Status: Unknown, Err: fmt.Errorf("%w, retry after 2 seconds", ErrRateLimited)}, "range API rate limit exceeded, try again later"},
		{Result{Status: Unknown, Err: &ServiceError{StatusCode: 503, Status: "503 Service Unavailable"}}, "range API returned status 503"},
		{Result{Status: Unknown, Err: &TransportError{Err: context.DeadlineExceeded}}, "check cancelled or timed out"},
		{Result{Status: Unknown, Err: &TransportError{Err: errors.New("connection reset")}}, "range API unreachable"},
		{Result{Status: Unknown, Err: ErrInvalidDigest}, "not a valid SHA1 digest"},
	}

	for _, c := range cases {
		if got := c.result.Reason(); got != c.want {
			t.Errorf("Reason(%+v): %q, want: %q", c.result, got, c.want)
		}
	}
}
