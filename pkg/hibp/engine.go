// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/context"

	"github.com/alvinbaena/pwdguard/pkg/secret"
)

// Status tells a verified clean credential apart from one that could not be checked.
type Status int

const (
	Clean Status = iota
	Exposed
	Unknown
)

func (s Status) String() string {
	switch s {
	case Clean:
		return "clean"
	case Exposed:
		return "exposed"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result of a single check. Err is set only when Status is Unknown.
type Result struct {
	Status    Status
	Count     int64
	Err       error
	Anomalies int
}

// Exposure collapses the result to exposed or not. A lookup that could not be completed is
// reported as not exposed, use Status to tell both apart.
func (r Result) Exposure() Exposure {
	return Exposure{Exposed: r.Status == Exposed, Count: r.Count}
}

// RateLimited reports whether the range API answered 429 for this check.
func (r Result) RateLimited() bool {
	return errors.Is(r.Err, ErrRateLimited)
}

// Reason describes why the breach status is unknown, without echoing raw transport errors.
// It is empty for completed checks.
func (r Result) Reason() string {
	if r.Status != Unknown {
		return ""
	}

	var se *ServiceError
	switch {
	case errors.Is(r.Err, ErrRateLimited):
		return "range API rate limit exceeded, try again later"
	case errors.Is(r.Err, ErrInvalidDigest):
		return "not a valid SHA1 digest"
	case errors.As(r.Err, &se):
		return fmt.Sprintf("range API returned status %d", se.StatusCode)
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		return "check cancelled or timed out"
	default:
		return "range API unreachable"
	}
}

// Engine runs the digest, range lookup and match steps of a check. It keeps no state between
// checks, so a single Engine can be used from many goroutines.
type Engine struct {
	ranges RangeQuerier
	logger zerolog.Logger
}

type EngineOption func(*Engine)

func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(ranges RangeQuerier, opts ...EngineOption) *Engine {
	e := &Engine{
		ranges: ranges,
		logger: log.Logger,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Check looks up the credential. The credential itself is only hashed, never logged or sent.
func (e *Engine) Check(ctx context.Context, credential secret.Credential) Result {
	return e.CheckDigest(ctx, Fingerprint(credential))
}

// CheckDigest looks up an already hashed credential. A digest that is not DigestLen hex
// characters long is not looked up and the result is Unknown with ErrInvalidDigest.
func (e *Engine) CheckDigest(ctx context.Context, d Digest) Result {
	d, err := ParseDigest(string(d))
	if err != nil {
		return Result{Status: Unknown, Err: err}
	}
	prefix := d.Prefix()

	body, err := e.ranges.Range(ctx, prefix)
	if err != nil {
		event := e.logger.Warn().Err(err).Str("range", prefix)
		var se *ServiceError
		switch {
		case errors.Is(err, ErrRateLimited):
			event.Msg("range API rate limit exceeded, breach status unknown")
		case errors.As(err, &se):
			event.Int("status", se.StatusCode).Msg("range API error, breach status unknown")
		default:
			event.Msg("could not reach range API, breach status unknown")
		}
		return Result{Status: Unknown, Err: err}
	}

	exposure, anomalies := Evaluate(d, body)
	if len(anomalies) > 0 {
		e.logger.Debug().Str("range", prefix).Msgf("skipped %d malformed range lines", len(anomalies))
	}

	result := Result{Status: Clean, Anomalies: len(anomalies)}
	if exposure.Exposed {
		result.Status = Exposed
		result.Count = exposure.Count
	}
	return result
}
