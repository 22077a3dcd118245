// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/context"
)

const (
	DefaultURL       = "https://api.pwnedpasswords.com"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "pwdguard-hibp-client/1.0"

	// A padded range response is around 40 KiB, anything this big is not a range response.
	maxBodySize = 4 * 1024 * 1024
)

var (
	ErrInvalidPrefix = errors.New("range prefix must be 5 hexadecimal characters")
	ErrRateLimited   = errors.New("rate limit exceeded")
)

// ServiceError is returned for any non-success status other than 429.
type ServiceError struct {
	StatusCode int
	Status     string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("range API error: status [%d] %s", e.StatusCode, e.Status)
}

// TransportError wraps connection, DNS, timeout and cancellation failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %s", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RangeQuerier returns the raw range response for a digest prefix.
type RangeQuerier interface {
	Range(ctx context.Context, prefix string) (string, error)
}

// Client queries the Pwned Passwords range API. Only the 5 character prefix of a digest is
// ever sent. It never retries: a failed request is reported to the caller and that's it.
type Client struct {
	baseURL   string
	userAgent string
	padding   bool
	http      *retryablehttp.Client
}

type ClientOption func(*Client)

// WithBaseURL points the client to another range API, mostly for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http.HTTPClient.Timeout = timeout
		}
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithPadding asks the API to pad responses with zero count entries, so the response size
// does not give away which prefix bucket was requested.
func WithPadding(padding bool) ClientOption {
	return func(c *Client) {
		c.padding = padding
	}
}

// WithHTTPClient replaces the underlying client. Its Timeout is kept as is.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http.HTTPClient = h
		}
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultURL,
		userAgent: DefaultUserAgent,
		padding:   true,
		http:      initHttpClient(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func initHttpClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil

	// One request per check. Errors, 429 included, are reported to the caller and never retried.
	client.RetryMax = 0
	client.CheckRetry = noRetryPolicy

	client.HTTPClient = &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ForceAttemptHTTP2:     true,
		},
	}

	return client
}

func noRetryPolicy(ctx context.Context, _ *http.Response, _ error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return false, nil
}

func (c *Client) rangeHttpRequest(ctx context.Context, prefix string) (*retryablehttp.Request, error) {
	req, err := retryablehttp.NewRequestWithContext(
		ctx,
		http.MethodGet,
		fmt.Sprintf("%s/range/%s", c.baseURL, prefix),
		nil,
	)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.userAgent)
	if c.padding {
		req.Header.Set("Add-Padding", "true")
	}
	return req, nil
}

// Range returns the SUFFIX:COUNT lines of every hash that starts with prefix.
func (c *Client) Range(ctx context.Context, prefix string) (string, error) {
	if len(prefix) != PrefixLen || !isHex(prefix) {
		return "", ErrInvalidPrefix
	}
	prefix = strings.ToUpper(prefix)

	req, err := c.rangeHttpRequest(ctx, prefix)
	if err != nil {
		return "", err
	}

	res, err := c.http.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	defer func(Body io.ReadCloser) {
		// Drain whatever is left so the connection can go back to the pool.
		_, _ = io.Copy(io.Discard, io.LimitReader(Body, maxBodySize))
		_ = Body.Close()
	}(res.Body)

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		if after := res.Header.Get("Retry-After"); after != "" {
			return "", fmt.Errorf("%w, retry after %s seconds", ErrRateLimited, after)
		}
		return "", ErrRateLimited
	case res.StatusCode < 200 || res.StatusCode > 299:
		return "", &ServiceError{StatusCode: res.StatusCode, Status: http.StatusText(res.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize))
	if err != nil {
		return "", &TransportError{Err: err}
	}

	return string(body), nil
}
