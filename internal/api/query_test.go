// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alvinbaena/pwdguard/internal/config"
	"github.com/alvinbaena/pwdguard/pkg/generator"
	"github.com/alvinbaena/pwdguard/pkg/hibp"
	"github.com/alvinbaena/pwdguard/pkg/strength"
)

// Range for prefix 5BAA6, which holds SHA1("password").
const passwordRange = "1E4C9B93F3F0682250B6CF8331B7EE68FD8:9545824\r\n" +
	"012C192B2F16F82EA0EB9EF18D9D539B0DD:0\r\n"

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

func newTestRouter(t *testing.T, ranges hibp.RangeQuerier, cfg config.ServerConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router, err := NewRouter(Services{
		Engine:    hibp.NewEngine(ranges, hibp.WithLogger(zerolog.Nop())),
		Estimator: strength.New(),
		Generator: generator.New(),
	}, cfg)
	require.NoError(t, err)
	return router
}

func defaultServer() config.ServerConfig {
	return config.ServerConfig{Port: 3100, SelfTLS: true, RateLimit: 1000, Burst: 1000}
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCheckPassword_Exposed(t *testing.T) {
	ranges := &fakeRanges{body: passwordRange}
	router := newTestRouter(t, ranges, defaultServer())

	w := do(router, http.MethodPost, "/v1/check/password", `{"password":"password"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "exposed", resp["status"])
	assert.Equal(t, true, resp["pwned"])
	assert.Equal(t, float64(9545824), resp["count"])
	assert.NotContains(t, resp, "error")

	st := resp["strength"].(map[string]any)
	assert.Equal(t, float64(0), st["score"])
	assert.Equal(t, "Very Weak", st["label"])
	assert.Len(t, resp["candidates"], 5)

	// Only the prefix leaves the process.
	assert.Equal(t, []string{"5BAA6"}, ranges.prefixes)
	assert.NotContains(t, w.Body.String(), `"password":"password"`)
}

func TestCheckPassword_CleanAndStrong(t *testing.T) {
	router := newTestRouter(t, &fakeRanges{body: passwordRange}, defaultServer())

	w := do(router, http.MethodPost, "/v1/check/password", `{"password":"kX9#mQ2$vL7@pR4!tZ6&"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "clean", resp["status"])
	assert.Equal(t, false, resp["pwned"])
	assert.NotContains(t, resp, "candidates")
}

func TestCheckPassword_RateLimitedUpstream(t *testing.T) {
	ranges := &fakeRanges{err: fmt.Errorf("%w, retry after 2 seconds", hibp.ErrRateLimited)}
	router := newTestRouter(t, ranges, defaultServer())

	w := do(router, http.MethodPost, "/v1/check/password", `{"password":"password"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "unknown", resp["status"])
	assert.Equal(t, false, resp["pwned"])
	assert.Equal(t, float64(0), resp["count"])
	assert.Equal(t, "range API rate limit exceeded, try again later", resp["error"])
	// Strength and candidates do not depend on the lookup.
	assert.NotNil(t, resp["strength"])
	assert.Len(t, resp["candidates"], 5)
}

func TestCheckPassword_BadRequest(t *testing.T) {
	router := newTestRouter(t, &fakeRanges{}, defaultServer())

	for _, body := range []string{``, `{}`, `{"password":""}`, `not json`} {
		w := do(router, http.MethodPost, "/v1/check/password", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestCheckHash(t *testing.T) {
	ranges := &fakeRanges{body: passwordRange}
	router := newTestRouter(t, ranges, defaultServer())

	w := do(router, http.MethodPost, "/v1/check/hash", `{"hash":"5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "exposed", resp["status"])
	assert.Equal(t, float64(9545824), resp["count"])
	assert.NotContains(t, resp, "strength")
}

func TestCheckHash_Invalid(t *testing.T) {
	ranges := &fakeRanges{body: passwordRange}
	router := newTestRouter(t, ranges, defaultServer())

	for _, hash := range []string{"5baa6", "zz" + strings.Repeat("0", 38), strings.Repeat("0", 41)} {
		w := do(router, http.MethodPost, "/v1/check/hash", `{"hash":"`+hash+`"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code, hash)
	}
	assert.Empty(t, ranges.prefixes)
}

func TestGenerate(t *testing.T) {
	router := newTestRouter(t, &fakeRanges{}, defaultServer())

	w := do(router, http.MethodGet, "/v1/generate", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 5)
	assert.Equal(t, "8-digit PIN (for mobile use)", resp.Candidates[4].Description)
	assert.Len(t, resp.Candidates[4].Password, 8)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &fakeRanges{}, defaultServer())

	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	cfg := defaultServer()
	cfg.RateLimit, cfg.Burst = 0.001, 2
	router := newTestRouter(t, &fakeRanges{}, cfg)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/v1/generate", "").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/v1/generate", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodGet, "/v1/generate", "").Code)

	// Health checks are not limited.
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/health", "").Code)
}

func generateFrom(router http.Handler, remoteAddr, forwardedFor string) int {
	req := httptest.NewRequest(http.MethodGet, "/v1/generate", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	cfg := defaultServer()
	cfg.RateLimit, cfg.Burst = 0.001, 2
	router := newTestRouter(t, &fakeRanges{}, cfg)

	var codes []int
	for i := 0; i < 5; i++ {
		codes = append(codes, generateFrom(router, "198.51.100.7:4000", fmt.Sprintf("203.0.113.%d", i+1)))
	}
	assert.Equal(t, []int{200, 200, 429, 429, 429}, codes)

	// Another remote address has its own limiter.
	assert.Equal(t, http.StatusOK, generateFrom(router, "198.51.100.8:4000", "203.0.113.1"))
}

func TestRateLimit_TrustedProxy(t *testing.T) {
	cfg := defaultServer()
	cfg.RateLimit, cfg.Burst = 0.001, 1
	cfg.TrustedProxies = []string{"198.51.100.0/24"}
	router := newTestRouter(t, &fakeRanges{}, cfg)

	// Behind a trusted proxy every forwarded client is limited on its own.
	assert.Equal(t, http.StatusOK, generateFrom(router, "198.51.100.7:4000", "203.0.113.1"))
	assert.Equal(t, http.StatusOK, generateFrom(router, "198.51.100.7:4000", "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, generateFrom(router, "198.51.100.7:4000", "203.0.113.1"))
}

func TestNewRouter_InvalidTrustedProxies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := defaultServer()
	cfg.TrustedProxies = []string{"not-an-ip"}

	_, err := NewRouter(Services{
		Engine:    hibp.NewEngine(&fakeRanges{}, hibp.WithLogger(zerolog.Nop())),
		Estimator: strength.New(),
		Generator: generator.New(),
	}, cfg)
	assert.Error(t, err)
}

func TestNewRouter_MissingServices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, err := NewRouter(Services{}, defaultServer())
	assert.Error(t, err)
}
