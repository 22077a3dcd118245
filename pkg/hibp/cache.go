// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package hibp

import (
	"strings"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/net/context"
)

// RangeCache keeps range responses in memory for the duration of a batch run, so credentials
// sharing a prefix cost a single request. Failed lookups are never cached. The cache holds
// only prefixes and public range data, nothing derived from the part of the digest kept local.
type RangeCache struct {
	inner RangeQuerier
	cache *ristretto.Cache
}

// NewRangeCache maxCost is the budget in bytes of cached response bodies.
func NewRangeCache(inner RangeQuerier, maxCost int64) (*RangeCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		// 10 times the expected number of items, as ristretto suggests. A padded range is ~40KiB.
		NumCounters: 10 * (maxCost/(40*1024) + 1),
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &RangeCache{inner: inner, cache: cache}, nil
}

func (r *RangeCache) Range(ctx context.Context, prefix string) (string, error) {
	key := strings.ToUpper(prefix)
	if body, ok := r.cache.Get(key); ok {
		return body.(string), nil
	}

	body, err := r.inner.Range(ctx, prefix)
	if err != nil {
		return "", err
	}

	r.cache.Set(key, body, int64(len(body)))
	return body, nil
}

// Close releases the cache. Lookups after Close go straight to the inner querier.
func (r *RangeCache) Close() {
	r.cache.Close()
}
