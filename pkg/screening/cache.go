// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package screening

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const candidatesKey = "candidates"

// NewCachedSource keeps the records of source in memory for ttl. A ttl of zero
// or less returns source unchanged. Errors are never cached.
func NewCachedSource(source CandidateSource, ttl time.Duration) CandidateSource {
	if ttl <= 0 {
		return source
	}
	return &cachedSource{
		underlying: source,
		cache:      gocache.New(ttl, 2*ttl),
	}
}

type cachedSource struct {
	underlying CandidateSource
	cache      *gocache.Cache
}

func (c *cachedSource) FetchAll(ctx context.Context) ([]Record, error) {
	if v, found := c.cache.Get(candidatesKey); found {
		return v.([]Record), nil
	}
	records, err := c.underlying.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(candidatesKey, records)
	return records, nil
}
