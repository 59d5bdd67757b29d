// Package cache provides the time-boxed, de-duplicated view of
// "access token -> profile".
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"placectl/internal/domain"

	"golang.org/x/sync/singleflight"
)

// profileTTL bounds how long a fetched profile is served without a
// round trip.
const profileTTL = 5 * time.Minute

// cacheEntry is one fetched profile. An entry is fresh iff it belongs
// to the requested token and now-fetchedAt < profileTTL; stale entries
// are never returned, they trigger a refetch.
type cacheEntry struct {
	profile   *domain.Profile
	token     string
	fetchedAt time.Time
}

// ProfileCache caches the current user's profile with a TTL and
// de-duplicates concurrent fetches: for N callers racing on the same
// token, exactly one upstream request is issued and all N share its
// result. Implements domain.ProfileSource.
type ProfileCache struct {
	mu      sync.RWMutex
	entry   *cacheEntry
	group   singleflight.Group
	fetcher domain.ProfileFetcher
	store   domain.TokenStore
	logger  *slog.Logger

	now func() time.Time
}

// NewProfileCache creates an empty profile cache. The store is needed
// so an upstream 401 can tear the whole session down, not just fail
// the one call.
func NewProfileCache(fetcher domain.ProfileFetcher, store domain.TokenStore, logger *slog.Logger) *ProfileCache {
	return &ProfileCache{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the profile for accessToken, from cache when a fresh
// entry exists and bypassCache is false, otherwise from the identity
// endpoint. Concurrent callers in the same fetch window share one
// in-flight request.
func (c *ProfileCache) Get(ctx context.Context, accessToken string, bypassCache bool) (*domain.Profile, error) {
	if !bypassCache {
		if profile, ok := c.fresh(accessToken); ok {
			return profile, nil
		}
	}

	v, err, _ := c.group.Do(accessToken, func() (any, error) {
		// A waiter that queued behind the winning fetch finds the
		// entry it produced here instead of fetching again.
		if !bypassCache {
			if profile, ok := c.fresh(accessToken); ok {
				return profile, nil
			}
		}
		return c.fetch(ctx, accessToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Profile), nil
}

// Invalidate empties the cache so the next Get refetches. Called after
// login and challenge success so a freshly authenticated user never
// reads a pre-login entry, and on logout.
func (c *ProfileCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = nil
}

func (c *ProfileCache) fresh(accessToken string) (*domain.Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e := c.entry
	if e == nil || e.token != accessToken {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= profileTTL {
		return nil, false
	}
	return e.profile, true
}

func (c *ProfileCache) fetch(ctx context.Context, accessToken string) (*domain.Profile, error) {
	raw, err := c.fetcher.FetchProfile(ctx, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			// A 401 anywhere tears the session down globally.
			c.Invalidate()
			if clearErr := c.store.Clear(); clearErr != nil {
				c.logger.Warn("failed to clear session after 401", "error", clearErr)
			}
		}
		return nil, err
	}

	profile := &domain.Profile{
		Email:       raw.Email,
		Name:        raw.Name,
		Role:        domain.ResolveRole(raw.Role),
		Department:  raw.Department,
		Year:        raw.Year,
		JoiningDate: raw.JoiningDate,
	}

	c.mu.Lock()
	c.entry = &cacheEntry{
		profile:   profile,
		token:     accessToken,
		fetchedAt: c.now(),
	}
	c.mu.Unlock()

	return profile, nil
}
