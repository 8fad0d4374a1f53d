package params

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/austral-hr/austral-hr/internal/shared"
)

// Resolver returns the effective statutory parameter set for a period,
// validated once and cached. Resolved sets are immutable.
type Resolver struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewResolver(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Resolver{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// Resolve loads parameters for (companyID, period), preferring the cache.
// Cache failures degrade to a direct repository read.
func (r *Resolver) Resolve(ctx context.Context, companyID int64, period shared.Period) (StatutoryParameters, error) {
	key := cacheKey(companyID, period)
	if r.cache != nil {
		raw, err := r.cache.Get(ctx, key).Bytes()
		if err == nil {
			var cached StatutoryParameters
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			r.logger.Warn("params cache entry corrupt, dropping", slog.String("key", key))
			_ = r.cache.Del(ctx, key).Err()
		}
	}

	p, err := r.repo.Get(ctx, companyID, period)
	if err != nil {
		return StatutoryParameters{}, err
	}
	if err := p.Validate(); err != nil {
		return StatutoryParameters{}, err
	}

	if r.cache != nil {
		if raw, err := json.Marshal(p); err == nil {
			if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
				r.logger.Warn("params cache write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
	return p, nil
}

func cacheKey(companyID int64, period shared.Period) string {
	return fmt.Sprintf("params:%d:%s", companyID, period)
}
