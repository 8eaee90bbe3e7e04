package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/claimdesk/claim-service/internal/domain"
)

const claimCachePrefix = "claim:"

// storeIfNewer writes a cache entry only when it is newer than the cached
// one, so a slow reader can never replace a snapshot written by a later Save.
// KEYS[1] entry hash, ARGV[1] version, ARGV[2] encoded claim, ARGV[3] ttl ms.
var storeIfNewer = redis.NewScript(`
local cached = redis.call('HGET', KEYS[1], 'version')
if cached and tonumber(cached) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// cachedClaimRepository serves Load from Redis and falls through to the
// wrapped repository on a miss. Writes go to the wrapped repository first and
// then refresh the cache entry, so Redis is never the source of truth. Cache
// entries only ever move forward in version.
type cachedClaimRepository struct {
	next   ClaimRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClaimRepository decorates next with a Redis snapshot cache. A nil
// client returns next unchanged.
func NewCachedClaimRepository(next ClaimRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) ClaimRepository {
	if client == nil {
		return next
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &cachedClaimRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedClaimRepository) Create(ctx context.Context, claim domain.ClaimCase) error {
	if err := r.next.Create(ctx, claim); err != nil {
		return err
	}
	r.store(ctx, claim)
	return nil
}

func (r *cachedClaimRepository) Load(ctx context.Context, claimID string) (domain.ClaimCase, error) {
	raw, err := r.client.HGet(ctx, claimCachePrefix+claimID, "data").Bytes()
	switch {
	case err == nil:
		var claim domain.ClaimCase
		if err := json.Unmarshal(raw, &claim); err == nil {
			return claim, nil
		}
		r.logger.Warn("discarding undecodable cached claim", zap.String("claim_id", claimID))
		r.drop(ctx, claimID)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("claim cache read failed", zap.String("claim_id", claimID), zap.Error(err))
	}

	claim, err := r.next.Load(ctx, claimID)
	if err != nil {
		return domain.ClaimCase{}, err
	}
	r.store(ctx, claim)
	return claim, nil
}

func (r *cachedClaimRepository) Save(ctx context.Context, claim domain.ClaimCase) error {
	err := r.next.Save(ctx, claim)
	switch {
	case err == nil:
		r.store(ctx, claim)
	case errors.Is(err, domain.ErrConflict):
		// The cached copy may be the stale one; replace it with the winner.
		if current, loadErr := r.next.Load(ctx, claim.ClaimID); loadErr == nil {
			r.store(ctx, current)
		} else {
			r.drop(ctx, claim.ClaimID)
		}
	}
	return err
}

func (r *cachedClaimRepository) ListByPolicy(ctx context.Context, policyNo string) ([]domain.ClaimCase, error) {
	return r.next.ListByPolicy(ctx, policyNo)
}

func (r *cachedClaimRepository) store(ctx context.Context, claim domain.ClaimCase) {
	raw, err := json.Marshal(claim)
	if err != nil {
		r.logger.Warn("claim cache encode failed", zap.String("claim_id", claim.ClaimID), zap.Error(err))
		return
	}
	keys := []string{claimCachePrefix + claim.ClaimID}
	if err := storeIfNewer.Run(ctx, r.client, keys, claim.Version, raw, r.ttl.Milliseconds()).Err(); err != nil {
		r.logger.Warn("claim cache write failed", zap.String("claim_id", claim.ClaimID), zap.Error(err))
	}
}

func (r *cachedClaimRepository) drop(ctx context.Context, claimID string) {
	if err := r.client.Del(ctx, claimCachePrefix+claimID).Err(); err != nil {
		r.logger.Warn("claim cache invalidation failed", zap.String("claim_id", claimID), zap.Error(err))
	}
}
