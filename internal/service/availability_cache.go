package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/scheduling"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	RedisAvailabilityKeyPrefix = "agenda:availability:"
	RedisVersionKeyPrefix      = "agenda:availability:version:"

	redisCacheTimeout = 2 * time.Second
)

// AvailabilityCache stores computed day slots. Writes to a provider's schedule,
// blocks or appointments bump the provider version, which orphans every cached day.
// Get reports the version it read; callers hand that version back to Set, so
// slots computed before an Invalidate can never land under the newer version.
type AvailabilityCache interface {
	Get(ctx context.Context, owner entity.Owner, providerID uuid.UUID, date time.Time, duration int) (slots []scheduling.Slot, version int64, hit bool)
	Set(ctx context.Context, owner entity.Owner, providerID uuid.UUID, date time.Time, duration int, version int64, slots []scheduling.Slot)
	Invalidate(ctx context.Context, owner entity.Owner, providerID uuid.UUID)
}

// NoVersion is returned by Get when the provider version could not be read.
// Set ignores it.
const NoVersion int64 = -1

type redisAvailabilityCache struct {
	redisClient redis.Cmdable
	log         *logrus.Logger
	metrics     *MetricsService
	ttl         time.Duration
}

// NewAvailabilityCache returns a Redis-backed cache. Redis failures degrade to
// cache misses; they are logged and never surface to callers.
func NewAvailabilityCache(redisClient redis.Cmdable, log *logrus.Logger, metrics *MetricsService, ttl time.Duration) AvailabilityCache {
	return &redisAvailabilityCache{
		redisClient: redisClient,
		log:         log,
		metrics:     metrics,
		ttl:         ttl,
	}
}

func (c *redisAvailabilityCache) Get(ctx context.Context, owner entity.Owner, providerID uuid.UUID, date time.Time, duration int) ([]scheduling.Slot, int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	version, err := c.version(ctx, owner, providerID)
	if err != nil {
		c.log.Warnf("Failed to read availability version for provider %s: %+v", providerID, err)
		c.metrics.RecordCacheLookup(false)
		return nil, NoVersion, false
	}

	raw, err := c.redisClient.Get(ctx, slotsKey(owner, providerID, version, date, duration)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnf("Failed to read availability cache for provider %s: %+v", providerID, err)
		}
		c.metrics.RecordCacheLookup(false)
		return nil, version, false
	}

	var slots []scheduling.Slot
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.log.Warnf("Discarding corrupt availability cache entry: %+v", err)
		c.metrics.RecordCacheLookup(false)
		return nil, version, false
	}

	c.metrics.RecordCacheLookup(true)
	return slots, version, true
}

// Set stores slots under the version the caller read before computing them.
// If the provider was invalidated in between, the entry is written under the
// old version and is never read.
func (c *redisAvailabilityCache) Set(ctx context.Context, owner entity.Owner, providerID uuid.UUID, date time.Time, duration int, version int64, slots []scheduling.Slot) {
	if version == NoVersion {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	payload, err := json.Marshal(slots)
	if err != nil {
		c.log.Warnf("Failed to encode availability slots: %+v", err)
		return
	}

	if err := c.redisClient.Set(ctx, slotsKey(owner, providerID, version, date, duration), payload, c.ttl).Err(); err != nil {
		c.log.Warnf("Failed to write availability cache for provider %s: %+v", providerID, err)
	}
}

func (c *redisAvailabilityCache) Invalidate(ctx context.Context, owner entity.Owner, providerID uuid.UUID) {
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	if err := c.redisClient.Incr(ctx, versionKey(owner, providerID)).Err(); err != nil {
		c.log.Warnf("Failed to invalidate availability cache for provider %s: %+v", providerID, err)
		return
	}
	c.log.Debugf("Invalidated availability cache for provider %s", providerID)
}

func (c *redisAvailabilityCache) version(ctx context.Context, owner entity.Owner, providerID uuid.UUID) (int64, error) {
	v, err := c.redisClient.Get(ctx, versionKey(owner, providerID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// ownerScope renders the tenant part of a cache key.
func ownerScope(owner entity.Owner) string {
	if owner.IsClinic() {
		return "c:" + owner.ClinicID.String()
	}
	return "u:" + owner.UserID.String()
}

func versionKey(owner entity.Owner, providerID uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", RedisVersionKeyPrefix, ownerScope(owner), providerID)
}

func slotsKey(owner entity.Owner, providerID uuid.UUID, version int64, date time.Time, duration int) string {
	return fmt.Sprintf("%s%s:%s:v%d:%s:%d", RedisAvailabilityKeyPrefix, ownerScope(owner), providerID, version, date.Format(entity.DateLayout), duration)
}
