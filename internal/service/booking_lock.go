package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go-clinic-agenda/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrLockNotAcquired is returned when another booking holds the professional's day.
var ErrLockNotAcquired = errors.New("professional agenda is busy, try again")

// releaseLockScript deletes the lock only if it still holds our token, so a
// lock that expired and was taken by someone else is left alone.
var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

const (
	RedisBookingLockKeyPrefix = "agenda:lock:"

	lockRetryInterval    = 25 * time.Millisecond
	mutexCleanupInterval = 10 * time.Minute
	mutexStaleThreshold  = 10 * time.Minute
)

// BookingLocker serialises writes that touch one professional's agenda on one date.
type BookingLocker interface {
	Lock(ctx context.Context, professionalID uuid.UUID, date time.Time) (release func(), err error)
}

// RedisBookingLocker combines an in-process mutex per (professional, date) with a
// Redis lock shared by every replica.
//
// Lock ordering:
// 1. local mutex
// 2. Redis key
// 3. database transaction (taken by the caller)
type RedisBookingLocker struct {
	redisClient *redis.Client
	log         *logrus.Logger
	metrics     *MetricsService
	ttl         time.Duration

	dayMu sync.Map // map[string]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// NewRedisBookingLocker starts the background mutex cleanup. Call Stop() during shutdown.
func NewRedisBookingLocker(redisClient *redis.Client, log *logrus.Logger, metrics *MetricsService, ttl time.Duration) *RedisBookingLocker {
	l := &RedisBookingLocker{
		redisClient: redisClient,
		log:         log,
		metrics:     metrics,
		ttl:         ttl,
		stopChan:    make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupMutexMapLoop()

	return l
}

// Stop is safe to call multiple times.
func (l *RedisBookingLocker) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
		l.wg.Wait()
		l.log.Info("Booking locker stopped")
	}
}

// Lock blocks until the (professional, date) lock is held, ctx is done, or the
// lock TTL elapses while waiting.
func (l *RedisBookingLocker) Lock(ctx context.Context, professionalID uuid.UUID, date time.Time) (func(), error) {
	key := LockKey(professionalID, date)
	started := time.Now()

	mt := l.getDayMutex(key)
	if err := lockWithContext(ctx, &mt.mu, l.ttl); err != nil {
		return nil, err
	}

	token := uuid.NewString()
	if err := l.acquireRedis(ctx, key, token); err != nil {
		mt.mu.Unlock()
		return nil, err
	}
	l.metrics.ObserveLockWait(time.Since(started))

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The caller's ctx may already be cancelled; release on a fresh one.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseLockScript.Run(rctx, l.redisClient, []string{key}, token).Err(); err != nil {
				l.log.Warnf("Failed to release booking lock %s: %+v", key, err)
			}
			mt.lastUsed.Store(time.Now().Unix())
			mt.mu.Unlock()
		})
	}
	return release, nil
}

func (l *RedisBookingLocker) acquireRedis(ctx context.Context, key, token string) error {
	deadline := time.Now().Add(l.ttl)
	for {
		ok, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			l.log.Warnf("Failed to acquire booking lock %s: %+v", key, err)
			return fmt.Errorf("acquire booking lock %s: %w", key, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

// LockKey returns the Redis key guarding a professional's agenda on date.
func LockKey(professionalID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s", RedisBookingLockKeyPrefix, professionalID, date.Format(entity.DateLayout))
}

func lockWithContext(ctx context.Context, mu *sync.Mutex, wait time.Duration) error {
	if mu.TryLock() {
		return nil
	}
	deadline := time.Now().Add(wait)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryInterval):
		}
		if mu.TryLock() {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockNotAcquired
		}
	}
}

func (l *RedisBookingLocker) getDayMutex(key string) *mutexWithTimestamp {
	mt, _ := l.dayMu.LoadOrStore(key, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (l *RedisBookingLocker) cleanupMutexMapLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			l.log.Debug("Mutex cleanup goroutine stopping")
			return
		case <-ticker.C:
			l.cleanupStaleMutexes(time.Now().Add(-mutexStaleThreshold))
		}
	}
}

// cleanupStaleMutexes drops mutexes unused since cutoff. lastUsed is read while
// holding the mutex so a concurrent Lock cannot slip in between.
func (l *RedisBookingLocker) cleanupStaleMutexes(cutoff time.Time) int {
	var cleaned int
	l.dayMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}
		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoff.Unix() {
				l.dayMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		l.log.Debugf("Cleaned up %d stale mutexes", cleaned)
	}
	return cleaned
}
