package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"go-clinic-agenda/internal/domain/entity"
	"go-clinic-agenda/internal/scheduling"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// unreachableRedis points at a port nothing listens on.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

type stubAuditRepo struct {
	created []*entity.AuditLog
	err     error
}

func (s *stubAuditRepo) Create(db *gorm.DB, log *entity.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, log)
	return nil
}

func (s *stubAuditRepo) FindAll(db *gorm.DB, owner entity.Owner, limit, offset int) ([]entity.AuditLog, int64, error) {
	return nil, 0, nil
}

func (s *stubAuditRepo) FindByID(db *gorm.DB, owner entity.Owner, id int64) (*entity.AuditLog, error) {
	return nil, nil
}

func TestAuditServiceStampsOwnerAndValues(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewAuditService(quietLogger(), repo)
	owner := entity.Owner{UserID: uuid.New()}

	err := svc.LogUpdate(context.Background(), nil, owner, entity.AuditActionAppointmentUpdate, "appointment", "abc", "old", "new")
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	entry := repo.created[0]
	assert.Equal(t, owner, entry.Owner)
	assert.Equal(t, entity.AuditActionAppointmentUpdate, entry.Action)
	assert.Equal(t, "old", entry.Metadata["old_value"])
	assert.Equal(t, "new", entry.Metadata["new_value"])
	assert.Equal(t, "abc", entry.Metadata["entity_id"])
}

func TestAuditServicePropagatesRepositoryError(t *testing.T) {
	repo := &stubAuditRepo{err: errors.New("db down")}
	svc := NewAuditService(quietLogger(), repo)

	err := svc.LogDelete(context.Background(), nil, entity.Owner{UserID: uuid.New()}, entity.AuditActionBlockDelete, "block", "1", nil)
	assert.EqualError(t, err, "db down")
}

func TestMetricsServiceNilIsNoop(t *testing.T) {
	var m *MetricsService
	assert.NotPanics(t, func() {
		m.ObserveHTTPRequest(http.MethodGet, "/api/agenda/health", 200, time.Millisecond)
		m.RecordCacheLookup(true)
		m.RecordBooking("create", "ok")
		m.RecordConflictCheck(false)
		m.ObserveLockWait(time.Millisecond)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsServiceExposesCollectors(t *testing.T) {
	m := NewMetricsService()
	m.RecordBooking("create", "conflict")
	m.RecordConflictCheck(true)
	m.ObserveHTTPRequest(http.MethodPost, "/api/agenda/appointments", 201, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `agenda_bookings_total{operation="create",result="conflict"} 1`)
	assert.Contains(t, body, `agenda_conflict_checks_total{outcome="valid"} 1`)
	assert.Contains(t, body, "http_requests_total")
}

func TestLockKeyFormat(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "agenda:lock:11111111-2222-3333-4444-555555555555:2026-10-20", LockKey(id, date))
}

func TestLockWithContextTimesOut(t *testing.T) {
	var mu sync.Mutex
	mu.Lock()
	defer mu.Unlock()

	err := lockWithContext(context.Background(), &mu, 60*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
}

func TestLockWithContextHonoursCancellation(t *testing.T) {
	var mu sync.Mutex
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := lockWithContext(ctx, &mu, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBookingLockerRedisFailureReleasesLocalMutex(t *testing.T) {
	locker := NewRedisBookingLocker(unreachableRedis(), quietLogger(), nil, 200*time.Millisecond)
	defer locker.Stop()

	id := uuid.New()
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	_, err := locker.Lock(context.Background(), id, date)
	require.Error(t, err)

	mt := locker.getDayMutex(LockKey(id, date))
	require.True(t, mt.mu.TryLock(), "local mutex must be free after a failed acquire")
	mt.mu.Unlock()
}

func TestBookingLockerCleanupDropsStaleMutexes(t *testing.T) {
	locker := NewRedisBookingLocker(unreachableRedis(), quietLogger(), nil, time.Second)
	defer locker.Stop()

	stale := locker.getDayMutex("stale")
	stale.lastUsed.Store(time.Now().Add(-time.Hour).Unix())
	busy := locker.getDayMutex("busy")
	busy.lastUsed.Store(time.Now().Add(-time.Hour).Unix())
	busy.mu.Lock()
	locker.getDayMutex("fresh")

	cleaned := locker.cleanupStaleMutexes(time.Now().Add(-time.Minute))
	busy.mu.Unlock()

	assert.Equal(t, 1, cleaned)
	_, ok := locker.dayMu.Load("stale")
	assert.False(t, ok)
	_, ok = locker.dayMu.Load("busy")
	assert.True(t, ok)
	_, ok = locker.dayMu.Load("fresh")
	assert.True(t, ok)
}

func TestBookingLockerStopIsIdempotent(t *testing.T) {
	locker := NewRedisBookingLocker(unreachableRedis(), quietLogger(), nil, time.Second)
	locker.Stop()
	assert.NotPanics(t, locker.Stop)
}

func TestAvailabilityCacheDegradesToMiss(t *testing.T) {
	cache := NewAvailabilityCache(unreachableRedis(), quietLogger(), nil, time.Minute)
	owner := entity.Owner{UserID: uuid.New()}
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	assert.NotPanics(t, func() {
		cache.Set(context.Background(), owner, uuid.New(), date, 30, 0, []scheduling.Slot{})
		cache.Invalidate(context.Background(), owner, uuid.New())
	})
	slots, version, ok := cache.Get(context.Background(), owner, uuid.New(), date, 30)
	assert.False(t, ok)
	assert.Nil(t, slots)
	assert.Equal(t, NoVersion, version)
}

// memoryRedis implements the handful of commands the availability cache uses.
type memoryRedis struct {
	redis.Cmdable
	mu   sync.Mutex
	data map[string]string
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}}
}

func (m *memoryRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memoryRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.data[key], 10, 64)
	n++
	m.data[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func TestAvailabilityCacheStaleSetIsNeverRead(t *testing.T) {
	cache := NewAvailabilityCache(newMemoryRedis(), quietLogger(), nil, time.Minute)
	ctx := context.Background()
	owner := entity.Owner{UserID: uuid.New()}
	providerID := uuid.New()
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	_, readVersion, hit := cache.Get(ctx, owner, providerID, date, 30)
	require.False(t, hit)
	assert.Zero(t, readVersion)

	// A booking commits while the slots are still being computed.
	cache.Invalidate(ctx, owner, providerID)
	stale := []scheduling.Slot{{Start: entity.MustParseTimeOfDay("09:00"), End: entity.MustParseTimeOfDay("09:30")}}
	cache.Set(ctx, owner, providerID, date, 30, readVersion, stale)

	_, current, hit := cache.Get(ctx, owner, providerID, date, 30)
	assert.False(t, hit, "slots computed before the invalidation are not served")
	assert.EqualValues(t, 1, current)

	fresh := []scheduling.Slot{{Start: entity.MustParseTimeOfDay("10:00"), End: entity.MustParseTimeOfDay("10:30")}}
	cache.Set(ctx, owner, providerID, date, 30, current, fresh)
	slots, _, hit := cache.Get(ctx, owner, providerID, date, 30)
	require.True(t, hit)
	assert.Equal(t, fresh, slots)

	cache.Set(ctx, owner, providerID, date, 45, NoVersion, fresh)
	_, _, hit = cache.Get(ctx, owner, providerID, date, 45)
	assert.False(t, hit)
}

func TestAvailabilityCacheKeysSeparateTenants(t *testing.T) {
	providerID := uuid.New()
	userID := uuid.New()
	clinicID := uuid.New()
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	individual := entity.Owner{UserID: userID}
	clinic := entity.Owner{UserID: userID, ClinicID: &clinicID}

	assert.NotEqual(t, versionKey(individual, providerID), versionKey(clinic, providerID))
	assert.Equal(t,
		"agenda:availability:c:"+clinicID.String()+":"+providerID.String()+":v3:2026-10-20:45",
		slotsKey(clinic, providerID, 3, date, 45))
}
