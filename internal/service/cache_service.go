package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lgdark7/timetable/internal/models"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
)

const timetableCachePrefix = "timetable"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService caches filtered timetable views. Every call fails open: a broken
// cache degrades to a database read and never fails the request.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. A nil repo disables caching.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// LoadTimetable fills dest from the cached view for filter and reports a hit.
func (s *CacheService) LoadTimetable(ctx context.Context, filter models.TimetableFilter, dest *[]models.TimetableEntryDetail) bool {
	if !s.Enabled() {
		return false
	}
	key := TimetableKey(filter)
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("timetable cache read failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

// StoreTimetable caches a freshly loaded view.
func (s *CacheService) StoreTimetable(ctx context.Context, filter models.TimetableFilter, entries []models.TimetableEntryDetail) {
	if !s.Enabled() {
		return
	}
	key := TimetableKey(filter)
	start := time.Now()
	err := s.repo.Set(ctx, key, entries, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("timetable cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateTimetable drops every cached view. Called after any write that can change the schedule.
func (s *CacheService) InvalidateTimetable(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, timetableCachePrefix+":*"); err != nil {
		s.logger.Warn("timetable cache invalidation failed", zap.Error(err))
	}
}

// TimetableKey builds the cache key for a filtered timetable view.
func TimetableKey(filter models.TimetableFilter) string {
	return fmt.Sprintf("%s:view:dept=%s:teacher=%s:day=%s", timetableCachePrefix,
		filter.DepartmentID, filter.TeacherID, strings.ToLower(filter.DayOfWeek))
}
