package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/access"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

const chartsCachePrefix = "stats:charts:"

// DashboardStats summarizes the grievances visible to a caller.
type DashboardStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Resolved  int64 `json:"resolved"`
	Escalated int64 `json:"escalated"`
	Overdue   int64 `json:"overdue"`
}

// MonthlyCount is one bucket of the six-month submission trend.
type MonthlyCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// ChartStats feeds the dashboard charts.
type ChartStats struct {
	Categories map[domain.GrievanceCategory]int64 `json:"categories"`
	Statuses   map[domain.GrievanceStatus]int64   `json:"statuses"`
	Monthly    []MonthlyCount                     `json:"monthly"`
}

// StatsService computes dashboard aggregates, caching chart data in Redis
// when a client is configured.
type StatsService struct {
	grievances repository.GrievanceRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewStatsService constructs the service. cache may be nil.
func NewStatsService(grievances repository.GrievanceRepository, cache *redis.Client, policy config.WorkflowConfig, logger *zap.Logger) *StatsService {
	return &StatsService{
		grievances: grievances,
		cache:      cache,
		cacheTTL:   policy.StatsCacheTTL(),
		logger:     logger,
		now:        time.Now,
	}
}

// Dashboard returns headline counts scoped like listing: students over their
// own grievances, authorities over assigned ones, admins over everything.
func (s *StatsService) Dashboard(ctx context.Context, actor *domain.User) (*DashboardStats, error) {
	scope, err := s.statsScope(actor)
	if err != nil {
		return nil, err
	}

	byStatus, err := s.grievances.CountByStatus(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	overdue, err := s.grievances.CountOverdue(ctx, scope, s.now())
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &DashboardStats{Overdue: overdue}
	for status, count := range byStatus {
		stats.Total += count
		switch status {
		case domain.StatusSubmitted, domain.StatusInReview, domain.StatusInProgress:
			stats.Pending += count
		case domain.StatusResolved, domain.StatusClosed:
			stats.Resolved += count
		case domain.StatusEscalated:
			stats.Escalated += count
		}
	}
	return stats, nil
}

// Charts returns per-category and per-status counts plus a six-month trend.
func (s *StatsService) Charts(ctx context.Context, actor *domain.User) (*ChartStats, error) {
	scope, err := s.statsScope(actor)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(actor)
	if cached := s.cachedCharts(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	categories, err := s.grievances.CountByCategory(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	statuses, err := s.grievances.CountByStatus(ctx, scope)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	// Zero-fill so charts always render every bucket.
	for _, category := range domain.Categories() {
		if _, ok := categories[category]; !ok {
			categories[category] = 0
		}
	}
	for _, status := range domain.Statuses() {
		if _, ok := statuses[status]; !ok {
			statuses[status] = 0
		}
	}

	now := s.now()
	monthly := make([]MonthlyCount, 0, 6)
	for i := 5; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)
		if i == 0 {
			end = now
		}
		count, err := s.grievances.CountCreatedBetween(ctx, scope, start, end)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		monthly = append(monthly, MonthlyCount{Label: start.Format("Jan 2006"), Count: count})
	}

	stats := &ChartStats{Categories: categories, Statuses: statuses, Monthly: monthly}
	s.storeCharts(ctx, cacheKey, stats)
	return stats, nil
}

func (s *StatsService) statsScope(actor *domain.User) (repository.GrievanceFilter, error) {
	if actor == nil {
		return repository.GrievanceFilter{}, apperrors.NewUnauthorized("authentication required")
	}
	scope, ok := access.ScopeFor(actor.Role, access.ActionViewStats)
	if !ok {
		return repository.GrievanceFilter{}, apperrors.NewForbidden("access denied")
	}
	filter := repository.GrievanceFilter{}
	switch scope {
	case access.ScopeOwn:
		id := actor.ID
		filter.SubmitterID = &id
	case access.ScopeAssigned:
		id := actor.ID
		filter.AssigneeID = &id
	}
	return filter, nil
}

func (s *StatsService) cacheKey(actor *domain.User) string {
	if actor.Role == domain.RoleAdmin {
		return chartsCachePrefix + "all"
	}
	return chartsCachePrefix + actor.ID
}

func (s *StatsService) cachedCharts(ctx context.Context, key string) *ChartStats {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	var stats ChartStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *StatsService) storeCharts(ctx context.Context, key string, stats *ChartStats) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil && s.logger != nil {
		s.logger.Debug("chart cache write failed", zap.Error(err))
	}
}
