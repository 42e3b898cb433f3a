package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

func newStatsFixture(t *testing.T) (*StatsService, *fixture) {
	t.Helper()
	f := newFixture(defaultPolicy())
	stats := NewStatsService(f.grievances, nil, config.WorkflowConfig{}, nil)
	return stats, f
}

func TestDashboardCounts(t *testing.T) {
	stats, f := newStatsFixture(t)
	ctx := context.Background()

	g1 := f.submit(t, f.student, hostelComplaint())
	f.submit(t, f.student, hostelComplaint())

	_, err := f.service.UpdateStatus(ctx, f.authority, g1.ID, domain.StatusInReview, "")
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(ctx, f.authority, g1.ID, domain.StatusResolved, "Done.")
	require.NoError(t, err)

	board, err := stats.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), board.Total)
	assert.Equal(t, int64(1), board.Pending)
	assert.Equal(t, int64(1), board.Resolved)
	assert.Equal(t, int64(0), board.Escalated)
	assert.Equal(t, int64(0), board.Overdue)
}

func TestDashboardOverdueCount(t *testing.T) {
	stats, f := newStatsFixture(t)
	ctx := context.Background()

	g := f.submit(t, f.student, hostelComplaint())
	stored := f.grievances.find(g.ID)
	stored.Deadline = time.Now().Add(-time.Hour)

	board, err := stats.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), board.Overdue)
}

func TestDashboardScopedToStudent(t *testing.T) {
	stats, f := newStatsFixture(t)
	ctx := context.Background()
	bob := f.users.add(&domain.User{Username: "bob", Role: domain.RoleStudent})

	f.submit(t, f.student, hostelComplaint())
	f.submit(t, bob, hostelComplaint())
	f.submit(t, bob, hostelComplaint())

	board, err := stats.Dashboard(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(2), board.Total)

	_, err = stats.Dashboard(ctx, nil)
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestChartsZeroFillAndTrend(t *testing.T) {
	stats, f := newStatsFixture(t)
	ctx := context.Background()

	f.submit(t, f.student, hostelComplaint())

	charts, err := stats.Charts(ctx, f.admin)
	require.NoError(t, err)

	// Every enum bucket is present even with a single grievance filed.
	assert.Len(t, charts.Categories, len(domain.Categories()))
	assert.Len(t, charts.Statuses, len(domain.Statuses()))
	assert.Equal(t, int64(1), charts.Categories[domain.CategoryHostel])
	assert.Equal(t, int64(0), charts.Categories[domain.CategoryAcademic])
	assert.Equal(t, int64(1), charts.Statuses[domain.StatusSubmitted])

	require.Len(t, charts.Monthly, 6)
	assert.Equal(t, time.Now().Format("Jan 2006"), charts.Monthly[5].Label)
	assert.Equal(t, int64(1), charts.Monthly[5].Count)
	assert.Equal(t, int64(0), charts.Monthly[0].Count)
}
