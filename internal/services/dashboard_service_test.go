package services

import (
	"context"
	"testing"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/kvstore"
	"github.com/SAP-F-2025/school-admin-service/internal/ledger"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
	"github.com/SAP-F-2025/school-admin-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSources(t *testing.T, env *testEnv) DashboardSources {
	t.Helper()
	ctx := context.Background()

	registry, err := accessors.OpenRegistry(ctx, env.stores, testutil.Logger())
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	_, err = accessors.WaitLoaded[models.Student](ctx, registry.Students)
	require.NoError(t, err)
	_, err = accessors.WaitLoaded[models.Parent](ctx, registry.Parents)
	require.NoError(t, err)
	_, err = accessors.WaitLoaded[models.Teacher](ctx, registry.Teachers)
	require.NoError(t, err)
	_, err = accessors.WaitLoaded[models.Course](ctx, registry.Courses)
	require.NoError(t, err)
	return SourcesFromRegistry(registry)
}

func TestDashboardService_Summary(t *testing.T) {
	env := newTestEnv(t)
	env.seedStudent(t, testutil.Student("S1", "Ana", "Lopez"))
	second := testutil.Student("S2", "Juan", "Zapata")
	second.GradeLevel = models.GradeQuinto
	env.seedStudent(t, second)
	env.seedParent(t, testutil.Parent("P1", "Luis", "Lopez"))
	env.seedTeacher(t, testutil.Teacher("T1", "Carmen", "Diaz", ""))

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		time.Date(2026, 2, 27, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
	}
	l := ledger.New(kvstore.NewMemory(), testutil.Logger()).WithClock(func() time.Time {
		next := stamps[0]
		stamps = stamps[1:]
		return next
	})
	ctx := context.Background()
	for _, amount := range []int64{100, 200, 300} {
		_, err := l.AddPayment(ctx, payment("S1", amount))
		require.NoError(t, err)
	}

	activity := NewActivityFeed(nil, 5)
	require.NoError(t, activity.Publish(ctx, events.NewRecordEvent(events.EventRecordCreated, "T1", models.CollectionStudents, "S2")))

	svc := NewDashboardService(openSources(t, env), l, preferences.NewWidgets(kvstore.NewMemory(), testutil.Logger()), activity, nil, testutil.Logger())
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalStudents)
	assert.Equal(t, 1, summary.TotalParents)
	assert.Equal(t, 1, summary.TotalTeachers)
	assert.Equal(t, 0, summary.TotalCourses)
	assert.Equal(t, map[models.GradeLevel]int{models.GradePrimero: 1, models.GradeQuinto: 1}, summary.StudentsByGrade)
	assert.Equal(t, 2, summary.PaymentsThisMonth)
	assert.Equal(t, int64(500), summary.RevenueThisMonth)
	require.Len(t, summary.RecentPayments, 3)
	assert.Equal(t, int64(300), summary.RecentPayments[0].Amount)
	require.Len(t, summary.RecentActivity, 1)
	assert.Equal(t, events.EventRecordCreated, summary.RecentActivity[0].Type)
}

func TestDashboardService_SummaryWhileLoading(t *testing.T) {
	sources := DashboardSources{
		Students: live.NewValue(accessors.Result[models.Student]{Data: []models.Student{}}),
		Parents:  live.NewValue(accessors.Result[models.Parent]{IsLoading: true}),
		Teachers: live.NewValue(accessors.Result[models.Teacher]{Data: []models.Teacher{}}),
		Courses:  live.NewValue(accessors.Result[models.Course]{Data: []models.Course{}}),
	}
	svc := NewDashboardService(sources, ledger.New(kvstore.NewMemory(), testutil.Logger()), nil, nil, cache.NewMemoryCache(), testutil.Logger())

	_, err := svc.Summary(context.Background())
	assert.ErrorIs(t, err, ErrDataLoading)
}

func TestDashboardService_SummaryIsCached(t *testing.T) {
	env := newTestEnv(t)
	c := cache.NewMemoryCache()
	svc := NewDashboardService(openSources(t, env), ledger.New(kvstore.NewMemory(), testutil.Logger()), nil, nil, c, testutil.Logger())
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, first.TotalStudents)

	env.seedStudent(t, testutil.Student("S1", "Ana", "Lopez"))
	require.Eventually(t, func() bool { return len(svc.sources.Students.Current().Data) == 1 }, 2*time.Second, 5*time.Millisecond)

	cached, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.TotalStudents)

	require.NoError(t, c.DeletePattern(ctx, dashboardCachePattern))
	fresh, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.TotalStudents)
}

func TestDashboardService_Widgets(t *testing.T) {
	widgets := preferences.NewWidgets(kvstore.NewMemory(), testutil.Logger())
	svc := NewDashboardService(DashboardSources{}, nil, widgets, nil, nil, testutil.Logger())
	ctx := context.Background()

	cfg, err := svc.Widgets(ctx)
	require.NoError(t, err)
	assert.Equal(t, preferences.DefaultWidgetConfig(), cfg)

	assert.ErrorIs(t, svc.SetWidgets(ctx, guest, cfg), ErrUnauthorized)

	cfg.PerformanceChart = false
	require.NoError(t, svc.SetWidgets(ctx, teacher, cfg))
	got, err := svc.Widgets(ctx)
	require.NoError(t, err)
	assert.False(t, got.PerformanceChart)
	assert.True(t, got.KPICards)
}

func TestActivityFeed(t *testing.T) {
	next := events.NewMemoryPublisher()
	feed := NewActivityFeed(next, 2)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, feed.Publish(ctx, events.NewRecordEvent(events.EventRecordUpdated, "T1", models.CollectionCourses, id)))
	}

	recent := feed.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "C", recent[0].Data.(events.RecordChangedEvent).RecordID)
	assert.Equal(t, "B", recent[1].Data.(events.RecordChangedEvent).RecordID)
	assert.Len(t, feed.Recent(1), 1)

	assert.Len(t, next.Published(), 3, "every event is forwarded")
}
