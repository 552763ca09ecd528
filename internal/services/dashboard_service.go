package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/ledger"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/preferences"
)

const (
	dashboardSummaryKey   = "dashboard:summary"
	dashboardCachePattern = "dashboard:*"
	dashboardSummaryTTL   = 30 * time.Second
	recentPaymentsLimit   = 5
	recentActivityLimit   = 10
)

// DashboardSummary feeds the KPI cards and the recent activity widget.
type DashboardSummary struct {
	TotalStudents     int                       `json:"total_students"`
	TotalParents      int                       `json:"total_parents"`
	TotalTeachers     int                       `json:"total_teachers"`
	TotalCourses      int                       `json:"total_courses"`
	StudentsByGrade   map[models.GradeLevel]int `json:"students_by_grade"`
	PaymentsThisMonth int                       `json:"payments_this_month"`
	RevenueThisMonth  int64                     `json:"revenue_this_month"`
	RecentPayments    []models.PaymentView      `json:"recent_payments"`
	RecentActivity    []ActivityItem            `json:"recent_activity"`
	GeneratedAt       time.Time                 `json:"generated_at"`
}

// DashboardSources are the live collections the KPI cards count.
type DashboardSources struct {
	Students live.Observable[accessors.Result[models.Student]]
	Parents  live.Observable[accessors.Result[models.Parent]]
	Teachers live.Observable[accessors.Result[models.Teacher]]
	Courses  live.Observable[accessors.Result[models.Course]]
}

// SourcesFromRegistry counts the shared accessors.
func SourcesFromRegistry(r *accessors.Registry) DashboardSources {
	return DashboardSources{Students: r.Students, Parents: r.Parents, Teachers: r.Teachers, Courses: r.Courses}
}

// DashboardService assembles the dashboard home page.
type DashboardService struct {
	sources  DashboardSources
	ledger   *ledger.Ledger
	widgets  *preferences.Widgets
	activity *ActivityFeed
	cache    cache.CacheService
	logger   *ServiceLogger
	now      func() time.Time
}

// NewDashboardService builds the dashboard back-end. activity may be nil.
func NewDashboardService(sources DashboardSources, l *ledger.Ledger, widgets *preferences.Widgets, activity *ActivityFeed, c cache.CacheService, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		sources:  sources,
		ledger:   l,
		widgets:  widgets,
		activity: activity,
		cache:    c,
		logger:   NewServiceLogger(logger, LogConfig{Service: "school-admin-service", Component: "dashboard"}),
		now:      time.Now,
	}
}

// Summary returns the KPI summary, ErrDataLoading until the shared accessors
// have loaded. Results are cached briefly.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	if s.cache != nil {
		err := s.cache.Get(ctx, dashboardSummaryKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.logger.Warn("Dashboard cache read failed", "error", err)
		}
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardSummaryKey, summary, dashboardSummaryTTL); err != nil {
			s.logger.logger.Warn("Dashboard cache write failed", "error", err)
		}
	}
	return summary, nil
}

func (s *DashboardService) build(ctx context.Context) (*DashboardSummary, error) {
	students, err := resultData(s.sources.Students.Current())
	if err != nil {
		return nil, err
	}
	parents, err := resultData(s.sources.Parents.Current())
	if err != nil {
		return nil, err
	}
	teachers, err := resultData(s.sources.Teachers.Current())
	if err != nil {
		return nil, err
	}
	courses, err := resultData(s.sources.Courses.Current())
	if err != nil {
		return nil, err
	}

	payments, err := s.ledger.PaymentsWithStudentData(ctx, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	summary := &DashboardSummary{
		TotalStudents:   len(students),
		TotalParents:    len(parents),
		TotalTeachers:   len(teachers),
		TotalCourses:    len(courses),
		StudentsByGrade: make(map[models.GradeLevel]int),
		GeneratedAt:     now,
	}
	for _, st := range students {
		summary.StudentsByGrade[st.GradeLevel]++
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for _, p := range payments {
		if !p.Date.Before(monthStart) && !p.Date.After(now) {
			summary.PaymentsThisMonth++
			summary.RevenueThisMonth += p.Amount
		}
	}

	if len(payments) > recentPaymentsLimit {
		payments = payments[:recentPaymentsLimit]
	}
	summary.RecentPayments = payments

	summary.RecentActivity = []ActivityItem{}
	if s.activity != nil {
		summary.RecentActivity = s.activity.Recent(recentActivityLimit)
	}

	return summary, nil
}

func (s *DashboardService) Widgets(ctx context.Context) (preferences.WidgetConfig, error) {
	return s.widgets.Get(ctx)
}

// SetWidgets stores the widget visibility. It is a per-installation
// preference, so any signed-in user may change it.
func (s *DashboardService) SetWidgets(ctx context.Context, actor Actor, cfg preferences.WidgetConfig) error {
	if err := requireSignedIn(actor); err != nil {
		return err
	}
	if err := s.widgets.Set(ctx, cfg); err != nil {
		return err
	}
	s.logger.logger.Info("Dashboard widgets updated", "user_id", actor.UID,
		"kpi_cards", cfg.KPICards, "performance_chart", cfg.PerformanceChart, "recent_activity", cfg.RecentActivity)
	return nil
}
