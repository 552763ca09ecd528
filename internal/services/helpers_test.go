package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/cache"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/school-admin-service/internal/testutil"
	"github.com/SAP-F-2025/school-admin-service/internal/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	manager = Actor{UID: "T-admin", Role: models.RoleDirector}
	teacher = Actor{UID: "T-plain", Role: models.RoleTeacher}
	guest   = Actor{}
)

type testEnv struct {
	db        *gorm.DB
	stores    *postgres.Stores
	validator *validator.Validator
	publisher *events.MemoryPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	return &testEnv{
		db:        db,
		stores:    postgres.NewStores(db, testutil.NewFeed(t), testutil.Logger()),
		validator: validator.New(),
		publisher: events.NewMemoryPublisher(),
	}
}

func (e *testEnv) records() *Records {
	return NewRecords(e.stores, e.validator, e.publisher, testutil.Logger())
}

func (e *testEnv) localProvider(t *testing.T) *auth.LocalProvider {
	t.Helper()
	p, err := auth.NewLocalProvider(e.db, "test-secret", time.Hour, cache.NewRevocations(cache.NewMemoryCache()), testutil.Logger())
	require.NoError(t, err)
	return p
}

func (e *testEnv) seedStudent(t *testing.T, s models.Student) {
	t.Helper()
	require.NoError(t, e.stores.Students.Set(context.Background(), &s, false))
}

func (e *testEnv) seedParent(t *testing.T, p models.Parent) {
	t.Helper()
	require.NoError(t, e.stores.Parents.Set(context.Background(), &p, false))
}

func (e *testEnv) seedTeacher(t *testing.T, tc models.Teacher) {
	t.Helper()
	require.NoError(t, e.stores.Teachers.Set(context.Background(), &tc, false))
}

func (e *testEnv) eventTypes() []events.EventType {
	var types []events.EventType
	for _, ev := range e.publisher.Published() {
		types = append(types, ev.Type)
	}
	return types
}

// invalidFields lists the fields named by a ValidationErrors in err.
func invalidFields(err error) []string {
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	fields := make([]string, len(ve))
	for i, e := range ve {
		fields[i] = e.Field
	}
	return fields
}

// MockProvider is a testify mock of auth.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	args := m.Called(ctx, email, password)
	if s := args.Get(0); s != nil {
		return s.(*auth.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockProvider) Verify(ctx context.Context, token string) (*auth.Principal, error) {
	args := m.Called(ctx, token)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) CreatePrincipal(ctx context.Context, p auth.NewPrincipal) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) DeletePrincipal(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}
