package services

import (
	"context"
	"errors"
	"testing"

	"github.com/SAP-F-2025/school-admin-service/internal/accessors"
	"github.com/SAP-F-2025/school-admin-service/internal/auth"
	"github.com/SAP-F-2025/school-admin-service/internal/events"
	"github.com/SAP-F-2025/school-admin-service/internal/live"
	"github.com/SAP-F-2025/school-admin-service/internal/models"
	"github.com/SAP-F-2025/school-admin-service/internal/repositories"
	"github.com/SAP-F-2025/school-admin-service/internal/testutil"
	"github.com/SAP-F-2025/school-admin-service/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newUserService(env *testEnv, provider auth.Provider, users live.Observable[accessors.Result[views.User]]) *UserService {
	if users == nil {
		users = live.NewValue(accessors.Result[views.User]{IsLoading: true})
	}
	return NewUserService(env.stores.Teachers, env.stores.Parents, users, provider, env.validator, env.publisher, testutil.Logger())
}

func teacherRequest() NewUserRequest {
	return NewUserRequest{
		Source:    views.SourceTeachers,
		FirstName: "Carmen",
		LastName:  "Diaz",
		Email:     "carmen@colegio.edu.co",
		Role:      models.RoleCoordinator,
	}
}

func TestUserService_CreateTeacherSignsIn(t *testing.T) {
	env := newTestEnv(t)
	provider := env.localProvider(t)
	svc := newUserService(env, provider, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, manager, teacherRequest())
	require.NoError(t, err)
	require.NotEmpty(t, created.InitialPassword)
	assert.Equal(t, views.SourceTeachers, created.User.SourceCollection)
	assert.Equal(t, models.RoleCoordinator, created.User.Role)

	stored, err := env.stores.Teachers.Get(ctx, created.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carmen", stored.FirstName)

	session, err := provider.SignIn(ctx, "carmen@colegio.edu.co", created.InitialPassword)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, session.Principal.UID, "the record id is the principal uid")

	assert.Equal(t, []events.EventType{events.EventUserCreated}, env.eventTypes())
}

func TestUserService_CreateParentIsGuardian(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, env.localProvider(t), nil)

	req := teacherRequest()
	req.Source = views.SourceParents
	req.Role = ""

	created, err := svc.Create(context.Background(), manager, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuardian, created.User.Role)

	_, err = env.stores.Parents.Get(context.Background(), created.User.ID)
	assert.NoError(t, err)
}

func TestUserService_CreateRequiresManager(t *testing.T) {
	env := newTestEnv(t)
	provider := new(MockProvider)
	svc := newUserService(env, provider, nil)

	_, err := svc.Create(context.Background(), teacher, teacherRequest())
	assert.True(t, IsForbidden(err))
	provider.AssertNotCalled(t, "CreatePrincipal", mock.Anything, mock.Anything)
}

func TestUserService_CreateValidates(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, new(MockProvider), nil)

	req := teacherRequest()
	req.Source = "students"
	req.Email = "not-an-email"
	_, err := svc.Create(context.Background(), manager, req)
	assert.ElementsMatch(t, []string{"source_collection", "email"}, invalidFields(err))

	req = teacherRequest()
	req.Source = views.SourceParents
	_, err = svc.Create(context.Background(), manager, req)
	assert.Equal(t, []string{"role"}, invalidFields(err))
}

func TestUserService_DuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, env.localProvider(t), nil)

	_, err := svc.Create(context.Background(), manager, teacherRequest())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), manager, teacherRequest())
	assert.True(t, IsConflict(err))
}

// failingTeachers rejects every write.
type failingTeachers struct {
	repositories.CollectionStore[models.Teacher]
}

func (failingTeachers) Set(context.Context, *models.Teacher, bool) error {
	return errors.New("store unavailable")
}

func TestUserService_CreateRollsBackPrincipal(t *testing.T) {
	env := newTestEnv(t)
	provider := new(MockProvider)
	provider.On("CreatePrincipal", mock.Anything, mock.MatchedBy(func(p auth.NewPrincipal) bool {
		return p.Email == "carmen@colegio.edu.co" && p.DisplayName == "Carmen Diaz" && p.Password != ""
	})).Return("uid-1", nil)
	provider.On("DeletePrincipal", mock.Anything, "uid-1").Return(nil)

	users := live.NewValue(accessors.Result[views.User]{IsLoading: true})
	svc := NewUserService(failingTeachers{env.stores.Teachers}, env.stores.Parents, users, provider, env.validator, env.publisher, testutil.Logger())

	_, err := svc.Create(context.Background(), manager, teacherRequest())
	require.Error(t, err)
	provider.AssertExpectations(t)
	assert.Empty(t, env.publisher.Published())
}

func TestUserService_Delete(t *testing.T) {
	env := newTestEnv(t)
	provider := env.localProvider(t)
	svc := newUserService(env, provider, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, manager, teacherRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, manager, views.SourceTeachers, created.User.ID))

	_, err = env.stores.Teachers.Get(ctx, created.User.ID)
	assert.ErrorIs(t, err, repositories.ErrDocumentNotFound)
	_, err = provider.SignIn(ctx, "carmen@colegio.edu.co", created.InitialPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	assert.ErrorIs(t, svc.Delete(ctx, manager, views.SourceTeachers, created.User.ID), ErrUserNotFound)
}

func TestUserService_DeleteWithoutPrincipal(t *testing.T) {
	env := newTestEnv(t)
	env.seedParent(t, testutil.Parent("P1", "Luis", "Diaz"))
	svc := newUserService(env, env.localProvider(t), nil)

	assert.NoError(t, svc.Delete(context.Background(), manager, views.SourceParents, "P1"))
}

func TestUserService_DeleteGuards(t *testing.T) {
	env := newTestEnv(t)
	svc := newUserService(env, new(MockProvider), nil)
	ctx := context.Background()

	assert.True(t, IsForbidden(svc.Delete(ctx, teacher, views.SourceParents, "P1")))
	assert.True(t, IsBusinessRule(svc.Delete(ctx, manager, views.SourceTeachers, manager.UID)))
	assert.True(t, IsValidation(svc.Delete(ctx, manager, "students", "S1")))
}

func TestUserService_SetRole(t *testing.T) {
	env := newTestEnv(t)
	env.seedTeacher(t, testutil.Teacher("T1", "Carmen", "Diaz", ""))
	env.seedTeacher(t, testutil.Teacher(manager.UID, "Pedro", "Alvarez", models.RoleDirector))
	svc := newUserService(env, new(MockProvider), nil)
	ctx := context.Background()

	require.NoError(t, svc.SetRole(ctx, manager, "T1", models.RoleSecretary))
	stored, err := env.stores.Teachers.Get(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleSecretary, stored.Role)

	assert.ErrorIs(t, svc.SetRole(ctx, manager, "T1", models.RoleGuardian), ErrInvalidRole)
	assert.ErrorIs(t, svc.SetRole(ctx, manager, "T404", models.RoleTeacher), ErrTeacherNotFound)
	assert.True(t, IsBusinessRule(svc.SetRole(ctx, manager, manager.UID, models.RoleTeacher)))
	assert.True(t, IsForbidden(svc.SetRole(ctx, teacher, "T1", models.RoleDirector)))
}

func TestUserService_List(t *testing.T) {
	env := newTestEnv(t)
	teachers := live.NewValue(accessors.Result[models.Teacher]{IsLoading: true})
	parents := live.NewValue(accessors.Result[models.Parent]{IsLoading: true})
	users := views.Users(teachers, parents)
	defer users.Close()

	svc := newUserService(env, new(MockProvider), users)
	ctx := context.Background()

	_, err := svc.List(ctx, manager)
	assert.ErrorIs(t, err, ErrDataLoading)

	teachers.Set(accessors.Result[models.Teacher]{Data: []models.Teacher{testutil.Teacher("T1", "Carmen", "Diaz", "")}})
	parents.Set(accessors.Result[models.Parent]{Data: []models.Parent{testutil.Parent("P1", "Ana", "Lopez")}})

	list, err := svc.List(ctx, manager)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "P1", list[0].ID)

	boom := errors.New("unavailable")
	parents.Set(accessors.Result[models.Parent]{Err: boom})
	_, err = svc.List(ctx, manager)
	assert.ErrorIs(t, err, boom)

	_, err = svc.List(ctx, teacher)
	assert.True(t, IsForbidden(err))
}

func TestActorFromTeachers(t *testing.T) {
	// Principals without a teacher record act with no role.
	teachers := []models.Teacher{testutil.Teacher("T1", "Carmen", "Diaz", models.RoleAdministrator)}
	resolved := auth.ResolveCurrentUser(&auth.Principal{UID: "T1"}, teachers)
	require.NotNil(t, resolved)
	assert.True(t, Actor{UID: "T1", Role: resolved.RoleOrDefault()}.CanManage())
	assert.Nil(t, auth.ResolveCurrentUser(&auth.Principal{UID: "P1"}, teachers))
	assert.False(t, Actor{UID: "P1"}.CanManage())
}
