package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/models"
	"github.com/craftyclassroom/classroom-api/internal/repository"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
)

func seedUsers(t *testing.T, svc *UserService, instructors, students int) {
	t.Helper()
	for i := 0; i < instructors; i++ {
		_, err := svc.Create(context.Background(), CreateUserRequest{
			Name:     fmt.Sprintf("Instructor %02d", instructors-i),
			Email:    fmt.Sprintf("instructor%d@example.com", i),
			Role:     models.RoleInstructor,
			PhotoURL: "https://img.example/i.png",
		})
		require.NoError(t, err)
	}
	for i := 0; i < students; i++ {
		_, err := svc.Create(context.Background(), CreateUserRequest{
			Name:  fmt.Sprintf("Student %d", i),
			Email: fmt.Sprintf("student%d@example.com", i),
		})
		require.NoError(t, err)
	}
}

func TestUserServiceCreateDefaultsRole(t *testing.T) {
	users := repository.NewMemoryCollection[models.User]()
	svc := NewUserService(users, nil, nil, zap.NewNop())

	res, err := svc.Create(context.Background(), CreateUserRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)

	stored, err := users.FindByID(context.Background(), res.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, stored.Role)
	assert.Equal(t, "ada@example.com", stored.Email)
}

func TestUserServiceCreateRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(repository.NewMemoryCollection[models.User](), nil, nil, nil)

	_, err := svc.Create(context.Background(), CreateUserRequest{Email: "ada@example.com", Role: "owner"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
	assert.Equal(t, 400, errorStatus(err))
}

func TestUserServiceShowcases(t *testing.T) {
	svc := NewUserService(repository.NewMemoryCollection[models.User](), nil, nil, nil)
	seedUsers(t, svc, 8, 5)
	ctx := context.Background()

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 13)

	instructors, err := svc.ListInstructors(ctx)
	require.NoError(t, err)
	assert.Len(t, instructors, 8)
	for _, u := range instructors {
		assert.Empty(t, u.Role)
		assert.NotEmpty(t, u.PhotoURL)
	}

	six, err := svc.ListSixInstructors(ctx)
	require.NoError(t, err)
	require.Len(t, six, 6)
	assert.Equal(t, "Instructor 01", six[0].Name)
	assert.Equal(t, "Instructor 06", six[5].Name)

	three, err := svc.ListThreeStudents(ctx)
	require.NoError(t, err)
	require.Len(t, three, 3)
	for _, u := range three {
		assert.Empty(t, u.Role)
		assert.Contains(t, u.Name, "Student")
	}
}

func TestUserServiceUpdateRole(t *testing.T) {
	users := repository.NewMemoryCollection[models.User]()
	svc := NewUserService(users, nil, nil, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateUserRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	res, err := svc.UpdateRole(ctx, created.InsertedID, UpdateRoleRequest{Role: models.RoleInstructor})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.ModifiedCount)

	stored, err := users.FindByID(ctx, created.InsertedID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructor, stored.Role)
	assert.Equal(t, "Ada", stored.Name)

	_, err = svc.UpdateRole(ctx, created.InsertedID, UpdateRoleRequest{Role: "owner"})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = svc.UpdateRole(ctx, created.InsertedID, UpdateRoleRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = svc.UpdateRole(ctx, "bogus", UpdateRoleRequest{Role: models.RoleAdmin})
	assert.Equal(t, appErrors.ErrInvalidID.Code, errorCode(err))
}

func TestUserServiceCachesShowcasesUntilWrite(t *testing.T) {
	users := &countingCollection[models.User]{Collection: repository.NewMemoryCollection[models.User]()}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, NewMetricsService(), time.Minute, nil, true)
	svc := NewUserService(users, cache, nil, nil)
	ctx := context.Background()
	seedUsers(t, svc, 2, 0)

	first, err := svc.ListInstructors(ctx)
	require.NoError(t, err)
	second, err := svc.ListInstructors(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, users.lists)
	assert.True(t, cacheRepo.has(cacheKeyInstructors))

	_, err = svc.Create(ctx, CreateUserRequest{Name: "Late", Email: "late@example.com", Role: models.RoleInstructor})
	require.NoError(t, err)
	assert.False(t, cacheRepo.has(cacheKeyInstructors))

	third, err := svc.ListInstructors(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 3)
	assert.Equal(t, 2, users.lists)
}

func TestUserServiceStoreFailure(t *testing.T) {
	svc := NewUserService(failingCollection[models.User]{err: errStoreDown}, nil, nil, nil)

	_, err := svc.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, errorCode(err))
	assert.NotContains(t, appErrors.FromError(err).Message, "connection reset")
	assert.ErrorIs(t, err, errStoreDown)
}
