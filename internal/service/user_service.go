package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/models"
	"github.com/craftyclassroom/classroom-api/internal/repository"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
)

const (
	cacheKeyInstructors     = "users:instructors"
	cacheKeySixInstructors  = "users:instructors:six"
	cacheKeyThreeStudents   = "users:students:three"
	cachePatternUsers       = "users:*"
	showcaseInstructorLimit = 6
	showcaseStudentLimit    = 3
)

// CreateUserRequest is the body of a sign-in registration. Provider fields
// beyond the named ones are stored too.
type CreateUserRequest = models.User

// UpdateRoleRequest changes a user's role.
type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" validate:"required,oneof=student instructor admin"`
}

// UserService serves the users collection.
type UserService struct {
	users     repository.Collection[models.User]
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(users repository.Collection[models.User], cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{users: users, cache: cache, validator: validate, logger: logger}
}

// List returns every user.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx, repository.Query{})
	if err != nil {
		return nil, storeError(s.logger, err, "user", "list")
	}
	return users, nil
}

// ListInstructors returns the public profile of every instructor.
func (s *UserService) ListInstructors(ctx context.Context) ([]models.User, error) {
	return s.listProfiles(ctx, cacheKeyInstructors, repository.Query{
		Filter: map[string]interface{}{"role": models.RoleInstructor},
		Fields: models.UserProfileFields,
	})
}

// ListSixInstructors returns six instructor profiles ordered by name.
func (s *UserService) ListSixInstructors(ctx context.Context) ([]models.User, error) {
	return s.listProfiles(ctx, cacheKeySixInstructors, repository.Query{
		Filter: map[string]interface{}{"role": models.RoleInstructor},
		Fields: models.UserProfileFields,
		SortBy: "name",
		Order:  repository.Ascending,
		Limit:  showcaseInstructorLimit,
	})
}

// ListThreeStudents returns three student profiles.
func (s *UserService) ListThreeStudents(ctx context.Context) ([]models.User, error) {
	return s.listProfiles(ctx, cacheKeyThreeStudents, repository.Query{
		Filter: map[string]interface{}{"role": models.RoleStudent},
		Fields: models.UserProfileFields,
		Limit:  showcaseStudentLimit,
	})
}

func (s *UserService) listProfiles(ctx context.Context, key string, q repository.Query) ([]models.User, error) {
	users, err := readThrough(ctx, s.cache, key, func() ([]models.User, error) {
		return s.users.List(ctx, q)
	})
	if err != nil {
		return nil, storeError(s.logger, err, "user", "list")
	}
	return users, nil
}

// Create inserts a user. The role defaults to student.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.InsertResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	doc := req
	if doc.Role == "" {
		doc.Role = models.RoleStudent
	}

	res, err := s.users.Insert(ctx, &doc)
	if err != nil {
		return nil, storeError(s.logger, err, "user", "create")
	}
	s.cache.Invalidate(ctx, cachePatternUsers)
	return res, nil
}

// UpdateRole overwrites the role of one user.
func (s *UserService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*models.UpdateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role")
	}

	res, err := s.users.UpdateByID(ctx, id, map[string]interface{}{"role": req.Role}, false)
	if err != nil {
		return nil, storeError(s.logger, err, "user", "update")
	}
	s.cache.Invalidate(ctx, cachePatternUsers)
	return res, nil
}
