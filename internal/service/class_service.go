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
	cacheKeyApprovedClasses = "classes:approved"
	cacheKeyPopularClasses  = "classes:popular"
	cachePatternClasses     = "classes:*"
	popularClassLimit       = 6
)

// CreateClassRequest is an instructor's class submission. It is stored as
// sent, unnamed members included.
type CreateClassRequest = models.Class

// UpdateClassRequest carries the editable class fields. Absent fields are
// left untouched.
type UpdateClassRequest struct {
	ClassName      *string  `json:"className"`
	ClassImage     *string  `json:"classImage"`
	Price          *float64 `json:"price"`
	AvailableSeats *int     `json:"availableSeats"`
}

func (r UpdateClassRequest) fields() map[string]interface{} {
	fields := make(map[string]interface{}, 4)
	if r.ClassName != nil {
		fields["className"] = *r.ClassName
	}
	if r.ClassImage != nil {
		fields["classImage"] = *r.ClassImage
	}
	if r.Price != nil {
		fields["price"] = *r.Price
	}
	if r.AvailableSeats != nil {
		fields["availableSeats"] = *r.AvailableSeats
	}
	return fields
}

// UpdateClassStatusRequest moves a class through review.
type UpdateClassStatusRequest struct {
	Status models.ClassStatus `json:"status" validate:"required,oneof=pending approved denied"`
}

// UpdateFeedbackRequest attaches reviewer feedback.
type UpdateFeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// ClassService serves the classes collection.
type ClassService struct {
	classes   repository.Collection[models.Class]
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService creates an instance of ClassService.
func NewClassService(classes repository.Collection[models.Class], cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{classes: classes, cache: cache, validator: validate, logger: logger}
}

// List returns every class regardless of status.
func (s *ClassService) List(ctx context.Context) ([]models.Class, error) {
	classes, err := s.classes.List(ctx, repository.Query{})
	if err != nil {
		return nil, storeError(s.logger, err, "class", "list")
	}
	return classes, nil
}

// Get returns one class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.classes.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "class", "load")
	}
	return class, nil
}

// ListApproved returns classes open for enrollment.
func (s *ClassService) ListApproved(ctx context.Context) ([]models.Class, error) {
	classes, err := readThrough(ctx, s.cache, cacheKeyApprovedClasses, func() ([]models.Class, error) {
		return s.classes.List(ctx, repository.Query{
			Filter: map[string]interface{}{"status": models.ClassStatusApproved},
		})
	})
	if err != nil {
		return nil, storeError(s.logger, err, "class", "list")
	}
	return classes, nil
}

// ListPopular returns the six approved classes with the most enrolled
// students, as cards.
func (s *ClassService) ListPopular(ctx context.Context) ([]models.Class, error) {
	classes, err := readThrough(ctx, s.cache, cacheKeyPopularClasses, func() ([]models.Class, error) {
		return s.classes.List(ctx, repository.Query{
			Filter: map[string]interface{}{"status": models.ClassStatusApproved},
			Fields: models.ClassCardFields,
			SortBy: "totalEnrolledStudents",
			Order:  repository.Descending,
			Limit:  popularClassLimit,
		})
	})
	if err != nil {
		return nil, storeError(s.logger, err, "class", "list")
	}
	return classes, nil
}

// Create inserts a submitted class. The status defaults to pending.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.InsertResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	doc := req
	if doc.Status == "" {
		doc.Status = models.ClassStatusPending
	}

	res, err := s.classes.Insert(ctx, &doc)
	if err != nil {
		return nil, storeError(s.logger, err, "class", "create")
	}
	s.cache.Invalidate(ctx, cachePatternClasses)
	return res, nil
}

// Update overwrites the editable fields of a class, creating it under the
// given id when it does not exist.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.UpdateResult, error) {
	return s.update(ctx, id, req.fields(), true)
}

// UpdateStatus transitions a class to a new review status.
func (s *ClassService) UpdateStatus(ctx context.Context, id string, req UpdateClassStatusRequest) (*models.UpdateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class status")
	}
	return s.update(ctx, id, map[string]interface{}{"status": req.Status}, false)
}

// UpdateFeedback attaches reviewer feedback to a class.
func (s *ClassService) UpdateFeedback(ctx context.Context, id string, req UpdateFeedbackRequest) (*models.UpdateResult, error) {
	return s.update(ctx, id, map[string]interface{}{"feedback": req.Feedback}, false)
}

func (s *ClassService) update(ctx context.Context, id string, fields map[string]interface{}, upsert bool) (*models.UpdateResult, error) {
	res, err := s.classes.UpdateByID(ctx, id, fields, upsert)
	if err != nil {
		return nil, storeError(s.logger, err, "class", "update")
	}
	s.cache.Invalidate(ctx, cachePatternClasses)
	return res, nil
}
