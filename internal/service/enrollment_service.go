package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/models"
	"github.com/craftyclassroom/classroom-api/internal/repository"
	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
	"github.com/craftyclassroom/classroom-api/pkg/export"
)

// Roster export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var rosterHeaders = []string{"Student", "Student Email", "Class", "Instructor", "Price", "Payment Status"}

// CreateEnrollmentRequest records a student's class selection. It is stored
// as sent, unnamed members included.
type CreateEnrollmentRequest = models.Enrollment

// ExportFile is a rendered roster ready to be served as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

type rosterRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// EnrollmentService serves the studentsData collection.
type EnrollmentService struct {
	enrollments repository.Collection[models.Enrollment]
	renderers   map[string]rosterRenderer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService creates an instance of EnrollmentService.
func NewEnrollmentService(enrollments repository.Collection[models.Enrollment], metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	renderers := map[string]rosterRenderer{
		ExportFormatCSV: export.NewCSVExporter(),
		ExportFormatPDF: export.NewPDFExporter(),
	}
	return &EnrollmentService{
		enrollments: enrollments,
		renderers:   renderers,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns every enrollment record.
func (s *EnrollmentService) List(ctx context.Context) ([]models.Enrollment, error) {
	return s.list(ctx, repository.Query{})
}

// ListPending returns selections awaiting payment.
func (s *EnrollmentService) ListPending(ctx context.Context) ([]models.Enrollment, error) {
	return s.list(ctx, repository.Query{Filter: map[string]interface{}{"paymentStatus": models.PaymentStatusPending}})
}

// ListPaid returns paid enrollments.
func (s *EnrollmentService) ListPaid(ctx context.Context) ([]models.Enrollment, error) {
	return s.list(ctx, repository.Query{Filter: map[string]interface{}{"paymentStatus": models.PaymentStatusPaid}})
}

func (s *EnrollmentService) list(ctx context.Context, q repository.Query) ([]models.Enrollment, error) {
	items, err := s.enrollments.List(ctx, q)
	if err != nil {
		return nil, storeError(s.logger, err, "enrollment", "list")
	}
	return items, nil
}

// Get returns one enrollment.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	item, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "enrollment", "load")
	}
	return item, nil
}

// Create inserts a selection. The payment status defaults to pending.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.InsertResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	doc := req
	if doc.PaymentStatus == "" {
		doc.PaymentStatus = models.PaymentStatusPending
	}

	res, err := s.enrollments.Insert(ctx, &doc)
	if err != nil {
		return nil, storeError(s.logger, err, "enrollment", "create")
	}
	return res, nil
}

// Delete removes one enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id string) (*models.DeleteResult, error) {
	res, err := s.enrollments.DeleteByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "enrollment", "delete")
	}
	return res, nil
}

// Export renders every enrollment as a roster in the requested format.
func (s *EnrollmentService) Export(ctx context.Context, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	items, err := s.list(ctx, repository.Query{})
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(buildRoster(items))
	if err != nil {
		s.logger.Error("failed to render roster", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
	}
	s.metrics.RecordExport(format)

	return &ExportFile{
		Filename:    fmt.Sprintf("enrollments-%s.%s", s.now().UTC().Format("20060102-150405"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func buildRoster(items []models.Enrollment) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		price := ""
		if item.Price != nil {
			price = strconv.FormatFloat(*item.Price, 'f', 2, 64)
		}
		rows = append(rows, map[string]string{
			"Student":        item.StudentName,
			"Student Email":  item.StudentEmail,
			"Class":          item.ClassName,
			"Instructor":     item.InstructorName,
			"Price":          price,
			"Payment Status": string(item.PaymentStatus),
		})
	}
	return export.Dataset{Title: "Enrollment Roster", Headers: rosterHeaders, Rows: rows}
}
