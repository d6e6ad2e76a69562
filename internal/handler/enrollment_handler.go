package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/craftyclassroom/classroom-api/internal/models"
	"github.com/craftyclassroom/classroom-api/internal/service"
	"github.com/craftyclassroom/classroom-api/pkg/response"
)

type enrollmentService interface {
	List(ctx context.Context) ([]models.Enrollment, error)
	ListPending(ctx context.Context) ([]models.Enrollment, error)
	ListPaid(ctx context.Context) ([]models.Enrollment, error)
	Get(ctx context.Context, id string) (*models.Enrollment, error)
	Create(ctx context.Context, req service.CreateEnrollmentRequest) (*models.InsertResult, error)
	Delete(ctx context.Context, id string) (*models.DeleteResult, error)
	Export(ctx context.Context, format string) (*service.ExportFile, error)
}

// EnrollmentHandler exposes the studentsData collection.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs an enrollment handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// List godoc
// @Summary List enrollment records
// @Tags Enrollments
// @Produce json
// @Success 200 {array} models.Enrollment
// @Router /studentsData [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	reply(c, items, err)
}

// Export godoc
// @Summary Download the enrollment roster
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /studentsData/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}

// Create godoc
// @Summary Select a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.CreateEnrollmentRequest true "Enrollment"
// @Success 200 {object} models.InsertResult
// @Failure 400 {object} response.Envelope
// @Router /studentsData [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	reply(c, res, err)
}

// Selected godoc
// @Summary List selections awaiting payment
// @Tags Enrollments
// @Produce json
// @Success 200 {array} models.Enrollment
// @Router /selectedClasses [get]
func (h *EnrollmentHandler) Selected(c *gin.Context) {
	items, err := h.service.ListPending(c.Request.Context())
	reply(c, items, err)
}

// Enrolled godoc
// @Summary List paid enrollments
// @Tags Enrollments
// @Produce json
// @Success 200 {array} models.Enrollment
// @Router /enrolledClasses [get]
func (h *EnrollmentHandler) Enrolled(c *gin.Context) {
	items, err := h.service.ListPaid(c.Request.Context())
	reply(c, items, err)
}

// Get godoc
// @Summary Get one enrollment
// @Description Served under both /selectedClasses/{id} and /payment/{id}
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} models.Enrollment
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /selectedClasses/{id} [get]
// @Router /payment/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	reply(c, item, err)
}

// Delete godoc
// @Summary Remove a selection
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} models.DeleteResult
// @Failure 400 {object} response.Envelope
// @Router /selectedClasses/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	res, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	reply(c, res, err)
}
