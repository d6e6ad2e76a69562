package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/craftyclassroom/classroom-api/internal/models"
	"github.com/craftyclassroom/classroom-api/internal/service"
)

type classService interface {
	List(ctx context.Context) ([]models.Class, error)
	Get(ctx context.Context, id string) (*models.Class, error)
	ListApproved(ctx context.Context) ([]models.Class, error)
	ListPopular(ctx context.Context) ([]models.Class, error)
	Create(ctx context.Context, req service.CreateClassRequest) (*models.InsertResult, error)
	Update(ctx context.Context, id string, req service.UpdateClassRequest) (*models.UpdateResult, error)
	UpdateStatus(ctx context.Context, id string, req service.UpdateClassStatusRequest) (*models.UpdateResult, error)
	UpdateFeedback(ctx context.Context, id string, req service.UpdateFeedbackRequest) (*models.UpdateResult, error)
}

// ClassHandler exposes the classes collection.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Success 200 {array} models.Class
// @Router /allclasses [get]
func (h *ClassHandler) List(c *gin.Context) {
	classes, err := h.service.List(c.Request.Context())
	reply(c, classes, err)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} models.Class
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /allclasses/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.service.Get(c.Request.Context(), c.Param("id"))
	reply(c, class, err)
}

// Update godoc
// @Summary Update editable class fields
// @Description Overwrites className, classImage, price and availableSeats; creates the class when the id is unknown
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassRequest true "Fields"
// @Success 200 {object} models.UpdateResult
// @Failure 400 {object} response.Envelope
// @Router /allclasses/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.UpdateClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	res, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	reply(c, res, err)
}

// UpdateStatus godoc
// @Summary Approve or deny a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassStatusRequest true "Status"
// @Success 200 {object} models.UpdateResult
// @Failure 400 {object} response.Envelope
// @Router /updateClassStatus/{id} [patch]
func (h *ClassHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateClassStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	res, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	reply(c, res, err)
}

// UpdateFeedback godoc
// @Summary Attach reviewer feedback
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateFeedbackRequest true "Feedback"
// @Success 200 {object} models.UpdateResult
// @Failure 400 {object} response.Envelope
// @Router /updateFeedback/{id} [patch]
func (h *ClassHandler) UpdateFeedback(c *gin.Context) {
	var req service.UpdateFeedbackRequest
	if !bindJSON(c, &req, "invalid feedback payload") {
		return
	}
	res, err := h.service.UpdateFeedback(c.Request.Context(), c.Param("id"), req)
	reply(c, res, err)
}

// Approved godoc
// @Summary List approved classes
// @Tags Classes
// @Produce json
// @Success 200 {array} models.Class
// @Router /approvedClasses [get]
func (h *ClassHandler) Approved(c *gin.Context) {
	classes, err := h.service.ListApproved(c.Request.Context())
	reply(c, classes, err)
}

// Popular godoc
// @Summary Top six approved classes by enrolled students
// @Tags Classes
// @Produce json
// @Success 200 {array} models.Class
// @Router /popularClasses [get]
func (h *ClassHandler) Popular(c *gin.Context) {
	classes, err := h.service.ListPopular(c.Request.Context())
	reply(c, classes, err)
}

// Create godoc
// @Summary Submit a class for review
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class"
// @Success 200 {object} models.InsertResult
// @Failure 400 {object} response.Envelope
// @Router /newClass [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if !bindJSON(c, &req, "invalid class payload") {
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	reply(c, res, err)
}
