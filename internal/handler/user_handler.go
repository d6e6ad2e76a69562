package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/craftyclassroom/classroom-api/internal/middleware"
	"github.com/craftyclassroom/classroom-api/internal/models"
	"github.com/craftyclassroom/classroom-api/internal/service"
)

type userService interface {
	List(ctx context.Context) ([]models.User, error)
	ListInstructors(ctx context.Context) ([]models.User, error)
	ListSixInstructors(ctx context.Context) ([]models.User, error)
	ListThreeStudents(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, req service.CreateUserRequest) (*models.InsertResult, error)
	UpdateRole(ctx context.Context, id string, req service.UpdateRoleRequest) (*models.UpdateResult, error)
}

// UserHandler exposes the users collection.
type UserHandler struct {
	service userService
	logger  *zap.Logger
}

// NewUserHandler constructs a user handler.
func NewUserHandler(svc userService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{service: svc, logger: logger}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	reply(c, users, err)
}

// Manage godoc
// @Summary List users for the admin dashboard
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.User
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /manageUsers [get]
func (h *UserHandler) Manage(c *gin.Context) {
	if identity := middleware.IdentityFromContext(c); identity != nil {
		h.logger.Debug("user management listing", zap.String("viewer", identity.Email))
	}
	users, err := h.service.List(c.Request.Context())
	reply(c, users, err)
}

// Instructors godoc
// @Summary List instructor profiles
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Router /allinstructors [get]
func (h *UserHandler) Instructors(c *gin.Context) {
	users, err := h.service.ListInstructors(c.Request.Context())
	reply(c, users, err)
}

// SixInstructors godoc
// @Summary List six instructor profiles ordered by name
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Router /sixInstructors [get]
func (h *UserHandler) SixInstructors(c *gin.Context) {
	users, err := h.service.ListSixInstructors(c.Request.Context())
	reply(c, users, err)
}

// ThreeStudents godoc
// @Summary List three student profiles
// @Tags Users
// @Produce json
// @Success 200 {array} models.User
// @Router /threeStudents [get]
func (h *UserHandler) ThreeStudents(c *gin.Context) {
	users, err := h.service.ListThreeStudents(c.Request.Context())
	reply(c, users, err)
}

// Create godoc
// @Summary Register a signed-in user
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body service.CreateUserRequest true "User"
// @Success 200 {object} models.InsertResult
// @Failure 400 {object} response.Envelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if !bindJSON(c, &req, "invalid user payload") {
		return
	}
	res, err := h.service.Create(c.Request.Context(), req)
	reply(c, res, err)
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.UpdateRoleRequest true "Role"
// @Success 200 {object} models.UpdateResult
// @Failure 400 {object} response.Envelope
// @Router /updateRole/{id} [patch]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var req service.UpdateRoleRequest
	if !bindJSON(c, &req, "invalid role payload") {
		return
	}
	res, err := h.service.UpdateRole(c.Request.Context(), c.Param("id"), req)
	reply(c, res, err)
}
