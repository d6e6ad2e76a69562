package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/craftyclassroom/classroom-api/internal/models"
)

type tokenIssuer interface {
	Issue(identity models.Identity) (*models.TokenResponse, error)
}

// AuthHandler issues access tokens.
type AuthHandler struct {
	tokens tokenIssuer
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(tokens tokenIssuer) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// Issue godoc
// @Summary Issue access token
// @Description Sign a one hour bearer token for the identity returned by the client's sign-in provider
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.Identity true "Identity"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} response.Envelope
// @Router /jwt [post]
func (h *AuthHandler) Issue(c *gin.Context) {
	var identity models.Identity
	if !bindJSON(c, &identity, "invalid identity payload") {
		return
	}
	res, err := h.tokens.Issue(identity)
	reply(c, res, err)
}
