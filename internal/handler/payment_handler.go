package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/craftyclassroom/classroom-api/pkg/errors"
	"github.com/craftyclassroom/classroom-api/pkg/response"
)

// PaymentHandler holds the payment intent placeholder. No provider is called.
type PaymentHandler struct {
	configured bool
	logger     *zap.Logger
}

// NewPaymentHandler constructs a payment handler. secretKey only reports
// whether a provider key was supplied.
func NewPaymentHandler(secretKey string, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{configured: secretKey != "", logger: logger}
}

// CreateIntent godoc
// @Summary Create a payment intent (not implemented)
// @Tags Payments
// @Accept json
// @Produce json
// @Failure 400 {object} response.Envelope
// @Failure 501 {object} response.Envelope
// @Router /create-payment-intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var body map[string]interface{}
	if !bindJSON(c, &body, "invalid payment payload") {
		return
	}
	h.logger.Info("payment intent requested", zap.Bool("provider_configured", h.configured))
	response.Error(c, appErrors.Clone(appErrors.ErrNotImplemented, "payment intents are not available"))
}
