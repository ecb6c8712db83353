package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	paymentapp "github.com/retailpos/backend/internal/application/payment"
	"github.com/retailpos/backend/internal/domain/payment"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/gateway"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
)

// WebhookHandler receives gateway webhook deliveries. Signature
// verification happens here, against the raw body, before the payload
// reaches the application layer.
type WebhookHandler struct {
	BaseHandler
	service   *paymentapp.Service
	verifiers map[payment.Gateway]gateway.SignatureVerifier
	logger    *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service *paymentapp.Service, verifiers map[payment.Gateway]gateway.SignatureVerifier, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:   service,
		verifiers: verifiers,
		logger:    logger,
	}
}

// Receive handles POST /webhooks/:gateway. Replays and untracked event
// types are acknowledged with 200 so the processor stops retrying.
func (h *WebhookHandler) Receive(c *gin.Context) {
	gatewayName := c.Param("gateway")

	verifier, ok := h.verifiers[payment.Gateway(gatewayName)]
	if !ok {
		h.HandleError(c, shared.ErrUnsupportedGateway)
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) == 0 {
		h.BadRequest(c, "Empty webhook payload")
		return
	}

	signature := c.GetHeader(gateway.SignatureHeader(payment.Gateway(gatewayName)))
	if err := verifier.Verify(payload, signature); err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			h.logger.Warn("webhook signature rejected",
				zap.String("gateway", gatewayName),
				zap.String("request_id", getRequestID(c)))
			h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
			return
		}
		h.HandleError(c, err)
		return
	}

	resp, err := h.service.HandleWebhook(c.Request.Context(), gatewayName, payload)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateWebhook) {
			h.Success(c, &paymentapp.WebhookResponse{Ignored: true})
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}
