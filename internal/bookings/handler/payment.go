package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"homigo/internal/bookings/service"
	"homigo/internal/payments/gateway"
	"homigo/pkg/auth"
	apperrors "homigo/pkg/errors"
	httputil "homigo/pkg/http"
	"homigo/pkg/logger"
	"homigo/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const WebhookSignatureHeader = "X-Razorpay-Signature"

type PaymentHandler struct {
	service service.BookingService
	auth    *auth.Authenticator
	log     *logger.Logger
}

func NewPaymentHandler(service service.BookingService, authenticator *auth.Authenticator, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		auth:    authenticator,
		log:     log,
	}
}

func (h *PaymentHandler) Key(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, map[string]string{"key_id": h.service.PaymentKey()}); err != nil {
		h.log.Error("failed to write success response", "handler", "Key", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PaymentOrderRequest
	if !h.decode(w, r, "CreateOrder", &req) {
		return
	}
	order, err := h.service.InitiatePayment(r.Context(), requester(r), &req)
	if err != nil {
		h.writeError(w, "CreateOrder", err)
		return
	}

	if err := httputil.WriteCreated(w, order); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateOrder", "operation", "WriteCreated", "error", err)
	}
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PaymentVerification
	if !h.decode(w, r, "Verify", &req) {
		return
	}

	booking, err := h.service.ConfirmPayment(r.Context(), requester(r), &req)
	if err != nil {
		h.writeError(w, "Verify", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Verify", "operation", "WriteSuccess", "error", err)
	}
}

// Webhook verifies the signature over the exact bytes received, so the body
// is read raw and never re-encoded.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "Webhook", apperrors.InvalidInput("Failed to read request body"))
		return
	}

	h.acknowledge(w, "Webhook", h.service.HandleWebhook(r.Context(), body, r.Header.Get(WebhookSignatureHeader)))
}

func (h *PaymentHandler) StripeWebhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, "StripeWebhook", apperrors.InvalidInput("Failed to read request body"))
		return
	}

	h.acknowledge(w, "StripeWebhook", h.service.HandleStripeWebhook(r.Context(), body, r.Header.Get(gateway.StripeSignatureHeader)))
}

func (h *PaymentHandler) acknowledge(w http.ResponseWriter, handler string, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}); err != nil {
		h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", err)
	}
}

func (h *PaymentHandler) decode(w http.ResponseWriter, r *http.Request, handler string, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Code:  apperrors.CodeBadRequest,
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}
	return true
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/payments/key", h.auth.Require(h.log, h.Key, auth.RoleCustomer))
	router.POST("/api/v1/payments/orders", h.auth.Require(h.log, h.CreateOrder, auth.RoleCustomer))
	router.POST("/api/v1/payments/verify", h.auth.Require(h.log, h.Verify, auth.RoleCustomer))
	router.POST("/api/v1/payments/webhook", h.Webhook)
	router.POST("/api/v1/payments/webhook/stripe", h.StripeWebhook)
}
