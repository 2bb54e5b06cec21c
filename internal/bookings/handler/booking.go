package handler

import (
	"encoding/json"
	"net/http"

	"homigo/internal/bookings/service"
	"homigo/pkg/auth"
	apperrors "homigo/pkg/errors"
	httputil "homigo/pkg/http"
	"homigo/pkg/logger"
	"homigo/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	auth    *auth.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, authenticator *auth.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    authenticator,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Code:  apperrors.CodeBadRequest,
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	booking, err := h.service.Create(r.Context(), requester(r), &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"), requester(r))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	bookings, total, err := h.service.ListMine(r.Context(), requester(r), limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"), requester(r))
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ConfirmStay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.ConfirmStay(r.Context(), ps.ByName("id"), requester(r))
	if err != nil {
		h.writeError(w, "ConfirmStay", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "ConfirmStay", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()

	checkIn, err := httputil.ParseDate("check_in", query.Get("check_in"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}
	checkOut, err := httputil.ParseDate("check_out", query.Get("check_out"))
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	availability, err := h.service.CheckAvailability(r.Context(), ps.ByName("id"), checkIn, checkOut)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

// requester is the authenticated user id. Routes that call it are wrapped by
// auth.Require, so the principal is always present.
func requester(r *http.Request) string {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p.UserID
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.auth.Require(h.log, h.Create, auth.RoleCustomer))
	router.GET("/api/v1/bookings", h.auth.Require(h.log, h.ListMine, auth.RoleCustomer))
	router.GET("/api/v1/bookings/id/:id", h.auth.Require(h.log, h.GetByID, auth.RoleCustomer, auth.RoleOwner))
	router.DELETE("/api/v1/bookings/id/:id", h.auth.Require(h.log, h.Cancel, auth.RoleCustomer))
	router.POST("/api/v1/bookings/id/:id/confirm", h.auth.Require(h.log, h.ConfirmStay, auth.RoleOwner))
	router.GET("/api/v1/listings/id/:id/availability", h.Availability)
}
