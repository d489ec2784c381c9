package conversion

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/luminaria/luminaria-api/internal/domain/ledger"
	"github.com/luminaria/luminaria-api/internal/middleware"
	"github.com/luminaria/luminaria-api/internal/pkg/errorhandler"
	"github.com/luminaria/luminaria-api/internal/pkg/events"
	"github.com/luminaria/luminaria-api/internal/pkg/response"
	"github.com/luminaria/luminaria-api/internal/pkg/validator"
)

type Handler struct {
	svc       *Service
	publisher *events.Publisher
}

func NewHandler(svc *Service, publisher *events.Publisher) *Handler {
	return &Handler{svc: svc, publisher: publisher}
}

type conversionRequestBody struct {
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod  string `json:"payment_method" validate:"required,payment_method"`
	PaymentDetails string `json:"payment_details" validate:"required,max=1000"`
}

type withdrawalRequestBody struct {
	Amount         int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod  string `json:"payment_method" validate:"required,payment_method"`
	PaymentDetails string `json:"payment_details" validate:"required,max=1000"`
}

type reviewRequestBody struct {
	Action ReviewAction `json:"action" validate:"required,review_action"`
	Notes  string       `json:"notes" validate:"max=1000"`
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil || amount <= 0 {
		response.BadRequest(w, "amount must be a positive integer")
		return
	}

	quote, err := h.svc.QuoteConversion(amount)
	if err != nil {
		response.BadRequest(w, "amount outside the allowed conversion range")
		return
	}
	response.OK(w, quote)
}

func (h *Handler) CreateConversion(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var body conversionRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(body); details != nil {
		response.ValidationError(w, details)
		return
	}

	req, err := h.svc.RequestConversion(r.Context(), userID, body.Amount, body.PaymentMethod, body.PaymentDetails, middleware.GetRole(r.Context()))
	if err != nil {
		h.writeRequestError(w, r, err)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelConversions, events.Event{
		Kind:     "conversion_requested",
		UserID:   userID,
		Amount:   req.LuminariasAmount,
		EntityID: req.ID.String(),
	})

	response.Created(w, req)
}

func (h *Handler) ListConversions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	reqs, err := h.svc.ListConversions(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "CONVERSION_LIST_FAILED", "Failed to list conversion requests", err)
		return
	}
	response.OK(w, reqs)
}

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var body withdrawalRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(body); details != nil {
		response.ValidationError(w, details)
		return
	}

	req, err := h.svc.RequestWithdrawal(r.Context(), userID, body.Amount, body.PaymentMethod, body.PaymentDetails, middleware.GetRole(r.Context()))
	if err != nil {
		h.writeRequestError(w, r, err)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelConversions, events.Event{
		Kind:     "withdrawal_requested",
		UserID:   userID,
		Amount:   req.OriginalAmount,
		EntityID: req.ID.String(),
	})

	response.Created(w, req)
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, offset := pagination(r)
	reqs, err := h.svc.ListWithdrawals(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "WITHDRAWAL_LIST_FAILED", "Failed to list withdrawal requests", err)
		return
	}
	response.OK(w, reqs)
}

func (h *Handler) PendingConversions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	reqs, err := h.svc.PendingConversions(r.Context(), limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "CONVERSION_QUEUE_FAILED", "Failed to list pending conversions", err)
		return
	}
	response.OK(w, reqs)
}

func (h *Handler) ReviewConversion(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request ID")
		return
	}

	var body reviewRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(body); details != nil {
		response.ValidationError(w, details)
		return
	}

	req, err := h.svc.ReviewConversion(r.Context(), requestID, body.Action, adminID, body.Notes)
	if err != nil {
		h.writeReviewError(w, r, err)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelConversions, events.Event{
		Kind:     "conversion_" + string(req.Status),
		UserID:   req.UserID,
		Amount:   req.LuminariasAmount,
		EntityID: req.ID.String(),
	})

	response.OK(w, req)
}

func (h *Handler) PendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	reqs, err := h.svc.PendingWithdrawals(r.Context(), limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "WITHDRAWAL_QUEUE_FAILED", "Failed to list pending withdrawals", err)
		return
	}
	response.OK(w, reqs)
}

func (h *Handler) ReviewWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid request ID")
		return
	}

	var body reviewRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(body); details != nil {
		response.ValidationError(w, details)
		return
	}

	req, err := h.svc.ReviewWithdrawal(r.Context(), requestID, body.Action, adminID, body.Notes)
	if err != nil {
		h.writeReviewError(w, r, err)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelConversions, events.Event{
		Kind:     "withdrawal_" + string(req.Status),
		UserID:   req.UserID,
		Amount:   req.OriginalAmount,
		EntityID: req.ID.String(),
	})

	response.OK(w, req)
}

func (h *Handler) writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrOutOfRange):
		response.BadRequest(w, "amount outside the allowed range")
	case errors.Is(err, ErrNotEligible):
		response.Forbidden(w, "creator level too low for conversion")
	case errors.Is(err, ledger.ErrInsufficientBalance):
		response.Conflict(w, "insufficient balance")
	case errors.Is(err, ledger.ErrInvalidAmount):
		response.BadRequest(w, "amount must be greater than zero")
	case errors.Is(err, ledger.ErrIndeterminate):
		response.Indeterminate(w)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "REQUEST_CREATION_FAILED", "Failed to create request", err)
	}
}

func (h *Handler) writeReviewError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRequestNotFound):
		response.NotFound(w, "request not found")
	case errors.Is(err, ErrAlreadyProcessed):
		response.Conflict(w, "request already processed")
	case errors.Is(err, ledger.ErrIndeterminate):
		response.Indeterminate(w)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "REQUEST_REVIEW_FAILED", "Failed to review request", err)
	}
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// ConversionRoutes mounts the member-facing conversion endpoints.
func (h *Handler) ConversionRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/quote", h.Quote)
	r.Post("/", h.CreateConversion)
	r.Get("/", h.ListConversions)
	return r
}

// WithdrawalRoutes mounts the member-facing withdrawal endpoints.
func (h *Handler) WithdrawalRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.CreateWithdrawal)
	r.Get("/", h.ListWithdrawals)
	return r
}

// AdminRoutes mounts the review queues, admin-only.
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Get("/conversions/pending", h.PendingConversions)
	r.Post("/conversions/{id}/review", h.ReviewConversion)
	r.Get("/withdrawals/pending", h.PendingWithdrawals)
	r.Post("/withdrawals/{id}/review", h.ReviewWithdrawal)
	return r
}
