package transfer

import (
	"encoding/json"
	"errors"
	"net/http"

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

type transferRequest struct {
	ToUserID    uuid.UUID `json:"to_user_id" validate:"required"`
	Amount      int64     `json:"amount" validate:"required,gt=0"`
	Description string    `json:"description" validate:"max=500"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	result, err := h.svc.Transfer(r.Context(), userID, req.ToUserID, req.Amount, req.Description, middleware.GetRole(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInvalidAmount):
			response.BadRequest(w, "amount must be greater than zero")
		case errors.Is(err, ErrInvalidTarget):
			response.BadRequest(w, "cannot transfer to yourself or an unknown user")
		case errors.Is(err, ledger.ErrInsufficientBalance):
			response.Conflict(w, "insufficient balance")
		case errors.Is(err, ledger.ErrAccountNotFound):
			response.NotFound(w, "account not found")
		case errors.Is(err, ledger.ErrIndeterminate):
			response.Indeterminate(w)
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "TRANSFER_FAILED", "Failed to execute transfer", err)
		}
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelTransactions, events.Event{
		Kind:     "transfer",
		UserID:   req.ToUserID,
		Amount:   req.Amount,
		EntityID: result.InTxID.String(),
	})

	response.Created(w, result)
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	return r
}
