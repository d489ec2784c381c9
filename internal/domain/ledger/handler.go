package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/luminaria/luminaria-api/internal/middleware"
	"github.com/luminaria/luminaria-api/internal/pkg/errorhandler"
	"github.com/luminaria/luminaria-api/internal/pkg/response"
	"github.com/luminaria/luminaria-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Balance returns the caller's account state.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	acc, err := h.svc.GetBalance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			// No mutations yet: report the zero account rather than 404
			response.OK(w, Account{UserID: userID})
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "BALANCE_READ_FAILED", "Failed to read balance", err)
		return
	}

	response.OK(w, acc)
}

// Transactions returns the caller's transaction history.
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	q := r.URL.Query()
	f := Filters{
		Category: q.Get("category"),
		Type:     q.Get("type"),
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateTo = &t
		}
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	transactions, err := h.svc.ListTransactions(r.Context(), userID, f, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "TRANSACTION_LIST_FAILED", "Failed to list transactions", err)
		return
	}

	response.OK(w, transactions)
}

type adjustRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Delta  int64     `json:"delta" validate:"required"`
	Notes  string    `json:"notes"`
}

// AdminAdjust applies an audited balance correction that may push the
// balance negative.
func (h *Handler) AdminAdjust(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetUserID(r.Context())

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	txID, err := h.svc.AdminAdjust(r.Context(), adminID, req.UserID, req.Delta, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount):
			response.BadRequest(w, "delta must be non-zero")
		case errors.Is(err, ErrIndeterminate):
			response.Indeterminate(w)
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "ADJUSTMENT_FAILED", "Failed to apply adjustment", err)
		}
		return
	}

	response.OK(w, map[string]interface{}{"transaction_id": txID})
}

// AdminSearch returns filtered transactions across all users.
func (h *Handler) AdminSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := SearchFilters{}

	if v := q.Get("user_id"); v != "" {
		f.UserID = &v
	}
	if v := q.Get("type"); v != "" {
		f.Type = &v
	}
	if v := q.Get("category"); v != "" {
		f.Category = &v
	}
	if v := q.Get("reference_id"); v != "" {
		f.ReferenceID = &v
	}
	if v := q.Get("reference_type"); v != "" {
		f.ReferenceType = &v
	}
	if v := q.Get("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateFrom = &t
		}
	}
	if v := q.Get("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.DateTo = &t
		}
	}
	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	transactions, err := h.svc.SearchTransactions(r.Context(), f)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "TRANSACTION_SEARCH_FAILED", "Failed to search transactions", err)
		return
	}

	response.OK(w, transactions)
}

// AdminIntegrity verifies the sum-of-transactions invariant for one account.
func (h *Handler) AdminIntegrity(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid user id")
		return
	}

	ok, err := h.svc.CheckIntegrity(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			response.NotFound(w, "account not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTEGRITY_CHECK_FAILED", "Failed to check account integrity", err)
		return
	}

	response.OK(w, map[string]interface{}{"user_id": userID, "consistent": ok})
}

// Routes mounts user-facing wallet routes.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/balance", h.Balance)
	r.Get("/transactions", h.Transactions)
	return r
}

// AdminRoutes mounts admin-only ledger routes.
func (h *Handler) AdminRoutes(authMiddleware, adminMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(adminMiddleware)
	r.Post("/adjust", h.AdminAdjust)
	r.Get("/transactions", h.AdminSearch)
	r.Get("/accounts/{id}/integrity", h.AdminIntegrity)
	return r
}
