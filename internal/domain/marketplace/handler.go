package marketplace

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

type createServiceRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	MaxClients  int    `json:"max_clients" validate:"min=0"`
}

func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req createServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	listing, err := h.svc.CreateListing(r.Context(), userID, req.Title, req.Description, req.Price, req.MaxClients)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidAmount) {
			response.BadRequest(w, "price must be greater than zero")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SERVICE_CREATION_FAILED", "Failed to create service", err)
		return
	}

	response.Created(w, listing)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	services, err := h.svc.ListServices(r.Context(), limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "SERVICE_LIST_FAILED", "Failed to list services", err)
		return
	}

	response.OK(w, services)
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	serviceID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid service id")
		return
	}

	booking, err := h.svc.Book(r.Context(), serviceID, userID, middleware.GetRole(r.Context()))
	if err != nil {
		h.writeBookingError(w, r, err)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelBookings, events.Event{
		Kind:     "booking_confirmed",
		UserID:   booking.ProviderID,
		Amount:   booking.TotalPrice,
		EntityID: booking.ID.String(),
	})

	response.Created(w, booking)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	booking, err := h.svc.Complete(r.Context(), bookingID, userID)
	if err != nil {
		h.writeBookingError(w, r, err)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelBookings, events.Event{
		Kind:     "booking_completed",
		UserID:   booking.ClientID,
		EntityID: booking.ID.String(),
	})

	response.OK(w, booking)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	bookingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return
	}

	booking, err := h.svc.Cancel(r.Context(), bookingID, userID)
	if err != nil {
		h.writeBookingError(w, r, err)
		return
	}

	h.publisher.Publish(r.Context(), events.ChannelBookings, events.Event{
		Kind:     "booking_cancelled",
		UserID:   booking.ClientID,
		Amount:   booking.TotalPrice,
		EntityID: booking.ID.String(),
	})

	response.OK(w, booking)
}

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	bookings, err := h.svc.ListBookings(r.Context(), userID, limit, offset)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "BOOKING_LIST_FAILED", "Failed to list bookings", err)
		return
	}

	response.OK(w, bookings)
}

func (h *Handler) writeBookingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrServiceNotFound), errors.Is(err, ErrBookingNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInactiveService), errors.Is(err, ErrOwnService):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		response.Conflict(w, "service capacity exceeded")
	case errors.Is(err, ErrInvalidState):
		response.Conflict(w, "booking already completed or cancelled")
	case errors.Is(err, ErrNotProvider), errors.Is(err, ErrNotParticipant):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		response.Conflict(w, "insufficient balance")
	case errors.Is(err, ledger.ErrAccountNotFound):
		response.NotFound(w, "account not found")
	case errors.Is(err, ledger.ErrIndeterminate):
		response.Indeterminate(w)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "BOOKING_OPERATION_FAILED", "Failed to process booking", err)
	}
}

// Routes mounts marketplace routes. Listing browsing is public; everything
// else requires auth.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/services", h.ListServices)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/services", h.CreateService)
		r.Post("/services/{id}/book", h.Book)
		r.Get("/bookings", h.ListBookings)
		r.Post("/bookings/{id}/complete", h.Complete)
		r.Post("/bookings/{id}/cancel", h.Cancel)
	})
	return r
}
