package reset_subscription

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	subscriptionService "github.com/m04kA/SMC-SalonBookingService/internal/service/subscription"
	"github.com/m04kA/SMC-SalonBookingService/internal/service/subscription/models"
)

const (
	msgInvalidSalonID       = "некорректный ID салона"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidPeriod        = "некорректные границы периода, ожидается YYYY-MM-DD"
	msgSubscriptionNotFound = "подписка салона не найдена"
)

// ResetPeriodRequest HTTP request model
type ResetPeriodRequest struct {
	PeriodStart string `json:"periodStart"` // "2026-09-01"
	PeriodEnd   string `json:"periodEnd"`   // "2026-10-01"
}

type Handler struct {
	service SubscriptionService
	logger  Logger
}

func NewHandler(service SubscriptionService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/salons/{salonId}/subscription/reset
// Триггер нового биллингового периода от внешнего биллинга
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	salonID, err := strconv.ParseInt(mux.Vars(r)["salonId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidSalonID)
		return
	}

	var req ResetPeriodRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /salons/{id}/subscription/reset - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	periodStart, err := time.Parse(domain.DateFormat, req.PeriodStart)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}
	periodEnd, err := time.Parse(domain.DateFormat, req.PeriodEnd)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}

	result, err := h.service.ResetPeriod(r.Context(), salonID, &models.ResetPeriodRequest{
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		switch {
		case errors.Is(err, subscriptionService.ErrSubscriptionNotFound):
			h.logger.Warn("POST /salons/{id}/subscription/reset - Not found: salon_id=%d", salonID)
			handlers.RespondNotFound(w, msgSubscriptionNotFound)

		case errors.Is(err, subscriptionService.ErrInvalidPeriod):
			h.logger.Warn("POST /salons/{id}/subscription/reset - Invalid period: salon_id=%d", salonID)
			handlers.RespondBadRequest(w, msgInvalidPeriod)

		default:
			h.logger.Error("POST /salons/{id}/subscription/reset - Failed: salon_id=%d, error=%v", salonID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /salons/{id}/subscription/reset - Period reset: salon_id=%d, period=%s..%s",
		salonID, req.PeriodStart, req.PeriodEnd)
	handlers.RespondJSON(w, http.StatusOK, result)
}
