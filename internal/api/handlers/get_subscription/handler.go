package get_subscription

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonBookingService/internal/api/handlers"
	subscriptionService "github.com/m04kA/SMC-SalonBookingService/internal/service/subscription"
)

const (
	msgInvalidSalonID       = "некорректный ID салона"
	msgSubscriptionNotFound = "подписка салона не найдена"
)

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

// Handle GET /api/v1/salons/{salonId}/subscription
// Состояние квоты салона для сотрудников
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	salonID, err := strconv.ParseInt(mux.Vars(r)["salonId"], 10, 64)
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidSalonID)
		return
	}

	result, err := h.service.GetBySalonID(r.Context(), salonID)
	if err != nil {
		switch {
		case errors.Is(err, subscriptionService.ErrSubscriptionNotFound):
			h.logger.Warn("GET /salons/{id}/subscription - Not found: salon_id=%d", salonID)
			handlers.RespondNotFound(w, msgSubscriptionNotFound)

		default:
			h.logger.Error("GET /salons/{id}/subscription - Failed: salon_id=%d, error=%v", salonID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /salons/{id}/subscription - Fetched: salon_id=%d, tier=%s", salonID, result.Tier)
	handlers.RespondJSON(w, http.StatusOK, result)
}
