package reschedule_booking

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonBookingService/internal/api/handlers"
	rescheduleBooking "github.com/m04kA/SMC-SalonBookingService/internal/usecase/reschedule_booking"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDateOrTime  = "некорректные дата или время, ожидается YYYY-MM-DD и HH:MM"
	msgBookingNotFound    = "бронирование не найдено"
	msgPolicyViolation    = "срок бесплатного переноса истек"
	msgNotActive          = "бронирование уже завершено или отменено"
	msgSlotTaken          = "выбранный временной слот уже занят"
	msgSalonClosed        = "салон закрыт в выбранную дату"
	msgInvalidTimeSlot    = "некорректный временной слот"
	msgTooLateToBook      = "слишком поздно для переноса на этот слот"
	msgDateTooFar         = "дата за пределами горизонта бронирования"
)

type Handler struct {
	useCase RescheduleBookingUseCase
	logger  Logger
}

func NewHandler(useCase RescheduleBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}
// Перенос бронирования по capability-токену
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	bookingID, err := uuid.Parse(mux.Vars(r)["bookingId"])
	if err != nil {
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req RescheduleBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(bookingID)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id} - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDateOrTime)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, rescheduleBooking.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id} - Booking not found: booking_id=%s", bookingID)
			handlers.RespondNotFound(w, msgBookingNotFound)

		case errors.Is(err, rescheduleBooking.ErrPolicyViolation):
			h.logger.Warn("PATCH /bookings/{id} - Cutoff passed: booking_id=%s", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgPolicyViolation)

		case errors.Is(err, rescheduleBooking.ErrNotActive):
			h.logger.Warn("PATCH /bookings/{id} - Not active: booking_id=%s", bookingID)
			handlers.RespondError(w, http.StatusConflict, msgNotActive)

		case errors.Is(err, rescheduleBooking.ErrSlotTaken):
			h.logger.Warn("PATCH /bookings/{id} - Slot taken: booking_id=%s, date=%s, time=%s", bookingID, req.Date, req.StartTime)
			handlers.RespondError(w, http.StatusConflict, msgSlotTaken)

		case errors.Is(err, rescheduleBooking.ErrSalonClosed):
			h.logger.Warn("PATCH /bookings/{id} - Salon closed: booking_id=%s, date=%s", bookingID, req.Date)
			handlers.RespondBadRequest(w, msgSalonClosed)

		case errors.Is(err, rescheduleBooking.ErrInvalidTimeSlot):
			h.logger.Warn("PATCH /bookings/{id} - Invalid time slot: booking_id=%s, time=%s", bookingID, req.StartTime)
			handlers.RespondBadRequest(w, msgInvalidTimeSlot)

		case errors.Is(err, rescheduleBooking.ErrTooLateToBook):
			h.logger.Warn("PATCH /bookings/{id} - Too late: booking_id=%s, date=%s, time=%s", bookingID, req.Date, req.StartTime)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, rescheduleBooking.ErrDateTooFarInFuture):
			h.logger.Warn("PATCH /bookings/{id} - Date too far: booking_id=%s, date=%s", bookingID, req.Date)
			handlers.RespondBadRequest(w, msgDateTooFar)

		case errors.Is(err, rescheduleBooking.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("PATCH /bookings/{id} - Failed: booking_id=%s, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id} - Booking rescheduled: booking_id=%s, new_start=%s",
		bookingID, result.StartTime.Format("2006-01-02 15:04"))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
