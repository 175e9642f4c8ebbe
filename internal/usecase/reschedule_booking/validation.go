package reschedule_booking

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/calendar"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.BookingID == uuid.Nil {
		return fmt.Errorf("%w: bookingID is required", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}

	return nil
}

// mapCalendarError транслирует ошибки календарных правил в ошибки usecase
func mapCalendarError(err error) error {
	switch {
	case errors.Is(err, calendar.ErrClosedDay), errors.Is(err, calendar.ErrBlockedDate):
		return ErrSalonClosed
	case errors.Is(err, calendar.ErrOutsideHours), errors.Is(err, calendar.ErrNotOnGrid):
		return ErrInvalidTimeSlot
	case errors.Is(err, calendar.ErrTooSoon):
		return ErrTooLateToBook
	case errors.Is(err, calendar.ErrTooFar):
		return ErrDateTooFarInFuture
	default:
		return fmt.Errorf("%w: calendar validation: %v", ErrInternal, err)
	}
}
