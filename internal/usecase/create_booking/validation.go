package create_booking

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/m04kA/SMC-SalonBookingService/internal/calendar"
)

const (
	maxNameLength  = 200
	maxNotesLength = 1000
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.SalonID <= 0 {
		return fmt.Errorf("%w: salonID must be positive", ErrInvalidInput)
	}

	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.StaffID != nil && *req.StaffID <= 0 {
		return fmt.Errorf("%w: staffID must be positive", ErrInvalidInput)
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return fmt.Errorf("%w: customerName is required", ErrInvalidInput)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: customerName is too long", ErrInvalidInput)
	}

	if err := validatePhone(req.CustomerPhone); err != nil {
		return err
	}

	if req.CustomerEmail != nil && !strings.Contains(*req.CustomerEmail, "@") {
		return fmt.Errorf("%w: invalid customerEmail", ErrInvalidInput)
	}

	if req.Notes != nil && len(*req.Notes) > maxNotesLength {
		return fmt.Errorf("%w: notes are too long", ErrInvalidInput)
	}

	return nil
}

// validatePhone проверяет телефон: опциональный +, от 10 до 15 цифр
func validatePhone(phone string) error {
	cleaned := strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if cleaned == "" {
		return fmt.Errorf("%w: customerPhone is required", ErrInvalidInput)
	}

	digits := 0
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("%w: customerPhone contains invalid characters", ErrInvalidInput)
		}
		digits++
	}
	if digits < 10 || digits > 15 {
		return fmt.Errorf("%w: customerPhone must contain 10-15 digits", ErrInvalidInput)
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
