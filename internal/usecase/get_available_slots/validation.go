package get_available_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
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

	return nil
}

// validateDate проверяет, что дата не в прошлом и не дальше горизонта салона.
// Прошедшие даты дают пустой ответ уже на уровне правил, но быстрый отказ
// здесь позволяет вернуть клиенту осмысленную ошибку вместо пустого списка.
func validateDate(requestDate time.Time, now time.Time, salon *domain.Salon) error {
	loc := salon.Location()

	today := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	requestDay := time.Date(requestDate.In(loc).Year(), requestDate.In(loc).Month(), requestDate.In(loc).Day(), 0, 0, 0, 0, loc)

	if requestDay.Before(today) {
		return fmt.Errorf("%w: date is in the past", ErrInvalidInput)
	}

	maxDay := today.AddDate(0, 0, salon.MaxHorizonDays)
	if requestDay.After(maxDay) {
		return fmt.Errorf("%w: can only book %d days in advance", ErrDateTooFarInFuture, salon.MaxHorizonDays)
	}

	return nil
}
