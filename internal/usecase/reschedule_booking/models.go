package reschedule_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// Request модель запроса на перенос бронирования
type Request struct {
	BookingID uuid.UUID        // ID бронирования (capability-токен)
	Date      time.Time        // Новая дата (без времени)
	StartTime types.TimeString // Новое время начала в локальных часах салона
}

// Response модель ответа с перенесенным бронированием
type Response struct {
	ID        string
	SalonID   int64
	ServiceID int64
	StaffID   *int64

	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Status          string // статус переносом не меняется

	ServiceName string
	PriceCents  int64

	UpdatedAt time.Time
}
