package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusNoShow    BookingStatus = "no_show"
	StatusCompleted BookingStatus = "completed"
)

// Booking represents a customer appointment in a salon
// ID бронирования одновременно является capability-токеном публичной
// страницы управления бронированием - отдельной аутентификации нет.
type Booking struct {
	ID        uuid.UUID
	SalonID   int64
	ServiceID int64
	StaffID   *int64 // nil = бронирование на салон целиком (любой мастер)

	StartTime time.Time
	EndTime   time.Time // всегда StartTime + DurationMinutes (фиксируется при создании)
	// ReservedUntil верхняя граница окна резервирования: EndTime + буфер салона.
	// Хранится в строке таблицы, чтобы exclusion constraint в БД и код
	// проверяли пересечения по одному и тому же интервалу.
	ReservedUntil   time.Time
	DurationMinutes int

	Status BookingStatus

	// Денормализованные данные услуги (защита от ретроактивных изменений каталога)
	ServiceName string
	PriceCents  int64

	DepositRequired  bool
	DepositCents     int64
	DepositPaid      bool
	PaymentReference *string // внешний идентификатор платежа у провайдера

	CustomerName  string
	CustomerPhone string
	CustomerEmail *string
	Notes         *string

	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsActive returns true if the booking occupies its reservation window
// (pending и confirmed блокируют слот, терминальные статусы - нет)
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsTerminal returns true if the booking reached a terminal state
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCancelled || b.Status == StatusNoShow || b.Status == StatusCompleted
}

// Window возвращает окно резервирования [StartTime, ReservedUntil)
func (b *Booking) Window() ReservationWindow {
	return ReservationWindow{Start: b.StartTime, End: b.ReservedUntil}
}

// HoursUntilStart возвращает количество часов до начала бронирования
// Отрицательное значение означает, что начало уже прошло
func (b *Booking) HoursUntilStart(now time.Time) float64 {
	return b.StartTime.Sub(now).Hours()
}

// ReservationWindow полуинтервал [Start, End), используемый для проверки пересечений
// Буфер салона уже включен в End
type ReservationWindow struct {
	Start time.Time
	End   time.Time
}

// Overlaps returns true if two windows actually intersect
// Интервалы полуоткрытые, поэтому граничащие окна не пересекаются
func (w ReservationWindow) Overlaps(other ReservationWindow) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// NewWindow строит окно резервирования для слота с учетом буфера салона
func NewWindow(start time.Time, durationMinutes, bufferMinutes int) ReservationWindow {
	return ReservationWindow{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes+bufferMinutes) * time.Minute),
	}
}

// SalonBookingsFilter фильтр для выборки бронирований салона
type SalonBookingsFilter struct {
	SalonID         int64
	StaffID         *int64         // nil - все мастера (включая бронирования без мастера)
	Day             *time.Time     // бронирования, чье окно пересекает эти сутки
	Status          *BookingStatus // фильтр по статусу (опционально)
	IncludeInactive bool           // включать ли терминальные бронирования
}
