package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid booking status")
)

// Request модели

// UpdateStatusRequest запрос сотрудника на смену статуса бронирования
type UpdateStatusRequest struct {
	StaffID int64  `json:"staffId"`
	Status  string `json:"status"`
}

// GetSalonDayRequest запрос списка бронирований салона на день
type GetSalonDayRequest struct {
	SalonID         int64     `json:"salonId"`
	Day             time.Time `json:"day"`
	StaffID         *int64    `json:"staffId,omitempty"`
	Status          *string   `json:"status,omitempty"`
	IncludeInactive bool      `json:"includeInactive,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetSalonDayRequest) ToDomainFilter() (domain.SalonBookingsFilter, error) {
	filter := domain.SalonBookingsFilter{
		SalonID:         r.SalonID,
		StaffID:         r.StaffID,
		Day:             &r.Day,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
// Поля CanCancel/CanReschedule вычисляются по политике салона на момент запроса,
// чтобы публичная страница управления не дублировала правило cutoff
type BookingResponse struct {
	ID        string `json:"id"`
	SalonID   int64  `json:"salonId"`
	ServiceID int64  `json:"serviceId"`
	StaffID   *int64 `json:"staffId,omitempty"`

	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationMinutes int       `json:"durationMinutes"`
	Status          string    `json:"status"`

	// Денормализованные данные услуги на момент бронирования
	ServiceName string `json:"serviceName"`
	PriceCents  int64  `json:"priceCents"`

	DepositRequired bool  `json:"depositRequired"`
	DepositCents    int64 `json:"depositCents,omitempty"`
	DepositPaid     bool  `json:"depositPaid"`

	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	CustomerEmail *string `json:"customerEmail,omitempty"`
	Notes         *string `json:"notes,omitempty"`

	CanCancel       bool    `json:"canCancel"`
	CanReschedule   bool    `json:"canReschedule"`
	HoursUntilStart float64 `json:"hoursUntilStart"`

	CancelledAt *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
// salon нужен для вычисления CanCancel/CanReschedule; при nil оба поля false
func FromDomainBooking(b *domain.Booking, salon *domain.Salon, now time.Time) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:              b.ID.String(),
		SalonID:         b.SalonID,
		ServiceID:       b.ServiceID,
		StaffID:         b.StaffID,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		ServiceName:     b.ServiceName,
		PriceCents:      b.PriceCents,
		DepositRequired: b.DepositRequired,
		DepositCents:    b.DepositCents,
		DepositPaid:     b.DepositPaid,
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		CustomerEmail:   b.CustomerEmail,
		Notes:           b.Notes,
		HoursUntilStart: b.HoursUntilStart(now),
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}

	if salon != nil {
		allowed := domain.CustomerMayModify(b, salon, now) == nil
		resp.CanCancel = allowed
		resp.CanReschedule = allowed
	}

	if b.CancelledAt != nil {
		cancelledStr := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledStr
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking, salon *domain.Salon, now time.Time) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking, salon, now); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}

// ToDomainBookingStatus конвертирует строку в domain.BookingStatus с валидацией
func ToDomainBookingStatus(status string) (domain.BookingStatus, error) {
	s := domain.BookingStatus(status)

	validStatuses := []domain.BookingStatus{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusCancelled,
		domain.StatusNoShow,
		domain.StatusCompleted,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
