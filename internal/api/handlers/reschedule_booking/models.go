package reschedule_booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	rescheduleBooking "github.com/m04kA/SMC-SalonBookingService/internal/usecase/reschedule_booking"
	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// RescheduleBookingRequest HTTP request model
type RescheduleBookingRequest struct {
	Date      string `json:"date"`      // "2026-09-15"
	StartTime string `json:"startTime"` // "10:00"
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID              string `json:"id"`
	SalonID         int64  `json:"salonId"`
	ServiceID       int64  `json:"serviceId"`
	StaffID         *int64 `json:"staffId,omitempty"`
	StartTime       string `json:"startTime"` // ISO 8601
	EndTime         string `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
	Status          string `json:"status"`
	ServiceName     string `json:"serviceName"`
	PriceCents      int64  `json:"priceCents"`
	UpdatedAt       string `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *RescheduleBookingRequest) ToUseCaseRequest(bookingID uuid.UUID) (*rescheduleBooking.Request, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, err
	}

	startTime, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}

	return &rescheduleBooking.Request{
		BookingID: bookingID,
		Date:      date,
		StartTime: startTime,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *rescheduleBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:              resp.ID,
		SalonID:         resp.SalonID,
		ServiceID:       resp.ServiceID,
		StaffID:         resp.StaffID,
		StartTime:       resp.StartTime.Format(time.RFC3339),
		EndTime:         resp.EndTime.Format(time.RFC3339),
		DurationMinutes: resp.DurationMinutes,
		Status:          resp.Status,
		ServiceName:     resp.ServiceName,
		PriceCents:      resp.PriceCents,
		UpdatedAt:       resp.UpdatedAt.Format(time.RFC3339),
	}
}
