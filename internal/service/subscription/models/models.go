package models

import (
	"time"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
)

// Request модели

// ResetPeriodRequest запрос сброса счетчика квоты на новый биллинговый период
// Приходит от внешнего биллинга, движок сам периоды не открывает
type ResetPeriodRequest struct {
	PeriodStart time.Time `json:"periodStart"`
	PeriodEnd   time.Time `json:"periodEnd"`
}

// Response модели

// SubscriptionResponse состояние квоты салона
type SubscriptionResponse struct {
	SalonID            int64     `json:"salonId"`
	Tier               string    `json:"tier"`
	BookingLimit       int       `json:"bookingLimit"` // -1 = безлимит
	BookingsThisPeriod int       `json:"bookingsThisPeriod"`
	Remaining          int       `json:"remaining"` // -1 = безлимит
	QuotaExceeded      bool      `json:"quotaExceeded"`
	PeriodStart        time.Time `json:"periodStart"`
	PeriodEnd          time.Time `json:"periodEnd"`
}

// FromDomainSubscription конвертирует domain модель в DTO
func FromDomainSubscription(s *domain.Subscription) *SubscriptionResponse {
	if s == nil {
		return nil
	}
	return &SubscriptionResponse{
		SalonID:            s.SalonID,
		Tier:               s.Tier,
		BookingLimit:       s.BookingLimit,
		BookingsThisPeriod: s.BookingsThisPeriod,
		Remaining:          s.Remaining(),
		QuotaExceeded:      !s.CanAccept(),
		PeriodStart:        s.PeriodStart,
		PeriodEnd:          s.PeriodEnd,
	}
}
