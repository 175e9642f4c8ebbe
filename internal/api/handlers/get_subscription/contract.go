package get_subscription

import (
	"context"

	"github.com/m04kA/SMC-SalonBookingService/internal/service/subscription/models"
)

type SubscriptionService interface {
	GetBySalonID(ctx context.Context, salonID int64) (*models.SubscriptionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
