package reset_subscription

import (
	"context"

	"github.com/m04kA/SMC-SalonBookingService/internal/service/subscription/models"
)

type SubscriptionService interface {
	ResetPeriod(ctx context.Context, salonID int64, req *models.ResetPeriodRequest) (*models.SubscriptionResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
