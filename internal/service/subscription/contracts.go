package subscription

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
)

// SubscriptionRepository интерфейс репозитория подписок
type SubscriptionRepository interface {
	GetBySalonID(ctx context.Context, salonID int64) (*domain.Subscription, error)
	ResetPeriod(ctx context.Context, salonID int64, periodStart, periodEnd time.Time) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
