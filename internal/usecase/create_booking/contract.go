package create_booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/payprovider"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	GetForDay(ctx context.Context, filter domain.SalonBookingsFilter) ([]*domain.Booking, error)
}

// SalonRepository интерфейс репозитория салонов
type SalonRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Salon, error)
}

// CatalogRepository интерфейс репозитория каталога услуг и мастеров
type CatalogRepository interface {
	GetService(ctx context.Context, salonID, serviceID int64) (*domain.Service, error)
	GetStaff(ctx context.Context, salonID, staffID int64) (*domain.Staff, error)
}

// SubscriptionRepository интерфейс репозитория подписок
type SubscriptionRepository interface {
	GetBySalonID(ctx context.Context, salonID int64) (*domain.Subscription, error)
	// TryIncrement атомарно инкрементирует счетчик квоты, если лимит не исчерпан
	TryIncrement(ctx context.Context, salonID int64) error
}

// OutboxRepository интерфейс outbox-репозитория уведомлений
type OutboxRepository interface {
	Enqueue(ctx context.Context, bookingID uuid.UUID, kind outbox.Kind, payload []byte) error
}

// PaymentClient интерфейс клиента платежного провайдера
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, booking *domain.Booking) (*payprovider.CheckoutSession, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
