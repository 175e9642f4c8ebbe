package process_payment_event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	GetByPaymentReference(ctx context.Context, reference string) (*domain.Booking, error)
	// GetForDay внутри транзакции блокирует активные бронирования дня (FOR UPDATE)
	GetForDay(ctx context.Context, filter domain.SalonBookingsFilter) ([]*domain.Booking, error)
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID, reference string) error
}

// SalonRepository интерфейс репозитория салонов
type SalonRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Salon, error)
}

// CatalogRepository интерфейс репозитория каталога услуг
type CatalogRepository interface {
	GetService(ctx context.Context, salonID, serviceID int64) (*domain.Service, error)
}

// PaymentEventRepository интерфейс репозитория дедупликации платежных событий
type PaymentEventRepository interface {
	// RecordOnce возвращает inserted=false для уже обработанного reference
	RecordOnce(ctx context.Context, reference, eventType string, bookingID *uuid.UUID) (inserted bool, err error)
}

// SubscriptionRepository интерфейс репозитория подписок
type SubscriptionRepository interface {
	// Increment безусловно инкрементирует счетчик квоты: оплаченное
	// бронирование не отзывается, даже если лимит уже превышен
	Increment(ctx context.Context, salonID int64) error
	ResetPeriod(ctx context.Context, salonID int64, periodStart, periodEnd time.Time) error
	UpdateFromProvider(ctx context.Context, salonID int64, tier string, bookingLimit int, providerRef *string) error
}

// OutboxRepository интерфейс outbox-репозитория уведомлений
type OutboxRepository interface {
	Enqueue(ctx context.Context, bookingID uuid.UUID, kind outbox.Kind, payload []byte) error
}

// PaymentClient интерфейс клиента платежного провайдера
type PaymentClient interface {
	// RefundDeposit возврат депозита: платеж пришел для бронирования
	// в терминальном статусе либо оплаченный слот успели занять
	RefundDeposit(ctx context.Context, paymentRef string, bookingID uuid.UUID) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	// DoSerializable используется, когда обработка события резервирует слот
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
