package notifier

import (
	"context"

	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/notifyservice"
)

// OutboxRepository интерфейс outbox-репозитория уведомлений
type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]*outbox.Event, error)
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64) error
}

// NotifyClient интерфейс клиента сервиса уведомлений
type NotifyClient interface {
	Send(ctx context.Context, notification *notifyservice.Notification) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
