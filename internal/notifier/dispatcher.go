// Package notifier доставляет события outbox во внешний сервис уведомлений.
// Диспетчер просыпается по cron-расписанию, забирает пачку pending-событий
// с FOR UPDATE SKIP LOCKED и отправляет их по одному. Семантика at-least-once:
// сбой отправки оставляет событие pending для следующего прохода.
package notifier

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-SalonBookingService/pkg/metrics"
)

const (
	defaultBatchSize = 50

	// runTimeout ограничивает один проход диспетчера,
	// чтобы зависший вызов уведомлений не держал блокировки до бесконечности
	runTimeout = 30 * time.Second
)

// Dispatcher диспетчер outbox-событий
type Dispatcher struct {
	outboxRepo   OutboxRepository
	notifyClient NotifyClient
	txManager    TransactionManager
	metrics      *metrics.Metrics // nil, если метрики выключены
	logger       Logger

	cron      *cron.Cron
	batchSize int
}

// NewDispatcher создает диспетчер outbox-событий
func NewDispatcher(
	outboxRepo OutboxRepository,
	notifyClient NotifyClient,
	txManager TransactionManager,
	m *metrics.Metrics,
	batchSize int,
	logger Logger,
) *Dispatcher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Dispatcher{
		outboxRepo:   outboxRepo,
		notifyClient: notifyClient,
		txManager:    txManager,
		metrics:      m,
		logger:       logger,
		cron:         cron.New(),
		batchSize:    batchSize,
	}
}

// Start запускает диспетчер по cron-расписанию (например "@every 30s")
func (d *Dispatcher) Start(schedule string) error {
	if _, err := d.cron.AddFunc(schedule, d.runOnce); err != nil {
		return err
	}
	d.cron.Start()
	d.logger.Info("Outbox dispatcher started, schedule=%q, batch=%d", schedule, d.batchSize)
	return nil
}

// Stop останавливает диспетчер и дожидается завершения текущего прохода
func (d *Dispatcher) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
	d.logger.Info("Outbox dispatcher stopped")
}

// runOnce один проход: пачка pending-событий в одной транзакции.
// SKIP LOCKED в FetchPending позволяет гонять несколько экземпляров
// сервиса без дублей внутри одного прохода.
func (d *Dispatcher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	err := d.txManager.Do(ctx, func(txCtx context.Context) error {
		events, err := d.outboxRepo.FetchPending(txCtx, d.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		d.logger.Info("Outbox dispatcher: dispatching %d events", len(events))

		for _, event := range events {
			notification := &notifyservice.Notification{
				Kind:      string(event.Kind),
				BookingID: event.BookingID.String(),
				Payload:   event.Payload,
			}

			if err := d.notifyClient.Send(txCtx, notification); err != nil {
				d.logger.Warn("Outbox dispatcher: failed to send event id=%d (attempt %d): %v",
					event.ID, event.Attempts+1, err)
				d.countDispatch("failed")
				if err := d.outboxRepo.MarkFailed(txCtx, event.ID); err != nil {
					return err
				}
				continue
			}

			d.countDispatch("sent")
			if err := d.outboxRepo.MarkSent(txCtx, event.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		d.logger.Error("Outbox dispatcher: run failed: %v", err)
	}
}

func (d *Dispatcher) countDispatch(status string) {
	if d.metrics != nil {
		d.metrics.OutboxDispatchTotal.WithLabelValues(status).Inc()
	}
}
