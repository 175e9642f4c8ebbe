// Package outbox хранит события уведомлений, порожденные переходами
// жизненного цикла бронирования. Вставка происходит в одной транзакции
// с переходом; доставку выполняет отдельный диспетчер (at-least-once),
// поэтому сбой уведомления никогда не откатывает сам переход.
package outbox

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/psqlbuilder"
)

// Kind тип события уведомления
type Kind string

const (
	KindBookingConfirmed   Kind = "booking_confirmed"
	KindBookingCancelled   Kind = "booking_cancelled"
	KindBookingRescheduled Kind = "booking_rescheduled"
	KindPaymentFailed      Kind = "payment_failed"
)

// Event событие outbox
type Event struct {
	ID        int64
	BookingID uuid.UUID
	Kind      Kind
	Payload   []byte // JSON для сервиса уведомлений
	Attempts  int
}

// Repository репозиторий outbox-событий
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Enqueue добавляет событие в outbox (вызывается внутри транзакции перехода)
func (r *Repository) Enqueue(ctx context.Context, bookingID uuid.UUID, kind Kind, payload []byte) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("notification_outbox").
		Columns("booking_id", "kind", "payload", "status").
		Values(bookingID, kind, payload, "pending").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Enqueue - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Enqueue - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// FetchPending выбирает необработанные события с блокировкой SKIP LOCKED,
// чтобы несколько экземпляров диспетчера не отправляли одно событие дважды
// в рамках одного прохода (повтор после сбоя допустим - семантика at-least-once)
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]*Event, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "booking_id", "kind", "payload", "attempts").
		From("notification_outbox").
		Where(squirrel.Eq{"status": "pending"}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*Event, 0)
	for rows.Next() {
		var event Event
		if err := rows.Scan(&event.ID, &event.BookingID, &event.Kind, &event.Payload, &event.Attempts); err != nil {
			return nil, fmt.Errorf("%w: FetchPending - scan row: %v", ErrScanRow, err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchPending - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}

// MarkSent помечает событие как доставленное
func (r *Repository) MarkSent(ctx context.Context, id int64) error {
	query, args, err := psqlbuilder.Update("notification_outbox").
		Set("status", "sent").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("sent_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkSent - build update query: %v", ErrBuildQuery, err)
	}
	return r.exec(ctx, query, args, "MarkSent")
}

// MarkFailed фиксирует неудачную попытку доставки
// Событие остается pending и будет повторено на следующем проходе диспетчера
func (r *Repository) MarkFailed(ctx context.Context, id int64) error {
	query, args, err := psqlbuilder.Update("notification_outbox").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkFailed - build update query: %v", ErrBuildQuery, err)
	}
	return r.exec(ctx, query, args, "MarkFailed")
}

func (r *Repository) exec(ctx context.Context, query string, args []interface{}, op string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}
