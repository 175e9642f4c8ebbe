// Package paymentevent хранит обработанные платежные события для дедупликации.
// Каждое событие провайдера несет уникальный reference; повторная вставка
// того же reference ничего не меняет, что и делает обработку идемпотентной.
package paymentevent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/psqlbuilder"
)

// Repository репозиторий дедупликации платежных событий
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежных событий
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// RecordOnce фиксирует событие по его reference.
// Возвращает inserted=false, если событие с таким reference уже обрабатывалось.
// Выполняется в одной транзакции с переходом статуса бронирования,
// поэтому гонка двух доставок одного webhook-а разрешается на коммите:
// проигравший увидит inserted=false.
func (r *Repository) RecordOnce(ctx context.Context, reference, eventType string, bookingID *uuid.UUID) (inserted bool, err error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payment_events").
		Columns("reference", "event_type", "booking_id").
		Values(reference, eventType, bookingID).
		Suffix("ON CONFLICT (reference) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: RecordOnce - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: RecordOnce - execute insert: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: RecordOnce - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}
