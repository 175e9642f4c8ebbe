package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	"github.com/m04kA/SMC-SalonBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/psqlbuilder"
)

// Коды ошибок PostgreSQL, означающие конфликт окна резервирования
const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

var bookingColumns = []string{
	"id",
	"salon_id",
	"service_id",
	"staff_id",
	"start_time",
	"end_time",
	"reserved_until",
	"duration_minutes",
	"status",
	"service_name",
	"price_cents",
	"deposit_required",
	"deposit_cents",
	"deposit_paid",
	"payment_reference",
	"customer_name",
	"customer_phone",
	"customer_email",
	"notes",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция, использует её.
//
// Вставка защищена exclusion constraint на (salon_id, staff-scope,
// [start_time, reserved_until)) для активных статусов: проигравший гонку
// получает ErrSlotTaken на коммите, частично созданных строк не остается.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"salon_id",
			"service_id",
			"staff_id",
			"start_time",
			"end_time",
			"reserved_until",
			"duration_minutes",
			"status",
			"service_name",
			"price_cents",
			"deposit_required",
			"deposit_cents",
			"deposit_paid",
			"payment_reference",
			"customer_name",
			"customer_phone",
			"customer_email",
			"notes",
		).
		Values(
			booking.ID,
			booking.SalonID,
			booking.ServiceID,
			booking.StaffID,
			booking.StartTime,
			booking.EndTime,
			booking.ReservedUntil,
			booking.DurationMinutes,
			booking.Status,
			booking.ServiceName,
			booking.PriceCents,
			booking.DepositRequired,
			booking.DepositCents,
			booking.DepositPaid,
			booking.PaymentReference,
			booking.CustomerName,
			booking.CustomerPhone,
			booking.CustomerEmail,
			booking.Notes,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)

	if err != nil {
		if isWindowConflict(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
// ID играет роль capability-токена, поэтому других условий выборки нет
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	// В транзакции блокируем строку на время перехода статуса
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetByPaymentReference получает бронирование по внешнему идентификатору платежа
func (r *Repository) GetByPaymentReference(ctx context.Context, reference string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"payment_reference": reference}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaymentReference - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByPaymentReference - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetForDay получает бронирования салона, чье окно резервирования пересекает
// сутки filter.Day (в таймзоне этой даты)
//
// Область видимости по мастеру:
//   - StaffID задан: бронирования этого мастера плюс бронирования без мастера
//     (запись "на салон" блокирует всех)
//   - StaffID nil: все бронирования салона (salon-wide fallback)
//
// Внутри транзакции выборка выполняется с FOR UPDATE - это критическая секция
// резервирования: между повторной проверкой пересечений и вставкой никакая
// конкурентная бронь на тот же день не пройдет
func (r *Repository) GetForDay(ctx context.Context, filter domain.SalonBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"salon_id": filter.SalonID})

	if filter.Day != nil {
		dayStart := time.Date(filter.Day.Year(), filter.Day.Month(), filter.Day.Day(), 0, 0, 0, 0, filter.Day.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)
		selectBuilder = selectBuilder.
			Where(squirrel.Lt{"start_time": dayEnd}).
			Where(squirrel.Gt{"reserved_until": dayStart})
	}

	if filter.StaffID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Or{
			squirrel.Eq{"staff_id": *filter.StaffID},
			squirrel.Eq{"staff_id": nil},
		})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		activeStatusStrings := make([]string, len(domain.ActiveStatuses))
		for i, s := range domain.ActiveStatuses {
			activeStatusStrings[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": activeStatusStrings})
	}

	selectBuilder = selectBuilder.OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) && filter.Day != nil {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetForDay - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetForDay - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// UpdateStatus обновляет статус бронирования
// cancelledAt проставляется только для перехода в cancelled
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, cancelledAt *time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	if cancelledAt != nil {
		updateBuilder = updateBuilder.Set("cancelled_at", *cancelledAt)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	return requireRowsAffected(result, "UpdateStatus")
}

// ConfirmPayment переводит бронирование в confirmed с отметкой об оплате депозита
// Выполняется внутри транзакции reconciliation-процессора
func (r *Repository) ConfirmPayment(ctx context.Context, id uuid.UUID, reference string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusConfirmed).
		Set("deposit_paid", true).
		Set("payment_reference", reference).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ConfirmPayment - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: ConfirmPayment - execute update: %v", ErrExecQuery, err)
	}

	return requireRowsAffected(result, "ConfirmPayment")
}

// UpdateSchedule переносит бронирование на новое окно
// Используется только usecase-ом переноса после успешной повторной валидации;
// exclusion constraint проверяет новое окно на коммите так же, как при вставке
func (r *Repository) UpdateSchedule(ctx context.Context, id uuid.UUID, start, end, reservedUntil time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("start_time", start).
		Set("end_time", end).
		Set("reserved_until", reservedUntil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateSchedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if isWindowConflict(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("%w: UpdateSchedule - execute update: %v", ErrExecQuery, err)
	}

	return requireRowsAffected(result, "UpdateSchedule")
}

// isWindowConflict распознает нарушение exclusion/unique constraint окна резервирования
func isWindowConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgExclusionViolation || pqErr.Code == pgUniqueViolation
	}
	return false
}

func requireRowsAffected(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var booking domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&booking.ID,
		&booking.SalonID,
		&booking.ServiceID,
		&booking.StaffID,
		&booking.StartTime,
		&booking.EndTime,
		&booking.ReservedUntil,
		&booking.DurationMinutes,
		&booking.Status,
		&booking.ServiceName,
		&booking.PriceCents,
		&booking.DepositRequired,
		&booking.DepositCents,
		&booking.DepositPaid,
		&booking.PaymentReference,
		&booking.CustomerName,
		&booking.CustomerPhone,
		&booking.CustomerEmail,
		&booking.Notes,
		&booking.CancelledAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
