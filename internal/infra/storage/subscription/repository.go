package subscription

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	"github.com/m04kA/SMC-SalonBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/psqlbuilder"
)

// Repository репозиторий подписок салонов (квоты бронирований)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория подписок
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetBySalonID получает подписку салона
func (r *Repository) GetBySalonID(ctx context.Context, salonID int64) (*domain.Subscription, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"salon_id",
		"tier",
		"booking_limit",
		"period_start",
		"period_end",
		"bookings_this_period",
		"provider_ref",
		"updated_at",
	).
		From("subscriptions").
		Where(squirrel.Eq{"salon_id": salonID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySalonID - build select query: %v", ErrBuildQuery, err)
	}

	var sub domain.Subscription
	var updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&sub.SalonID,
		&sub.Tier,
		&sub.BookingLimit,
		&sub.PeriodStart,
		&sub.PeriodEnd,
		&sub.BookingsThisPeriod,
		&sub.ProviderRef,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetBySalonID - scan subscription: %v", ErrScanRow, err)
	}

	sub.UpdatedAt = updatedAt.Time
	return &sub, nil
}

// TryIncrement атомарно инкрементирует счетчик периода, если квота не исчерпана.
// Проверка лимита и инкремент - один UPDATE: два конкурентных подтверждения
// не могут пройти по одному и тому же устаревшему чтению счетчика.
func (r *Repository) TryIncrement(ctx context.Context, salonID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("subscriptions").
		Set("bookings_this_period", squirrel.Expr("bookings_this_period + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"salon_id": salonID}).
		Where(squirrel.Or{
			squirrel.Eq{"booking_limit": domain.UnlimitedBookings},
			squirrel.Expr("bookings_this_period < booking_limit"),
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: TryIncrement - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: TryIncrement - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: TryIncrement - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		// Либо подписки нет, либо квота исчерпана - различаем отдельным чтением
		if _, getErr := r.GetBySalonID(ctx, salonID); getErr != nil {
			return getErr
		}
		return ErrQuotaExceeded
	}

	return nil
}

// Increment безусловно инкрементирует счетчик периода.
// Используется при платежном подтверждении: оплаченное бронирование
// не отклоняется, даже если лимит был исчерпан после резервирования.
func (r *Repository) Increment(ctx context.Context, salonID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("subscriptions").
		Set("bookings_this_period", squirrel.Expr("bookings_this_period + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"salon_id": salonID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Increment - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Increment - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Increment - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// ResetPeriod начинает новый биллинговый период и обнуляет счетчик
// Вызывается внешним биллинговым триггером; сам сервис границы периодов не вычисляет
func (r *Repository) ResetPeriod(ctx context.Context, salonID int64, periodStart, periodEnd time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("subscriptions").
		Set("period_start", periodStart).
		Set("period_end", periodEnd).
		Set("bookings_this_period", 0).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"salon_id": salonID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ResetPeriod - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: ResetPeriod - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: ResetPeriod - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// UpdateFromProvider применяет тариф и лимит из события платежного провайдера
// (customer.subscription.created / updated / deleted).
// Upsert: customer.subscription.created приходит для салона, у которого строки
// подписки еще нет. Начальный период ставится заглушкой в месяц - реальные
// границы принесет первый invoice.paid через ResetPeriod
func (r *Repository) UpdateFromProvider(ctx context.Context, salonID int64, tier string, bookingLimit int, providerRef *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("subscriptions").
		Columns("salon_id", "tier", "booking_limit", "period_start", "period_end", "provider_ref").
		Values(salonID, tier, bookingLimit, squirrel.Expr("NOW()"), squirrel.Expr("NOW() + INTERVAL '1 month'"), providerRef).
		Suffix(`ON CONFLICT (salon_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			booking_limit = EXCLUDED.booking_limit,
			provider_ref = EXCLUDED.provider_ref,
			updated_at = NOW()`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateFromProvider - build upsert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: UpdateFromProvider - execute upsert: %v", ErrExecQuery, err)
	}

	return nil
}
