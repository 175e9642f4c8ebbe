package salon

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	"github.com/m04kA/SMC-SalonBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// Repository репозиторий настроек салона
// Движок бронирования только читает салоны; мутации выполняет внешняя админка
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория салонов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает салон вместе с недельным расписанием и заблокированными датами
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Salon, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"buffer_minutes",
		"min_notice_hours",
		"max_horizon_days",
		"cancellation_cutoff_hours",
		"deposit_required",
		"deposit_percent",
		"timezone",
		"created_at",
		"updated_at",
	).
		From("salons").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var salon domain.Salon
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&salon.ID,
		&salon.Name,
		&salon.BufferMinutes,
		&salon.MinNoticeHours,
		&salon.MaxHorizonDays,
		&salon.CancellationCutoffHours,
		&salon.DepositRequired,
		&salon.DepositPercent,
		&salon.Timezone,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrSalonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan salon: %v", ErrScanRow, err)
	}

	salon.CreatedAt = createdAt.Time
	salon.UpdatedAt = updatedAt.Time

	if err := r.loadHours(ctx, executor, &salon); err != nil {
		return nil, err
	}
	if err := r.loadBlockedDates(ctx, executor, &salon); err != nil {
		return nil, err
	}

	return &salon, nil
}

// loadHours загружает недельное расписание салона
// Дни без строки в salon_hours считаются закрытыми
func (r *Repository) loadHours(ctx context.Context, executor dbmetrics.DBExecutor, salon *domain.Salon) error {
	query, args, err := psqlbuilder.Select("weekday", "closed", "open_time", "close_time").
		From("salon_hours").
		Where(squirrel.Eq{"salon_id": salon.ID}).
		OrderBy("weekday ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadHours - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadHours - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	// По умолчанию все дни закрыты
	hours := domain.WeeklyHours{
		Monday:    domain.DaySchedule{Closed: true},
		Tuesday:   domain.DaySchedule{Closed: true},
		Wednesday: domain.DaySchedule{Closed: true},
		Thursday:  domain.DaySchedule{Closed: true},
		Friday:    domain.DaySchedule{Closed: true},
		Saturday:  domain.DaySchedule{Closed: true},
		Sunday:    domain.DaySchedule{Closed: true},
	}

	for rows.Next() {
		var weekday int
		var closed bool
		var openTime, closeTime sql.NullString

		if err := rows.Scan(&weekday, &closed, &openTime, &closeTime); err != nil {
			return fmt.Errorf("%w: loadHours - scan row: %v", ErrScanRow, err)
		}

		schedule := domain.DaySchedule{Closed: closed}
		if !closed {
			schedule.OpenTime = types.TimeString(openTime.String)
			schedule.CloseTime = types.TimeString(closeTime.String)
		}

		setWeekday(&hours, time.Weekday(weekday), schedule)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadHours - rows error: %v", ErrScanRow, err)
	}

	salon.Hours = hours
	return nil
}

// loadBlockedDates загружает множество заблокированных дат салона
func (r *Repository) loadBlockedDates(ctx context.Context, executor dbmetrics.DBExecutor, salon *domain.Salon) error {
	query, args, err := psqlbuilder.Select("blocked_date").
		From("salon_blocked_dates").
		Where(squirrel.Eq{"salon_id": salon.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadBlockedDates - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadBlockedDates - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	blocked := make(map[string]struct{})
	for rows.Next() {
		var date time.Time
		if err := rows.Scan(&date); err != nil {
			return fmt.Errorf("%w: loadBlockedDates - scan row: %v", ErrScanRow, err)
		}
		blocked[date.Format(domain.DateFormat)] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadBlockedDates - rows error: %v", ErrScanRow, err)
	}

	salon.BlockedDates = blocked
	return nil
}

func setWeekday(hours *domain.WeeklyHours, day time.Weekday, schedule domain.DaySchedule) {
	switch day {
	case time.Monday:
		hours.Monday = schedule
	case time.Tuesday:
		hours.Tuesday = schedule
	case time.Wednesday:
		hours.Wednesday = schedule
	case time.Thursday:
		hours.Thursday = schedule
	case time.Friday:
		hours.Friday = schedule
	case time.Saturday:
		hours.Saturday = schedule
	case time.Sunday:
		hours.Sunday = schedule
	}
}
