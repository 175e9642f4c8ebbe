package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	"github.com/m04kA/SMC-SalonBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SalonBookingService/pkg/psqlbuilder"
)

// Repository репозиторий каталога услуг и мастеров
// Каталог для движка бронирования read-only (CRUD во внешней админке)
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetService получает активную услугу салона
func (r *Repository) GetService(ctx context.Context, salonID, serviceID int64) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"salon_id",
		"name",
		"duration_minutes",
		"price_cents",
		"active",
		"created_at",
		"updated_at",
	).
		From("services").
		Where(squirrel.Eq{"id": serviceID, "salon_id": salonID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - build select query: %v", ErrBuildQuery, err)
	}

	var service domain.Service
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&service.ID,
		&service.SalonID,
		&service.Name,
		&service.DurationMinutes,
		&service.PriceCents,
		&service.Active,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetService - scan service: %v", ErrScanRow, err)
	}

	service.CreatedAt = createdAt.Time
	service.UpdatedAt = updatedAt.Time

	return &service, nil
}

// GetStaff получает мастера салона
func (r *Repository) GetStaff(ctx context.Context, salonID, staffID int64) (*domain.Staff, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"salon_id",
		"name",
		"accepts_bookings",
		"created_at",
		"updated_at",
	).
		From("staff").
		Where(squirrel.Eq{"id": staffID, "salon_id": salonID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetStaff - build select query: %v", ErrBuildQuery, err)
	}

	var staff domain.Staff
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&staff.ID,
		&staff.SalonID,
		&staff.Name,
		&staff.AcceptsBookings,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetStaff - scan staff: %v", ErrScanRow, err)
	}

	staff.CreatedAt = createdAt.Time
	staff.UpdatedAt = updatedAt.Time

	return &staff, nil
}

// ListAcceptingStaff получает мастеров салона, принимающих бронирования
func (r *Repository) ListAcceptingStaff(ctx context.Context, salonID int64) ([]*domain.Staff, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"salon_id",
		"name",
		"accepts_bookings",
		"created_at",
		"updated_at",
	).
		From("staff").
		Where(squirrel.Eq{"salon_id": salonID, "accepts_bookings": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListAcceptingStaff - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListAcceptingStaff - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	staffList := make([]*domain.Staff, 0)
	for rows.Next() {
		var staff domain.Staff
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&staff.ID,
			&staff.SalonID,
			&staff.Name,
			&staff.AcceptsBookings,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListAcceptingStaff - scan row: %v", ErrScanRow, err)
		}

		staff.CreatedAt = createdAt.Time
		staff.UpdatedAt = updatedAt.Time
		staffList = append(staffList, &staff)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListAcceptingStaff - rows error: %v", ErrScanRow, err)
	}

	return staffList, nil
}
