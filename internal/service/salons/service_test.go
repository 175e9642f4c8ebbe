package salons

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

type fakeSalonRepo struct {
	salon *domain.Salon
	err   error
}

func (f *fakeSalonRepo) GetByID(_ context.Context, _ int64) (*domain.Salon, error) {
	return f.salon, f.err
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func fixtureSalon() *domain.Salon {
	day := domain.DaySchedule{
		OpenTime:  types.TimeString("09:00"),
		CloseTime: types.TimeString("18:00"),
	}
	return &domain.Salon{
		ID:   1,
		Name: "Test Salon",
		Hours: domain.WeeklyHours{
			Monday:    day,
			Tuesday:   day,
			Wednesday: day,
			Thursday:  day,
			Friday:    day,
			Saturday:  domain.DaySchedule{Closed: true},
			Sunday:    domain.DaySchedule{Closed: true},
		},
		BlockedDates: map[string]struct{}{
			"2026-05-01": {},
			"2026-03-08": {},
		},
		BufferMinutes:           15,
		MinNoticeHours:          2,
		MaxHorizonDays:          30,
		CancellationCutoffHours: 24,
		DepositRequired:         true,
		DepositPercent:          20,
		Timezone:                "UTC",
	}
}

func TestGetConfig(t *testing.T) {
	svc := NewService(&fakeSalonRepo{salon: fixtureSalon()}, nopLogger{})

	resp, err := svc.GetConfig(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.SalonID)
	assert.Equal(t, "Test Salon", resp.Name)
	assert.Equal(t, "09:00", resp.Hours.Monday.OpenTime)
	assert.Equal(t, "18:00", resp.Hours.Friday.CloseTime)
	assert.True(t, resp.Hours.Saturday.Closed)
	assert.Empty(t, resp.Hours.Saturday.OpenTime)
	// Заблокированные даты отсортированы для стабильного ответа
	assert.Equal(t, []string{"2026-03-08", "2026-05-01"}, resp.BlockedDates)
	assert.Equal(t, 15, resp.BufferMinutes)
	assert.Equal(t, 24, resp.CancellationCutoffHours)
	assert.True(t, resp.DepositRequired)
	assert.Equal(t, 20, resp.DepositPercent)
}

func TestGetConfig_SalonNotFound(t *testing.T) {
	svc := NewService(&fakeSalonRepo{err: salonRepo.ErrSalonNotFound}, nopLogger{})

	_, err := svc.GetConfig(context.Background(), 42)
	assert.ErrorIs(t, err, ErrSalonNotFound)
}
