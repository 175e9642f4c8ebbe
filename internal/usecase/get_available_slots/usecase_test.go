package get_available_slots

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// --- фейки зависимостей ---

type fakeBookingRepo struct {
	existing []*domain.Booking
}

func (f *fakeBookingRepo) GetForDay(_ context.Context, _ domain.SalonBookingsFilter) ([]*domain.Booking, error) {
	return f.existing, nil
}

type fakeSalonRepo struct {
	salon *domain.Salon
	err   error
}

func (f *fakeSalonRepo) GetByID(_ context.Context, _ int64) (*domain.Salon, error) {
	return f.salon, f.err
}

type fakeCatalogRepo struct {
	service *domain.Service
	staff   *domain.Staff
}

func (f *fakeCatalogRepo) GetService(_ context.Context, _, _ int64) (*domain.Service, error) {
	return f.service, nil
}

func (f *fakeCatalogRepo) GetStaff(_ context.Context, _, _ int64) (*domain.Staff, error) {
	return f.staff, nil
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// --- фикстуры ---

var slotsDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) // вторник

func fixtureSalon() *domain.Salon {
	weekday := domain.DaySchedule{OpenTime: "09:00", CloseTime: "18:00"}
	return &domain.Salon{
		ID:   1,
		Name: "Test Salon",
		Hours: domain.WeeklyHours{
			Monday:    weekday,
			Tuesday:   weekday,
			Wednesday: weekday,
			Thursday:  weekday,
			Friday:    weekday,
			Saturday:  domain.DaySchedule{Closed: true},
			Sunday:    domain.DaySchedule{Closed: true},
		},
		BlockedDates:            map[string]struct{}{},
		BufferMinutes:           15,
		MinNoticeHours:          2,
		MaxHorizonDays:          30,
		CancellationCutoffHours: 24,
		Timezone:                "UTC",
	}
}

type fixture struct {
	uc      *UseCase
	booking *fakeBookingRepo
	salon   *fakeSalonRepo
}

func newFixture(salon *domain.Salon) *fixture {
	f := &fixture{
		booking: &fakeBookingRepo{},
		salon:   &fakeSalonRepo{salon: salon},
	}
	f.uc = NewUseCase(
		f.booking,
		f.salon,
		&fakeCatalogRepo{service: &domain.Service{
			ID:              2,
			SalonID:         1,
			Name:            "Haircut",
			DurationMinutes: 60,
			PriceCents:      500000,
			Active:          true,
		}},
		nopLogger{},
	)
	// Накануне вечером: уведомление не режет утро
	f.uc.timeProvider = fixedTime{t: slotsDate.Add(-6 * time.Hour)}
	return f
}

func slotStarts(slots []Slot) []types.TimeString {
	starts := make([]types.TimeString, 0, len(slots))
	for _, s := range slots {
		starts = append(starts, s.StartTime)
	}
	return starts
}

func activeAt(hour, minute int) *domain.Booking {
	start := slotsDate.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	return &domain.Booking{
		ID:            uuid.New(),
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		ReservedUntil: start.Add(75 * time.Minute),
		Status:        domain.StatusConfirmed,
	}
}

// --- тесты ---

func TestExecute_FullDayWithoutBookings(t *testing.T) {
	f := newFixture(fixtureSalon())

	resp, err := f.uc.Execute(context.Background(), &Request{SalonID: 1, ServiceID: 2, Date: slotsDate})
	require.NoError(t, err)

	// 09:00..17:00 с шагом 15 минут
	require.Len(t, resp.Slots, 33)
	assert.Equal(t, types.TimeString("09:00"), resp.Slots[0].StartTime)
	assert.Equal(t, types.TimeString("10:00"), resp.Slots[0].EndTime)
	assert.Equal(t, types.TimeString("17:00"), resp.Slots[32].StartTime)
	assert.Equal(t, 60, resp.DurationMinutes)
}

func TestExecute_BookingBlocksOverlappingSlots(t *testing.T) {
	f := newFixture(fixtureSalon())

	// Запись 10:00-11:00 с буфером держит окно до 11:15. Буфер учитывается
	// с обеих сторон: утренние слоты 09:00..11:00 конфликтуют (их окно
	// с буфером залезает на 10:00), первый доступный - 11:15.
	f.booking.existing = []*domain.Booking{activeAt(10, 0)}

	resp, err := f.uc.Execute(context.Background(), &Request{SalonID: 1, ServiceID: 2, Date: slotsDate})
	require.NoError(t, err)

	starts := slotStarts(resp.Slots)
	assert.NotContains(t, starts, types.TimeString("09:00"))
	assert.NotContains(t, starts, types.TimeString("10:00"))
	assert.NotContains(t, starts, types.TimeString("11:00"))
	assert.Contains(t, starts, types.TimeString("11:15"))
	assert.Equal(t, types.TimeString("11:15"), starts[0])
}

func TestExecute_DepositInfoFromSalon(t *testing.T) {
	salon := fixtureSalon()
	salon.DepositRequired = true
	salon.DepositPercent = 20
	f := newFixture(salon)

	resp, err := f.uc.Execute(context.Background(), &Request{SalonID: 1, ServiceID: 2, Date: slotsDate})
	require.NoError(t, err)

	assert.True(t, resp.DepositRequired)
	assert.Equal(t, int64(100000), resp.DepositCents)
}

func TestExecute_ClosedDayYieldsEmptySlots(t *testing.T) {
	f := newFixture(fixtureSalon())
	saturday := slotsDate.AddDate(0, 0, 4)
	f.uc.timeProvider = fixedTime{t: saturday.Add(-6 * time.Hour)}

	resp, err := f.uc.Execute(context.Background(), &Request{SalonID: 1, ServiceID: 2, Date: saturday})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
}

func TestExecute_DateBeyondHorizon(t *testing.T) {
	f := newFixture(fixtureSalon())
	f.uc.timeProvider = fixedTime{t: slotsDate.AddDate(0, 0, -45)}

	_, err := f.uc.Execute(context.Background(), &Request{SalonID: 1, ServiceID: 2, Date: slotsDate})
	assert.ErrorIs(t, err, ErrDateTooFarInFuture)
}

func TestExecute_SalonNotFound(t *testing.T) {
	f := newFixture(fixtureSalon())
	f.salon.salon = nil
	f.salon.err = salonRepo.ErrSalonNotFound

	_, err := f.uc.Execute(context.Background(), &Request{SalonID: 99, ServiceID: 2, Date: slotsDate})
	assert.ErrorIs(t, err, ErrSalonNotFound)
}

func TestExecute_InactiveStaffRejected(t *testing.T) {
	f := newFixture(fixtureSalon())
	staffID := int64(7)
	f.uc.catalogRepo = &fakeCatalogRepo{
		service: &domain.Service{ID: 2, SalonID: 1, Name: "Haircut", DurationMinutes: 60, Active: true},
		staff:   &domain.Staff{ID: staffID, SalonID: 1, Name: "Ivan", AcceptsBookings: false},
	}

	_, err := f.uc.Execute(context.Background(), &Request{SalonID: 1, ServiceID: 2, StaffID: &staffID, Date: slotsDate})
	assert.ErrorIs(t, err, ErrStaffNotFound)
}
