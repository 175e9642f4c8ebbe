package reschedule_booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
)

// --- фейки зависимостей ---

type fakeBookingRepo struct {
	booking     *domain.Booking
	getErr      error
	existing    []*domain.Booking
	updateErr   error
	updateCalls int
}

func (f *fakeBookingRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Booking, error) {
	return f.booking, f.getErr
}

func (f *fakeBookingRepo) GetForDay(_ context.Context, _ domain.SalonBookingsFilter) ([]*domain.Booking, error) {
	return f.existing, nil
}

func (f *fakeBookingRepo) UpdateSchedule(_ context.Context, _ uuid.UUID, _, _, _ time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updateCalls++
	return nil
}

type fakeSalonRepo struct {
	salon *domain.Salon
}

func (f *fakeSalonRepo) GetByID(_ context.Context, _ int64) (*domain.Salon, error) {
	return f.salon, nil
}

type fakeOutboxRepo struct {
	enqueued []outbox.Kind
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, _ uuid.UUID, kind outbox.Kind, _ []byte) error {
	f.enqueued = append(f.enqueued, kind)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ t time.Time }

func (f fixedTime) Now() time.Time { return f.t }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// --- фикстуры ---

// 2026-03-12 - четверг; текущее начало бронирования 12:00
var (
	currentDay   = time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	currentStart = currentDay.Add(12 * time.Hour)
	targetDay    = currentDay.AddDate(0, 0, 1) // пятница
)

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

func fixtureBooking() *domain.Booking {
	return &domain.Booking{
		ID:              uuid.New(),
		SalonID:         1,
		ServiceID:       2,
		StartTime:       currentStart,
		EndTime:         currentStart.Add(time.Hour),
		ReservedUntil:   currentStart.Add(75 * time.Minute),
		DurationMinutes: 60,
		Status:          domain.StatusConfirmed,
		ServiceName:     "Haircut",
		PriceCents:      500000,
		CustomerName:    "Anna",
		CustomerPhone:   "+79991234567",
	}
}

type fixture struct {
	uc      *UseCase
	booking *fakeBookingRepo
	outbox  *fakeOutboxRepo
}

func newFixture(booking *domain.Booking, now time.Time) *fixture {
	f := &fixture{
		booking: &fakeBookingRepo{booking: booking},
		outbox:  &fakeOutboxRepo{},
	}
	f.uc = NewUseCase(
		f.booking,
		&fakeSalonRepo{salon: fixtureSalon()},
		f.outbox,
		fakeTxManager{},
		nopLogger{},
	)
	f.uc.timeProvider = fixedTime{t: now}
	return f
}

func validRequest(booking *domain.Booking) *Request {
	return &Request{
		BookingID: booking.ID,
		Date:      targetDay,
		StartTime: "14:00",
	}
}

// --- тесты ---

func TestExecute_RescheduleSuccess(t *testing.T) {
	booking := fixtureBooking()
	// За 36 часов до текущего начала - политика позволяет
	f := newFixture(booking, currentStart.Add(-36*time.Hour))

	resp, err := f.uc.Execute(context.Background(), validRequest(booking))
	require.NoError(t, err)

	assert.Equal(t, 1, f.booking.updateCalls)
	assert.Equal(t, targetDay.Add(14*time.Hour), resp.StartTime)
	assert.Equal(t, targetDay.Add(15*time.Hour), resp.EndTime)
	assert.Equal(t, []outbox.Kind{outbox.KindBookingRescheduled}, f.outbox.enqueued)
}

func TestExecute_CutoffBoundary(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		// Политика оценивается по ТЕКУЩЕМУ началу, граница включающая
		{name: "exactly 24h before start is allowed", now: currentStart.Add(-24 * time.Hour)},
		{name: "36h before start is allowed", now: currentStart.Add(-36 * time.Hour)},
		{name: "23h59m before start is rejected", now: currentStart.Add(-24*time.Hour + time.Minute), wantErr: ErrPolicyViolation},
		{name: "one hour before start is rejected", now: currentStart.Add(-time.Hour), wantErr: ErrPolicyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := fixtureBooking()
			f := newFixture(booking, tt.now)

			_, err := f.uc.Execute(context.Background(), validRequest(booking))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, f.booking.updateCalls)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestExecute_TerminalBookingNotReschedulable(t *testing.T) {
	booking := fixtureBooking()
	booking.Status = domain.StatusCancelled
	f := newFixture(booking, currentStart.Add(-36*time.Hour))

	_, err := f.uc.Execute(context.Background(), validRequest(booking))
	assert.ErrorIs(t, err, ErrNotActive)
	assert.Equal(t, 0, f.booking.updateCalls)
}

func TestExecute_BookingNotFound(t *testing.T) {
	booking := fixtureBooking()
	f := newFixture(booking, currentStart.Add(-36*time.Hour))
	f.booking.booking = nil
	f.booking.getErr = bookingRepo.ErrBookingNotFound

	_, err := f.uc.Execute(context.Background(), validRequest(booking))
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_TargetSlotTaken(t *testing.T) {
	booking := fixtureBooking()
	f := newFixture(booking, currentStart.Add(-36*time.Hour))

	// Чужая запись 13:30-14:30 в целевой день пересекается с новым окном
	f.booking.existing = []*domain.Booking{{
		ID:            uuid.New(),
		StartTime:     targetDay.Add(13*time.Hour + 30*time.Minute),
		EndTime:       targetDay.Add(14*time.Hour + 30*time.Minute),
		ReservedUntil: targetDay.Add(14*time.Hour + 45*time.Minute),
		Status:        domain.StatusConfirmed,
	}}

	_, err := f.uc.Execute(context.Background(), validRequest(booking))
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Equal(t, 0, f.booking.updateCalls)
	assert.Empty(t, f.outbox.enqueued)
}

func TestExecute_IgnoresOwnWindowOnTargetDay(t *testing.T) {
	booking := fixtureBooking()
	// Перенос в рамках того же дня: своя запись в выборке дня не конфликт
	booking.StartTime = targetDay.Add(14 * time.Hour)
	booking.EndTime = targetDay.Add(15 * time.Hour)
	booking.ReservedUntil = targetDay.Add(15*time.Hour + 15*time.Minute)
	f := newFixture(booking, booking.StartTime.Add(-36*time.Hour))
	f.booking.existing = []*domain.Booking{booking}

	resp, err := f.uc.Execute(context.Background(), validRequest(booking))
	require.NoError(t, err)
	assert.Equal(t, targetDay.Add(14*time.Hour), resp.StartTime)
}

func TestExecute_NewSlotMustPassCalendarRules(t *testing.T) {
	booking := fixtureBooking()
	f := newFixture(booking, currentStart.Add(-36*time.Hour))

	req := validRequest(booking)
	req.Date = targetDay.AddDate(0, 0, 1) // суббота, салон закрыт

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrSalonClosed)
	assert.Equal(t, 0, f.booking.updateCalls)
}

func TestExecute_ConcurrentCommitLosesSlot(t *testing.T) {
	booking := fixtureBooking()
	f := newFixture(booking, currentStart.Add(-36*time.Hour))
	f.booking.updateErr = bookingRepo.ErrSlotTaken

	_, err := f.uc.Execute(context.Background(), validRequest(booking))
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Empty(t, f.outbox.enqueued)
}
