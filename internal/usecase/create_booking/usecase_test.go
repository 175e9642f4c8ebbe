package create_booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	subscriptionRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/subscription"
	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/payprovider"
	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// --- фейки зависимостей ---

type fakeBookingRepo struct {
	existing  []*domain.Booking
	created   *domain.Booking
	createErr error
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = booking
	return booking, nil
}

func (f *fakeBookingRepo) GetForDay(_ context.Context, _ domain.SalonBookingsFilter) ([]*domain.Booking, error) {
	return f.existing, nil
}

// raceBookingRepo имитирует exclusion constraint БД: первая вставка
// пересекающегося окна выигрывает, остальные получают ErrSlotTaken на Create
type raceBookingRepo struct {
	mu      sync.Mutex
	created []*domain.Booking
}

func (f *raceBookingRepo) GetForDay(_ context.Context, _ domain.SalonBookingsFilter) ([]*domain.Booking, error) {
	// Все конкуренты стартуют с одинакового снимка дня - гонку решает Create
	return nil, nil
}

func (f *raceBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.created {
		if booking.Window().Overlaps(existing.Window()) {
			return nil, bookingRepo.ErrSlotTaken
		}
	}
	f.created = append(f.created, booking)
	return booking, nil
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

type fakeSubscriptionRepo struct {
	sub          *domain.Subscription
	getErr       error
	incrementErr error
	increments   int
}

func (f *fakeSubscriptionRepo) GetBySalonID(_ context.Context, _ int64) (*domain.Subscription, error) {
	return f.sub, f.getErr
}

func (f *fakeSubscriptionRepo) TryIncrement(_ context.Context, _ int64) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.increments++
	return nil
}

type fakeOutboxRepo struct {
	enqueued []outbox.Kind
}

func (f *fakeOutboxRepo) Enqueue(_ context.Context, _ uuid.UUID, kind outbox.Kind, _ []byte) error {
	f.enqueued = append(f.enqueued, kind)
	return nil
}

type fakePayClient struct {
	session *payprovider.CheckoutSession
	err     error
	calls   int
}

func (f *fakePayClient) CreateCheckoutSession(_ context.Context, _ *domain.Booking) (*payprovider.CheckoutSession, error) {
	f.calls++
	return f.session, f.err
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

var bookingDate = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) // вторник

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

func fixtureService() *domain.Service {
	return &domain.Service{
		ID:              2,
		SalonID:         1,
		Name:            "Haircut",
		DurationMinutes: 60,
		PriceCents:      500000,
		Active:          true,
	}
}

func validRequest() *Request {
	return &Request{
		SalonID:       1,
		ServiceID:     2,
		Date:          bookingDate,
		StartTime:     "11:00",
		CustomerName:  "Anna",
		CustomerPhone: "+79991234567",
	}
}

type fixture struct {
	uc      *UseCase
	booking *fakeBookingRepo
	sub     *fakeSubscriptionRepo
	outbox  *fakeOutboxRepo
	pay     *fakePayClient
}

func newFixture(salon *domain.Salon) *fixture {
	f := &fixture{
		booking: &fakeBookingRepo{},
		sub:     &fakeSubscriptionRepo{sub: &domain.Subscription{SalonID: 1, BookingLimit: domain.UnlimitedBookings}},
		outbox:  &fakeOutboxRepo{},
		pay:     &fakePayClient{session: &payprovider.CheckoutSession{ID: "cs_1", URL: "https://pay.example.com/cs_1"}},
	}
	f.uc = NewUseCase(
		f.booking,
		&fakeSalonRepo{salon: salon},
		&fakeCatalogRepo{service: fixtureService()},
		f.sub,
		f.outbox,
		f.pay,
		fakeTxManager{},
		nopLogger{},
	)
	// За два часа до слота 11:00 - ровно на границе минимального уведомления
	f.uc.timeProvider = fixedTime{t: bookingDate.Add(9 * time.Hour)}
	return f
}

// --- тесты ---

func TestExecute_ConfirmsImmediatelyWithoutDeposit(t *testing.T) {
	f := newFixture(fixtureSalon())

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Nil(t, resp.CheckoutURL)
	assert.False(t, resp.DepositRequired)

	// Квота расходуется атомарно при немедленном подтверждении
	assert.Equal(t, 1, f.sub.increments)
	assert.Equal(t, []outbox.Kind{outbox.KindBookingConfirmed}, f.outbox.enqueued)
	assert.Equal(t, 0, f.pay.calls)

	require.NotNil(t, f.booking.created)
	assert.Equal(t, bookingDate.Add(11*time.Hour), f.booking.created.StartTime)
	assert.Equal(t, bookingDate.Add(12*time.Hour), f.booking.created.EndTime)
	// Окно резервирования включает буфер салона
	assert.Equal(t, bookingDate.Add(12*time.Hour+15*time.Minute), f.booking.created.ReservedUntil)
	assert.Equal(t, "Haircut", f.booking.created.ServiceName)
}

func TestExecute_DepositCreatesPendingWithCheckout(t *testing.T) {
	salon := fixtureSalon()
	salon.DepositRequired = true
	salon.DepositPercent = 20
	f := newFixture(salon)

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.True(t, resp.DepositRequired)
	assert.Equal(t, int64(100000), resp.DepositCents)
	require.NotNil(t, resp.CheckoutURL)
	assert.Equal(t, "https://pay.example.com/cs_1", *resp.CheckoutURL)

	// Pending-бронирование квоту не расходует и уведомление не порождает
	assert.Equal(t, 0, f.sub.increments)
	assert.Empty(t, f.outbox.enqueued)
}

func TestExecute_CheckoutFailureKeepsBooking(t *testing.T) {
	salon := fixtureSalon()
	salon.DepositRequired = true
	salon.DepositPercent = 20
	f := newFixture(salon)
	f.pay.session = nil
	f.pay.err = errors.New("provider is down")

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	// Сбой провайдера не откатывает бронирование, ссылки на оплату просто нет
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Nil(t, resp.CheckoutURL)
	assert.NotNil(t, f.booking.created)
}

func TestExecute_SlotTakenOnOverlap(t *testing.T) {
	f := newFixture(fixtureSalon())

	// Существующая запись 10:30-11:30, окно до 11:45 - пересекается с 11:00
	existing := &domain.Booking{
		ID:            uuid.New(),
		StartTime:     bookingDate.Add(10*time.Hour + 30*time.Minute),
		EndTime:       bookingDate.Add(11*time.Hour + 30*time.Minute),
		ReservedUntil: bookingDate.Add(11*time.Hour + 45*time.Minute),
		Status:        domain.StatusConfirmed,
	}
	f.booking.existing = []*domain.Booking{existing}

	_, err := f.uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Nil(t, f.booking.created)
	assert.Empty(t, f.outbox.enqueued)
}

func TestExecute_BufferBlocksAdjacentSlot(t *testing.T) {
	f := newFixture(fixtureSalon())

	// Запись 10:00-11:00 с буфером держит окно до 11:15: слот 11:00 занят
	existing := &domain.Booking{
		ID:            uuid.New(),
		StartTime:     bookingDate.Add(10 * time.Hour),
		EndTime:       bookingDate.Add(11 * time.Hour),
		ReservedUntil: bookingDate.Add(11*time.Hour + 15*time.Minute),
		Status:        domain.StatusConfirmed,
	}
	f.booking.existing = []*domain.Booking{existing}

	_, err := f.uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestExecute_ConcurrentRequestsSingleWinner(t *testing.T) {
	const racers = 8

	f := newFixture(fixtureSalon())
	// Безлимитная квота, чтобы гонку решало только резервирование слота
	f.sub.incrementErr = subscriptionRepo.ErrSubscriptionNotFound
	repo := &raceBookingRepo{}
	f.uc.bookingRepo = repo

	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Execute(context.Background(), validRequest())
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Ровно один конкурент получает слот, остальные - конфликт
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)
	assert.Len(t, repo.created, 1)
}

func TestExecute_QuotaExceeded(t *testing.T) {
	f := newFixture(fixtureSalon())
	f.sub.incrementErr = subscriptionRepo.ErrQuotaExceeded

	_, err := f.uc.Execute(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Nil(t, f.booking.created)
}

func TestExecute_NoSubscriptionTreatedAsUnlimited(t *testing.T) {
	f := newFixture(fixtureSalon())
	f.sub.incrementErr = subscriptionRepo.ErrSubscriptionNotFound

	resp, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
}

func TestExecute_CalendarViolations(t *testing.T) {
	tests := []struct {
		name      string
		startTime string
		now       time.Time
		wantErr   error
	}{
		{
			name:      "too late to book",
			startTime: "11:00",
			now:       bookingDate.Add(10 * time.Hour), // за час до начала при уведомлении 2ч
			wantErr:   ErrTooLateToBook,
		},
		{
			name:      "off grid start",
			startTime: "11:10",
			now:       bookingDate.Add(8 * time.Hour),
			wantErr:   ErrInvalidTimeSlot,
		},
		{
			name:      "overflows closing time",
			startTime: "17:30",
			now:       bookingDate.Add(8 * time.Hour),
			wantErr:   ErrInvalidTimeSlot,
		},
		{
			name:      "beyond horizon",
			startTime: "11:00",
			now:       bookingDate.AddDate(0, 0, -45),
			wantErr:   ErrDateTooFarInFuture,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(fixtureSalon())
			f.uc.timeProvider = fixedTime{t: tt.now}

			req := validRequest()
			req.StartTime = types.TimeString(tt.startTime)

			_, err := f.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute_ClosedAndBlockedDays(t *testing.T) {
	t.Run("closed weekday", func(t *testing.T) {
		f := newFixture(fixtureSalon())
		req := validRequest()
		req.Date = bookingDate.AddDate(0, 0, 4) // суббота
		f.uc.timeProvider = fixedTime{t: req.Date.Add(8 * time.Hour)}

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrSalonClosed)
	})

	t.Run("blocked date", func(t *testing.T) {
		salon := fixtureSalon()
		salon.BlockedDates["2026-03-10"] = struct{}{}
		f := newFixture(salon)

		_, err := f.uc.Execute(context.Background(), validRequest())
		assert.ErrorIs(t, err, ErrSalonClosed)
	})
}

func TestExecute_InvalidInput(t *testing.T) {
	f := newFixture(fixtureSalon())

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{name: "zero salon id", mutate: func(r *Request) { r.SalonID = 0 }},
		{name: "empty customer name", mutate: func(r *Request) { r.CustomerName = "  " }},
		{name: "short phone", mutate: func(r *Request) { r.CustomerPhone = "+7999" }},
		{name: "bad start time", mutate: func(r *Request) { r.StartTime = "25:99" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := f.uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
