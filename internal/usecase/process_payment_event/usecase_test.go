package process_payment_event

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
	subscriptionRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/subscription"
	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/payprovider"
)

// --- фейки зависимостей ---

type fakeBookingRepo struct {
	booking   *domain.Booking
	getErr    error
	existing  []*domain.Booking
	created   *domain.Booking
	createErr error
	confirmed int
}

func (f *fakeBookingRepo) GetByID(_ context.Context, _ uuid.UUID) (*domain.Booking, error) {
	return f.booking, f.getErr
}

func (f *fakeBookingRepo) GetByPaymentReference(_ context.Context, _ string) (*domain.Booking, error) {
	return f.booking, f.getErr
}

func (f *fakeBookingRepo) GetForDay(_ context.Context, _ domain.SalonBookingsFilter) ([]*domain.Booking, error) {
	return f.existing, nil
}

func (f *fakeBookingRepo) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = booking
	return booking, nil
}

func (f *fakeBookingRepo) ConfirmPayment(_ context.Context, _ uuid.UUID, _ string) error {
	f.confirmed++
	return nil
}

type fakeSalonRepo struct {
	salon *domain.Salon
}

func (f *fakeSalonRepo) GetByID(_ context.Context, _ int64) (*domain.Salon, error) {
	return f.salon, nil
}

type fakeCatalogRepo struct {
	service *domain.Service
}

func (f *fakeCatalogRepo) GetService(_ context.Context, _, _ int64) (*domain.Service, error) {
	return f.service, nil
}

// fakePaymentEventRepo имитирует дедупликацию по reference в памяти
type fakePaymentEventRepo struct {
	seen map[string]struct{}
}

func newFakePaymentEventRepo() *fakePaymentEventRepo {
	return &fakePaymentEventRepo{seen: map[string]struct{}{}}
}

func (f *fakePaymentEventRepo) RecordOnce(_ context.Context, reference, _ string, _ *uuid.UUID) (bool, error) {
	if _, ok := f.seen[reference]; ok {
		return false, nil
	}
	f.seen[reference] = struct{}{}
	return true, nil
}

type subscriptionCall struct {
	op          string
	salonID     int64
	tier        string
	limit       int
	periodStart time.Time
	periodEnd   time.Time
}

type fakeSubscriptionRepo struct {
	calls        []subscriptionCall
	incrementErr error
}

func (f *fakeSubscriptionRepo) Increment(_ context.Context, salonID int64) error {
	if f.incrementErr != nil {
		return f.incrementErr
	}
	f.calls = append(f.calls, subscriptionCall{op: "increment", salonID: salonID})
	return nil
}

func (f *fakeSubscriptionRepo) ResetPeriod(_ context.Context, salonID int64, periodStart, periodEnd time.Time) error {
	f.calls = append(f.calls, subscriptionCall{op: "reset", salonID: salonID, periodStart: periodStart, periodEnd: periodEnd})
	return nil
}

func (f *fakeSubscriptionRepo) UpdateFromProvider(_ context.Context, salonID int64, tier string, bookingLimit int, _ *string) error {
	f.calls = append(f.calls, subscriptionCall{op: "update", salonID: salonID, tier: tier, limit: bookingLimit})
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
	refunds []string
}

func (f *fakePayClient) RefundDeposit(_ context.Context, paymentRef string, _ uuid.UUID) error {
	f.refunds = append(f.refunds, paymentRef)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// --- фикстуры ---

func pendingBooking() *domain.Booking {
	start := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:              uuid.New(),
		SalonID:         1,
		ServiceID:       2,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		ReservedUntil:   start.Add(75 * time.Minute),
		DurationMinutes: 60,
		Status:          domain.StatusPending,
		DepositRequired: true,
		DepositCents:    100000,
		ServiceName:     "Haircut",
		CustomerName:    "Anna",
		CustomerPhone:   "+79991234567",
	}
}

func paymentEvent(booking *domain.Booking) *payprovider.Event {
	return &payprovider.Event{
		Reference:  "evt_001",
		Type:       payprovider.EventCheckoutCompleted,
		BookingID:  &booking.ID,
		PaymentRef: "pay_001",
	}
}

func fixtureSalon() *domain.Salon {
	return &domain.Salon{
		ID:            1,
		Name:          "Test Salon",
		BufferMinutes: 15,
		Timezone:      "UTC",
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

// checkoutEvent событие топологии "бронирование создается только после оплаты":
// booking_id нет, слот описан метаданными
func checkoutEvent() *payprovider.Event {
	serviceID := int64(2)
	start := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	return &payprovider.Event{
		Reference:     "evt_010",
		Type:          payprovider.EventCheckoutCompleted,
		SalonID:       1,
		ServiceID:     &serviceID,
		StartTime:     &start,
		AmountCents:   100000,
		PaymentRef:    "pay_010",
		CustomerName:  "Anna",
		CustomerPhone: "+79991234567",
	}
}

type fixture struct {
	uc      *UseCase
	booking *fakeBookingRepo
	events  *fakePaymentEventRepo
	sub     *fakeSubscriptionRepo
	outbox  *fakeOutboxRepo
	pay     *fakePayClient
}

func newFixture(booking *domain.Booking) *fixture {
	f := &fixture{
		booking: &fakeBookingRepo{booking: booking},
		events:  newFakePaymentEventRepo(),
		sub:     &fakeSubscriptionRepo{},
		outbox:  &fakeOutboxRepo{},
		pay:     &fakePayClient{},
	}
	f.uc = NewUseCase(
		f.booking,
		&fakeSalonRepo{salon: fixtureSalon()},
		&fakeCatalogRepo{service: fixtureService()},
		f.events,
		f.sub,
		f.outbox,
		f.pay,
		fakeTxManager{},
		nopLogger{},
	)
	return f
}

// --- тесты ---

func TestExecute_ConfirmsPendingBooking(t *testing.T) {
	booking := pendingBooking()
	f := newFixture(booking)

	resp, err := f.uc.Execute(context.Background(), paymentEvent(booking))
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfirmed, resp.Outcome)
	require.NotNil(t, resp.BookingID)
	assert.Equal(t, booking.ID.String(), *resp.BookingID)

	assert.Equal(t, 1, f.booking.confirmed)
	// Оплаченное бронирование расходует квоту безусловно
	require.Len(t, f.sub.calls, 1)
	assert.Equal(t, "increment", f.sub.calls[0].op)
	assert.Equal(t, []outbox.Kind{outbox.KindBookingConfirmed}, f.outbox.enqueued)
	assert.Empty(t, f.pay.refunds)
}

func TestExecute_DuplicateEventIsNoOp(t *testing.T) {
	booking := pendingBooking()
	f := newFixture(booking)

	first, err := f.uc.Execute(context.Background(), paymentEvent(booking))
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, first.Outcome)

	// Повтор того же webhook-а: квота списана один раз, уведомление одно
	booking.Status = domain.StatusConfirmed
	second, err := f.uc.Execute(context.Background(), paymentEvent(booking))
	require.NoError(t, err)

	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Equal(t, 1, f.booking.confirmed)
	assert.Len(t, f.sub.calls, 1)
	assert.Len(t, f.outbox.enqueued, 1)
}

func TestExecute_AlreadyConfirmedBooking(t *testing.T) {
	booking := pendingBooking()
	booking.Status = domain.StatusConfirmed
	f := newFixture(booking)

	// Другое событие (другой reference) для уже подтвержденного бронирования
	event := paymentEvent(booking)
	event.Reference = "evt_002"

	resp, err := f.uc.Execute(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, OutcomeAlreadyConfirmed, resp.Outcome)
	assert.Equal(t, 0, f.booking.confirmed)
	assert.Empty(t, f.sub.calls)
	assert.Empty(t, f.outbox.enqueued)
}

func TestExecute_StalePaymentTriggersRefund(t *testing.T) {
	booking := pendingBooking()
	booking.Status = domain.StatusCancelled
	f := newFixture(booking)

	resp, err := f.uc.Execute(context.Background(), paymentEvent(booking))
	require.NoError(t, err)

	assert.Equal(t, OutcomeStale, resp.Outcome)
	// Платеж опоздал: статус не тронут, квота не списана, депозит возвращен
	assert.Equal(t, 0, f.booking.confirmed)
	assert.Empty(t, f.sub.calls)
	assert.Equal(t, []string{"pay_001"}, f.pay.refunds)

	// Повтор webhook-а не создает второй возврат
	resp, err = f.uc.Execute(context.Background(), paymentEvent(booking))
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, resp.Outcome)
	assert.Len(t, f.pay.refunds, 1)
}

func TestExecute_MatchByPaymentReference(t *testing.T) {
	booking := pendingBooking()
	f := newFixture(booking)

	// Без booking_id в metadata сопоставление идет по идентификатору платежа
	event := paymentEvent(booking)
	event.BookingID = nil

	resp, err := f.uc.Execute(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, resp.Outcome)
}

func TestExecute_CheckoutCreatesBookingAfterPayment(t *testing.T) {
	f := newFixture(nil)
	f.booking.getErr = bookingRepo.ErrBookingNotFound

	resp, err := f.uc.Execute(context.Background(), checkoutEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, resp.Outcome)
	require.NotNil(t, resp.BookingID)

	created := f.booking.created
	require.NotNil(t, created)
	assert.Equal(t, domain.StatusConfirmed, created.Status)
	assert.True(t, created.DepositPaid)
	require.NotNil(t, created.PaymentReference)
	assert.Equal(t, "pay_010", *created.PaymentReference)
	assert.Equal(t, int64(100000), created.DepositCents)
	assert.Equal(t, "Haircut", created.ServiceName)

	start := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, start, created.StartTime)
	assert.Equal(t, start.Add(time.Hour), created.EndTime)
	// Окно резервирования включает буфер салона
	assert.Equal(t, start.Add(75*time.Minute), created.ReservedUntil)

	// Оплаченное создание расходует квоту и порождает уведомление
	require.Len(t, f.sub.calls, 1)
	assert.Equal(t, "increment", f.sub.calls[0].op)
	assert.Equal(t, []outbox.Kind{outbox.KindBookingConfirmed}, f.outbox.enqueued)
	assert.Empty(t, f.pay.refunds)
}

func TestExecute_CheckoutPaidSlotTakenRefunds(t *testing.T) {
	f := newFixture(nil)
	f.booking.getErr = bookingRepo.ErrBookingNotFound

	// Слот заняли, пока клиент оплачивал: запись 11:30-12:30 держит окно до 12:45
	taken := time.Date(2026, 3, 12, 11, 30, 0, 0, time.UTC)
	f.booking.existing = []*domain.Booking{{
		ID:            uuid.New(),
		StartTime:     taken,
		EndTime:       taken.Add(time.Hour),
		ReservedUntil: taken.Add(75 * time.Minute),
		Status:        domain.StatusConfirmed,
	}}

	resp, err := f.uc.Execute(context.Background(), checkoutEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeConflict, resp.Outcome)
	assert.Nil(t, f.booking.created)
	assert.Empty(t, f.sub.calls)
	assert.Empty(t, f.outbox.enqueued)
	// Оплаченный, но невыполнимый платеж возвращается, а не теряется
	assert.Equal(t, []string{"pay_010"}, f.pay.refunds)

	// Повтор webhook-а: событие записано, второго возврата нет
	resp, err = f.uc.Execute(context.Background(), checkoutEvent())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, resp.Outcome)
	assert.Len(t, f.pay.refunds, 1)
}

func TestExecute_CheckoutConcurrentInsertRefunds(t *testing.T) {
	f := newFixture(nil)
	f.booking.getErr = bookingRepo.ErrBookingNotFound
	// Конкурентная вставка выиграла на коммите - exclusion constraint
	f.booking.createErr = bookingRepo.ErrSlotTaken

	resp, err := f.uc.Execute(context.Background(), checkoutEvent())
	require.NoError(t, err)

	assert.Equal(t, OutcomeConflict, resp.Outcome)
	assert.Equal(t, []string{"pay_010"}, f.pay.refunds)
}

func TestExecute_NoSubscriptionSkipsQuota(t *testing.T) {
	booking := pendingBooking()
	f := newFixture(booking)
	f.sub.incrementErr = subscriptionRepo.ErrSubscriptionNotFound

	// Салон без подписки безлимитен: подтверждение не должно зацикливать
	// доставку webhook-а через 5xx
	resp, err := f.uc.Execute(context.Background(), paymentEvent(booking))
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfirmed, resp.Outcome)
	assert.Equal(t, 1, f.booking.confirmed)
	assert.Equal(t, []outbox.Kind{outbox.KindBookingConfirmed}, f.outbox.enqueued)
}

func TestExecute_UnmatchedBooking(t *testing.T) {
	booking := pendingBooking()
	f := newFixture(booking)
	f.booking.booking = nil
	f.booking.getErr = bookingRepo.ErrBookingNotFound

	_, err := f.uc.Execute(context.Background(), paymentEvent(booking))
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_MissingReference(t *testing.T) {
	f := newFixture(pendingBooking())

	_, err := f.uc.Execute(context.Background(), &payprovider.Event{Type: payprovider.EventCheckoutCompleted})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExecute_SubscriptionLifecycle(t *testing.T) {
	f := newFixture(nil)
	limit := 100

	t.Run("subscription created", func(t *testing.T) {
		resp, err := f.uc.Execute(context.Background(), &payprovider.Event{
			Reference:    "evt_sub_1",
			Type:         payprovider.EventSubscriptionCreated,
			SalonID:      1,
			Tier:         "pro",
			BookingLimit: &limit,
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSubscriptionUpdated, resp.Outcome)

		require.Len(t, f.sub.calls, 1)
		assert.Equal(t, subscriptionCall{op: "update", salonID: 1, tier: "pro", limit: 100}, f.sub.calls[0])
	})

	t.Run("update without limit means unlimited", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), &payprovider.Event{
			Reference: "evt_sub_2",
			Type:      payprovider.EventSubscriptionUpdated,
			SalonID:   1,
			Tier:      "enterprise",
		})
		require.NoError(t, err)

		require.Len(t, f.sub.calls, 2)
		assert.Equal(t, domain.UnlimitedBookings, f.sub.calls[1].limit)
	})

	t.Run("deletion downgrades to free with zero quota", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), &payprovider.Event{
			Reference: "evt_sub_3",
			Type:      payprovider.EventSubscriptionDeleted,
			SalonID:   1,
		})
		require.NoError(t, err)

		require.Len(t, f.sub.calls, 3)
		assert.Equal(t, subscriptionCall{op: "update", salonID: 1, tier: "free", limit: 0}, f.sub.calls[2])
	})

	t.Run("invoice paid resets the period", func(t *testing.T) {
		start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

		_, err := f.uc.Execute(context.Background(), &payprovider.Event{
			Reference:   "evt_inv_1",
			Type:        payprovider.EventInvoicePaid,
			SalonID:     1,
			PeriodStart: &start,
			PeriodEnd:   &end,
		})
		require.NoError(t, err)

		require.Len(t, f.sub.calls, 4)
		assert.Equal(t, subscriptionCall{op: "reset", salonID: 1, periodStart: start, periodEnd: end}, f.sub.calls[3])
	})

	t.Run("invoice paid without period is rejected", func(t *testing.T) {
		_, err := f.uc.Execute(context.Background(), &payprovider.Event{
			Reference: "evt_inv_2",
			Type:      payprovider.EventInvoicePaid,
			SalonID:   1,
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("failed invoice does not touch quota", func(t *testing.T) {
		resp, err := f.uc.Execute(context.Background(), &payprovider.Event{
			Reference: "evt_inv_3",
			Type:      payprovider.EventInvoiceFailed,
			SalonID:   1,
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeSubscriptionUpdated, resp.Outcome)
		assert.Len(t, f.sub.calls, 4)
	})

	t.Run("duplicate subscription event", func(t *testing.T) {
		resp, err := f.uc.Execute(context.Background(), &payprovider.Event{
			Reference: "evt_sub_1",
			Type:      payprovider.EventSubscriptionCreated,
			SalonID:   1,
			Tier:      "pro",
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, resp.Outcome)
		assert.Len(t, f.sub.calls, 4)
	})
}
