// Package process_payment_event обрабатывает верифицированные события
// платежного провайдера: подтверждение депозита бронирования и события
// биллинга подписки салона. Обработка идемпотентна по reference события.
package process_payment_event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
	subscriptionRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/subscription"
	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/payprovider"
)

// UseCase use case обработки платежных событий
type UseCase struct {
	bookingRepo      BookingRepository
	salonRepo        SalonRepository
	catalogRepo      CatalogRepository
	paymentEventRepo PaymentEventRepository
	subscriptionRepo SubscriptionRepository
	outboxRepo       OutboxRepository
	payClient        PaymentClient
	txManager        TransactionManager
	timeProvider     TimeProvider
	logger           Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	salonRepo SalonRepository,
	catalogRepo CatalogRepository,
	paymentEventRepo PaymentEventRepository,
	subscriptionRepo SubscriptionRepository,
	outboxRepo OutboxRepository,
	payClient PaymentClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:      bookingRepo,
		salonRepo:        salonRepo,
		catalogRepo:      catalogRepo,
		paymentEventRepo: paymentEventRepo,
		subscriptionRepo: subscriptionRepo,
		outboxRepo:       outboxRepo,
		payClient:        payClient,
		txManager:        txManager,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute обрабатывает событие платежного провайдера.
// Дедупликация, переход статуса и расход квоты идут в одной транзакции:
// два конкурентных дохода одного webhook-а разрешаются на вставке reference,
// проигравший увидит duplicate и ничего не изменит.
func (uc *UseCase) Execute(ctx context.Context, event *payprovider.Event) (*Response, error) {
	uc.logger.Info("ProcessPaymentEvent: reference=%s, type=%s", event.Reference, event.Type)

	if event.Reference == "" {
		uc.logger.Warn("ProcessPaymentEvent: event without reference")
		return nil, fmt.Errorf("%w: reference is required", ErrInvalidInput)
	}

	if event.IsSubscriptionEvent() {
		return uc.processSubscriptionEvent(ctx, event)
	}

	return uc.processBookingPayment(ctx, event)
}

// processBookingPayment подтверждает оплату депозита бронирования.
// Транзакция сериализуемая: для checkout-событий без существующего
// бронирования внутри нее выполняется резервирование слота
func (uc *UseCase) processBookingPayment(ctx context.Context, event *payprovider.Event) (*Response, error) {
	var (
		outcome Outcome
		booking *domain.Booking
		refund  bool
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Дедупликация по reference события
		inserted, err := uc.paymentEventRepo.RecordOnce(txCtx, event.Reference, string(event.Type), event.BookingID)
		if err != nil {
			uc.logger.Error("ProcessPaymentEvent: failed to record event %s: %v", event.Reference, err)
			return fmt.Errorf("%w: record event: %v", ErrInternal, err)
		}
		if !inserted {
			uc.logger.Info("ProcessPaymentEvent: event %s already processed", event.Reference)
			outcome = OutcomeDuplicate
			return nil
		}

		// 2. Сопоставляем платеж с бронированием: напрямую по booking_id
		// из metadata или по идентификатору платежа
		booking, err = uc.findBooking(txCtx, event)
		if err != nil {
			// Топология "бронирование создается только после оплаты":
			// checkout-событие несет метаданные слота, а самой записи еще нет -
			// резервирование и начальный статус выполняются прямо здесь.
			// Если слот за время оплаты заняли, событие остается записанным
			// (повтор webhook-а не создаст второй возврат), депозит
			// возвращается после коммита
			if errors.Is(err, ErrBookingNotFound) && eventCreatesBooking(event) {
				created, createErr := uc.createFromCheckout(txCtx, event)
				switch {
				case createErr == nil:
					booking = created
					outcome = OutcomeCreated
					return nil
				case errors.Is(createErr, ErrSlotConflict):
					outcome = OutcomeConflict
					refund = true
					return nil
				default:
					return createErr
				}
			}
			return err
		}

		// 3. Применяем подтверждение оплаты
		changed, err := domain.ApplyPaymentConfirmation(booking, event.PaymentRef, uc.timeProvider.Now())
		if err != nil {
			if errors.Is(err, domain.ErrStaleEvent) {
				// Платеж опоздал: бронирование уже в терминальном статусе.
				// Событие остается записанным (повтор webhook-а не создаст
				// второй возврат), депозит возвращается после коммита.
				uc.logger.Warn("ProcessPaymentEvent: stale payment %s for booking id=%s (status=%s)",
					event.Reference, booking.ID, booking.Status)
				outcome = OutcomeStale
				refund = true
				return nil
			}
			return fmt.Errorf("%w: apply confirmation: %v", ErrInternal, err)
		}

		if !changed {
			uc.logger.Info("ProcessPaymentEvent: booking id=%s already confirmed", booking.ID)
			outcome = OutcomeAlreadyConfirmed
			return nil
		}

		// 4. Фиксируем переход pending -> confirmed
		if err := uc.bookingRepo.ConfirmPayment(txCtx, booking.ID, event.PaymentRef); err != nil {
			uc.logger.Error("ProcessPaymentEvent: failed to confirm booking id=%s: %v", booking.ID, err)
			return fmt.Errorf("%w: confirm payment: %v", ErrInternal, err)
		}

		// 5. Расходуем квоту безусловно: деньги клиента приняты,
		// подтверждение не отзывается даже при исчерпанном лимите
		if err := uc.consumeQuota(txCtx, booking.SalonID); err != nil {
			return err
		}

		// 6. Уведомление о подтверждении в той же транзакции
		if err := uc.enqueueConfirmed(txCtx, booking); err != nil {
			return err
		}

		outcome = OutcomeConfirmed
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Возврат депозита после коммита, best-effort: сбой возврата не должен
	// откатить запись о событии, иначе повтор webhook-а удвоит возврат.
	// При конфликте резервирования бронирования нет - возврат идет с нулевым ID
	if refund && event.PaymentRef != "" {
		var bookingID uuid.UUID
		if booking != nil {
			bookingID = booking.ID
		}
		if err := uc.payClient.RefundDeposit(ctx, event.PaymentRef, bookingID); err != nil {
			uc.logger.Error("ProcessPaymentEvent: failed to refund payment %s: %v", event.PaymentRef, err)
		}
	}

	resp := &Response{Outcome: outcome}
	if booking != nil {
		id := booking.ID.String()
		resp.BookingID = &id
	}

	uc.logger.Info("ProcessPaymentEvent: event %s processed, outcome=%s", event.Reference, outcome)
	return resp, nil
}

// findBooking сопоставляет событие с бронированием
func (uc *UseCase) findBooking(ctx context.Context, event *payprovider.Event) (*domain.Booking, error) {
	if event.BookingID != nil {
		booking, err := uc.bookingRepo.GetByID(ctx, *event.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Error("ProcessPaymentEvent: booking id=%s from metadata not found", *event.BookingID)
				return nil, ErrBookingNotFound
			}
			return nil, fmt.Errorf("%w: get booking: %v", ErrInternal, err)
		}
		return booking, nil
	}

	if event.PaymentRef == "" {
		uc.logger.Warn("ProcessPaymentEvent: event %s has no booking correlation", event.Reference)
		return nil, fmt.Errorf("%w: no booking correlation in event", ErrInvalidInput)
	}

	booking, err := uc.bookingRepo.GetByPaymentReference(ctx, event.PaymentRef)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			uc.logger.Error("ProcessPaymentEvent: no booking for payment %s", event.PaymentRef)
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: get booking by payment: %v", ErrInternal, err)
	}
	return booking, nil
}

// eventCreatesBooking проверяет, что checkout-событие несет метаданные слота
// и может создать бронирование после оплаты
func eventCreatesBooking(event *payprovider.Event) bool {
	return event.Type == payprovider.EventCheckoutCompleted &&
		event.SalonID > 0 && event.ServiceID != nil && event.StartTime != nil
}

// createFromCheckout создает подтвержденное бронирование по оплаченной
// checkout-сессии. Повторяет резервирование из create_booking: перечитывание
// активных бронирований дня с FOR UPDATE, проверка пересечения окон, вставка
// под exclusion constraint. Календарные правила повторно не проверяются -
// слот прошел их при создании сессии, а отклонять оплаченную запись из-за
// успевшего истечь min_notice нельзя
func (uc *UseCase) createFromCheckout(ctx context.Context, event *payprovider.Event) (*domain.Booking, error) {
	salon, err := uc.salonRepo.GetByID(ctx, event.SalonID)
	if err != nil {
		if errors.Is(err, salonRepo.ErrSalonNotFound) {
			uc.logger.Error("ProcessPaymentEvent: salon id=%d from checkout metadata not found", event.SalonID)
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("%w: get salon: %v", ErrInternal, err)
	}

	service, err := uc.catalogRepo.GetService(ctx, event.SalonID, *event.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Error("ProcessPaymentEvent: service id=%d from checkout metadata not found", *event.ServiceID)
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("%w: get service: %v", ErrInternal, err)
	}

	start := event.StartTime.In(salon.Location())
	day := start
	filter := domain.SalonBookingsFilter{
		SalonID: event.SalonID,
		StaffID: event.StaffID,
		Day:     &day,
	}

	bookings, err := uc.bookingRepo.GetForDay(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: get bookings: %v", ErrInternal, err)
	}

	window := domain.NewWindow(start, service.DurationMinutes, salon.BufferMinutes)
	for _, existing := range bookings {
		if window.Overlaps(existing.Window()) {
			uc.logger.Warn("ProcessPaymentEvent: paid slot overlaps booking id=%s", existing.ID)
			return nil, ErrSlotConflict
		}
	}

	booking := &domain.Booking{
		ID:              uuid.New(),
		SalonID:         event.SalonID,
		ServiceID:       *event.ServiceID,
		StaffID:         event.StaffID,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(service.DurationMinutes) * time.Minute),
		ReservedUntil:   window.End,
		DurationMinutes: service.DurationMinutes,
		Status:          domain.StatusConfirmed,
		ServiceName:     service.Name,
		PriceCents:      service.PriceCents,
		DepositRequired: true,
		DepositCents:    event.AmountCents,
		DepositPaid:     true,
		CustomerName:    event.CustomerName,
		CustomerPhone:   event.CustomerPhone,
		CustomerEmail:   event.CustomerEmail,
	}
	if event.PaymentRef != "" {
		ref := event.PaymentRef
		booking.PaymentReference = &ref
	}

	created, err := uc.bookingRepo.Create(ctx, booking)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrSlotTaken) {
			// Конкурентная вставка прошла первой - exclusion constraint сработал
			uc.logger.Warn("ProcessPaymentEvent: concurrent insert won the paid slot")
			return nil, ErrSlotConflict
		}
		return nil, fmt.Errorf("%w: create booking: %v", ErrInternal, err)
	}

	// Квота и уведомление - как при обычном платежном подтверждении
	if err := uc.consumeQuota(ctx, created.SalonID); err != nil {
		return nil, err
	}
	if err := uc.enqueueConfirmed(ctx, created); err != nil {
		return nil, err
	}

	uc.logger.Info("ProcessPaymentEvent: created booking id=%s from paid checkout", created.ID)
	return created, nil
}

// consumeQuota безусловно инкрементирует счетчик квоты салона.
// Салон без подписки трактуется как безлимитный - это не повод
// возвращать провайдеру 5xx и зацикливать доставку webhook-а
func (uc *UseCase) consumeQuota(ctx context.Context, salonID int64) error {
	err := uc.subscriptionRepo.Increment(ctx, salonID)
	if err == nil {
		return nil
	}
	if errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound) {
		uc.logger.Warn("ProcessPaymentEvent: salon id=%d has no subscription, skipping quota increment", salonID)
		return nil
	}
	uc.logger.Error("ProcessPaymentEvent: failed to increment quota for salon id=%d: %v", salonID, err)
	return fmt.Errorf("%w: increment quota: %v", ErrInternal, err)
}

// processSubscriptionEvent обрабатывает события биллинга подписки салона
func (uc *UseCase) processSubscriptionEvent(ctx context.Context, event *payprovider.Event) (*Response, error) {
	if event.SalonID <= 0 {
		uc.logger.Warn("ProcessPaymentEvent: subscription event %s without salon id", event.Reference)
		return nil, fmt.Errorf("%w: salon id is required for subscription events", ErrInvalidInput)
	}

	var outcome Outcome

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		inserted, err := uc.paymentEventRepo.RecordOnce(txCtx, event.Reference, string(event.Type), nil)
		if err != nil {
			return fmt.Errorf("%w: record event: %v", ErrInternal, err)
		}
		if !inserted {
			uc.logger.Info("ProcessPaymentEvent: subscription event %s already processed", event.Reference)
			outcome = OutcomeDuplicate
			return nil
		}

		switch event.Type {
		case payprovider.EventSubscriptionCreated, payprovider.EventSubscriptionUpdated:
			limit := domain.UnlimitedBookings
			if event.BookingLimit != nil {
				limit = *event.BookingLimit
			}
			if err := uc.subscriptionRepo.UpdateFromProvider(txCtx, event.SalonID, event.Tier, limit, event.SubscriptionRef); err != nil {
				return fmt.Errorf("%w: update subscription: %v", ErrInternal, err)
			}

		case payprovider.EventSubscriptionDeleted:
			// Отмена подписки переводит салон на бесплатный тариф с нулевой
			// квотой; существующие бронирования не трогаем
			if err := uc.subscriptionRepo.UpdateFromProvider(txCtx, event.SalonID, "free", 0, nil); err != nil {
				return fmt.Errorf("%w: downgrade subscription: %v", ErrInternal, err)
			}

		case payprovider.EventInvoicePaid:
			if event.PeriodStart == nil || event.PeriodEnd == nil {
				return fmt.Errorf("%w: invoice.paid without billing period", ErrInvalidInput)
			}
			if err := uc.subscriptionRepo.ResetPeriod(txCtx, event.SalonID, *event.PeriodStart, *event.PeriodEnd); err != nil {
				return fmt.Errorf("%w: reset period: %v", ErrInternal, err)
			}

		case payprovider.EventInvoiceFailed:
			// Неоплаченный счет квоту не трогает: провайдер сам ретраит
			// списание, а деградацию тарифа принесет subscription.updated
			uc.logger.Warn("ProcessPaymentEvent: invoice payment failed for salon id=%d", event.SalonID)

		default:
			return fmt.Errorf("%w: unexpected subscription event type %q", ErrInvalidInput, event.Type)
		}

		outcome = OutcomeSubscriptionUpdated
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("ProcessPaymentEvent: subscription event %s processed for salon id=%d", event.Reference, event.SalonID)
	return &Response{Outcome: outcome}, nil
}

// enqueueConfirmed ставит уведомление о подтверждении в outbox в текущей транзакции
func (uc *UseCase) enqueueConfirmed(ctx context.Context, booking *domain.Booking) error {
	payload, err := json.Marshal(map[string]interface{}{
		"bookingId":     booking.ID.String(),
		"salonId":       booking.SalonID,
		"serviceName":   booking.ServiceName,
		"startTime":     booking.StartTime.Format(time.RFC3339),
		"customerName":  booking.CustomerName,
		"customerPhone": booking.CustomerPhone,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal notification payload: %v", ErrInternal, err)
	}

	if err := uc.outboxRepo.Enqueue(ctx, booking.ID, outbox.KindBookingConfirmed, payload); err != nil {
		uc.logger.Error("ProcessPaymentEvent: failed to enqueue notification for booking id=%s: %v", booking.ID, err)
		return fmt.Errorf("%w: enqueue notification: %v", ErrInternal, err)
	}

	return nil
}
