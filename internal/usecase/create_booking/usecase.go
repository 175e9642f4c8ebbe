package create_booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/calendar"
	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/catalog"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
	subscriptionRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/subscription"
)

// UseCase use case для создания бронирования
type UseCase struct {
	bookingRepo      BookingRepository
	salonRepo        SalonRepository
	catalogRepo      CatalogRepository
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
		subscriptionRepo: subscriptionRepo,
		outboxRepo:       outboxRepo,
		payClient:        payClient,
		txManager:        txManager,
		timeProvider:     &RealTimeProvider{},
		logger:           logger,
	}
}

// Execute выполняет use case создания бронирования.
// Критическая секция резервирования идет в сериализуемой транзакции:
// календарная валидация, перечитывание активных бронирований дня с FOR UPDATE,
// проверка пересечения окон и вставка. Exclusion constraint в БД дублирует
// проверку пересечения на случай конкурентного коммита.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: salon=%d, service=%d, staff=%v, date=%s, time=%s",
		req.SalonID, req.ServiceID, req.StaffID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Получаем салон с расписанием и политиками
	salon, err := uc.salonRepo.GetByID(ctx, req.SalonID)
	if err != nil {
		if errors.Is(err, salonRepo.ErrSalonNotFound) {
			uc.logger.Warn("CreateBooking: salon id=%d not found", req.SalonID)
			return nil, ErrSalonNotFound
		}
		uc.logger.Error("CreateBooking: failed to get salon id=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: failed to get salon: %v", ErrInternal, err)
	}

	// 3. Получаем услугу (длительность и цена фиксируются на момент бронирования)
	service, err := uc.catalogRepo.GetService(ctx, req.SalonID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%d not found in salon id=%d", req.ServiceID, req.SalonID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	if !service.Active {
		uc.logger.Warn("CreateBooking: service id=%d is inactive", req.ServiceID)
		return nil, ErrServiceNotFound
	}

	// 4. Если указан мастер - он должен существовать и принимать записи
	if req.StaffID != nil {
		staff, err := uc.catalogRepo.GetStaff(ctx, req.SalonID, *req.StaffID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrStaffNotFound) {
				uc.logger.Warn("CreateBooking: staff id=%d not found in salon id=%d", *req.StaffID, req.SalonID)
				return nil, ErrStaffNotFound
			}
			uc.logger.Error("CreateBooking: failed to get staff id=%d: %v", *req.StaffID, err)
			return nil, fmt.Errorf("%w: failed to get staff: %v", ErrInternal, err)
		}
		if !staff.AcceptsBookings {
			uc.logger.Warn("CreateBooking: staff id=%d does not accept bookings", *req.StaffID)
			return nil, ErrStaffNotFound
		}
	}

	// 5. Собираем момент начала в таймзоне салона
	loc := salon.Location()
	start, err := req.StartTime.OnDate(req.Date.In(loc), loc)
	if err != nil {
		uc.logger.Warn("CreateBooking: invalid start time %s: %v", req.StartTime, err)
		return nil, fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}

	depositCents := salon.DepositFor(service.PriceCents)
	depositRequired := depositCents > 0

	var result *domain.Booking

	// 6. Критическая секция резервирования
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 6.1. Календарные правила - те же, что при генерации сетки слотов
		if err := calendar.IsBookable(salon, start, service.DurationMinutes, now); err != nil {
			uc.logger.Warn("CreateBooking: calendar validation failed: %v", err)
			return mapCalendarError(err)
		}

		// 6.2. Квота подписки: бронирование без депозита подтверждается сразу
		// и потребляет квоту атомарно; pending-бронирование квоту не расходует
		// (она спишется при подтверждении оплаты), но исчерпанная квота
		// блокирует и его
		if depositRequired {
			if err := uc.checkQuota(txCtx, req.SalonID); err != nil {
				return err
			}
		} else {
			if err := uc.consumeQuota(txCtx, req.SalonID); err != nil {
				return err
			}
		}

		// 6.3. Перечитываем активные бронирования дня с блокировкой (FOR UPDATE)
		filter := domain.SalonBookingsFilter{
			SalonID: req.SalonID,
			StaffID: req.StaffID,
			Day:     &req.Date,
		}

		bookings, err := uc.bookingRepo.GetForDay(txCtx, filter)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		// 6.4. Проверяем пересечение окон резервирования
		window := domain.NewWindow(start, service.DurationMinutes, salon.BufferMinutes)
		for _, existing := range bookings {
			if window.Overlaps(existing.Window()) {
				uc.logger.Warn("CreateBooking: window overlaps booking id=%s", existing.ID)
				return ErrSlotTaken
			}
		}

		// 6.5. Создаем бронирование с денормализацией данных услуги
		booking := &domain.Booking{
			ID:              uuid.New(),
			SalonID:         req.SalonID,
			ServiceID:       req.ServiceID,
			StaffID:         req.StaffID,
			StartTime:       start,
			EndTime:         window.Start.Add(time.Duration(service.DurationMinutes) * time.Minute),
			ReservedUntil:   window.End,
			DurationMinutes: service.DurationMinutes,
			Status:          domain.StatusConfirmed,
			ServiceName:     service.Name,
			PriceCents:      service.PriceCents,
			DepositRequired: depositRequired,
			DepositCents:    depositCents,
			CustomerName:    req.CustomerName,
			CustomerPhone:   req.CustomerPhone,
			CustomerEmail:   req.CustomerEmail,
			Notes:           req.Notes,
		}
		if depositRequired {
			booking.Status = domain.StatusPending
		}

		created, err := uc.bookingRepo.Create(txCtx, booking)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				// Конкурентная вставка прошла первой - exclusion constraint сработал
				uc.logger.Warn("CreateBooking: concurrent insert won the slot")
				return ErrSlotTaken
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 6.6. Подтвержденное сразу бронирование порождает уведомление
		if created.Status == domain.StatusConfirmed {
			if err := uc.enqueueConfirmed(txCtx, created); err != nil {
				return err
			}
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%s, status=%s", result.ID, result.Status)

	resp := toResponse(result)

	// 7. Для pending-бронирования создаем сессию оплаты депозита.
	// Best-effort: сбой провайдера не откатывает бронирование,
	// клиент может запросить ссылку на оплату повторно.
	if depositRequired {
		session, err := uc.payClient.CreateCheckoutSession(ctx, result)
		if err != nil {
			uc.logger.Warn("CreateBooking: failed to create checkout session for booking id=%s: %v", result.ID, err)
		} else {
			resp.CheckoutURL = &session.URL
		}
	}

	return resp, nil
}

// checkQuota проверяет, что квота салона не исчерпана, без ее расходования.
// Салон без подписки трактуется как безлимитный.
func (uc *UseCase) checkQuota(ctx context.Context, salonID int64) error {
	sub, err := uc.subscriptionRepo.GetBySalonID(ctx, salonID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound) {
			uc.logger.Warn("CreateBooking: salon id=%d has no subscription, treating as unlimited", salonID)
			return nil
		}
		uc.logger.Error("CreateBooking: failed to get subscription for salon id=%d: %v", salonID, err)
		return fmt.Errorf("%w: failed to get subscription: %v", ErrInternal, err)
	}

	if !sub.CanAccept() {
		uc.logger.Warn("CreateBooking: quota exceeded for salon id=%d (%d/%d)",
			salonID, sub.BookingsThisPeriod, sub.BookingLimit)
		return ErrQuotaExceeded
	}

	return nil
}

// consumeQuota атомарно расходует единицу квоты салона.
// Проверка лимита и инкремент идут одним условным UPDATE,
// поэтому двум конкурентным бронированиям не достанется последняя единица дважды.
func (uc *UseCase) consumeQuota(ctx context.Context, salonID int64) error {
	err := uc.subscriptionRepo.TryIncrement(ctx, salonID)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound):
		uc.logger.Warn("CreateBooking: salon id=%d has no subscription, treating as unlimited", salonID)
		return nil
	case errors.Is(err, subscriptionRepo.ErrQuotaExceeded):
		uc.logger.Warn("CreateBooking: quota exceeded for salon id=%d", salonID)
		return ErrQuotaExceeded
	default:
		uc.logger.Error("CreateBooking: failed to consume quota for salon id=%d: %v", salonID, err)
		return fmt.Errorf("%w: failed to consume quota: %v", ErrInternal, err)
	}
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
		uc.logger.Error("CreateBooking: failed to enqueue notification for booking id=%s: %v", booking.ID, err)
		return fmt.Errorf("%w: enqueue notification: %v", ErrInternal, err)
	}

	return nil
}

func toResponse(b *domain.Booking) *Response {
	return &Response{
		ID:              b.ID.String(),
		SalonID:         b.SalonID,
		ServiceID:       b.ServiceID,
		StaffID:         b.StaffID,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		DurationMinutes: b.DurationMinutes,
		Status:          string(b.Status),
		ServiceName:     b.ServiceName,
		PriceCents:      b.PriceCents,
		DepositRequired: b.DepositRequired,
		DepositCents:    b.DepositCents,
		CustomerName:    b.CustomerName,
		CustomerPhone:   b.CustomerPhone,
		CustomerEmail:   b.CustomerEmail,
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
