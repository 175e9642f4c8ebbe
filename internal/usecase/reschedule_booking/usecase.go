package reschedule_booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-SalonBookingService/internal/calendar"
	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
)

// UseCase use case для переноса бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	salonRepo    SalonRepository
	outboxRepo   OutboxRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	salonRepo SalonRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		salonRepo:    salonRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case переноса бронирования.
// Политика cutoff проверяется по ТЕКУЩЕМУ началу бронирования:
// нельзя перенести запись, которую уже нельзя было бы отменить.
// Проверка нового окна и обновление идут в одной сериализуемой транзакции;
// при конфликте исходное бронирование остается нетронутым.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleBooking: booking=%s, date=%s, time=%s",
		req.BookingID, req.Date.Format(domain.DateFormat), req.StartTime)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleBooking: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	var result *domain.Booking

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2. Берем бронирование с блокировкой строки
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				uc.logger.Warn("RescheduleBooking: booking id=%s not found", req.BookingID)
				return ErrBookingNotFound
			}
			uc.logger.Error("RescheduleBooking: failed to get booking id=%s: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}

		// 3. Получаем салон с расписанием и политиками
		salon, err := uc.salonRepo.GetByID(txCtx, booking.SalonID)
		if err != nil {
			if errors.Is(err, salonRepo.ErrSalonNotFound) {
				uc.logger.Warn("RescheduleBooking: salon id=%d not found", booking.SalonID)
				return ErrSalonNotFound
			}
			uc.logger.Error("RescheduleBooking: failed to get salon id=%d: %v", booking.SalonID, err)
			return fmt.Errorf("%w: failed to get salon: %v", ErrInternal, err)
		}

		// 4. Политика cutoff по текущему началу
		if err := domain.CustomerMayModify(booking, salon, now); err != nil {
			switch {
			case errors.Is(err, domain.ErrPolicyViolation):
				uc.logger.Warn("RescheduleBooking: cutoff passed for booking id=%s", req.BookingID)
				return ErrPolicyViolation
			case errors.Is(err, domain.ErrInvalidTransition):
				uc.logger.Warn("RescheduleBooking: booking id=%s is not active", req.BookingID)
				return ErrNotActive
			default:
				return fmt.Errorf("%w: policy check: %v", ErrInternal, err)
			}
		}

		// 5. Собираем новый момент начала в таймзоне салона
		loc := salon.Location()
		start, err := req.StartTime.OnDate(req.Date.In(loc), loc)
		if err != nil {
			uc.logger.Warn("RescheduleBooking: invalid start time %s: %v", req.StartTime, err)
			return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
		}

		// 6. Новое начало проходит полный набор календарных правил,
		// включая минимальное уведомление и горизонт
		if err := calendar.IsBookable(salon, start, booking.DurationMinutes, now); err != nil {
			uc.logger.Warn("RescheduleBooking: calendar validation failed: %v", err)
			return mapCalendarError(err)
		}

		// 7. Проверяем пересечение нового окна с активными бронированиями дня,
		// исключая само переносимое бронирование
		filter := domain.SalonBookingsFilter{
			SalonID: booking.SalonID,
			StaffID: booking.StaffID,
			Day:     &req.Date,
		}

		bookings, err := uc.bookingRepo.GetForDay(txCtx, filter)
		if err != nil {
			uc.logger.Error("RescheduleBooking: failed to get bookings: %v", err)
			return fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
		}

		window := domain.NewWindow(start, booking.DurationMinutes, salon.BufferMinutes)
		for _, existing := range bookings {
			if existing.ID == booking.ID {
				continue
			}
			if window.Overlaps(existing.Window()) {
				uc.logger.Warn("RescheduleBooking: window overlaps booking id=%s", existing.ID)
				return ErrSlotTaken
			}
		}

		// 8. Обновляем расписание; exclusion constraint подстрахует от
		// конкурентного коммита, конфликт откатит транзакцию целиком
		end := start.Add(time.Duration(booking.DurationMinutes) * time.Minute)
		if err := uc.bookingRepo.UpdateSchedule(txCtx, booking.ID, start, end, window.End); err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				uc.logger.Warn("RescheduleBooking: concurrent insert won the slot")
				return ErrSlotTaken
			}
			uc.logger.Error("RescheduleBooking: failed to update schedule: %v", err)
			return fmt.Errorf("%w: failed to update schedule: %v", ErrInternal, err)
		}

		booking.StartTime = start
		booking.EndTime = end
		booking.ReservedUntil = window.End

		// 9. Уведомление о переносе в той же транзакции
		if err := uc.enqueueRescheduled(txCtx, booking); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("RescheduleBooking: successfully rescheduled booking id=%s to %s",
		result.ID, result.StartTime.Format(time.RFC3339))

	return &Response{
		ID:              result.ID.String(),
		SalonID:         result.SalonID,
		ServiceID:       result.ServiceID,
		StaffID:         result.StaffID,
		StartTime:       result.StartTime,
		EndTime:         result.EndTime,
		DurationMinutes: result.DurationMinutes,
		Status:          string(result.Status),
		ServiceName:     result.ServiceName,
		PriceCents:      result.PriceCents,
		UpdatedAt:       result.UpdatedAt,
	}, nil
}

// enqueueRescheduled ставит уведомление о переносе в outbox в текущей транзакции
func (uc *UseCase) enqueueRescheduled(ctx context.Context, booking *domain.Booking) error {
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

	if err := uc.outboxRepo.Enqueue(ctx, booking.ID, outbox.KindBookingRescheduled, payload); err != nil {
		uc.logger.Error("RescheduleBooking: failed to enqueue notification for booking id=%s: %v", booking.ID, err)
		return fmt.Errorf("%w: enqueue notification: %v", ErrInternal, err)
	}

	return nil
}
