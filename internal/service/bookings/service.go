// Package bookings реализует операции управления существующим бронированием:
// просмотр по токену, клиентскую отмену с проверкой политики салона,
// переходы статусов по инициативе сотрудников и дневной список салона.
package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/outbox"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
	"github.com/m04kA/SMC-SalonBookingService/internal/service/bookings/models"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo  BookingRepository
	salonRepo    SalonRepository
	outboxRepo   OutboxRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	salonRepo SalonRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo:  bookingRepo,
		salonRepo:    salonRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// GetByToken получает бронирование по его ID.
// ID выступает capability-токеном: знание токена и есть право просмотра,
// отдельной аутентификации у публичной страницы управления нет.
func (s *Service) GetByToken(ctx context.Context, id uuid.UUID) (*models.BookingResponse, error) {
	s.logger.Info("GetByToken: fetching booking id=%s", id)

	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByToken: booking id=%s not found", id)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByToken: repository error for booking id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByToken - repository error: %v", ErrInternal, err)
	}

	salon, err := s.getSalon(ctx, booking.SalonID)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBooking(booking, salon, s.timeProvider.Now()), nil
}

// Cancel отменяет бронирование по инициативе клиента.
// Политика салона проверяется по текущему времени: меньше cutoff часов
// до начала - отмена запрещена, ровно cutoff - еще разрешена.
// Переход и постановка уведомления в outbox выполняются в одной транзакции.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	s.logger.Info("Cancel: cancelling booking id=%s", id)

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		// Внутри транзакции GetByID берет строку с FOR UPDATE,
		// поэтому параллельная отмена или платежное подтверждение сериализуются
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		salon, err := s.getSalon(ctx, booking.SalonID)
		if err != nil {
			return err
		}

		now := s.timeProvider.Now()
		if err := domain.ApplyCustomerCancel(booking, salon, now); err != nil {
			switch {
			case errors.Is(err, domain.ErrPolicyViolation):
				return ErrCannotCancel
			case errors.Is(err, domain.ErrInvalidTransition):
				return ErrInvalidTransition
			default:
				return fmt.Errorf("%w: Cancel - apply cancel: %v", ErrInternal, err)
			}
		}

		if err := s.bookingRepo.UpdateStatus(ctx, id, booking.Status, booking.CancelledAt); err != nil {
			return fmt.Errorf("%w: Cancel - update status: %v", ErrInternal, err)
		}

		return s.enqueueNotification(ctx, booking, outbox.KindBookingCancelled)
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrCannotCancel) || errors.Is(err, ErrInvalidTransition) {
			s.logger.Warn("Cancel: booking id=%s: %v", id, err)
		} else {
			s.logger.Error("Cancel: booking id=%s: %v", id, err)
		}
		return err
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%s", id)
	return nil
}

// UpdateStatus выполняет переход статуса по инициативе сотрудника салона.
// Сотрудник может отменить активное бронирование в любой момент (cutoff
// на него не распространяется), а no_show/completed - только после начала.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req *models.UpdateStatusRequest) error {
	s.logger.Info("UpdateStatus: updating booking id=%s to status=%s by staff=%d", id, req.Status, req.StaffID)

	newStatus, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%s", req.Status, id)
		return fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
		}

		if err := domain.ApplyStaffTransition(booking, newStatus, s.timeProvider.Now()); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				return ErrInvalidTransition
			}
			return fmt.Errorf("%w: UpdateStatus - apply transition: %v", ErrInternal, err)
		}

		if err := s.bookingRepo.UpdateStatus(ctx, id, booking.Status, booking.CancelledAt); err != nil {
			return fmt.Errorf("%w: UpdateStatus - update status: %v", ErrInternal, err)
		}

		if newStatus == domain.StatusCancelled {
			return s.enqueueNotification(ctx, booking, outbox.KindBookingCancelled)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) || errors.Is(err, ErrInvalidTransition) {
			s.logger.Warn("UpdateStatus: booking id=%s: %v", id, err)
		} else {
			s.logger.Error("UpdateStatus: booking id=%s: %v", id, err)
		}
		return err
	}

	s.logger.Info("UpdateStatus: successfully updated booking id=%s to status=%s", id, newStatus)
	return nil
}

// GetSalonDay получает бронирования салона на день с фильтрацией
// по мастеру и статусу. Доступно только сотрудникам салона.
func (s *Service) GetSalonDay(ctx context.Context, req *models.GetSalonDayRequest) (*models.BookingListResponse, error) {
	s.logger.Info("GetSalonDay: fetching bookings for salon=%d, day=%s", req.SalonID, req.Day.Format(domain.DateFormat))

	salon, err := s.getSalon(ctx, req.SalonID)
	if err != nil {
		return nil, err
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetSalonDay: invalid filter for salon=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.GetForDay(ctx, filter)
	if err != nil {
		s.logger.Error("GetSalonDay: repository error for salon=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: GetSalonDay - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetSalonDay: successfully fetched %d bookings for salon=%d", len(bookings), req.SalonID)
	return models.FromDomainBookingList(bookings, salon, s.timeProvider.Now()), nil
}

// Вспомогательные методы

func (s *Service) getSalon(ctx context.Context, salonID int64) (*domain.Salon, error) {
	salon, err := s.salonRepo.GetByID(ctx, salonID)
	if err != nil {
		if errors.Is(err, salonRepo.ErrSalonNotFound) {
			s.logger.Warn("getSalon: salon id=%d not found", salonID)
			return nil, ErrSalonNotFound
		}
		s.logger.Error("getSalon: failed to get salon id=%d: %v", salonID, err)
		return nil, fmt.Errorf("%w: getSalon - repository error: %v", ErrInternal, err)
	}
	return salon, nil
}

// enqueueNotification ставит уведомление в outbox в текущей транзакции.
// Сбой постановки откатывает весь переход: терять уведомления об отмене нельзя.
func (s *Service) enqueueNotification(ctx context.Context, booking *domain.Booking, kind outbox.Kind) error {
	payload, err := json.Marshal(map[string]interface{}{
		"bookingId":     booking.ID.String(),
		"salonId":       booking.SalonID,
		"serviceName":   booking.ServiceName,
		"startTime":     booking.StartTime.Format(time.RFC3339),
		"customerName":  booking.CustomerName,
		"customerPhone": booking.CustomerPhone,
	})
	if err != nil {
		return fmt.Errorf("%w: enqueueNotification - marshal payload: %v", ErrInternal, err)
	}

	if err := s.outboxRepo.Enqueue(ctx, booking.ID, kind, payload); err != nil {
		return fmt.Errorf("%w: enqueueNotification - enqueue: %v", ErrInternal, err)
	}

	return nil
}
