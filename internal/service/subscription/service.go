// Package subscription отдает состояние квоты салона и сбрасывает счетчик
// по триггеру внешнего биллинга. Сами проверки квоты при бронировании
// живут в usecase создания бронирования.
package subscription

import (
	"context"
	"errors"
	"fmt"

	subscriptionRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/subscription"
	"github.com/m04kA/SMC-SalonBookingService/internal/service/subscription/models"
)

// Service сервис подписок
type Service struct {
	subscriptionRepo SubscriptionRepository
	logger           Logger
}

// NewService создает новый экземпляр сервиса подписок
func NewService(subscriptionRepo SubscriptionRepository, logger Logger) *Service {
	return &Service{
		subscriptionRepo: subscriptionRepo,
		logger:           logger,
	}
}

// GetBySalonID получает состояние квоты салона
func (s *Service) GetBySalonID(ctx context.Context, salonID int64) (*models.SubscriptionResponse, error) {
	s.logger.Info("GetBySalonID: fetching subscription for salon=%d", salonID)

	sub, err := s.subscriptionRepo.GetBySalonID(ctx, salonID)
	if err != nil {
		if errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound) {
			s.logger.Warn("GetBySalonID: subscription for salon=%d not found", salonID)
			return nil, ErrSubscriptionNotFound
		}
		s.logger.Error("GetBySalonID: repository error for salon=%d: %v", salonID, err)
		return nil, fmt.Errorf("%w: GetBySalonID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSubscription(sub), nil
}

// ResetPeriod сбрасывает счетчик квоты на новый биллинговый период.
// Вызывается внешним биллингом; границы периода приходят от него же.
func (s *Service) ResetPeriod(ctx context.Context, salonID int64, req *models.ResetPeriodRequest) (*models.SubscriptionResponse, error) {
	s.logger.Info("ResetPeriod: resetting quota for salon=%d, period=%s..%s",
		salonID, req.PeriodStart.Format("2006-01-02"), req.PeriodEnd.Format("2006-01-02"))

	if !req.PeriodEnd.After(req.PeriodStart) {
		s.logger.Warn("ResetPeriod: invalid period for salon=%d", salonID)
		return nil, ErrInvalidPeriod
	}

	if err := s.subscriptionRepo.ResetPeriod(ctx, salonID, req.PeriodStart, req.PeriodEnd); err != nil {
		if errors.Is(err, subscriptionRepo.ErrSubscriptionNotFound) {
			s.logger.Warn("ResetPeriod: subscription for salon=%d not found", salonID)
			return nil, ErrSubscriptionNotFound
		}
		s.logger.Error("ResetPeriod: repository error for salon=%d: %v", salonID, err)
		return nil, fmt.Errorf("%w: ResetPeriod - repository error: %v", ErrInternal, err)
	}

	return s.GetBySalonID(ctx, salonID)
}
