// Package salons отдает публичные настройки бронирования салона:
// часы работы, политики записи и условия депозита для страницы записи.
package salons

import (
	"context"
	"errors"
	"fmt"

	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
	"github.com/m04kA/SMC-SalonBookingService/internal/service/salons/models"
)

// Service сервис для чтения настроек салона
type Service struct {
	salonRepo SalonRepository
	logger    Logger
}

// NewService создает новый экземпляр сервиса салонов
func NewService(salonRepo SalonRepository, logger Logger) *Service {
	return &Service{
		salonRepo: salonRepo,
		logger:    logger,
	}
}

// GetConfig получает публичные настройки бронирования салона
func (s *Service) GetConfig(ctx context.Context, salonID int64) (*models.ConfigResponse, error) {
	s.logger.Info("GetConfig: fetching config for salon=%d", salonID)

	salon, err := s.salonRepo.GetByID(ctx, salonID)
	if err != nil {
		if errors.Is(err, salonRepo.ErrSalonNotFound) {
			s.logger.Warn("GetConfig: salon id=%d not found", salonID)
			return nil, ErrSalonNotFound
		}
		s.logger.Error("GetConfig: failed to get salon id=%d: %v", salonID, err)
		return nil, fmt.Errorf("%w: GetConfig - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainSalon(salon), nil
}
