package get_salon_config

import (
	"context"

	"github.com/m04kA/SMC-SalonBookingService/internal/service/salons/models"
)

type SalonService interface {
	GetConfig(ctx context.Context, salonID int64) (*models.ConfigResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
