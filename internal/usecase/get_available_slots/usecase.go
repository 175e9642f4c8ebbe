package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SalonBookingService/internal/calendar"
	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	catalogRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/catalog"
	salonRepo "github.com/m04kA/SMC-SalonBookingService/internal/infra/storage/salon"
)

// UseCase use case для получения доступных слотов для бронирования
type UseCase struct {
	bookingRepo  BookingRepository
	salonRepo    SalonRepository
	catalogRepo  CatalogRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	salonRepo SalonRepository,
	catalogRepo CatalogRepository,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		salonRepo:    salonRepo,
		catalogRepo:  catalogRepo,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case получения доступных слотов.
// Кандидаты сетки проходят полный набор календарных правил, затем из них
// вычитаются пересечения с активными бронированиями. Слот из ответа,
// зарезервированный немедленно, проходит валидацию резервирования:
// обе стороны используют одни и те же правила.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: salon=%d, service=%d, staff=%v, date=%s",
		req.SalonID, req.ServiceID, req.StaffID, req.Date.Format(domain.DateFormat))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Получаем салон с расписанием и политиками
	salon, err := uc.salonRepo.GetByID(ctx, req.SalonID)
	if err != nil {
		if errors.Is(err, salonRepo.ErrSalonNotFound) {
			uc.logger.Warn("GetAvailableSlots: salon id=%d not found", req.SalonID)
			return nil, ErrSalonNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get salon id=%d: %v", req.SalonID, err)
		return nil, fmt.Errorf("%w: failed to get salon: %v", ErrInternal, err)
	}

	// 3. Валидация даты против горизонта салона
	if err := validateDate(req.Date, now, salon); err != nil {
		uc.logger.Warn("GetAvailableSlots: date validation failed: %v", err)
		return nil, err
	}

	// 4. Получаем услугу (длительность и цена приходят из каталога)
	service, err := uc.catalogRepo.GetService(ctx, req.SalonID, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%d not found in salon id=%d", req.ServiceID, req.SalonID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%d: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}
	if !service.Active {
		uc.logger.Warn("GetAvailableSlots: service id=%d is inactive", req.ServiceID)
		return nil, ErrServiceNotFound
	}

	// 5. Если указан мастер - он должен существовать и принимать записи
	if req.StaffID != nil {
		staff, err := uc.catalogRepo.GetStaff(ctx, req.SalonID, *req.StaffID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrStaffNotFound) {
				uc.logger.Warn("GetAvailableSlots: staff id=%d not found in salon id=%d", *req.StaffID, req.SalonID)
				return nil, ErrStaffNotFound
			}
			uc.logger.Error("GetAvailableSlots: failed to get staff id=%d: %v", *req.StaffID, err)
			return nil, fmt.Errorf("%w: failed to get staff: %v", ErrInternal, err)
		}
		if !staff.AcceptsBookings {
			uc.logger.Warn("GetAvailableSlots: staff id=%d does not accept bookings", *req.StaffID)
			return nil, ErrStaffNotFound
		}
	}

	// 6. Генерируем сетку кандидатов по календарным правилам
	candidates, err := calendar.CandidateGrid(salon, req.Date, service.DurationMinutes, now)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to generate candidate grid: %v", err)
		return nil, fmt.Errorf("%w: failed to generate candidate grid: %v", ErrInternal, err)
	}

	// 7. Получаем активные бронирования, чье окно пересекает сутки.
	// Запрос идет по окну резервирования, а не по дате начала:
	// бронирование, начавшееся накануне и перетекающее через полночь,
	// тоже блокирует утренние слоты.
	filter := domain.SalonBookingsFilter{
		SalonID: req.SalonID,
		StaffID: req.StaffID,
		Day:     &req.Date,
	}

	bookings, err := uc.bookingRepo.GetForDay(ctx, filter)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 8. Вычитаем занятые окна
	available := filterAvailable(candidates, bookings, service.DurationMinutes, salon.BufferMinutes)

	uc.logger.Info("GetAvailableSlots: %d of %d slots available for salon=%d, service=%d, date=%s",
		len(available), len(candidates), req.SalonID, req.ServiceID, req.Date.Format(domain.DateFormat))

	return &Response{
		Date:            req.Date,
		SalonID:         req.SalonID,
		ServiceID:       req.ServiceID,
		StaffID:         req.StaffID,
		DurationMinutes: service.DurationMinutes,
		DepositRequired: salon.DepositRequired,
		DepositCents:    salon.DepositFor(service.PriceCents),
		Slots:           toSlots(available, service.DurationMinutes, salon.Location()),
	}, nil
}
