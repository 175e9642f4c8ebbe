package create_booking

import "errors"

var (
	// ErrSalonNotFound возвращается, когда салон не найден
	ErrSalonNotFound = errors.New("create_booking: salon not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена или неактивна
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrStaffNotFound возвращается, когда мастер не найден или не принимает записи
	ErrStaffNotFound = errors.New("create_booking: staff member not found")

	// ErrSalonClosed возвращается, когда салон закрыт в указанную дату
	// (выходной день недели или заблокированная дата)
	ErrSalonClosed = errors.New("create_booking: salon is closed on this date")

	// ErrInvalidTimeSlot возвращается, когда время некорректно
	// (вне рабочих часов или не выровнено по сетке слотов)
	ErrInvalidTimeSlot = errors.New("create_booking: invalid time slot")

	// ErrTooLateToBook возвращается при нарушении минимального времени до начала
	ErrTooLateToBook = errors.New("create_booking: too late to book this slot")

	// ErrDateTooFarInFuture возвращается при выходе за горизонт бронирования
	ErrDateTooFarInFuture = errors.New("create_booking: date is beyond the booking horizon")

	// ErrSlotTaken возвращается, когда окно слота пересекается с активным бронированием
	ErrSlotTaken = errors.New("create_booking: slot is already taken")

	// ErrQuotaExceeded возвращается, когда квота подписки салона исчерпана
	ErrQuotaExceeded = errors.New("create_booking: salon booking quota exceeded")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
