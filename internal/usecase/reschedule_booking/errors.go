package reschedule_booking

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("reschedule_booking: booking not found")

	// ErrSalonNotFound возвращается, когда салон бронирования не найден
	ErrSalonNotFound = errors.New("reschedule_booking: salon not found")

	// ErrPolicyViolation возвращается, когда до начала бронирования
	// осталось меньше cutoff часов политики салона
	ErrPolicyViolation = errors.New("reschedule_booking: reschedule window has passed")

	// ErrNotActive возвращается при попытке перенести бронирование в терминальном статусе
	ErrNotActive = errors.New("reschedule_booking: booking is not active")

	// ErrSalonClosed возвращается, когда салон закрыт в новую дату
	ErrSalonClosed = errors.New("reschedule_booking: salon is closed on this date")

	// ErrInvalidTimeSlot возвращается, когда новое время некорректно
	ErrInvalidTimeSlot = errors.New("reschedule_booking: invalid time slot")

	// ErrTooLateToBook возвращается при нарушении минимального времени до нового начала
	ErrTooLateToBook = errors.New("reschedule_booking: too late to book this slot")

	// ErrDateTooFarInFuture возвращается при выходе новой даты за горизонт бронирования
	ErrDateTooFarInFuture = errors.New("reschedule_booking: date is beyond the booking horizon")

	// ErrSlotTaken возвращается, когда новое окно пересекается с активным бронированием
	// Исходное бронирование при этом остается нетронутым
	ErrSlotTaken = errors.New("reschedule_booking: slot is already taken")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reschedule_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reschedule_booking: internal error")
)
