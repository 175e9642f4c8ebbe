package process_payment_event

import "errors"

var (
	// ErrBookingNotFound возвращается, когда платеж не удалось сопоставить
	// ни с одним бронированием
	ErrBookingNotFound = errors.New("process_payment_event: booking not found for payment")

	// ErrSalonNotFound возвращается, когда подписочное событие ссылается
	// на неизвестный салон
	ErrSalonNotFound = errors.New("process_payment_event: salon not found for subscription event")

	// ErrSlotConflict возвращается внутри обработки, когда оплаченное
	// резервирование выполнить нельзя: слот заняли или услуга исчезла,
	// пока клиент оплачивал. Депозит подлежит возврату
	ErrSlotConflict = errors.New("process_payment_event: paid slot cannot be fulfilled")

	// ErrInvalidInput возвращается при некорректном событии
	ErrInvalidInput = errors.New("process_payment_event: invalid event")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("process_payment_event: internal error")
)
