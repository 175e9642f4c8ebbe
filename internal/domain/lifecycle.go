package domain

import (
	"errors"
	"time"
)

// Ошибки жизненного цикла бронирования
var (
	// ErrInvalidTransition возвращается при недопустимом переходе статуса
	ErrInvalidTransition = errors.New("domain: invalid booking status transition")

	// ErrPolicyViolation возвращается, когда клиентская отмена/перенос
	// нарушает политику салона (cutoff до начала)
	ErrPolicyViolation = errors.New("domain: cancellation policy violation")

	// ErrStaleEvent возвращается, когда платежное событие пришло для
	// бронирования в терминальном статусе (платеж опоздал)
	ErrStaleEvent = errors.New("domain: payment event for terminal booking")
)

// lifecycleTransitions таблица допустимых переходов статусов.
// Терминальные статусы (cancelled, no_show, completed) переходов не имеют.
var lifecycleTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusNoShow, StatusCompleted},
}

// CanTransition проверяет, допустим ли переход from -> to
func CanTransition(from, to BookingStatus) bool {
	for _, allowed := range lifecycleTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CustomerMayModify проверяет политику клиентской отмены/переноса.
// Граница включающая: при hours_until_start ровно равном cutoff операция разрешена,
// строго меньше cutoff - запрещена.
func CustomerMayModify(b *Booking, salon *Salon, now time.Time) error {
	if !b.IsActive() {
		return ErrInvalidTransition
	}
	cutoff := time.Duration(salon.CancellationCutoffHours) * time.Hour
	if b.StartTime.Sub(now) < cutoff {
		return ErrPolicyViolation
	}
	return nil
}

// ApplyCustomerCancel отменяет бронирование по инициативе клиента
// с проверкой политики салона
func ApplyCustomerCancel(b *Booking, salon *Salon, now time.Time) error {
	if err := CustomerMayModify(b, salon, now); err != nil {
		return err
	}
	b.Status = StatusCancelled
	b.CancelledAt = &now
	return nil
}

// ApplyStaffTransition выполняет переход по инициативе сотрудника салона.
// Отмена доступна в любой момент для активного бронирования;
// no_show и completed - только для подтвержденного и только после начала.
func ApplyStaffTransition(b *Booking, to BookingStatus, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return ErrInvalidTransition
	}

	switch to {
	case StatusCancelled:
		b.Status = StatusCancelled
		b.CancelledAt = &now
		return nil
	case StatusNoShow, StatusCompleted:
		if now.Before(b.StartTime) {
			return ErrInvalidTransition
		}
		b.Status = to
		return nil
	default:
		return ErrInvalidTransition
	}
}

// ApplyPaymentConfirmation применяет подтверждение оплаты депозита.
// Возвращает changed=true только при реальном переходе pending -> confirmed:
// повторное подтверждение уже подтвержденного бронирования - идемпотентный no-op,
// подтверждение терминального - ErrStaleEvent (логируется, но не ошибка для плательщика).
func ApplyPaymentConfirmation(b *Booking, reference string, now time.Time) (changed bool, err error) {
	switch b.Status {
	case StatusPending:
		b.Status = StatusConfirmed
		b.DepositPaid = true
		b.PaymentReference = &reference
		return true, nil
	case StatusConfirmed:
		return false, nil
	default:
		return false, ErrStaleEvent
	}
}
