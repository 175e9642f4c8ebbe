package subscription

import "errors"

var (
	// ErrSubscriptionNotFound возвращается, когда подписка салона не найдена
	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrInvalidPeriod возвращается при некорректных границах периода
	ErrInvalidPeriod = errors.New("invalid billing period")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
