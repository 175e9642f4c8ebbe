package payprovider

import "errors"

var (
	// ErrInvalidSignature возвращается при неверной подписи webhook-а
	ErrInvalidSignature = errors.New("payprovider client: invalid webhook signature")

	// ErrUnknownEventType возвращается для событий, которые сервис не обрабатывает
	ErrUnknownEventType = errors.New("payprovider client: unknown event type")

	// ErrInvalidPayload возвращается при некорректном теле события
	ErrInvalidPayload = errors.New("payprovider client: invalid event payload")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("payprovider client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе провайдера
	ErrInvalidResponse = errors.New("payprovider client: invalid response")

	// ErrServiceDegraded возвращается при недоступности провайдера (timeout и т.п.)
	// Вызывающая сторона трактует это как transient-ошибку с повтором на своем уровне
	ErrServiceDegraded = errors.New("payprovider unavailable: transient failure")
)
