package notifyservice

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("notifyservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе сервиса уведомлений
	ErrInvalidResponse = errors.New("notifyservice client: invalid response")

	// ErrServiceDegraded возвращается при недоступности сервиса уведомлений
	// Диспетчер outbox трактует это как сигнал к повтору доставки
	ErrServiceDegraded = errors.New("notifyservice unavailable: transient failure")
)
