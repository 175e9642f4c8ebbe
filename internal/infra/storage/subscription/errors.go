package subscription

import "errors"

var (
	// ErrSubscriptionNotFound возвращается, когда подписка салона не найдена
	ErrSubscriptionNotFound = errors.New("subscription.repository: subscription not found")

	// ErrQuotaExceeded возвращается, когда условный инкремент отклонен:
	// квота периода исчерпана
	ErrQuotaExceeded = errors.New("subscription.repository: booking quota exceeded")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("subscription.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("subscription.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("subscription.repository: failed to scan row")
)
