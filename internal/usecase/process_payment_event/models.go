package process_payment_event

// Outcome результат обработки платежного события
type Outcome string

const (
	// OutcomeConfirmed бронирование переведено в confirmed
	OutcomeConfirmed Outcome = "confirmed"

	// OutcomeCreated бронирование создано по оплаченной checkout-сессии
	// (топология, в которой запись появляется только после оплаты)
	OutcomeCreated Outcome = "created"

	// OutcomeConflict оплаченный слот выполнить нельзя (занят за время оплаты),
	// инициирован возврат депозита
	OutcomeConflict Outcome = "conflict_refunded"

	// OutcomeDuplicate событие с таким reference уже обрабатывалось, no-op
	OutcomeDuplicate Outcome = "duplicate"

	// OutcomeAlreadyConfirmed бронирование уже было подтверждено, no-op
	OutcomeAlreadyConfirmed Outcome = "already_confirmed"

	// OutcomeStale платеж пришел для бронирования в терминальном статусе,
	// инициирован возврат депозита
	OutcomeStale Outcome = "stale"

	// OutcomeSubscriptionUpdated обработано событие биллинга подписки
	OutcomeSubscriptionUpdated Outcome = "subscription_updated"
)

// Response модель результата обработки события
type Response struct {
	Outcome   Outcome
	BookingID *string // ID затронутого бронирования, если применимо
}
