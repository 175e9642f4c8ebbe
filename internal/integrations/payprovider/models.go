package payprovider

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события платежного провайдера
type EventType string

const (
	EventCheckoutCompleted      EventType = "checkout.session.completed"
	EventPaymentIntentSucceeded EventType = "payment_intent.succeeded"
	EventSubscriptionCreated    EventType = "customer.subscription.created"
	EventSubscriptionUpdated    EventType = "customer.subscription.updated"
	EventSubscriptionDeleted    EventType = "customer.subscription.deleted"
	EventInvoicePaid            EventType = "invoice.paid"
	EventInvoiceFailed          EventType = "invoice.payment_failed"
)

// Event верифицированное типизированное событие провайдера
// Движок получает события только в этом виде - проверка подписи и парсинг
// происходят в этом пакете, до входа в бизнес-логику
type Event struct {
	// Reference уникальный идентификатор события у провайдера (ключ дедупликации)
	Reference string
	Type      EventType

	// Корреляция с бронированием: либо прямая (BookingID из metadata),
	// либо по метаданным слота, если бронирование создается только после оплаты
	BookingID *uuid.UUID
	SalonID   int64
	ServiceID *int64
	StaffID   *int64
	StartTime *time.Time

	// Данные платежа
	AmountCents   int64
	PaymentRef    string // идентификатор платежа/сессии (пишется в booking.payment_reference)
	CustomerName  string
	CustomerPhone string
	CustomerEmail *string

	// Данные подписки (для subscription/invoice событий)
	Tier            string
	BookingLimit    *int
	SubscriptionRef *string
	PeriodStart     *time.Time
	PeriodEnd       *time.Time
}

// IsSubscriptionEvent возвращает true для событий биллинга подписок
func (e *Event) IsSubscriptionEvent() bool {
	switch e.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted,
		EventInvoicePaid, EventInvoiceFailed:
		return true
	default:
		return false
	}
}

// CheckoutSession созданная у провайдера сессия оплаты депозита
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// wireEvent формат события на проводе
type wireEvent struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data struct {
		Object wireObject `json:"object"`
	} `json:"data"`
}

// wireObject полезная нагрузка события
type wireObject struct {
	ID          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Metadata    map[string]string `json:"metadata"`

	// Поля подписочных событий
	Tier         string `json:"tier"`
	BookingLimit *int   `json:"booking_limit"`
	PeriodStart  *int64 `json:"period_start"` // unix seconds
	PeriodEnd    *int64 `json:"period_end"`
	Subscription string `json:"subscription"`
}

// createSessionRequest запрос создания checkout-сессии
type createSessionRequest struct {
	AmountCents int64             `json:"amount_cents"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}
