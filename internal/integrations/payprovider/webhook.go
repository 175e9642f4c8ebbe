package payprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerifySignature проверяет HMAC-SHA256 подпись webhook-а.
// Формат заголовка: "t=<unix>,v1=<hex>"; подписывается строка "<t>.<body>".
// Сравнение подписи выполняется за константное время.
func (c *Client) VerifySignature(payload []byte, signatureHeader string) error {
	var timestamp, signature string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return fmt.Errorf("%w: VerifySignature - malformed header", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: VerifySignature - signature mismatch", ErrInvalidSignature)
	}

	return nil
}

// ParseEvent разбирает тело webhook-а в типизированное событие.
// Неизвестные типы событий возвращают ErrUnknownEventType - обработчик
// отвечает провайдеру 200, чтобы тот не ретраил события, которые нам не нужны.
func ParseEvent(payload []byte) (*Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("%w: ParseEvent - unmarshal body: %v", ErrInvalidPayload, err)
	}
	if wire.ID == "" {
		return nil, fmt.Errorf("%w: ParseEvent - missing event id", ErrInvalidPayload)
	}

	switch wire.Type {
	case EventCheckoutCompleted, EventPaymentIntentSucceeded,
		EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted,
		EventInvoicePaid, EventInvoiceFailed:
	default:
		return nil, fmt.Errorf("%w: ParseEvent - %q", ErrUnknownEventType, wire.Type)
	}

	object := wire.Data.Object
	event := &Event{
		Reference:   wire.ID,
		Type:        wire.Type,
		AmountCents: object.AmountTotal,
		PaymentRef:  object.ID,
		Tier:        object.Tier,
	}

	if err := parseMetadata(event, object.Metadata); err != nil {
		return nil, err
	}

	if event.IsSubscriptionEvent() {
		event.BookingLimit = object.BookingLimit
		if object.Subscription != "" {
			ref := object.Subscription
			event.SubscriptionRef = &ref
		}
		if object.PeriodStart != nil {
			start := time.Unix(*object.PeriodStart, 0).UTC()
			event.PeriodStart = &start
		}
		if object.PeriodEnd != nil {
			end := time.Unix(*object.PeriodEnd, 0).UTC()
			event.PeriodEnd = &end
		}
	}

	return event, nil
}

// parseMetadata извлекает корреляционные поля из metadata объекта.
// Метаданные заполняются нами же при создании checkout-сессии,
// поэтому ошибки разбора означают рассинхронизацию форматов, а не ввод клиента.
func parseMetadata(event *Event, metadata map[string]string) error {
	if raw, ok := metadata["booking_id"]; ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("%w: parseMetadata - booking_id: %v", ErrInvalidPayload, err)
		}
		event.BookingID = &id
	}

	if raw, ok := metadata["salon_id"]; ok && raw != "" {
		salonID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: parseMetadata - salon_id: %v", ErrInvalidPayload, err)
		}
		event.SalonID = salonID
	}

	if raw, ok := metadata["service_id"]; ok && raw != "" {
		serviceID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: parseMetadata - service_id: %v", ErrInvalidPayload, err)
		}
		event.ServiceID = &serviceID
	}

	if raw, ok := metadata["staff_id"]; ok && raw != "" {
		staffID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: parseMetadata - staff_id: %v", ErrInvalidPayload, err)
		}
		event.StaffID = &staffID
	}

	if raw, ok := metadata["start_time"]; ok && raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("%w: parseMetadata - start_time: %v", ErrInvalidPayload, err)
		}
		event.StartTime = &start
	}

	event.CustomerName = metadata["customer_name"]
	event.CustomerPhone = metadata["customer_phone"]
	if email, ok := metadata["customer_email"]; ok && email != "" {
		event.CustomerEmail = &email
	}

	return nil
}
