package payment_webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/SMC-SalonBookingService/internal/api/handlers"
	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/payprovider"
	processPaymentEvent "github.com/m04kA/SMC-SalonBookingService/internal/usecase/process_payment_event"
	"github.com/m04kA/SMC-SalonBookingService/pkg/metrics"
)

const (
	// maxBodySize ограничивает тело webhook-а (64 KiB с запасом)
	maxBodySize = 64 << 10

	headerSignature = "X-Provider-Signature"

	msgInvalidSignature = "некорректная подпись"
	msgInvalidPayload   = "некорректное тело события"
)

type Handler struct {
	useCase  ProcessPaymentEventUseCase
	verifier SignatureVerifier
	metrics  *metrics.Metrics // nil, если метрики выключены
	logger   Logger
}

func NewHandler(useCase ProcessPaymentEventUseCase, verifier SignatureVerifier, m *metrics.Metrics, logger Logger) *Handler {
	return &Handler{
		useCase:  useCase,
		verifier: verifier,
		metrics:  m,
		logger:   logger,
	}
}

// Handle POST /api/v1/payments/webhook
// Провайдер ретраит доставку до получения 2xx, поэтому:
//   - неизвестные типы событий получают 200 (ретраить их бессмысленно)
//   - stale-платежи получают 200 (обработаны: инициирован возврат)
//   - только транзиентные ошибки получают 5xx, чтобы провайдер повторил
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.logger.Warn("POST /payments/webhook - Failed to read body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPayload)
		return
	}

	// Подпись проверяется до разбора тела
	if err := h.verifier.VerifySignature(body, r.Header.Get(headerSignature)); err != nil {
		h.logger.Warn("POST /payments/webhook - Invalid signature: %v", err)
		h.countEvent("unknown", "rejected")
		handlers.RespondError(w, http.StatusUnauthorized, msgInvalidSignature)
		return
	}

	event, err := payprovider.ParseEvent(body)
	if err != nil {
		if errors.Is(err, payprovider.ErrUnknownEventType) {
			h.logger.Info("POST /payments/webhook - Ignoring unknown event type: %v", err)
			h.countEvent("unknown", "ignored")
			handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		h.logger.Warn("POST /payments/webhook - Invalid payload: %v", err)
		h.countEvent("unknown", "rejected")
		handlers.RespondBadRequest(w, msgInvalidPayload)
		return
	}

	result, err := h.useCase.Execute(r.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, processPaymentEvent.ErrBookingNotFound):
			// Платеж не сопоставлен ни с одним бронированием - ретраи не помогут,
			// расследуется по логам
			h.logger.Error("POST /payments/webhook - Booking not found for event %s", event.Reference)
			h.countEvent(string(event.Type), "conflict")
			handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "unmatched"})

		case errors.Is(err, processPaymentEvent.ErrInvalidInput):
			h.logger.Warn("POST /payments/webhook - Invalid event %s: %v", event.Reference, err)
			h.countEvent(string(event.Type), "rejected")
			handlers.RespondBadRequest(w, msgInvalidPayload)

		default:
			h.logger.Error("POST /payments/webhook - Failed to process event %s: %v", event.Reference, err)
			h.countEvent(string(event.Type), "error")
			handlers.RespondInternalError(w)
		}
		return
	}

	h.countEvent(string(event.Type), string(result.Outcome))
	h.logger.Info("POST /payments/webhook - Event %s processed, outcome=%s", event.Reference, result.Outcome)
	handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": string(result.Outcome)})
}

func (h *Handler) countEvent(eventType, result string) {
	if h.metrics != nil {
		h.metrics.PaymentEventsTotal.WithLabelValues(eventType, result).Inc()
	}
}
