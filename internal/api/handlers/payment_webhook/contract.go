package payment_webhook

import (
	"context"

	"github.com/m04kA/SMC-SalonBookingService/internal/integrations/payprovider"
	processPaymentEvent "github.com/m04kA/SMC-SalonBookingService/internal/usecase/process_payment_event"
)

type ProcessPaymentEventUseCase interface {
	Execute(ctx context.Context, event *payprovider.Event) (*processPaymentEvent.Response, error)
}

// SignatureVerifier проверяет подпись webhook-а платежного провайдера
type SignatureVerifier interface {
	VerifySignature(payload []byte, signatureHeader string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
