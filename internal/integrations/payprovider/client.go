// Package payprovider - клиент платежного провайдера: создание checkout-сессий
// для депозитов и верификация/разбор входящих webhook-ов.
package payprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
)

const (
	defaultTimeout = 5 * time.Second

	checkoutSessionsPath = "/v1/checkout/sessions"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент платежного провайдера
type Client struct {
	baseURL       string
	apiKey        string
	webhookSecret string
	httpClient    *http.Client
	logger        Logger
}

// NewClient создает новый клиент платежного провайдера
func NewClient(baseURL, apiKey, webhookSecret string, timeout time.Duration, logger Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// CreateCheckoutSession создает у провайдера сессию оплаты депозита.
// Метаданные несут все корреляционные поля: по ним webhook сопоставляется
// с бронированием без обращения к состоянию провайдера.
func (c *Client) CreateCheckoutSession(ctx context.Context, booking *domain.Booking) (*CheckoutSession, error) {
	metadata := map[string]string{
		"booking_id":     booking.ID.String(),
		"salon_id":       strconv.FormatInt(booking.SalonID, 10),
		"service_id":     strconv.FormatInt(booking.ServiceID, 10),
		"start_time":     booking.StartTime.Format(time.RFC3339),
		"customer_name":  booking.CustomerName,
		"customer_phone": booking.CustomerPhone,
	}
	if booking.StaffID != nil {
		metadata["staff_id"] = strconv.FormatInt(*booking.StaffID, 10)
	}
	if booking.CustomerEmail != nil {
		metadata["customer_email"] = *booking.CustomerEmail
	}

	reqBody := createSessionRequest{
		AmountCents: booking.DepositCents,
		Currency:    "rub",
		Description: fmt.Sprintf("Депозит за услугу «%s»", booking.ServiceName),
		Metadata:    metadata,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateCheckoutSession - marshal request: %v", ErrInternal, err)
	}

	url := c.baseURL + checkoutSessionsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: CreateCheckoutSession - create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", "checkout-"+booking.ID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return nil, fmt.Errorf("%w: CreateCheckoutSession - booking %s: %v", ErrServiceDegraded, booking.ID, err)
		}
		return nil, fmt.Errorf("%w: CreateCheckoutSession - send request: %v", ErrServiceDegraded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: CreateCheckoutSession - provider returned %d", ErrServiceDegraded, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: CreateCheckoutSession - unexpected status %d", ErrInvalidResponse, resp.StatusCode)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%w: CreateCheckoutSession - decode response: %v", ErrInvalidResponse, err)
	}
	if session.ID == "" || session.URL == "" {
		return nil, fmt.Errorf("%w: CreateCheckoutSession - empty session fields", ErrInvalidResponse)
	}

	c.logger.Info("CreateCheckoutSession: created session %s for booking %s", session.ID, booking.ID)

	return &session, nil
}

// RefundDeposit инициирует возврат депозита по платежу.
// Используется, когда оплата пришла по уже занятому слоту.
func (c *Client) RefundDeposit(ctx context.Context, paymentRef string, bookingID uuid.UUID) error {
	body, err := json.Marshal(map[string]string{"payment": paymentRef})
	if err != nil {
		return fmt.Errorf("%w: RefundDeposit - marshal request: %v", ErrInternal, err)
	}

	url := c.baseURL + "/v1/refunds"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: RefundDeposit - create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", "refund-"+bookingID.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: RefundDeposit - send request: %v", ErrServiceDegraded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: RefundDeposit - provider returned %d", ErrServiceDegraded, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: RefundDeposit - unexpected status %d", ErrInvalidResponse, resp.StatusCode)
	}

	c.logger.Info("RefundDeposit: refund initiated for payment %s (booking %s)", paymentRef, bookingID)

	return nil
}
