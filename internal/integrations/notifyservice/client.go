// Package notifyservice - клиент внешнего сервиса уведомлений.
// Доставка идет через outbox-диспетчер, поэтому клиент не ретраит сам:
// при сбое событие остается pending и будет повторено на следующем проходе.
package notifyservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultTimeout = 5 * time.Second

	notificationsPath = "/api/v1/notifications"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Notification уведомление для отправки
type Notification struct {
	Kind      string          `json:"kind"`
	BookingID string          `json:"booking_id"`
	Payload   json.RawMessage `json:"payload"`
}

// Client клиент сервиса уведомлений
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     Logger
}

// NewClient создает новый клиент сервиса уведомлений
func NewClient(baseURL, authToken string, timeout time.Duration, logger Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		authToken:  authToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send отправляет уведомление в сервис уведомлений
func (c *Client) Send(ctx context.Context, notification *Notification) error {
	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("%w: Send - marshal notification: %v", ErrInternal, err)
	}

	url := c.baseURL + notificationsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: Send - create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: Send - send request: %v", ErrServiceDegraded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: Send - service returned %d", ErrServiceDegraded, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: Send - unexpected status %d", ErrInvalidResponse, resp.StatusCode)
	}

	return nil
}
