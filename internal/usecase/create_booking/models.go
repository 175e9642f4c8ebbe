package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// Request модель запроса на создание бронирования
type Request struct {
	SalonID   int64            // ID салона
	ServiceID int64            // ID услуги
	StaffID   *int64           // ID мастера (nil = любой мастер)
	Date      time.Time        // Дата бронирования (без времени)
	StartTime types.TimeString // Время начала в локальных часах салона ("10:00")

	CustomerName  string  // Имя клиента
	CustomerPhone string  // Телефон клиента
	CustomerEmail *string // Email клиента (опционально)
	Notes         *string // Дополнительные заметки (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID        string // ID бронирования (он же capability-токен страницы управления)
	SalonID   int64
	ServiceID int64
	StaffID   *int64

	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	Status          string // pending при депозите, confirmed при его отсутствии

	// Денормализованные данные услуги
	ServiceName string
	PriceCents  int64

	DepositRequired bool
	DepositCents    int64
	// CheckoutURL ссылка на оплату депозита; nil, если депозит не требуется
	// или сессию оплаты не удалось создать (бронирование остается pending,
	// ссылку можно запросить повторно)
	CheckoutURL *string

	CustomerName  string
	CustomerPhone string
	CustomerEmail *string
	Notes         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
