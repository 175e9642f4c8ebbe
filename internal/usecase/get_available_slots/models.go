package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// Request модель запроса на получение доступных слотов
type Request struct {
	SalonID   int64     // ID салона
	ServiceID int64     // ID услуги
	StaffID   *int64    // ID мастера (nil = любой мастер, проверка по салону целиком)
	Date      time.Time // Дата для получения слотов (без времени)
}

// Response модель ответа со списком доступных слотов
type Response struct {
	Date      time.Time // Дата, на которую запрашивались слоты
	SalonID   int64     // ID салона
	ServiceID int64     // ID услуги
	StaffID   *int64    // ID мастера из запроса

	DurationMinutes int   // Длительность услуги
	DepositRequired bool  // Требуется ли депозит для подтверждения
	DepositCents    int64 // Размер депозита в минорных единицах

	Slots []Slot // Список доступных слотов
}

// Slot модель временного слота
type Slot struct {
	StartTime types.TimeString // Время начала в локальных часах салона ("10:00")
	EndTime   types.TimeString // Время окончания услуги (без буфера)
}
