package domain

// SlotStepMinutes шаг сетки слотов, выровненной по времени открытия салона.
// Константа политики: генерация слотов и валидация при резервировании
// обязаны использовать одно и то же значение.
const SlotStepMinutes = 15

// Default salon policy values
const (
	DefaultBufferMinutes           = 0
	DefaultMinNoticeHours          = 1
	DefaultMaxHorizonDays          = 60
	DefaultCancellationCutoffHours = 24
)

// Business validation constants
const (
	MinServiceDurationMinutes = 5
	MaxServiceDurationMinutes = 480 // 8 часов
	MaxNotesLength            = 500
	MaxCustomerNameLength     = 200
	MaxCustomerPhoneLength    = 32
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, занимающие окно резервирования
// Используются при проверке пересечений слотов
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
}

// TerminalStatuses терминальные статусы: бронирование неизменяемо
var TerminalStatuses = []BookingStatus{
	StatusCancelled,
	StatusNoShow,
	StatusCompleted,
}
