package domain

import (
	"time"

	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// DaySchedule расписание работы салона на один день недели
type DaySchedule struct {
	Closed    bool
	OpenTime  types.TimeString // не используется при Closed=true
	CloseTime types.TimeString
}

// WeeklyHours расписание работы салона по дням недели
type WeeklyHours struct {
	Monday    DaySchedule
	Tuesday   DaySchedule
	Wednesday DaySchedule
	Thursday  DaySchedule
	Friday    DaySchedule
	Saturday  DaySchedule
	Sunday    DaySchedule
}

// ForWeekday возвращает расписание на указанный день недели
func (w WeeklyHours) ForWeekday(day time.Weekday) DaySchedule {
	switch day {
	case time.Monday:
		return w.Monday
	case time.Tuesday:
		return w.Tuesday
	case time.Wednesday:
		return w.Wednesday
	case time.Thursday:
		return w.Thursday
	case time.Friday:
		return w.Friday
	case time.Saturday:
		return w.Saturday
	case time.Sunday:
		return w.Sunday
	default:
		return DaySchedule{Closed: true}
	}
}

// Salon настройки бронирования салона
// Движок читает их как есть; мутация происходит через внешнюю админку
// и в контракт этого сервиса не входит.
type Salon struct {
	ID   int64
	Name string

	Hours        WeeklyHours
	BlockedDates map[string]struct{} // даты в формате YYYY-MM-DD (локальные для салона)

	BufferMinutes           int // обязательная пауза между бронированиями
	MinNoticeHours          int // минимум часов до начала, когда еще можно бронировать
	MaxHorizonDays          int // максимум дней вперед, на которые открыта запись
	CancellationCutoffHours int // за сколько часов до начала клиент еще может отменить/перенести

	DepositRequired bool
	DepositPercent  int // процент от цены услуги

	Timezone string // IANA имя; единые локальные часы салона

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location возвращает таймзону салона (UTC при некорректном значении)
func (s *Salon) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsDateBlocked проверяет, заблокирована ли дата в календаре салона
func (s *Salon) IsDateBlocked(date time.Time) bool {
	_, blocked := s.BlockedDates[date.Format(DateFormat)]
	return blocked
}

// DepositFor вычисляет размер депозита для цены услуги в минорных единицах
// Возвращает 0, если депозит салоном не требуется
func (s *Salon) DepositFor(priceCents int64) int64 {
	if !s.DepositRequired || s.DepositPercent <= 0 {
		return 0
	}
	return priceCents * int64(s.DepositPercent) / 100
}
