package domain

import "time"

// UnlimitedBookings значение лимита, означающее безлимитный тариф
const UnlimitedBookings = -1

// Subscription подписка салона с квотой бронирований на биллинговый период
// Границы периода задает внешний биллинг; счетчик движок только
// инкрементирует и сбрасывает по внешнему триггеру
type Subscription struct {
	SalonID            int64
	Tier               string
	BookingLimit       int // UnlimitedBookings = без ограничений
	PeriodStart        time.Time
	PeriodEnd          time.Time
	BookingsThisPeriod int
	ProviderRef        *string // идентификатор подписки у платежного провайдера
	UpdatedAt          time.Time
}

// IsUnlimited возвращает true для безлимитного тарифа
func (s *Subscription) IsUnlimited() bool {
	return s.BookingLimit == UnlimitedBookings
}

// CanAccept возвращает true, если квота периода еще не исчерпана
func (s *Subscription) CanAccept() bool {
	return s.IsUnlimited() || s.BookingsThisPeriod < s.BookingLimit
}

// Remaining возвращает остаток квоты (UnlimitedBookings для безлимита)
func (s *Subscription) Remaining() int {
	if s.IsUnlimited() {
		return UnlimitedBookings
	}
	remaining := s.BookingLimit - s.BookingsThisPeriod
	if remaining < 0 {
		return 0
	}
	return remaining
}
