// Package calendar содержит чистые календарные правила салона.
// Все проверки - функции от (салон, момент, now) без обращений к хранилищу.
// Генерация сетки слотов и валидация при резервировании используют
// один и тот же набор правил (round-trip гарантия).
package calendar

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
)

var (
	// ErrClosedDay возвращается, когда салон закрыт в этот день недели
	ErrClosedDay = errors.New("calendar: salon is closed on this weekday")

	// ErrBlockedDate возвращается, когда дата заблокирована в календаре салона
	ErrBlockedDate = errors.New("calendar: date is blocked")

	// ErrOutsideHours возвращается, когда слот не помещается в рабочие часы
	ErrOutsideHours = errors.New("calendar: slot is outside working hours")

	// ErrTooSoon возвращается при нарушении минимального времени до начала
	ErrTooSoon = errors.New("calendar: slot violates minimum notice")

	// ErrTooFar возвращается при выходе за горизонт бронирования
	ErrTooFar = errors.New("calendar: slot is beyond booking horizon")

	// ErrNotOnGrid возвращается, когда время начала не выровнено по сетке слотов
	ErrNotOnGrid = errors.New("calendar: start time is not aligned to the slot grid")

	// ErrInvalidSchedule возвращается при некорректном расписании салона
	ErrInvalidSchedule = errors.New("calendar: invalid salon schedule")
)

// DayWindow возвращает границы рабочего дня салона для указанной даты
// в таймзоне салона. ok=false, если салон в этот день закрыт.
func DayWindow(salon *domain.Salon, date time.Time) (open, close time.Time, ok bool, err error) {
	loc := salon.Location()
	schedule := salon.Hours.ForWeekday(date.In(loc).Weekday())
	if schedule.Closed {
		return time.Time{}, time.Time{}, false, nil
	}

	open, err = schedule.OpenTime.OnDate(date.In(loc), loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, ErrInvalidSchedule
	}
	close, err = schedule.CloseTime.OnDate(date.In(loc), loc)
	if err != nil {
		return time.Time{}, time.Time{}, false, ErrInvalidSchedule
	}
	if !open.Before(close) {
		return time.Time{}, time.Time{}, false, ErrInvalidSchedule
	}

	return open, close, true, nil
}

// IsBookable проверяет, допустимо ли начало бронирования в указанный момент.
// Правила применяются по порядку, любое нарушение исключает момент:
//  1. день недели не закрыт, слот целиком внутри рабочих часов
//  2. дата не заблокирована
//  3. начало не раньше now + минимальное уведомление
//  4. начало не дальше now + горизонт бронирования
//  5. начало выровнено по сетке (шаг domain.SlotStepMinutes от открытия)
func IsBookable(salon *domain.Salon, start time.Time, durationMinutes int, now time.Time) error {
	open, close, ok, err := DayWindow(salon, start)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClosedDay
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	if start.Before(open) || end.After(close) {
		return ErrOutsideHours
	}

	if salon.IsDateBlocked(start.In(salon.Location())) {
		return ErrBlockedDate
	}

	minStart := now.Add(time.Duration(salon.MinNoticeHours) * time.Hour)
	if start.Before(minStart) {
		return ErrTooSoon
	}

	maxStart := now.AddDate(0, 0, salon.MaxHorizonDays)
	if start.After(maxStart) {
		return ErrTooFar
	}

	offset := start.Sub(open)
	if offset < 0 || offset%(domain.SlotStepMinutes*time.Minute) != 0 {
		return ErrNotOnGrid
	}

	return nil
}

// CandidateGrid генерирует все допустимые начала слотов на дату.
// Сетка идет от времени открытия с шагом domain.SlotStepMinutes;
// каждый кандидат проходит полный IsBookable, поэтому слот из сетки,
// зарезервированный немедленно, валидацию резервирования не провалит.
func CandidateGrid(salon *domain.Salon, date time.Time, durationMinutes int, now time.Time) ([]time.Time, error) {
	open, close, ok, err := DayWindow(salon, date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []time.Time{}, nil
	}

	grid := make([]time.Time, 0)
	step := domain.SlotStepMinutes * time.Minute

	for start := open; !start.Add(time.Duration(durationMinutes) * time.Minute).After(close); start = start.Add(step) {
		if IsBookable(salon, start, durationMinutes, now) == nil {
			grid = append(grid, start)
		}
	}

	return grid, nil
}
