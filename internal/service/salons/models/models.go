package models

import (
	"sort"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
)

// DayScheduleResponse расписание салона на один день недели
type DayScheduleResponse struct {
	Closed    bool   `json:"closed"`
	OpenTime  string `json:"openTime,omitempty"`
	CloseTime string `json:"closeTime,omitempty"`
}

// WeeklyHoursResponse расписание салона по дням недели
type WeeklyHoursResponse struct {
	Monday    DayScheduleResponse `json:"monday"`
	Tuesday   DayScheduleResponse `json:"tuesday"`
	Wednesday DayScheduleResponse `json:"wednesday"`
	Thursday  DayScheduleResponse `json:"thursday"`
	Friday    DayScheduleResponse `json:"friday"`
	Saturday  DayScheduleResponse `json:"saturday"`
	Sunday    DayScheduleResponse `json:"sunday"`
}

// ConfigResponse публичные настройки бронирования салона.
// Читается страницей записи; менять настройки через этот сервис нельзя.
type ConfigResponse struct {
	SalonID int64  `json:"salonId"`
	Name    string `json:"name"`

	Hours        WeeklyHoursResponse `json:"hours"`
	BlockedDates []string            `json:"blockedDates,omitempty"`

	BufferMinutes           int `json:"bufferMinutes"`
	MinNoticeHours          int `json:"minNoticeHours"`
	MaxHorizonDays          int `json:"maxHorizonDays"`
	CancellationCutoffHours int `json:"cancellationCutoffHours"`

	DepositRequired bool `json:"depositRequired"`
	DepositPercent  int  `json:"depositPercent,omitempty"`

	Timezone string `json:"timezone"`
}

// FromDomainSalon конвертирует domain модель в публичный config response
func FromDomainSalon(salon *domain.Salon) *ConfigResponse {
	resp := &ConfigResponse{
		SalonID:                 salon.ID,
		Name:                    salon.Name,
		Hours:                   fromDomainHours(salon.Hours),
		BufferMinutes:           salon.BufferMinutes,
		MinNoticeHours:          salon.MinNoticeHours,
		MaxHorizonDays:          salon.MaxHorizonDays,
		CancellationCutoffHours: salon.CancellationCutoffHours,
		DepositRequired:         salon.DepositRequired,
		DepositPercent:          salon.DepositPercent,
		Timezone:                salon.Timezone,
	}

	for date := range salon.BlockedDates {
		resp.BlockedDates = append(resp.BlockedDates, date)
	}
	sort.Strings(resp.BlockedDates)

	return resp
}

func fromDomainHours(hours domain.WeeklyHours) WeeklyHoursResponse {
	return WeeklyHoursResponse{
		Monday:    fromDomainDay(hours.Monday),
		Tuesday:   fromDomainDay(hours.Tuesday),
		Wednesday: fromDomainDay(hours.Wednesday),
		Thursday:  fromDomainDay(hours.Thursday),
		Friday:    fromDomainDay(hours.Friday),
		Saturday:  fromDomainDay(hours.Saturday),
		Sunday:    fromDomainDay(hours.Sunday),
	}
}

func fromDomainDay(day domain.DaySchedule) DayScheduleResponse {
	if day.Closed {
		return DayScheduleResponse{Closed: true}
	}
	return DayScheduleResponse{
		OpenTime:  string(day.OpenTime),
		CloseTime: string(day.CloseTime),
	}
}
