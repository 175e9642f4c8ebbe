package domain

import "time"

// Service услуга салона
// Длительность и цена копируются в бронирование при создании,
// поэтому изменения каталога не влияют на существующие записи
type Service struct {
	ID              int64
	SalonID         int64
	Name            string
	DurationMinutes int
	PriceCents      int64 // цена в минорных единицах валюты
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Staff мастер салона
// Опциональное измерение: бронирование может быть привязано к мастеру
// или к салону целиком
type Staff struct {
	ID              int64
	SalonID         int64
	Name            string
	AcceptsBookings bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
