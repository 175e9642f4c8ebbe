package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SalonBookingService/internal/domain"
	"github.com/m04kA/SMC-SalonBookingService/pkg/types"
)

// filterAvailable отбрасывает кандидатов сетки, чье окно резервирования
// пересекается с окном любого активного бронирования.
// Окно кандидата включает буфер салона, окно бронирования - тоже
// (reserved_until хранится в строке), поэтому буфер учитывается с обеих сторон:
// новый слот не начнется раньше, чем закончится чужой буфер, и свой буфер
// не залезет на чужое начало.
func filterAvailable(
	candidates []time.Time,
	bookings []*domain.Booking,
	durationMinutes int,
	bufferMinutes int,
) []time.Time {
	available := make([]time.Time, 0, len(candidates))

	for _, start := range candidates {
		window := domain.NewWindow(start, durationMinutes, bufferMinutes)

		conflict := false
		for _, booking := range bookings {
			if window.Overlaps(booking.Window()) {
				conflict = true
				break
			}
		}

		if !conflict {
			available = append(available, start)
		}
	}

	return available
}

// toSlots конвертирует моменты начала в DTO слотов в локальных часах салона
func toSlots(starts []time.Time, durationMinutes int, loc *time.Location) []Slot {
	slots := make([]Slot, 0, len(starts))

	for _, start := range starts {
		end := start.Add(time.Duration(durationMinutes) * time.Minute)
		slots = append(slots, Slot{
			StartTime: types.NewTimeString(start.In(loc)),
			EndTime:   types.NewTimeString(end.In(loc)),
		})
	}

	return slots
}
