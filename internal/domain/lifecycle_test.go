package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeBooking(status BookingStatus, start time.Time) *Booking {
	return &Booking{
		ID:              uuid.New(),
		SalonID:         1,
		ServiceID:       2,
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		ReservedUntil:   start.Add(75 * time.Minute),
		DurationMinutes: 60,
		Status:          status,
	}
}

func cutoffSalon(hours int) *Salon {
	return &Salon{ID: 1, CancellationCutoffHours: hours, Timezone: "UTC"}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusNoShow, false},
		{StatusConfirmed, StatusCancelled, true},
		{StatusConfirmed, StatusNoShow, true},
		{StatusConfirmed, StatusCompleted, true},
		{StatusConfirmed, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusNoShow, StatusConfirmed, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestCustomerMayModify_CutoffBoundary(t *testing.T) {
	salon := cutoffSalon(24)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		start   time.Time
		wantErr error
	}{
		{name: "well before cutoff", start: now.Add(48 * time.Hour)},
		// Граница включающая: ровно 24 часа до начала - еще можно
		{name: "exactly at cutoff", start: now.Add(24 * time.Hour)},
		{name: "one minute inside cutoff", start: now.Add(24*time.Hour - time.Minute), wantErr: ErrPolicyViolation},
		{name: "already started", start: now.Add(-time.Hour), wantErr: ErrPolicyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := activeBooking(StatusConfirmed, tt.start)
			err := CustomerMayModify(b, salon, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCustomerMayModify_TerminalBooking(t *testing.T) {
	salon := cutoffSalon(24)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, status := range []BookingStatus{StatusCancelled, StatusNoShow, StatusCompleted} {
		b := activeBooking(status, now.Add(48*time.Hour))
		assert.ErrorIs(t, CustomerMayModify(b, salon, now), ErrInvalidTransition, "status=%s", status)
	}
}

func TestApplyCustomerCancel(t *testing.T) {
	salon := cutoffSalon(24)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	b := activeBooking(StatusPending, now.Add(48*time.Hour))
	require.NoError(t, ApplyCustomerCancel(b, salon, now))
	assert.Equal(t, StatusCancelled, b.Status)
	require.NotNil(t, b.CancelledAt)
	assert.Equal(t, now, *b.CancelledAt)

	// Внутри cutoff отмена запрещена, бронирование не тронуто
	late := activeBooking(StatusConfirmed, now.Add(time.Hour))
	assert.ErrorIs(t, ApplyCustomerCancel(late, salon, now), ErrPolicyViolation)
	assert.Equal(t, StatusConfirmed, late.Status)
	assert.Nil(t, late.CancelledAt)
}

func TestApplyStaffTransition(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("staff cancel ignores cutoff", func(t *testing.T) {
		b := activeBooking(StatusConfirmed, now.Add(30*time.Minute))
		require.NoError(t, ApplyStaffTransition(b, StatusCancelled, now))
		assert.Equal(t, StatusCancelled, b.Status)
		assert.NotNil(t, b.CancelledAt)
	})

	t.Run("no_show before start is rejected", func(t *testing.T) {
		b := activeBooking(StatusConfirmed, now.Add(time.Hour))
		assert.ErrorIs(t, ApplyStaffTransition(b, StatusNoShow, now), ErrInvalidTransition)
		assert.Equal(t, StatusConfirmed, b.Status)
	})

	t.Run("completed after start", func(t *testing.T) {
		b := activeBooking(StatusConfirmed, now.Add(-2*time.Hour))
		require.NoError(t, ApplyStaffTransition(b, StatusCompleted, now))
		assert.Equal(t, StatusCompleted, b.Status)
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		b := activeBooking(StatusPending, now.Add(-2*time.Hour))
		assert.ErrorIs(t, ApplyStaffTransition(b, StatusCompleted, now), ErrInvalidTransition)
	})
}

func TestApplyPaymentConfirmation(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("pending becomes confirmed", func(t *testing.T) {
		b := activeBooking(StatusPending, now.Add(48*time.Hour))
		changed, err := ApplyPaymentConfirmation(b, "pay_123", now)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, StatusConfirmed, b.Status)
		assert.True(t, b.DepositPaid)
		require.NotNil(t, b.PaymentReference)
		assert.Equal(t, "pay_123", *b.PaymentReference)
	})

	t.Run("repeated confirmation is a no-op", func(t *testing.T) {
		b := activeBooking(StatusConfirmed, now.Add(48*time.Hour))
		changed, err := ApplyPaymentConfirmation(b, "pay_123", now)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, StatusConfirmed, b.Status)
	})

	t.Run("terminal booking yields stale event", func(t *testing.T) {
		b := activeBooking(StatusCancelled, now.Add(48*time.Hour))
		changed, err := ApplyPaymentConfirmation(b, "pay_123", now)
		assert.ErrorIs(t, err, ErrStaleEvent)
		assert.False(t, changed)
		assert.Equal(t, StatusCancelled, b.Status)
	})
}

func TestReservationWindow_Overlaps(t *testing.T) {
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	w := NewWindow(base, 60, 15) // [10:00, 11:15)

	tests := []struct {
		name  string
		other ReservationWindow
		want  bool
	}{
		{name: "identical", other: NewWindow(base, 60, 15), want: true},
		{name: "partial overlap", other: NewWindow(base.Add(45*time.Minute), 60, 15), want: true},
		{name: "inside buffer zone", other: NewWindow(base.Add(70*time.Minute), 60, 15), want: true},
		// Полуоткрытые интервалы: граничащие окна не пересекаются
		{name: "adjacent after buffer", other: NewWindow(base.Add(75*time.Minute), 60, 15), want: false},
		{name: "before", other: NewWindow(base.Add(-75*time.Minute), 60, 15), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(w))
		})
	}
}
