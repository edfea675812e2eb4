package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vikramshaw/shopora-backend/pkg/logger"
)

// Expirer cancels a booking whose reservation window has lapsed.
type Expirer interface {
	ExpireBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

// Timer arms one in-process expiry timer per unconfirmed booking. Timers are
// lost on restart; the cron sweep picks up anything missed.
type Timer struct {
	expirer Expirer
	logg    *logger.Logger

	mu      sync.Mutex
	pending map[uuid.UUID]*time.Timer
	stopped bool
}

// NewTimer builds the reservation timer.
func NewTimer(expirer Expirer, logg *logger.Logger) *Timer {
	return &Timer{
		expirer: expirer,
		logg:    logg,
		pending: make(map[uuid.UUID]*time.Timer),
	}
}

// Schedule arms an expiry timer for the booking. Scheduling the same booking
// again replaces the previous timer.
func (t *Timer) Schedule(bookingID uuid.UUID, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if existing, ok := t.pending[bookingID]; ok {
		existing.Stop()
	}
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	t.pending[bookingID] = time.AfterFunc(delay, func() {
		t.fire(bookingID)
	})
}

// Cancel disarms the timer for a booking that was confirmed or cancelled.
func (t *Timer) Cancel(bookingID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.pending[bookingID]; ok {
		timer.Stop()
		delete(t.pending, bookingID)
	}
}

// Stop disarms every pending timer. Used on shutdown.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	for id, timer := range t.pending {
		timer.Stop()
		delete(t.pending, id)
	}
}

// Pending reports how many timers are currently armed.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Timer) fire(bookingID uuid.UUID) {
	t.mu.Lock()
	delete(t.pending, bookingID)
	stopped := t.stopped
	t.mu.Unlock()
	if stopped {
		return
	}

	ctx := context.Background()
	expired, err := t.expirer.ExpireBooking(ctx, bookingID)
	if err != nil && t.logg != nil {
		t.logg.Error(t.logg.WithBookingID(ctx, bookingID.String()), "expire reservation", err)
		return
	}
	if expired && t.logg != nil {
		t.logg.Debug(t.logg.WithBookingID(ctx, bookingID.String()), "reservation timer fired")
	}
}
