package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/vikramshaw/shopora-backend/pkg/logger"
)

const defaultSweepBatchLimit = 200

// reservationExpirer cancels overdue unconfirmed bookings in bulk.
type reservationExpirer interface {
	ExpireDue(ctx context.Context, now time.Time, limit int) (int, error)
}

// ReservationSweepJobParams configure the reservation sweep.
type ReservationSweepJobParams struct {
	Logger     *logger.Logger
	Bookings   reservationExpirer
	BatchLimit int
}

// NewReservationSweepJob builds the cron job that cancels bookings whose
// reservation window lapsed while no in-process timer was armed, typically
// after a restart of the API process.
func NewReservationSweepJob(params ReservationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking expirer required")
	}
	limit := params.BatchLimit
	if limit <= 0 {
		limit = defaultSweepBatchLimit
	}
	return &reservationSweepJob{
		logg:     params.Logger,
		bookings: params.Bookings,
		limit:    limit,
		now:      time.Now,
	}, nil
}

type reservationSweepJob struct {
	logg     *logger.Logger
	bookings reservationExpirer
	limit    int
	now      func() time.Time
}

func (j *reservationSweepJob) Name() string { return "reservation-sweep" }

func (j *reservationSweepJob) Run(ctx context.Context) error {
	count, err := j.bookings.ExpireDue(ctx, j.now().UTC(), j.limit)
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	if err != nil {
		j.logg.Error(logCtx, "reservation sweep finished with errors", err)
		return fmt.Errorf("expire due bookings: %w", err)
	}
	j.logg.Info(logCtx, "reservation sweep complete")
	return nil
}
