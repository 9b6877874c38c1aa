package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/orderflow-backend/internal/orders"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
)

const defaultStalePaymentTTL = 48 * time.Hour

// StalePaymentsJobParams configure the job that cancels gateway orders whose
// payment never completed.
type StalePaymentsJobParams struct {
	Logger *logger.Logger
	Orders stalePaymentExpirer
	TTL    time.Duration
}

type stalePaymentExpirer interface {
	ExpireStalePayments(ctx context.Context, cutoff time.Time) (orders.ExpireResult, error)
}

func NewStalePaymentsJob(params StalePaymentsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultStalePaymentTTL
	}
	return &stalePaymentsJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

type stalePaymentsJob struct {
	logg   *logger.Logger
	orders stalePaymentExpirer
	ttl    time.Duration
	now    func() time.Time
}

func (j *stalePaymentsJob) Name() string { return "stale-payments" }

func (j *stalePaymentsJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	result, err := j.orders.ExpireStalePayments(ctx, cutoff)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":    cutoff,
		"scanned":   result.Scanned,
		"cancelled": result.Cancelled,
	})
	if err != nil {
		return fmt.Errorf("expire stale payments: %w", err)
	}
	j.logg.Info(logCtx, "stale payment sweep complete")
	return nil
}
