package cron

import (
	"context"
	"fmt"

	"github.com/tallycart/tallycart-backend/pkg/logger"
)

const defaultAbandonedAfterHours = 48

type cartSweeper interface {
	ClearAbandoned(ctx context.Context, hours int) (int64, error)
}

// AbandonedCartsJobParams configure the abandoned cart sweep.
type AbandonedCartsJobParams struct {
	Logger     *logger.Logger
	Carts      cartSweeper
	AfterHours int
}

func NewAbandonedCartsJob(params AbandonedCartsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	afterHours := params.AfterHours
	if afterHours <= 0 {
		afterHours = defaultAbandonedAfterHours
	}
	return &abandonedCartsJob{
		logg:       params.Logger,
		carts:      params.Carts,
		afterHours: afterHours,
	}, nil
}

type abandonedCartsJob struct {
	logg       *logger.Logger
	carts      cartSweeper
	afterHours int
}

func (j *abandonedCartsJob) Name() string { return "abandoned-carts" }

func (j *abandonedCartsJob) Run(ctx context.Context) error {
	removed, err := j.carts.ClearAbandoned(ctx, j.afterHours)
	if err != nil {
		return fmt.Errorf("abandoned cart sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"after_hours":  j.afterHours,
		"rows_deleted": removed,
	})
	j.logg.Info(logCtx, "abandoned cart sweep complete")
	return nil
}
