package cron

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/wholesale-offers/pkg/logger"
)

const offerWindowJobName = "offer_window_transitions"

type windowSource interface {
	CountWindowTransitions(ctx context.Context, from, to time.Time) (int64, error)
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// OfferWindowJobParams configure the offer window job.
type OfferWindowJobParams struct {
	Logger   *logger.Logger
	Offers   windowSource
	Cache    cacheInvalidator
	Lookback time.Duration
	Now      func() time.Time
}

// OfferWindowJob bumps the badge cache version whenever an offer's schedule
// window opened or closed since the previous run. Cached badge lists carry no
// clock, so without it a listing would keep showing an offer past its end.
type OfferWindowJob struct {
	logg     *logger.Logger
	offers   windowSource
	cache    cacheInvalidator
	lookback time.Duration
	now      func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

func NewOfferWindowJob(params OfferWindowJobParams) (*OfferWindowJob, error) {
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	if params.Offers == nil {
		return nil, errors.New("offer source required")
	}
	if params.Cache == nil {
		return nil, errors.New("cache required")
	}
	if params.Lookback <= 0 {
		return nil, errors.New("lookback must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &OfferWindowJob{
		logg:     params.Logger,
		offers:   params.Offers,
		cache:    params.Cache,
		lookback: params.Lookback,
		now:      now,
	}, nil
}

func (j *OfferWindowJob) Name() string { return offerWindowJobName }

// Run scans (from, to] where from is the later of the previous successful run
// and now minus the lookback. The first run after boot scans the full lookback.
func (j *OfferWindowJob) Run(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	to := j.now().UTC()
	from := to.Add(-j.lookback)
	if j.lastRun.After(from) {
		from = j.lastRun
	}

	count, err := j.offers.CountWindowTransitions(ctx, from, to)
	if err != nil {
		return err
	}
	j.lastRun = to
	if count == 0 {
		return nil
	}

	ctx = j.logg.WithField(ctx, "transitions", count)
	j.cache.Invalidate(ctx)
	j.logg.Info(ctx, "offer windows changed, badge cache invalidated")
	return nil
}
