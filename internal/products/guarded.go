package product

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/wholesale-offers/pkg/logger"
	"github.com/angelmondragon/wholesale-offers/pkg/types"
)

const breakerName = "product_lookup"

type catalogReader interface {
	GetProductAttributes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]types.ProductAttributes, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type stateRecorder interface {
	SetBreakerState(name string, state gobreaker.State)
}

// BreakerSettings tune when catalog reads stop being attempted.
type BreakerSettings struct {
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// GuardedLookup fails catalog reads fast while the catalog keeps erroring.
// Both reads share one breaker since they hit the same tables.
type GuardedLookup struct {
	next    catalogReader
	breaker *gobreaker.CircuitBreaker[any]
}

// NewGuardedLookup wraps next. metrics may be nil.
func NewGuardedLookup(next catalogReader, settings BreakerSettings, logg *logger.Logger, metrics stateRecorder) *GuardedLookup {
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < settings.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= settings.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logg != nil {
				ctx := logg.WithFields(context.Background(), map[string]any{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
				logg.Warn(ctx, "circuit breaker state change")
			}
			if metrics != nil {
				metrics.SetBreakerState(name, to)
			}
		},
	})
	if metrics != nil {
		metrics.SetBreakerState(breakerName, gobreaker.StateClosed)
	}
	return &GuardedLookup{next: next, breaker: cb}
}

func (g *GuardedLookup) GetProductAttributes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]types.ProductAttributes, error) {
	return execute(g.breaker, func() (map[uuid.UUID]types.ProductAttributes, error) {
		return g.next.GetProductAttributes(ctx, ids)
	})
}

func (g *GuardedLookup) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return execute(g.breaker, func() (bool, error) {
		return g.next.Exists(ctx, id)
	})
}

// State reports the breaker state.
func (g *GuardedLookup) State() gobreaker.State {
	return g.breaker.State()
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	out, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}
