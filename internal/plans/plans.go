package plans

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

var ErrUnknownPlan = errors.New("unknown plan")

// Params are the accrual inputs for one plan. ROIPercent is the advertised
// base return over the full duration; the per-investment target is drawn from
// [ROIPercent, ROIPercent+MaxVariationPercent] once at creation.
type Params struct {
	Name                string
	ROIPercent          decimal.Decimal
	DurationDays        int
	MaxVariationPercent decimal.Decimal
	Volatility          decimal.Decimal
}

var catalog = map[string]Params{
	"starter": {
		Name:                "starter",
		ROIPercent:          dec("8"),
		DurationDays:        30,
		MaxVariationPercent: dec("4"),
		Volatility:          dec("0.01"),
	},
	"growth": {
		Name:                "growth",
		ROIPercent:          dec("15"),
		DurationDays:        60,
		MaxVariationPercent: dec("6"),
		Volatility:          dec("0.02"),
	},
	"premium": {
		Name:                "premium",
		ROIPercent:          dec("25"),
		DurationDays:        90,
		MaxVariationPercent: dec("10"),
		Volatility:          dec("0.03"),
	},
}

// OverrideSource is a key-value lookup for runtime plan overrides. Keys are
// "plan.<name>.<field>"; a missing key means "use the code default".
type OverrideSource interface {
	Lookup(ctx context.Context, key string) (string, bool)
}

type Resolver struct {
	overrides OverrideSource
}

// NewResolver builds a Resolver; overrides may be nil, in which case the
// catalog defaults always apply.
func NewResolver(overrides OverrideSource) *Resolver {
	return &Resolver{overrides: overrides}
}

// Resolve returns the effective parameters for planName, applying any
// runtime overrides on top of the catalog entry. Called once per accrual
// tick per plan rather than field-by-field inside the loop.
func (r *Resolver) Resolve(ctx context.Context, planName string) (Params, error) {
	params, ok := catalog[strings.ToLower(planName)]
	if !ok {
		return Params{}, ErrUnknownPlan
	}
	if r.overrides == nil {
		return params, nil
	}
	if raw, ok := r.lookup(ctx, params.Name, "roi"); ok {
		if value, err := decimal.NewFromString(raw); err == nil {
			params.ROIPercent = value
		}
	}
	if raw, ok := r.lookup(ctx, params.Name, "durationDays"); ok {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			params.DurationDays = value
		}
	}
	if raw, ok := r.lookup(ctx, params.Name, "maxVariationPercent"); ok {
		if value, err := decimal.NewFromString(raw); err == nil {
			params.MaxVariationPercent = value
		}
	}
	if raw, ok := r.lookup(ctx, params.Name, "volatility"); ok {
		if value, err := decimal.NewFromString(raw); err == nil {
			params.Volatility = value
		}
	}
	return params, nil
}

// Names returns the catalog plan names, for listing endpoints.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	return names
}

func (r *Resolver) lookup(ctx context.Context, planName, field string) (string, bool) {
	return r.overrides.Lookup(ctx, "plan."+planName+"."+field)
}

// RedisOverrides reads plan overrides from Redis. Lookup misses and transport
// errors both fall back to defaults; the accrual engine never fails a tick
// because the override store is down.
type RedisOverrides struct {
	client *redis.Client
}

func NewRedisOverrides(client *redis.Client) *RedisOverrides {
	return &RedisOverrides{client: client}
}

func (r *RedisOverrides) Lookup(ctx context.Context, key string) (string, bool) {
	if r.client == nil {
		return "", false
	}
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func dec(value string) decimal.Decimal {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return parsed
}
