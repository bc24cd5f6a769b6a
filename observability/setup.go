package observability

import (
	"context"
	stderrors "errors"
)

// Shutdown flushes and stops installed providers.
type Shutdown func(ctx context.Context) error

// Setup installs OTLP trace and metric exporters when tc.Endpoint is set.
// Without an endpoint it leaves the global no-op providers in place and
// returns a Shutdown that does nothing.
func Setup(ctx context.Context, tc TracerConfig, mc MeterConfig) (Shutdown, error) {
	if tc.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := InitTracer(ctx, tc)
	if err != nil {
		return nil, err
	}
	if mc.Endpoint == "" {
		mc.Endpoint = tc.Endpoint
	}
	mp, err := InitMeter(ctx, &mc)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return stderrors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}, nil
}
