package operator

import (
	"context"

	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/logger"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/stream"
)

// Run opens root and pulls it to exhaustion. Rows reaching the root are
// discarded, so root is normally a writer. pipeline labels the run in logs
// and spans.
func Run(ctx context.Context, env *Env, root Operator, pipeline string) (err error) {
	rc := observability.NewRunContext(env.RunID, pipeline, env.Metrics)
	ctx, span := rc.StartRun(ctx)
	defer func() {
		rc.EndRun(ctx, span, err)
		if err != nil {
			code := errors.CodeOf(err)
			op := ""
			if appErr, ok := errors.AsAppError(err); ok {
				if name, ok := appErr.Details["operator"].(string); ok {
					op = name
				}
			}
			env.Metrics.RecordError(ctx, string(code), op)
			env.Logger.Debug("run failed", logger.Fields(
				logger.FieldCode, string(code),
				logger.FieldError, err.Error(),
			))
			return
		}
		env.Logger.Debug("run finished", logger.DurationFields(root.Name(), rc.Duration()))
	}()

	s, err := env.Open(ctx, root)
	if err != nil {
		return err
	}
	return stream.Drain(ctx, s, func(context.Context, stream.Row) error { return nil })
}
