// Package bootstrap runs a finite tabletool task with a uniform lifecycle.
//
// NewApp applies config defaults, validates, and initializes the logger.
// RunTask then runs the start hooks, the task (canceled on SIGINT or
// SIGTERM), and the stop hooks within a shutdown timeout:
//
//	app, err := bootstrap.NewApp(cfg)
//	app.OnStart(installTelemetry)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return operator.Run(ctx, env, root, line)
//	})
package bootstrap
