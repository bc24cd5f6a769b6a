// Package observability wires OpenTelemetry tracing and metrics into
// pipeline runs.
//
// Exporters are only installed when an OTLP endpoint is configured;
// otherwise the global no-op providers absorb every span and measurement.
//
//	shutdown, err := observability.Setup(ctx, tracerCfg, meterCfg)
//	defer shutdown(ctx)
//
//	rc := observability.NewRunContext(runID, "tr -f a.tsv | ts -k 0", metrics)
//	ctx, span := rc.StartRun(ctx)
//	defer rc.EndRun(ctx, span, err)
//
// Materializing operators wrap their blocking phase:
//
//	ctx, span := observability.StartPhase(ctx, "tj", PhaseJoinBuild)
//	defer observability.EndPhase(span, rows, err)
package observability
