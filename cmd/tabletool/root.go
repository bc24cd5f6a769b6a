package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/tabletool/bootstrap"
	"github.com/kbukum/tabletool/composer"
	"github.com/kbukum/tabletool/config"
	"github.com/kbukum/tabletool/errors"
	"github.com/kbukum/tabletool/observability"
	"github.com/kbukum/tabletool/operator"
	"github.com/kbukum/tabletool/version"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	separator  string
	null       string
	limit      int
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string) int {
	return execute(args, os.Stdin, os.Stdout, os.Stderr)
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return errors.ExitCodeFor(errors.CodeOf(err))
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "tabletool",
		Short:         "Composable operators over delimited tables",
		Long:          "tabletool joins, groups, sorts, filters and reshapes delimited flat-file tables\nwith single-pass pipelines of small operators.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "config file (default: discovered tabletool.yml)")
	pf.StringVar(&opts.envFile, "env-file", "", ".env file to load")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format (console, json)")
	pf.StringVar(&opts.separator, "separator", "", "default field separator")
	pf.StringVar(&opts.null, "null", "", "default null string")
	pf.IntVar(&opts.limit, "partition-limit", 0, "default maximum number of partition files (-1 unlimited)")

	cmd.AddCommand(
		newRunCmd(opts),
		newFileCmd(opts),
		newOpsCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loadConfig reads the configuration; flags given on the command line win.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var lopts []config.LoaderOption
	if o.configFile != "" {
		lopts = append(lopts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		lopts = append(lopts, config.WithEnvFile(o.envFile))
	}
	flags := cmd.Flags()
	overrides := []struct {
		flag, key string
		value     any
	}{
		{"log-level", "logging.level", o.logLevel},
		{"log-format", "logging.format", o.logFormat},
		{"separator", "table.separator", o.separator},
		{"null", "table.null_string", o.null},
		{"partition-limit", "table.partition_limit", o.limit},
	}
	for _, ov := range overrides {
		if flags.Changed(ov.flag) {
			lopts = append(lopts, config.WithOverride(ov.key, ov.value))
		}
	}

	cfg, err := config.Load(lopts...)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfiguration, err.Error()).WithCause(err)
	}
	return cfg, nil
}

// runTokens composes tokens and runs the pipeline with cmd's streams.
func runTokens(cmd *cobra.Command, opts *rootOptions, tokens []string) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	root, err := composer.New(nil, composer.WithLogger(app.Logger)).Compose(tokens)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	app.OnStart(func(ctx context.Context) error {
		shutdown, err := observability.Setup(ctx, tracerConfig(cfg), meterConfig(cfg))
		if err != nil {
			return err
		}
		app.OnStop(bootstrap.Hook(shutdown))
		metrics, err = observability.NewMetrics(observability.Meter(observability.MeterName))
		return err
	})

	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		env := operator.NewEnv(
			operator.WithTable(cfg.Table),
			operator.WithLogger(app.Logger),
			operator.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout()),
			operator.WithMetrics(metrics),
		)
		return operator.Run(ctx, env, root, composer.Describe(tokens))
	})
}

func tracerConfig(cfg *config.Config) observability.TracerConfig {
	return observability.TracerConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: version.Get().Short(),
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRatio,
	}
}

func meterConfig(cfg *config.Config) observability.MeterConfig {
	return observability.MeterConfig{
		ServiceName:    cfg.Name,
		ServiceVersion: version.Get().Short(),
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		Interval:       15 * time.Second,
	}
}
