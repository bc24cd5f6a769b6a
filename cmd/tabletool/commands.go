package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/tabletool/composer"
	"github.com/kbukum/tabletool/operator"
	"github.com/kbukum/tabletool/version"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run OPERATOR [ARGS...] [--pipe OPERATOR [ARGS...]]...",
		Short: "Compose a pipeline from the command line and run it",
		Long: `Compose a pipeline from the command line and run it.

Stages are separated by | or --pipe, and ( ... ) or --begin ... --end pass a
sub-pipeline as a file argument. A bare |, ( or ) token is always structure,
so a separator made of one of them is written attached to its flag, as in
-s=| or --s1=| (quoted for the shell).`,
		Example: `  tabletool run tr -f orders.tsv --pipe ta -g 0 -a count -a sum:2
  tabletool run tj -1 a.tsv -2 --begin tr -f b.tsv --pipe ts -k 0 --end --k1 0 --k2 0
  tabletool run tr -f prices.txt -s=\| --pipe ts -k 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokens(cmd, opts, args)
		},
	}
	// Everything from the first operator name on belongs to the pipeline.
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newFileCmd(opts *rootOptions) *cobra.Command {
	var dirs []string
	cmd := &cobra.Command{
		Use:   "file NAME|PATH",
		Short: "Run a pipeline defined in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := composer.NewFileLoader(dirs...).Load(args[0])
			if err != nil {
				return err
			}
			return runTokens(cmd, opts, p.Tokens())
		},
	}
	cmd.Flags().StringSliceVarP(&dirs, "dir", "d", []string{"."}, "directories searched for NAME.yaml")
	return cmd
}

func newOpsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the available operators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, s := range operator.Builtin().List() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Long, s.Summary)
			}
			return w.Flush()
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), version.Get().String())
			return err
		},
	}
}
