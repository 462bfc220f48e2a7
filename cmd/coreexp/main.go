package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-coreexp/pkg/config"
	"github.com/dd0wney/cluso-coreexp/pkg/logging"
	"github.com/dd0wney/cluso-coreexp/pkg/pipeline"
)

// runFunc executes one detection run.
type runFunc func(ctx context.Context, cfg config.Config, out io.Writer) error

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, runDetection).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer, run runFunc) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "coreexp [-f edges-file]",
		Short: "Detect communities in a graph by core expansion",
		Long: `coreexp reads a tab-separated edge list, weights every edge by the
overlap of its endpoints' neighbourhoods, seeds communities at local
out-weight maxima and grows them until no node can be placed.

Without arguments the built-in defaults are used, overlaid with the YAML
file named by ` + config.EnvConfigFile + ` when set. With -f the communities
file and the logs directory are written next to the edge file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return cmd.Help()
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("file") {
				if _, err := os.Stat(input); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s does not exist.\n", input)
					return cmd.Help()
				}
				if err := cfg.DerivePaths(input); err != nil {
					return err
				}
			}
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.Flags().StringVarP(&input, "file", "f", "", "tab-separated edge file; results are written next to it")
	// any other invocation only shows the usage
	cmd.SetFlagErrorFunc(func(c *cobra.Command, _ error) error {
		return c.Help()
	})
	return cmd
}

func runDetection(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger, closer, err := logging.NewRunLogger(cfg.LogDir, logging.LevelFromEnv(cfg.Level()))
	if err != nil {
		return err
	}
	defer closer.Close()

	summary, err := pipeline.NewRunner(logger, nil).Run(ctx, cfg)
	if err != nil {
		logger.Error("run failed", logging.Error(err))
		return err
	}

	fmt.Fprintf(out, "%d communities found\n", len(summary.Communities))
	for _, c := range summary.Communities {
		fmt.Fprintf(out, "  community %d: %d nodes\n", c.ID, c.Size)
	}
	fmt.Fprintf(out, "%d nodes classified out of %d\n", summary.Classified, summary.Nodes)
	fmt.Fprintf(out, "Elapsed time: %s\n", summary.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "Communities written to %s\n", cfg.CommunitiesFile)
	return nil
}
