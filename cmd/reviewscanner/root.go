package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"ReviewScanner/internal/analytics"
	"ReviewScanner/internal/app"
	"ReviewScanner/internal/config"
	"ReviewScanner/internal/infrastructure/storage"
	"ReviewScanner/internal/logging"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reviewscanner",
		Short:         "Incremental review collection and weekly analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newDaemonCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newRunsCommand())

	return rootCmd
}

func newApplication() (*app.Application, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	return app.New(cfg, logger)
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Collect reviews once for every entity in the collection file",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			result, err := application.Run(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(result.Outcomes))
			for _, o := range result.Outcomes {
				rows = append(rows, []string{
					o.EntityID, string(o.State),
					strconv.Itoa(o.Pages), strconv.Itoa(o.RowsAdded), o.Err,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"entity", "state", "pages", "rows added", "error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Collect on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return application.RunDaemon(ctx)
		},
	}
}

func newAnalyzeCommand() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Aggregate the review table and export the analytics report",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := newApplication()
			if err != nil {
				return err
			}
			defer application.Close()

			report, err := application.Analyze(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"entity", "weeks", "distortion prob"},
				topDistortion(report, top),
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "Number of highest-distortion entities to print")
	return cmd
}

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent collection runs from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ledger, err := storage.Open(cfg.Storage.LedgerPath())
			if err != nil {
				return err
			}
			defer ledger.Close()

			runs, err := ledger.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					strconv.FormatInt(r.ID, 10),
					r.StartedAt,
					strconv.Itoa(r.Summary.Entities),
					strconv.Itoa(r.Summary.Pages),
					strconv.Itoa(r.Summary.RowsAdded),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"run", "started", "entities", "pages", "rows added"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to list")
	return cmd
}

// topDistortion picks the n scored entities with the highest distortion
// probability; unscored entities are left out of the table.
func topDistortion(report analytics.Report, n int) [][]string {
	type entry struct {
		entity string
		weeks  int
		prob   float64
	}
	scored := make([]entry, 0, len(report.Distortion))
	for _, d := range report.Distortion {
		if d.Probability == nil {
			continue
		}
		scored = append(scored, entry{d.EntityID, d.ObservedWeeks, *d.Probability})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].prob > scored[j].prob })
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}

	rows := make([][]string, 0, len(scored))
	for _, s := range scored {
		rows = append(rows, []string{
			s.entity,
			strconv.Itoa(s.weeks),
			strconv.FormatFloat(s.prob, 'f', 3, 64),
		})
	}
	return rows
}
