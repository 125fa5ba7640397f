package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/abdul-hamid-achik/loxspec/packages/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyDSNFlag   string
	historyLimitFlag int
	historyRunFlag   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded test runs",
	Long: `Show the runs recorded with run --history, newest first.

Examples:
  loxspec history --history sqlite://.loxspec/history.db
  loxspec history --limit 5
  loxspec history --run 6f1c...`,
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyDSNFlag, "history", getEnvString("LOXSPEC_HISTORY", ""), "History database (env: LOXSPEC_HISTORY)")
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 10, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyRunFlag, "run", "", "Show the results of one run")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	dsn := historyDSNFlag
	if dsn == "" {
		cfg, err := loadProjectConfig()
		if err != nil {
			return err
		}
		dsn = cfg.History
	}
	if dsn == "" {
		return fmt.Errorf("no history database configured (use --history or set history in .loxspec.yaml)")
	}

	ctx := context.Background()
	store, err := history.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()

	if historyRunFlag != "" {
		results, err := store.Results(ctx, historyRunFlag)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			return fmt.Errorf("no results recorded for run %s", historyRunFlag)
		}
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		for _, r := range results {
			if r.Passed {
				fmt.Fprintf(w, "%s %s\n", green("✓ PASS:"), r.Name)
				continue
			}
			fmt.Fprintf(w, "%s %s (%s)\n", red("✗ FAIL:"), r.Name, r.Reason)
		}
		return nil
	}

	runs, err := store.Recent(ctx, historyLimitFlag)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tTOTAL\tPASSED\tFAILED\tDURATION\tREVISION")
	for _, run := range runs {
		rev := run.Commit
		if len(rev) > 8 {
			rev = rev[:8]
		}
		if run.Branch != "" && rev != "" {
			rev = run.Branch + "@" + rev
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Total, run.Passed, run.Failed, run.Duration, rev)
	}
	return tw.Flush()
}
