// Command permanence runs the governed task pipeline from the shell.
//
// Exit codes for `run`: 0 success, 1 halt, 2 empty goal, 3 HIGH risk,
// 4 invalid evidence, 5 escalated or compliance-blocked, 6 retry
// recommended.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	permanence "github.com/MaxProspero/permanence-os-sub000"
	"github.com/MaxProspero/permanence-os-sub000/agent"
	"github.com/MaxProspero/permanence-os-sub000/config"
	"github.com/MaxProspero/permanence-os-sub000/governor"
	"github.com/MaxProspero/permanence-os-sub000/runner"
)

func main() {
	root := &cobra.Command{
		Use:           "permanence",
		Short:         "Governed task pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newAddSourceCmd(), newStatusCmd(), newCleanCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		sourcesPath       string
		draftPath         string
		allowSingleSource bool
		retryCount        int
		irreversible      bool
		financialImpact   bool
		reputationImpact  bool
		canonAdjacent     bool
	)

	cmd := &cobra.Command{
		Use:   "run <goal>",
		Short: "Run one governed task attempt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := permanence.New()
			if err != nil {
				return err
			}

			report, runErr := p.Runner().Run(context.Background(), runner.Params{
				Goal: strings.Join(args, " "),
				Flags: governor.RiskFlags{
					Irreversible:     irreversible,
					FinancialImpact:  financialImpact,
					ReputationImpact: reputationImpact,
					CanonAdjacent:    canonAdjacent,
				},
				SourcesPath:       sourcesPath,
				DraftPath:         draftPath,
				AllowSingleSource: allowSingleSource,
				RetryCount:        retryCount,
			})

			printReport(cmd, report, runErr)
			os.Exit(report.ExitCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourcesPath, "sources", "", "path to the evidence file")
	cmd.Flags().StringVar(&draftPath, "draft", "", "path to a pre-written draft")
	cmd.Flags().BoolVar(&allowSingleSource, "allow-single-source", false, "accept evidence with a single distinct source")
	cmd.Flags().IntVar(&retryCount, "retry", 0, "number of prior attempts for this goal")
	cmd.Flags().BoolVar(&irreversible, "irreversible", false, "the task has irreversible effects")
	cmd.Flags().BoolVar(&financialImpact, "financial-impact", false, "the task has financial impact")
	cmd.Flags().BoolVar(&reputationImpact, "reputation-impact", false, "the task has reputation impact")
	cmd.Flags().BoolVar(&canonAdjacent, "canon-adjacent", false, "the task touches policy territory")

	return cmd
}

func printReport(cmd *cobra.Command, report runner.Report, runErr error) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "task:     %s\n", report.TaskID)
	fmt.Fprintf(out, "stage:    %s\n", report.Stage)
	fmt.Fprintf(out, "status:   %s\n", report.Status)
	if report.Decision != "" {
		fmt.Fprintf(out, "decision: %s\n", report.Decision)
	}
	if report.ArtifactRef != "" {
		fmt.Fprintf(out, "artifact: %s\n", report.ArtifactRef)
	}
	if report.Reason != "" {
		fmt.Fprintf(out, "reason:   %s\n", report.Reason)
	}
	if runErr != nil && !errors.Is(runErr, runner.ErrEmptyGoal) {
		fmt.Fprintf(cmd.ErrOrStderr(), "outcome: %v\n", runErr)
	}
}

func newAddSourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-source <source> <confidence> [notes]",
		Short: "Append a provenance record to the evidence file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			confidence, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("confidence must be a number: %w", err)
			}
			notes := ""
			if len(args) == 3 {
				notes = args[2]
			}
			if err := agent.AppendSource(cfg.SourcesPath, args[0], confidence, notes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", args[0], cfg.SourcesPath)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent task attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store := governor.NewEpisodicStore(cfg.EpisodicDir())
			ids, err := store.List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no task attempts recorded")
				return nil
			}
			if len(ids) > limit {
				ids = ids[:limit]
			}
			for _, id := range ids {
				state, err := store.Load(id)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", id, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %-8s steps=%d/%d tools=%d/%d  %s\n",
					state.TaskID, state.Stage, state.Status,
					state.StepCount, state.MaxSteps,
					state.ToolCallsUsed, state.MaxToolCalls,
					state.Goal)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "maximum attempts to show")
	return cmd
}

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove logs, episodic state and working artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			for _, dir := range []string{cfg.LogDir, cfg.EpisodicDir(), cfg.WorkingDir()} {
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("remove %s: %w", dir, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", dir)
			}
			return nil
		},
	}
}
