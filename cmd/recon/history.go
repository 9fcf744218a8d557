package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanrecon/internal/cli"
	"github.com/Veraticus/loanrecon/internal/model"
)

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <loan-id>",
		Short: "Show a loan's timeline and finalized reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLoanID(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			loan, err := store.GetLoan(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load loan %d: %w", id, err)
			}
			events, err := store.GetTimeline(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load timeline: %w", err)
			}
			records, err := store.GetReconciliations(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load reconciliations: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Loan %d (%s) · %s",
				loan.ID, loan.ApplicationNumber, loan.Status)))

			if len(events) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No timeline events"))
			} else {
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					rows = append(rows, []string{
						e.CreatedAt.Local().Format(time.DateTime),
						eventIcon(e.Type),
						e.Event,
						e.User,
					})
				}
				fmt.Fprintln(out, cli.Table([]string{"When", "", "Event", "By"}, rows))
			}

			if len(records) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				rows = append(rows, []string{
					r.FinalizedAt.Local().Format(time.DateTime),
					r.SessionID,
					strconv.Itoa(r.VarianceCount),
					strconv.Itoa(r.CriticalCount),
					strconv.Itoa(changedFields(r)),
					r.Operator,
				})
			}
			fmt.Fprintln(out, cli.FormatTitle("Reconciliations"))
			fmt.Fprintln(out, cli.Table([]string{"Finalized", "Session", "Variances", "Critical", "Changed", "Operator"}, rows))
			return nil
		},
	}
}

func changedFields(r model.ReconciliationRecord) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Resolution.Kind == model.Edited || o.Resolution.Kind == model.AcceptedExtracted {
			n++
		}
	}
	return n
}

func eventIcon(t model.TimelineEventType) string {
	switch t {
	case model.EventSuccess:
		return cli.SuccessIcon
	case model.EventWarning:
		return cli.WarningIcon
	case model.EventError:
		return cli.ErrorIcon
	default:
		return cli.InfoIcon
	}
}
