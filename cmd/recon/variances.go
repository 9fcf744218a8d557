package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanrecon/internal/cli"
	"github.com/Veraticus/loanrecon/internal/engine"
	"github.com/Veraticus/loanrecon/internal/export"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/reconcile"
)

type variancesReport struct {
	Variances []model.Variance `json:"variances"`
	Summary   reconcile.Summary `json:"summary"`
	LoanID    int64             `json:"loan_id"`
}

func variancesCmd() *cobra.Command {
	var (
		asJSON   bool
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "variances <loan-id>",
		Short: "Show the variances between a loan and its latest extraction",
		Long: `Compare the stored loan with its latest extraction and list every
variance with its severity. Nothing is changed.`,
		Args: cobra.ExactArgs(1),
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

			reviewer, err := newReviewer(store, nil, false)
			if err != nil {
				return err
			}
			result, err := reviewer.Preview(ctx, id)
			if err != nil {
				return err
			}

			if xlsxPath != "" {
				if err := export.Save(xlsxPath, []export.LoanVariances{loanVariances(result)}); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, variancesReport{
					LoanID:    id,
					Variances: result.Session.Variances(),
					Summary:   result.Session.Summary(),
				})
			}

			fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Loan %d (%s) vs %s",
				id, result.Loan.ApplicationNumber, result.Extraction.DocumentName)))
			fmt.Fprintln(out, cli.VarianceTable(result.Session.Variances()))
			fmt.Fprintln(out, cli.SummaryLine(result.Session.Summary()))
			if xlsxPath != "" {
				fmt.Fprintln(out, cli.FormatSuccess("Report written to "+xlsxPath))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print variances as JSON")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write an Excel report to this path")

	return cmd
}

func loanVariances(result *engine.Result) export.LoanVariances {
	return export.LoanVariances{
		LoanID:            result.Loan.ID,
		ApplicationNumber: result.Loan.ApplicationNumber,
		DocumentName:      result.Extraction.DocumentName,
		Session:           result.Session,
	}
}
