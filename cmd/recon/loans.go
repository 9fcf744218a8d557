package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanrecon/internal/cli"
	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/service"
)

func loansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Manage stored loan applications",
		Long:  `Import, list and inspect the loan applications that reviews are run against.`,
	}

	cmd.AddCommand(loansImportCmd())
	cmd.AddCommand(loansListCmd())
	cmd.AddCommand(loansShowCmd())

	return cmd
}

func loansImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import loan applications from JSON",
		Long: `Import one loan application, or an array of them, from a JSON file.
Applications without a status are stored as pending.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			loans, err := decodeLoans(data)
			if err != nil {
				return common.NewUserError(fmt.Sprintf("Could not parse %s", args[0]), err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			out := cmd.OutOrStdout()
			for i := range loans {
				loan := &loans[i]
				loan.ID = 0
				if loan.Status == "" {
					loan.Status = model.LoanPending
				}
				if err := store.SaveLoan(ctx, loan); err != nil {
					return fmt.Errorf("failed to import loan %q: %w", loan.ApplicationNumber, err)
				}
				slog.Debug("Imported loan", "id", loan.ID, "application_number", loan.ApplicationNumber)
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %s as loan %d", loan.ApplicationNumber, loan.ID)))
			}
			return nil
		},
	}
}

// decodeLoans accepts a single record or an array of records.
func decodeLoans(data []byte) ([]model.LoanRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	if trimmed[0] == '[' {
		var loans []model.LoanRecord
		if err := json.Unmarshal(trimmed, &loans); err != nil {
			return nil, err
		}
		return loans, nil
	}

	var loan model.LoanRecord
	if err := json.Unmarshal(trimmed, &loan); err != nil {
		return nil, err
	}
	return []model.LoanRecord{loan}, nil
}

func loansListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored loans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			loans, err := store.ListLoans(ctx, service.LoanFilter{Status: model.LoanStatus(status), Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to list loans: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(loans) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No loans found"))
				return nil
			}

			rows := make([][]string, 0, len(loans))
			for _, loan := range loans {
				rows = append(rows, []string{
					strconv.FormatInt(loan.ID, 10),
					loan.ApplicationNumber,
					string(loan.Status),
					borrowerName(&loan),
					loan.LoanAmount.Literal(),
				})
			}
			fmt.Fprintln(out, cli.Table([]string{"ID", "Application", "Status", "Borrower", "Amount"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only list loans with this status")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of loans to list")

	return cmd
}

func borrowerName(loan *model.LoanRecord) string {
	if b := loan.PrimaryBorrower(); b != nil {
		return b.FullName.Literal()
	}
	return ""
}

func loansShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <loan-id>",
		Short: "Show a stored loan as JSON",
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
			return writeJSON(cmd.OutOrStdout(), loan)
		},
	}
}
