package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanrecon/internal/cli"
)

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <loan-id> <document>",
		Short: "Extract a loan document and store the result",
		Long: `Send a supporting document to the extraction service and store the
extracted record against the loan. The next review of the loan compares
against this extraction.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLoanID(args[0])
			if err != nil {
				return err
			}

			doc, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open document: %w", err)
			}
			defer func() { _ = doc.Close() }()

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reviewer, err := newReviewer(store, nil, true)
			if err != nil {
				return err
			}

			ext, err := reviewer.Extract(ctx, id, args[1], doc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Stored extraction %d for loan %d (%s, %.0f%% confidence)",
				ext.ID, id, ext.DocumentType, ext.Confidence*100)))
			for _, msg := range ext.Errors {
				fmt.Fprintln(out, cli.FormatWarning(msg))
			}
			return nil
		},
	}
}
