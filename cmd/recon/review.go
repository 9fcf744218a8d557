package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanrecon/internal/cli"
	"github.com/Veraticus/loanrecon/internal/engine"
)

func reviewCmd() *cobra.Command {
	var (
		documentPath    string
		acceptExtracted bool
		keepOriginal    bool
	)

	cmd := &cobra.Command{
		Use:   "review <loan-id>",
		Short: "Interactively resolve a loan's variances",
		Long: `Walk through every variance between a loan and its latest extraction.
For each one choose to edit the value, accept the extracted value, keep the
original or skip it. Critical variances on blocking fields must be resolved
before the review can be finalized. The loan is only updated once the review
is finalized.

With --document the document is extracted first and reviewed instead of the
stored extraction.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseLoanID(args[0])
			if err != nil {
				return err
			}
			if acceptExtracted && keepOriginal {
				return fmt.Errorf("--accept-extracted and --keep-original are mutually exclusive")
			}

			out := cmd.OutOrStdout()
			interruptHandler := cli.NewInterruptHandler(out)
			ctx := interruptHandler.HandleInterrupts(cmd.Context(), "Review")
			defer interruptHandler.Stop()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var (
				resolver engine.Resolver
				prompter *cli.Prompter
			)
			switch {
			case acceptExtracted:
				resolver = engine.AcceptAllExtracted()
			case keepOriginal:
				resolver = engine.KeepAllOriginal()
			default:
				prompter = cli.NewCLIPrompter(cmd.InOrStdin(), out)
				resolver = prompter
			}

			opts := engine.ReviewOptions{}
			if documentPath != "" {
				doc, err := os.Open(documentPath)
				if err != nil {
					return fmt.Errorf("failed to open document: %w", err)
				}
				defer func() { _ = doc.Close() }()
				opts.Document = doc
				opts.DocumentName = documentPath
			}

			reviewer, err := newReviewer(store, resolver, documentPath != "")
			if err != nil {
				return err
			}

			result, err := reviewer.Review(ctx, id, opts)
			if err != nil {
				if interruptHandler.WasInterrupted() {
					return nil
				}
				if errors.Is(err, engine.ErrReviewAborted) {
					fmt.Fprintln(out, cli.FormatWarning("Review aborted; the loan is unchanged."))
					return nil
				}
				return err
			}

			if prompter != nil {
				prompter.ShowCompletion(result)
				return nil
			}
			showAutoReview(out, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&documentPath, "document", "", "extract this document before reviewing")
	cmd.Flags().BoolVar(&acceptExtracted, "accept-extracted", false, "accept every extracted value without prompting")
	cmd.Flags().BoolVar(&keepOriginal, "keep-original", false, "keep every application value without prompting")

	return cmd
}

func showAutoReview(out io.Writer, result *engine.Result) {
	fmt.Fprintln(out, cli.SessionTable(result.Session))
	fmt.Fprintln(out, cli.SummaryLine(result.Session.Summary()))
	if result.Record.Patch.IsEmpty() {
		fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Review of loan %d finalized; no fields changed", result.Loan.ID)))
		return
	}
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Review of loan %d finalized and applied", result.Loan.ID)))
}
