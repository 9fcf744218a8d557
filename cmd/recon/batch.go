package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/loanrecon/internal/cli"
	"github.com/Veraticus/loanrecon/internal/engine"
	"github.com/Veraticus/loanrecon/internal/export"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/service"
)

func batchCmd() *cobra.Command {
	var (
		status   string
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Check every loan against its latest extraction",
		Long: `Compare every stored loan that has an extraction and summarize the
variances found. Loans without an extraction are skipped. Nothing is changed;
use review to resolve a loan's variances.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			out := cmd.OutOrStdout()
			var bar *progressbar.ProgressBar
			report, err := reviewer.Batch(ctx, service.LoanFilter{Status: model.LoanStatus(status)}, func(done, total int) {
				if bar == nil {
					bar = newBatchProgress(out, total)
				}
				if err := bar.Set(done); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			})
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(out)
			}
			if err != nil {
				return fmt.Errorf("batch check failed: %w", err)
			}

			showBatchReport(out, report)

			if xlsxPath != "" {
				loans := make([]export.LoanVariances, 0, report.Reviewed)
				for _, item := range report.Items {
					if item.Err == nil {
						loans = append(loans, loanVariances(item.Result))
					}
				}
				if err := export.Save(xlsxPath, loans); err != nil {
					return err
				}
				fmt.Fprintln(out, cli.FormatSuccess("Report written to "+xlsxPath))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only check loans with this status")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an Excel report to this path")

	return cmd
}

func newBatchProgress(out io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][bold]Checking loans...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func showBatchReport(out io.Writer, report *engine.BatchReport) {
	if len(report.Items) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No loans found"))
		return
	}

	rows := make([][]string, 0, len(report.Items))
	for _, item := range report.Items {
		row := []string{strconv.FormatInt(item.Loan.ID, 10), item.Loan.ApplicationNumber}
		if item.Err != nil {
			rows = append(rows, append(row, "", "", "", item.Err.Error()))
			continue
		}
		sum := item.Result.Session.Summary()
		state := "clean"
		switch {
		case sum.Blocked:
			state = cli.LockIcon + " blocked"
		case sum.Total > 0:
			state = "needs review"
		}
		rows = append(rows, append(row,
			strconv.Itoa(sum.Total),
			strconv.Itoa(sum.Critical),
			strconv.Itoa(sum.Warning),
			state))
	}
	fmt.Fprintln(out, cli.Table([]string{"ID", "Application", "Variances", "Critical", "Warning", "State"}, rows))

	summary := fmt.Sprintf("%s Statistics:\n", cli.ChartIcon) +
		fmt.Sprintf("  • Checked: %d\n", report.Reviewed) +
		fmt.Sprintf("  • With variances: %d\n", report.WithVariance) +
		fmt.Sprintf("  • Blocked: %d\n", report.Blocked) +
		fmt.Sprintf("  • Skipped (no extraction): %d\n", report.Skipped) +
		fmt.Sprintf("  • Failed: %d", report.Failed)
	fmt.Fprintln(out, cli.RenderBox("Batch Complete", summary))
}
