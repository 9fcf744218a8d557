package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanrecon/internal/cli"
	"github.com/Veraticus/loanrecon/internal/config"
)

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup [path]",
		Short: "Write a verified copy of the database",
		Long: `Copy the database to path, or to a timestamped file under the data
directory's backups folder, and check the copy's integrity.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := filepath.Join(config.DataDir(), "backups",
				fmt.Sprintf("recon-%s.db", time.Now().Format("20060102-150405")))
			if len(args) == 1 {
				dest = config.ExpandPath(args[0])
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			info, err := store.Backup(ctx, dest)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
				"Backed up %d loans and %d reconciliations to %s (%d bytes)",
				info.Loans, info.Reconciliations, info.Path, info.Size)))
			return nil
		},
	}
}
