package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Veraticus/loanrecon/internal/cli"
	"github.com/Veraticus/loanrecon/internal/engine"
	"github.com/Veraticus/loanrecon/internal/model"
	"github.com/Veraticus/loanrecon/internal/rules"
	"github.com/Veraticus/loanrecon/internal/storage"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage validation rules",
		Long: `View and edit the rules that grade variances. Rules are keyed by field
path (for example loan_amount or borrower_annual_income) or by a type default
(default_currency, default_percentage, default_number, default_text).`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesAddCmd())
	cmd.AddCommand(rulesSetCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesResetCmd())
	cmd.AddCommand(rulesImportCmd())
	cmd.AddCommand(rulesExportCmd())

	return cmd
}

// withRules loads the stored rule set, runs fn and saves the result when
// save is set.
func withRules(ctx context.Context, save bool, fn func(rs *rules.RuleSet) error) error {
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rs, err := loadRules(ctx, store)
	if err != nil {
		return err
	}
	if err := fn(rs); err != nil {
		return err
	}
	if !save {
		return nil
	}
	if err := store.SaveRules(ctx, rs.Snapshot()); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}
	return nil
}

func loadRules(ctx context.Context, store *storage.SQLiteStorage) (*rules.RuleSet, error) {
	return engine.New(store, nil, nil).LoadRules(ctx)
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List validation rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRules(cmd.Context(), false, func(rs *rules.RuleSet) error {
				rows := make([][]string, 0, rs.Len())
				for _, key := range rs.Keys() {
					rule, _ := rs.Get(key)
					rows = append(rows, []string{
						key,
						formatThreshold(rule.WarningPercentage),
						formatThreshold(rule.CriticalPercentage),
						formatThreshold(rule.WarningAbsolute),
						formatThreshold(rule.CriticalAbsolute),
						string(rule.MismatchSeverity),
						yesNo(rule.BlockProgress),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.Table(
					[]string{"Key", "Warn %", "Crit %", "Warn Abs", "Crit Abs", "Mismatch", "Blocks"}, rows))
				return nil
			})
		},
	}
}

func formatThreshold(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func addRuleFlags(flags *pflag.FlagSet) {
	flags.Float64("warning-pct", 0, "warning threshold as a percentage of the application value")
	flags.Float64("critical-pct", 0, "critical threshold as a percentage of the application value")
	flags.Float64("warning-abs", 0, "warning threshold as an absolute difference")
	flags.Float64("critical-abs", 0, "critical threshold as an absolute difference")
	flags.String("mismatch", "", "severity of a text mismatch (info, warning, critical)")
	flags.Bool("block", false, "unresolved critical variances on this field block finalizing")
}

// applyRuleFlags overlays the flags that were set onto rule.
func applyRuleFlags(flags *pflag.FlagSet, rule model.Rule) model.Rule {
	threshold := func(name string, dst **float64) {
		if flags.Changed(name) {
			v, _ := flags.GetFloat64(name)
			*dst = model.Float(v)
		}
	}
	threshold("warning-pct", &rule.WarningPercentage)
	threshold("critical-pct", &rule.CriticalPercentage)
	threshold("warning-abs", &rule.WarningAbsolute)
	threshold("critical-abs", &rule.CriticalAbsolute)

	if flags.Changed("mismatch") {
		v, _ := flags.GetString("mismatch")
		rule.MismatchSeverity = model.Severity(v)
	}
	if flags.Changed("block") {
		rule.BlockProgress, _ = flags.GetBool("block")
	}
	return rule
}

func rulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <field>",
		Short: "Add a field-specific rule",
		Long: `Add a rule for one field. Thresholds left unset are inherited from the
field type's default rule.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := args[0]
			return withRules(cmd.Context(), true, func(rs *rules.RuleSet) error {
				if err := rs.Create(field, applyRuleFlags(cmd.Flags(), model.Rule{})); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Added rule for "+field))
				return nil
			})
		},
	}
	addRuleFlags(cmd.Flags())
	return cmd
}

func rulesSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Change a rule, creating it if needed",
		Long: `Change the given settings of a field rule or type default. Settings not
passed as flags keep their current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			return withRules(cmd.Context(), true, func(rs *rules.RuleSet) error {
				current, _ := rs.Get(key)
				if err := rs.Upsert(key, applyRuleFlags(cmd.Flags(), current)); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Updated rule "+key))
				return nil
			})
		},
	}
	addRuleFlags(cmd.Flags())
	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <field>",
		Short: "Delete a field-specific rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field := args[0]
			return withRules(cmd.Context(), true, func(rs *rules.RuleSet) error {
				if err := rs.Remove(field); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted rule for "+field))
				return nil
			})
		},
	}
}

func rulesResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the built-in defaults and drop every field rule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRules(cmd.Context(), true, func(rs *rules.RuleSet) error {
				rs.Reset()
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Rules reset to defaults"))
				return nil
			})
		},
	}
}

func rulesImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Replace the stored rules with a rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imported, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveRules(ctx, imported.Snapshot()); err != nil {
				return fmt.Errorf("failed to save rules: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Imported %d rules from %s", imported.Len(), args[0])))
			return nil
		},
	}
}

func rulesExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file.yaml>",
		Short: "Write the stored rules to a rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRules(cmd.Context(), false, func(rs *rules.RuleSet) error {
				if err := rules.SaveFile(args[0], rs); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d rules to %s", rs.Len(), args[0])))
				return nil
			})
		},
	}
}
