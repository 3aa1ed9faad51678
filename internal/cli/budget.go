package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"conti/internal/core"
)

func budgetCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage per-category budgets",
	}

	cmd.AddCommand(budgetSetCmd(s))
	cmd.AddCommand(budgetListCmd(s))
	cmd.AddCommand(budgetDeleteCmd(s))
	cmd.AddCommand(budgetStatusCmd(s))
	cmd.AddCommand(budgetAlertsCmd(s))

	return cmd
}

func budgetSetCmd(s *session) *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "set <category> <amount>",
		Short: "Create or replace the budget of a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseAmount(args[1])
			if err != nil {
				return core.Invalid(err)
			}
			p, err := core.ParsePeriod(period)
			if err != nil {
				return core.Invalid(err)
			}
			app := s.app
			if err := app.Budgets.CreateOrReplace(cmd.Context(), args[0], amount, p, app.Today()); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Budget for %s set to %s (%s)", args[0], core.FormatAmount(amount), p)
			return nil
		},
	}

	cmd.Flags().StringVar(&period, "period", string(core.PeriodMonthly), "monthly, weekly or yearly")

	return cmd
}

func budgetListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			budgets, err := s.app.Budgets.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(budgets) == 0 {
				printInfo(out, "No budgets defined. Use 'conti budget set' to create one.")
				return nil
			}
			t := newTable(out, "CATEGORY", "AMOUNT", "PERIOD", "SINCE")
			for _, b := range budgets {
				t.row(b.Category, core.FormatAmount(b.Amount), string(b.Period), b.StartDate.String())
			}
			t.flush()
			return nil
		},
	}
}

func budgetDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <category>",
		Aliases: []string{"rm"},
		Short:   "Delete the budget of a category",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := s.app.Budgets.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted budget for %s", args[0])
			return nil
		},
	}
}

func budgetStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status [category]",
		Short: "Show spending against budgets in the current period",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var statuses []core.BudgetStatus
			if len(args) == 1 {
				st, err := app.Budgets.Status(ctx, args[0], app.Today())
				if err != nil {
					return err
				}
				if st == nil {
					printInfo(out, "No budget for %s.", args[0])
					return nil
				}
				statuses = append(statuses, *st)
			} else {
				all, err := app.Budgets.AllStatuses(ctx, app.Today())
				if err != nil {
					return err
				}
				statuses = all
			}

			if len(statuses) == 0 {
				printInfo(out, "No budgets defined.")
				return nil
			}

			t := newTable(out, "CATEGORY", "PERIOD", "FROM", "BUDGET", "SPENT", "REMAINING", "USED")
			for _, st := range statuses {
				used := fmt.Sprintf("%.1f%%", st.Percentage)
				if st.OverBudget {
					used += " over"
				}
				t.row(
					st.Category,
					string(st.Period),
					st.WindowStart.String(),
					core.FormatAmount(st.BudgetAmount),
					core.FormatAmount(st.SpentAmount),
					core.FormatAmount(st.Remaining),
					used,
				)
			}
			t.flush()
			return nil
		},
	}
}

func budgetAlertsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Show budgets that are over or near their limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := s.app
			alerts, err := app.Budgets.Alerts(cmd.Context(), app.Today())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(alerts) == 0 {
				printSuccess(out, "All budgets are within limits.")
				return nil
			}
			for _, a := range alerts {
				if a.Kind == core.AlertOverBudget {
					fmt.Fprintln(out, ErrorStyle.Render(a.Message))
					continue
				}
				printWarning(out, "%s", a.Message)
			}
			return nil
		},
	}
}
