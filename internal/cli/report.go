package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"conti/internal/core"
)

func reportCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print ledger reports",
	}

	cmd.AddCommand(reportSummaryCmd(s))
	cmd.AddCommand(reportTrendCmd(s))
	cmd.AddCommand(reportCategoriesCmd(s))

	return cmd
}

func reportSummaryCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Totals overall and for the current month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := s.app
			today := app.Today()
			sum, err := app.Reports.Summary(cmd.Context(), today)
			if err != nil {
				return err
			}

			lines := []string{
				TitleStyle.Render(fmt.Sprintf("Summary at %s", today)),
				"",
				fmt.Sprintf("Total income:   %s", IncomeStyle.Render(core.FormatAmount(sum.TotalIncome))),
				fmt.Sprintf("Total expenses: %s", ExpenseStyle.Render(core.FormatAmount(sum.TotalExpense))),
				fmt.Sprintf("Net balance:    %s", core.FormatAmount(sum.Net)),
				"",
				fmt.Sprintf("This month income:   %s", core.FormatAmount(sum.MonthIncome)),
				fmt.Sprintf("This month expenses: %s", core.FormatAmount(sum.MonthExpense)),
			}
			fmt.Fprintln(cmd.OutOrStdout(), BoxStyle.Render(strings.Join(lines, "\n")))
			return nil
		},
	}
}

func reportTrendCmd(s *session) *cobra.Command {
	var months int

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Income and expenses per month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if months <= 0 {
				return core.Invalid(fmt.Errorf("months must be positive, got %d", months))
			}
			totals, err := s.app.Reports.MonthlyTrend(cmd.Context(), months)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(totals) == 0 {
				printInfo(out, "No transactions yet.")
				return nil
			}
			t := newTable(out, "MONTH", "INCOME", "EXPENSE", "NET")
			for _, m := range totals {
				t.row(m.Month,
					core.FormatAmount(m.Income),
					core.FormatAmount(m.Expense),
					core.FormatAmount(m.Income.Sub(m.Expense)))
			}
			t.flush()
			return nil
		},
	}

	cmd.Flags().IntVar(&months, "months", 6, "number of months with data to show")

	return cmd
}

func reportCategoriesCmd(s *session) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Expenses by category, largest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows, err := s.app.Reports.CategoryBreakdown(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				printInfo(out, "No expenses yet.")
				return nil
			}
			t := newTable(out, "CATEGORY", "AMOUNT")
			for _, r := range rows {
				t.row(r.Name, core.FormatAmount(r.Amount))
			}
			t.flush()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show only the top N categories (0 = all)")

	return cmd
}
