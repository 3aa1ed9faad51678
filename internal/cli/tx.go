package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"conti/internal/core"
	"conti/internal/ledger"
)

func txCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record and browse transactions",
	}

	cmd.AddCommand(txAddCmd(s))
	cmd.AddCommand(txListCmd(s))
	cmd.AddCommand(txRecentCmd(s))
	cmd.AddCommand(txEditCmd(s))
	cmd.AddCommand(txDeleteCmd(s))
	cmd.AddCommand(txCategoriesCmd(s))

	return cmd
}

func txAddCmd(s *session) *cobra.Command {
	var amount, kind, category, notes, date string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Example: `  conti tx add --type expense --amount 12,50 --category Food
  conti tx add --type income --amount 2500 --date 2024-03-01 --notes salary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := s.app
			t, err := buildTransaction(app.Today(), date, amount, kind)
			if err != nil {
				return err
			}
			t.Category = category
			t.Notes = notes

			id, err := app.Ledger.Create(cmd.Context(), t)
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Added transaction %d", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount, dot or comma decimals (required)")
	cmd.Flags().StringVar(&kind, "type", "", "income or expense (required)")
	cmd.Flags().StringVar(&category, "category", "", "category (default Other)")
	cmd.Flags().StringVar(&notes, "notes", "", "free text notes")
	cmd.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func buildTransaction(today core.Date, date, amount, kind string) (core.Transaction, error) {
	d, err := parseDateOr(date, today)
	if err != nil {
		return core.Transaction{}, err
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, core.Invalid(err)
	}
	k, err := core.ParseKind(kind)
	if err != nil {
		return core.Transaction{}, core.Invalid(err)
	}
	return core.Transaction{Date: d, Amount: a, Kind: k}, nil
}

func txListCmd(s *session) *cobra.Command {
	var (
		kind, category, from, to string
		limit                    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := ledger.Filter{Category: category, Limit: limit}
			if kind != "" {
				k, err := core.ParseKind(kind)
				if err != nil {
					return core.Invalid(err)
				}
				f.Kind = k
			}
			var err error
			if f.DateFrom, err = parseDateOr(from, core.Date{}); err != nil {
				return err
			}
			if f.DateTo, err = parseDateOr(to, core.Date{}); err != nil {
				return err
			}

			txs, err := s.app.Ledger.List(cmd.Context(), f)
			if err != nil {
				return err
			}
			printTransactions(cmd, txs)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "type", "", "only income or expense")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&from, "from", "", "first date, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "last date, inclusive")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows (0 = all)")

	return cmd
}

func txRecentCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "recent [n]",
		Short: "Show the newest transactions (default 10)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 10
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v <= 0 {
					return core.Invalid(errInvalidCount(args[0]))
				}
				n = v
			}
			txs, err := s.app.Ledger.Recent(cmd.Context(), n)
			if err != nil {
				return err
			}
			printTransactions(cmd, txs)
			return nil
		},
	}
}

func txEditCmd(s *session) *cobra.Command {
	var amount, kind, category, notes, date string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			t, err := s.app.Ledger.Get(ctx, id)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("date") {
				if t.Date, err = parseDateOr(date, t.Date); err != nil {
					return err
				}
			}
			if flags.Changed("amount") {
				if t.Amount, err = core.ParseAmount(amount); err != nil {
					return core.Invalid(err)
				}
			}
			if flags.Changed("type") {
				if t.Kind, err = core.ParseKind(kind); err != nil {
					return core.Invalid(err)
				}
			}
			if flags.Changed("category") {
				t.Category = category
			}
			if flags.Changed("notes") {
				t.Notes = notes
			}

			if err := s.app.Ledger.Update(ctx, t); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Updated transaction %d", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&kind, "type", "", "new type")
	cmd.Flags().StringVar(&category, "category", "", "new category")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	cmd.Flags().StringVar(&date, "date", "", "new date YYYY-MM-DD")

	return cmd
}

func txDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := s.app.Ledger.Delete(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deleted transaction %d", id)
			return nil
		},
	}
}

func txCategoriesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := s.app.Ledger.Categories(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(cats) == 0 {
				printInfo(out, "No categories yet.")
				return nil
			}
			for _, c := range cats {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}
}

func printTransactions(cmd *cobra.Command, txs []core.Transaction) {
	out := cmd.OutOrStdout()
	if len(txs) == 0 {
		printInfo(out, "No transactions found.")
		return
	}
	t := newTable(out, "ID", "DATE", "TYPE", "CATEGORY", "AMOUNT", "NOTES")
	for _, tx := range txs {
		t.row(
			strconv.FormatInt(tx.ID, 10),
			tx.Date.String(),
			string(tx.Kind),
			orDash(tx.Category),
			core.FormatAmount(tx.Amount),
			tx.Notes,
		)
	}
	t.flush()
}
