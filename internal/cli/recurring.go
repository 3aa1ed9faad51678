package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"conti/internal/core"
)

func recurringCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "recurring",
		Aliases: []string{"rec"},
		Short:   "Manage recurring transaction templates",
	}

	cmd.AddCommand(recurringAddCmd(s))
	cmd.AddCommand(recurringListCmd(s))
	cmd.AddCommand(recurringUpcomingCmd(s))
	cmd.AddCommand(recurringUpdateCmd(s))
	cmd.AddCommand(recurringDeleteCmd(s))
	cmd.AddCommand(recurringProcessCmd(s))

	return cmd
}

func recurringAddCmd(s *session) *cobra.Command {
	var amount, kind, category, notes, frequency, next string

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a recurring template",
		Example: `  conti recurring add Rent --type expense --amount 900 --frequency monthly --next 2024-02-01`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			t, err := buildTransaction(app.Today(), next, amount, kind)
			if err != nil {
				return err
			}
			f, err := core.ParseFrequency(frequency)
			if err != nil {
				return core.Invalid(err)
			}

			id, err := app.Recurring.CreateTemplate(cmd.Context(), core.RecurringTemplate{
				Name:           args[0],
				Amount:         t.Amount,
				Kind:           t.Kind,
				Category:       category,
				Notes:          notes,
				Frequency:      f,
				NextOccurrence: t.Date,
			})
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Created recurring template %d (%s, next %s)", id, f, t.Date)
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "amount (required)")
	cmd.Flags().StringVar(&kind, "type", "", "income or expense (required)")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&notes, "notes", "", "notes copied to every occurrence")
	cmd.Flags().StringVar(&frequency, "frequency", string(core.Monthly), "daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&next, "next", "", "first occurrence YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func recurringListCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			templates, err := s.app.Recurring.ListActive(cmd.Context())
			if err != nil {
				return err
			}
			printTemplates(cmd, templates)
			return nil
		},
	}
}

func recurringUpcomingCmd(s *session) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List templates due soon, earliest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := s.app
			horizon := days
			if !cmd.Flags().Changed("days") && app.Config != nil && app.Config.UpcomingHorizonDays > 0 {
				horizon = app.Config.UpcomingHorizonDays
			}
			if horizon <= 0 {
				return core.Invalid(fmt.Errorf("days must be positive, got %d", horizon))
			}
			templates, err := app.Recurring.Upcoming(cmd.Context(), app.Today(), horizon)
			if err != nil {
				return err
			}
			printTemplates(cmd, templates)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "horizon in days")

	return cmd
}

func recurringUpdateCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "update <id> <field=value>...",
		Short: "Change fields of a template",
		Long: `Change fields of a recurring template.

Fields: name, amount, type, category, notes, frequency, next_date, is_active.
Unknown fields are ignored.`,
		Example: `  conti recurring update 3 amount=950 next_date=2024-05-01`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			fields, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			if _, err := s.app.Recurring.UpdateTemplate(cmd.Context(), id, fields); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Updated recurring template %d", id)
			return nil
		},
	}
}

func parseAssignments(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, core.Invalid(fmt.Errorf("expected field=value, got %q", a))
		}
		fields[strings.TrimSpace(key)] = value
	}
	return fields, nil
}

func recurringDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Deactivate a template; it never fires again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := s.app.Recurring.Deactivate(cmd.Context(), id); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Deactivated recurring template %d", id)
			return nil
		},
	}
}

func recurringProcessCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Fire every due template once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := s.app
			n, err := app.Recurring.ProcessDue(cmd.Context(), app.Today())
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Processed %d recurring transactions", n)
			return nil
		},
	}
}

func printTemplates(cmd *cobra.Command, templates []core.RecurringTemplate) {
	out := cmd.OutOrStdout()
	if len(templates) == 0 {
		printInfo(out, "No recurring templates.")
		return
	}
	t := newTable(out, "ID", "NAME", "TYPE", "CATEGORY", "AMOUNT", "FREQUENCY", "NEXT")
	for _, rt := range templates {
		t.row(
			strconv.FormatInt(rt.ID, 10),
			rt.Name,
			string(rt.Kind),
			orDash(rt.Category),
			core.FormatAmount(rt.Amount),
			string(rt.Frequency),
			rt.NextOccurrence.String(),
		)
	}
	t.flush()
}
