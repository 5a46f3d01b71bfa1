package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"expenses/internal/cli"
	"expenses/internal/core"
	"expenses/internal/query"
	"expenses/internal/session"
)

func addCmd() *cobra.Command {
	var in core.Input

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new expense",
		Example: `  expenses add --title Rent --amount 1200 --category bills
  expenses add --title Lunch --amount 12.50 --category food --date 2024-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if in.Date == "" {
				in.Date = time.Now().Format(core.DateLayout)
			}
			rec, _, err := session.New(a.rt.Expenses, a.logger).Submit(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added #%d %s", rec.ID, session.Describe(rec))))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "what the money was spent on")
	f.StringVar(&in.Amount, "amount", "", "amount, e.g. 12.50")
	f.StringVar(&in.Category, "category", "", "category key: food, transport, shopping, bills, entertainment, health, education, other")
	f.StringVar(&in.Date, "date", "", "date as YYYY-MM-DD (default today)")
	return cmd
}

func editCmd() *cobra.Command {
	var in core.Input

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an existing expense",
		Long:  "Replace the fields of an expense. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := session.New(a.rt.Expenses, a.logger)
			current, err := sess.BeginEdit(id)
			if err != nil {
				return err
			}
			rec, _, err := sess.Submit(cmd.Context(), mergeInput(current.Input(), in))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated #%d %s", rec.ID, session.Describe(rec))))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "new title")
	f.StringVar(&in.Amount, "amount", "", "new amount")
	f.StringVar(&in.Category, "category", "", "new category key")
	f.StringVar(&in.Date, "date", "", "new date as YYYY-MM-DD")
	return cmd
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			sess := session.New(a.rt.Expenses, a.logger)
			conf, err := sess.StageDelete(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				ok, err := cli.Confirm(cmd.InOrStdin(), out, cli.RenderConfirmation(conf.Description))
				if err != nil {
					return err
				}
				if !ok {
					sess.CancelDelete()
					fmt.Fprintln(out, cli.FormatInfo("Nothing deleted."))
					return nil
				}
			}

			if _, err := sess.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, cli.FormatSuccess("Deleted "+conf.Description))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func listCmd() *cobra.Command {
	var p query.Params

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses with optional filters",
		Example: `  expenses list --category food --sort highest
  expenses list -q coffee --start 2024-03-01 --end 2024-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := p.Parse()
			if err != nil {
				return err
			}
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res := query.Run(a.rt.Expenses.All(), spec)
			return cli.RenderList(cmd.OutOrStdout(), res, time.Now())
		},
	}

	f := cmd.Flags()
	f.StringVar(&p.Category, "category", "all", "category key or all")
	f.StringVarP(&p.Search, "search", "q", "", "case-insensitive search over title or category name")
	f.StringVar(&p.Start, "start", "", "earliest date, inclusive (YYYY-MM-DD)")
	f.StringVar(&p.End, "end", "", "latest date, inclusive (YYYY-MM-DD)")
	f.StringVar(&p.Sort, "sort", "newest", "newest, oldest, highest, lowest or name")
	return cmd
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid expense id %q", s)
	}
	return id, nil
}

// mergeInput overlays the non-empty fields of patch on base.
func mergeInput(base, patch core.Input) core.Input {
	if patch.Title != "" {
		base.Title = patch.Title
	}
	if patch.Amount != "" {
		base.Amount = patch.Amount
	}
	if patch.Category != "" {
		base.Category = patch.Category
	}
	if patch.Date != "" {
		base.Date = patch.Date
	}
	return base
}
