package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/spf13/cobra"
)

func newAddCommand(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.tasks.Add(cmd.Context(), strings.Join(args, " "), date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", formatTask(task))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "task date YYYY-MM-DD (default today)")
	return cmd
}

func newListCommand(a *app) *cobra.Command {
	var (
		year   int
		search string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks of a year, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if year == 0 {
				year = a.now().Year()
			}
			tasks := a.tasks.List(year, search)
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintf(out, "no tasks in %d\n", year)
				return nil
			}
			for _, t := range tasks {
				fmt.Fprintln(out, formatTask(t))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to show (default current)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only tasks containing this text")
	return cmd
}

func newCalendarCommand(a *app) *cobra.Command {
	var selected string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show the dates that have tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if selected == "" {
				selected = a.today()
			}
			writeCalendar(cmd.OutOrStdout(), a.tasks.MarkedDates(selected))
			return nil
		},
	}
	cmd.Flags().StringVar(&selected, "date", "", "selected date YYYY-MM-DD (default today)")
	return cmd
}

func newEditCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Change a task's text",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.tasks.Edit(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "edited %s\n", formatTask(task))
			return nil
		},
	}
}

func newToggleCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done or not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := a.tasks.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTask(task))
			return nil
		},
	}
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.tasks.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func formatTask(t models.Task) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	return fmt.Sprintf("%s %s  %s  (%s)", box, t.Date, t.Text, t.ID)
}

func writeCalendar(w io.Writer, marks map[string]models.CalendarMark) {
	dates := make([]string, 0, len(marks))
	for d := range marks {
		dates = append(dates, d)
	}
	slices.Sort(dates)

	for _, d := range dates {
		m := marks[d]
		sel, dot := " ", " "
		if m.Selected {
			sel = ">"
		}
		if m.Marked {
			dot = "•"
		}
		fmt.Fprintf(w, "%s %s %s\n", sel, d, dot)
	}
}
