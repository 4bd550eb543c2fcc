package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"task-planner/internal/calendar"
	"task-planner/internal/recurrence"
	"task-planner/internal/service"
	"task-planner/internal/timeparse"
)

func newPatternCmd() *cobra.Command {
	var (
		from  string
		count int
		tz    string
	)
	cmd := &cobra.Command{
		Use:   "pattern <keyword|json>",
		Short: "Check a recurrence pattern and list its next dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern, err := service.ValidatePatternInput(args[0])
			if err != nil {
				return err
			}
			loc, err := timeparse.LoadLocation(tz)
			if err != nil {
				return err
			}
			now := time.Now().In(loc)
			start := now
			if from != "" {
				start, err = timeparse.ParseDate(from, now, loc)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}

			encoded, err := json.Marshal(pattern)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pattern: %s\n", encoded)
			fmt.Fprintf(out, "summary: %s\n", recurrence.Summarize(pattern))
			if rule, ok := calendar.ToRRule(pattern, loc); ok {
				fmt.Fprintf(out, "rrule:   %s\n", rule)
			} else {
				fmt.Fprintln(out, "rrule:   (none)")
			}

			dates := recurrence.Occurrences(pattern, start, count)
			if len(dates) == 0 {
				fmt.Fprintln(out, "(no further dates)")
				return nil
			}
			for _, d := range dates {
				fmt.Fprintf(out, "  %s\n", d.Format("Mon 2006-01-02"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Anchor date (defaults to today)")
	cmd.Flags().IntVarP(&count, "count", "n", 5, "How many dates to list")
	cmd.Flags().StringVar(&tz, "tz", "", "Time zone (defaults to local)")
	return cmd
}
