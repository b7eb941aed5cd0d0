package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/netwatch/alerts"
	"github.com/example/netwatch/internal/ui"
)

func alertsCmd(opts *rootOptions) *cobra.Command {
	var (
		filter alerts.Filter
		field  string
		dir    string
	)

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List intrusion alerts with search, facet filters and sorting",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ds, err := opts.load()
			if err != nil {
				return err
			}
			direction := alerts.Direction(dir)
			if direction != alerts.Asc && direction != alerts.Desc {
				return fmt.Errorf("--dir must be %q or %q", alerts.Asc, alerts.Desc)
			}

			list, err := alerts.Sort(alerts.Apply(ds.Alerts, filter), field, direction)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ui.Banner(out, "security alerts")
			headers := []string{"ID", "Time", "Severity", "Status", "Category", "Source", "Description"}
			var rows [][]string
			for _, a := range list {
				rows = append(rows, []string{
					a.ID,
					a.Timestamp,
					ui.Level(string(a.Severity)),
					ui.Level(string(a.Status)),
					a.Category,
					a.Source,
					a.Description,
				})
			}
			ui.Table(out, headers, rows)

			fmt.Fprintln(out)
			ui.Subtle.Fprintf(out, "  Showing %d of %d alerts", len(list), len(ds.Alerts))
			if n := filter.Active(); n > 0 {
				ui.Subtle.Fprintf(out, " (%d filters)", n)
			}
			fmt.Fprintln(out)

			sum := alerts.Summarize(ds.Alerts)
			fmt.Fprintf(out, "  %s %d  %s %d  %s %d  %s %d  | open %d, closed %d\n",
				ui.Level("critical"), sum.BySeverity[alerts.SeverityCritical],
				ui.Level("high"), sum.BySeverity[alerts.SeverityHigh],
				ui.Level("medium"), sum.BySeverity[alerts.SeverityMedium],
				ui.Level("low"), sum.BySeverity[alerts.SeverityLow],
				sum.Open, sum.Closed)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Query, "q", "", "Search description, source and destination")
	cmd.Flags().StringSliceVar(&filter.Severity, "severity", nil, "Only these severities (low,medium,high,critical)")
	cmd.Flags().StringSliceVar(&filter.Status, "status", nil, "Only these statuses (new,investigating,resolved,false-positive)")
	cmd.Flags().StringSliceVar(&filter.Category, "category", nil, "Only these categories")
	cmd.Flags().StringVar(&field, "sort", alerts.FieldTimestamp, "Sort field")
	cmd.Flags().StringVar(&dir, "dir", string(alerts.Desc), "Sort direction (asc or desc)")
	return cmd
}
