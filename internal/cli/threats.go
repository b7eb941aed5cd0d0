package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/example/netwatch/internal/ui"
	"github.com/example/netwatch/threatmap"
)

func threatsCmd(opts *rootOptions) *cobra.Command {
	var latStep, lonStep float64

	cmd := &cobra.Command{
		Use:   "threats",
		Short: "Summarize attack origins on the global threat grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ds, err := opts.load()
			if err != nil {
				return err
			}
			gridCfg := cfg.Threats
			if cmd.Flags().Changed("lat-step") {
				gridCfg.LatStep = latStep
			}
			if cmd.Flags().Changed("lon-step") {
				gridCfg.LonStep = lonStep
			}

			grid, err := threatmap.NewGrid(gridCfg)
			if err != nil {
				return err
			}
			grid.ApplyLocations(ds.Threats)
			sum := grid.Summarize()

			out := cmd.OutOrStdout()
			ui.Banner(out, "global threat map")
			fmt.Fprintf(out, "  %d events from %d locations, %d of %d cells hot (%.1f%%)\n",
				sum.TotalEvents, len(ds.Threats), sum.HotCells, sum.TotalCells, sum.HotPercent)
			if h := sum.Hottest; h != nil {
				fmt.Fprintf(out, "  hottest cell %.1f,%.1f with %d events (%s)\n", h.Lat, h.Lon, h.Events, ui.Level(string(h.Level)))
			}
			fmt.Fprintln(out)

			locs := append([]threatmap.Location(nil), ds.Threats...)
			sort.SliceStable(locs, func(i, j int) bool { return locs[i].Count > locs[j].Count })
			headers := []string{"City", "Country", "Level", "Events", "Lat", "Lon"}
			var rows [][]string
			for _, loc := range locs {
				rows = append(rows, []string{
					loc.City,
					loc.Country,
					ui.Level(string(loc.Level)),
					fmt.Sprintf("%d", loc.Count),
					fmt.Sprintf("%.2f", loc.Lat),
					fmt.Sprintf("%.2f", loc.Lon),
				})
			}
			ui.Table(out, headers, rows)
			return nil
		},
	}

	cmd.Flags().Float64Var(&latStep, "lat-step", 0, "Latitude band size in degrees (default threats.lat_step)")
	cmd.Flags().Float64Var(&lonStep, "lon-step", 0, "Longitude band size in degrees (default threats.lon_step)")
	return cmd
}
