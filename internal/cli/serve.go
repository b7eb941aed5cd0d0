package cli

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/netwatch/internal/api"
	"github.com/example/netwatch/internal/metrics"
	"github.com/example/netwatch/simulation"
)

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout simulation and the dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ds, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			m := metrics.New()
			sim, err := simulation.NewSimulator(simulation.Config{
				Devices:      ds.Devices,
				Links:        ds.Links,
				Width:        cfg.Canvas.Width,
				Height:       cfg.Canvas.Height,
				Params:       cfg.Layout,
				Seed:         cfg.Simulation.Seed,
				TickInterval: cfg.Simulation.Tick.Duration,
				Metrics:      m,
			})
			if err != nil {
				return err
			}
			srv, err := api.NewServer(api.Options{
				Addr:      cfg.Server.Addr,
				Simulator: sim,
				Dataset:   ds,
				Grid:      cfg.Threats,
				Metrics:   m,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Printf("simulation started devices=%d links=%d tick=%s", len(ds.Devices), len(ds.Links), cfg.Simulation.Tick.Duration)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return sim.Run(ctx) })
			g.Go(func() error { return srv.Start(ctx) })
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
