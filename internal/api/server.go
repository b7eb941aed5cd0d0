package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/netwatch/alerts"
	"github.com/example/netwatch/fixtures"
	"github.com/example/netwatch/internal/metrics"
	"github.com/example/netwatch/layout"
	"github.com/example/netwatch/simulation"
	"github.com/example/netwatch/threatmap"
	"github.com/example/netwatch/topology"
)

// Default canvas used to project threat markers when the client does not send one.
const (
	defaultMapWidth  = 1000
	defaultMapHeight = 500
)

// Options wires the server's collaborators.
type Options struct {
	Addr      string
	Simulator *simulation.Simulator
	Dataset   *fixtures.Dataset
	Grid      threatmap.GridConfig
	Metrics   *metrics.Metrics
}

// Server exposes the simulator and dashboard data over HTTP.
type Server struct {
	addr    string
	sim     *simulation.Simulator
	data    *fixtures.Dataset
	grid    threatmap.GridConfig
	metrics *metrics.Metrics
	hub     *StreamHub
}

type healthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

type snapshotResponse struct {
	Message  string              `json:"message"`
	Snapshot simulation.Snapshot `json:"snapshot"`
}

type resizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type alertsResponse struct {
	Alerts  []alerts.Alert `json:"alerts"`
	Summary alerts.Summary `json:"summary"`
	Matched int            `json:"matched"`
	Total   int            `json:"total"`
	Showing string         `json:"showing"`
	Filters int            `json:"activeFilters"`
}

type threatsResponse struct {
	Summary   threatmap.Summary       `json:"summary"`
	Heatmap   []threatmap.HeatmapCell `json:"heatmap"`
	Markers   []threatmap.Marker      `json:"markers"`
	Locations []threatmap.Location    `json:"locations"`
}

type trafficResponse struct {
	Samples   []fixtures.TrafficSample `json:"samples"`
	Normal    int                      `json:"normal"`
	Anomalies int                      `json:"anomalies"`
}

type topologyRequest struct {
	Devices []topology.Device `json:"devices"`
	Links   []topology.Link   `json:"links"`
}

type topologyResponse struct {
	Devices  []topology.Device `json:"devices"`
	Links    []topology.Link   `json:"links"`
	Dangling []topology.Link   `json:"dangling"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewServer builds a server. A nil simulator or dataset falls back to the
// built-in demo office network.
func NewServer(opts Options) (*Server, error) {
	if opts.Grid == (threatmap.GridConfig{}) {
		opts.Grid = threatmap.GridConfig{LatStep: 30, LonStep: 30}
	}
	if err := opts.Grid.Validate(); err != nil {
		return nil, err
	}
	if opts.Dataset == nil {
		ds, err := fixtures.Load()
		if err != nil {
			return nil, err
		}
		opts.Dataset = ds
	}
	if opts.Simulator == nil {
		sim, err := simulation.NewSimulator(simulation.Config{
			Devices: opts.Dataset.Devices,
			Links:   opts.Dataset.Links,
			Width:   800,
			Height:  530,
			Metrics: opts.Metrics,
		})
		if err != nil {
			return nil, err
		}
		opts.Simulator = sim
	}
	return &Server{
		addr:    opts.Addr,
		sim:     opts.Simulator,
		data:    opts.Dataset,
		grid:    opts.Grid,
		metrics: opts.Metrics,
		hub:     NewStreamHub(opts.Metrics),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /topology", s.topologyHandler)
	mux.HandleFunc("POST /topology", s.reloadHandler)
	mux.HandleFunc("GET /topology/snapshot", s.snapshotHandler)
	mux.HandleFunc("POST /topology/resize", s.resizeHandler)
	mux.HandleFunc("GET /topology/stream", s.streamHandler)
	mux.HandleFunc("GET /alerts", s.alertsHandler)
	mux.HandleFunc("GET /threats", s.threatsHandler)
	mux.HandleFunc("GET /traffic", s.trafficHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Hub exposes the stream hub.
func (s *Server) Hub() *StreamHub {
	return s.hub
}

// PumpEvents forwards simulator events to stream subscribers until ctx ends.
func (s *Server) PumpEvents(ctx context.Context) {
	events := s.sim.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-events:
			s.hub.Broadcast(evt)
		}
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go s.PumpEvents(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("API server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.CloseAll()
		log.Printf("API server shutting down addr=%s", s.addr)
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.sim.Snapshot()
	writeJSON(w, http.StatusOK, snapshotResponse{Message: "current topology layout", Snapshot: snap})
}

func (s *Server) topologyHandler(w http.ResponseWriter, r *http.Request) {
	g := s.sim.Graph()
	writeJSON(w, http.StatusOK, topologyResponse{Devices: g.Ordered(), Links: g.Links(), Dangling: g.Dangling()})
}

func (s *Server) reloadHandler(w http.ResponseWriter, r *http.Request) {
	var req topologyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode topology: %w", err))
		return
	}
	ds := fixtures.Dataset{Devices: req.Devices, Links: req.Links}
	if err := ds.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snap, err := s.sim.Reload(ds.Devices, ds.Links)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log.Printf("topology reloaded devices=%d links=%d", len(ds.Devices), len(ds.Links))
	writeJSON(w, http.StatusOK, snapshotResponse{Message: "topology reloaded", Snapshot: snap})
}

func (s *Server) resizeHandler(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode resize request: %w", err))
		return
	}
	snap, err := s.sim.Resize(req.Width, req.Height)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, layout.ErrInvalidViewport) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	log.Printf("viewport resized width=%v height=%v", req.Width, req.Height)
	writeJSON(w, http.StatusOK, snapshotResponse{Message: "viewport resized", Snapshot: snap})
}

func (s *Server) streamHandler(w http.ResponseWriter, r *http.Request) {
	initial := simulation.Event{Type: simulation.EventFrame, Snapshot: s.sim.Snapshot()}
	s.hub.Subscribe(w, r, initial)
}

func (s *Server) alertsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := alerts.Filter{
		Query:    q.Get("q"),
		Severity: listParam(q["severity"]),
		Status:   listParam(q["status"]),
		Category: listParam(q["category"]),
	}
	dir := alerts.Desc
	switch strings.ToLower(q.Get("dir")) {
	case "", string(alerts.Desc):
	case string(alerts.Asc):
		dir = alerts.Asc
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported sort direction %q", q.Get("dir")))
		return
	}

	matched := alerts.Apply(s.data.Alerts, filter)
	sorted, err := alerts.Sort(matched, q.Get("sort"), dir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	writeJSON(w, http.StatusOK, alertsResponse{
		Alerts:  sorted,
		Summary: alerts.Summarize(s.data.Alerts),
		Matched: len(sorted),
		Total:   len(s.data.Alerts),
		Showing: fmt.Sprintf("Showing %d of %d alerts", len(sorted), len(s.data.Alerts)),
		Filters: filter.Active(),
	})
}

func (s *Server) threatsHandler(w http.ResponseWriter, r *http.Request) {
	width, err := floatParam(r, "width", defaultMapWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := floatParam(r, "height", defaultMapHeight)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	grid, err := threatmap.NewGrid(s.grid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	grid.ApplyLocations(s.data.Threats)

	writeJSON(w, http.StatusOK, threatsResponse{
		Summary:   grid.Summarize(),
		Heatmap:   grid.HeatmapData(),
		Markers:   threatmap.Markers(s.data.Threats, width, height),
		Locations: s.data.Threats,
	})
}

func (s *Server) trafficHandler(w http.ResponseWriter, r *http.Request) {
	resp := trafficResponse{Samples: s.data.Traffic}
	for _, sample := range s.data.Traffic {
		resp.Normal += sample.Normal
		resp.Anomalies += sample.Anomalies
	}
	writeJSON(w, http.StatusOK, resp)
}

// listParam accepts both repeated and comma-separated query values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func floatParam(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
