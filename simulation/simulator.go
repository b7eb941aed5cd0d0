package simulation

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/netwatch/fixtures"
	"github.com/example/netwatch/internal/metrics"
	"github.com/example/netwatch/layout"
	"github.com/example/netwatch/topology"
)

// EventType enumerates the categories of frontend updates emitted by the simulator.
type EventType string

const (
	// EventFrame is published after every tick.
	EventFrame EventType = "frame"
	// EventResized signals that the viewport changed.
	EventResized EventType = "resized"
	// EventTopologyUpdated signals that the device or link set was replaced.
	EventTopologyUpdated EventType = "topology_updated"
)

// DefaultTickInterval paces Run at roughly sixty frames per second.
const DefaultTickInterval = 16 * time.Millisecond

// Event is published whenever the simulator produces state that should be pushed to the UI.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
}

// Config wires a simulator with the topology and layout parameters.
type Config struct {
	Devices      []topology.Device
	Links        []topology.Link
	Width        float64
	Height       float64
	Params       layout.Params
	Seed         int64
	TickInterval time.Duration
	Metrics      *metrics.Metrics
}

// NodeFrame is a positioned, styled device.
type NodeFrame struct {
	ID     string             `json:"id"`
	Name   string             `json:"name"`
	Kind   layout.Kind        `json:"type"`
	Status layout.Status      `json:"status"`
	X      float64            `json:"x"`
	Y      float64            `json:"y"`
	Style  topology.NodeStyle `json:"style"`
}

// LinkFrame is a drawable link between two positioned devices.
type LinkFrame struct {
	Source string             `json:"source"`
	Target string             `json:"target"`
	Status layout.Status      `json:"status"`
	From   layout.Vector2     `json:"from"`
	To     layout.Vector2     `json:"to"`
	Style  topology.LinkStyle `json:"style"`
}

// Snapshot captures the layout state exposed to the frontend.
type Snapshot struct {
	ID        string                `json:"id"`
	Tick      uint64                `json:"tick"`
	Timestamp time.Time             `json:"timestamp"`
	Width     float64               `json:"width"`
	Height    float64               `json:"height"`
	Nodes     []NodeFrame           `json:"nodes"`
	Links     []LinkFrame           `json:"links"`
	Counts    topology.StatusCounts `json:"counts"`
}

// Position looks up a node's position in the frame.
func (s Snapshot) Position(id string) (layout.Vector2, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return layout.Vector2{X: n.X, Y: n.Y}, true
		}
	}
	return layout.Vector2{}, false
}

// Simulator owns a layout engine, drives it tick by tick and broadcasts frames.
type Simulator struct {
	mu       sync.Mutex
	id       string
	params   layout.Params
	rng      *rand.Rand
	interval time.Duration
	graph    *topology.Graph
	engine   *layout.Engine
	events   chan Event
	snapshot Snapshot
	metrics  *metrics.Metrics
}

// NewSimulator constructs a simulator from the provided configuration and computes the initial frame.
func NewSimulator(cfg Config) (*Simulator, error) {
	if len(cfg.Devices) == 0 {
		return nil, errors.New("simulation requires at least one device")
	}
	params := cfg.Params
	if params == (layout.Params{}) {
		params = layout.DefaultParams()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	graph, err := topology.BuildGraph(cfg.Devices, cfg.Links)
	if err != nil {
		return nil, err
	}

	sim := &Simulator{
		params:   params,
		rng:      rand.New(rand.NewSource(seed)),
		interval: interval,
		events:   make(chan Event, 16),
		metrics:  cfg.Metrics,
	}
	if err := sim.rebuildLocked(graph, nil, cfg.Width, cfg.Height); err != nil {
		return nil, err
	}
	sim.publishEvent(EventTopologyUpdated, sim.snapshot)

	return sim, nil
}

// NewDemoSimulator builds the office network used by the dashboard.
func NewDemoSimulator() *Simulator {
	ds, err := fixtures.Load()
	if err != nil {
		// The embedded fixtures should never fail; panic to surface packaging issues.
		panic(err)
	}
	sim, err := NewSimulator(Config{Devices: ds.Devices, Links: ds.Links, Width: 800, Height: 530})
	if err != nil {
		panic(err)
	}
	return sim
}

// rebuildLocked replaces the engine with a fresh instance over graph.
func (s *Simulator) rebuildLocked(graph *topology.Graph, prior map[string]layout.Vector2, width, height float64) error {
	engine, err := layout.New(graph.SimNodes(prior), graph.SimEdges(), width, height,
		layout.WithParams(s.params), layout.WithRand(s.rng))
	if err != nil {
		return err
	}
	s.id = uuid.NewString()
	s.graph = graph
	s.engine = engine
	s.snapshot = s.frameLocked()
	return nil
}

// Events exposes a read-only channel of simulator updates for streaming to the frontend.
func (s *Simulator) Events() <-chan Event {
	return s.events
}

// Snapshot returns the latest computed frame.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Step advances the layout one tick and publishes the resulting frame.
func (s *Simulator) Step() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	s.engine.Step()
	s.metrics.ObserveStep(time.Since(start))

	s.snapshot = s.frameLocked()
	s.publishEvent(EventFrame, s.snapshot)
	return s.snapshot
}

// Run ticks at the configured interval until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Step()
		}
	}
}

// Resize moves the viewport. Node positions are kept; only the center target
// and clamp window change.
func (s *Simulator) Resize(width, height float64) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.engine.Resize(width, height); err != nil {
		return Snapshot{}, err
	}
	s.snapshot = s.frameLocked()
	s.publishEvent(EventResized, s.snapshot)
	return s.snapshot, nil
}

// Reload swaps in a new device and link set. Devices that survive keep their
// current positions; new ones are seeded.
func (s *Simulator) Reload(devices []topology.Device, links []topology.Link) (Snapshot, error) {
	if len(devices) == 0 {
		return Snapshot{}, errors.New("simulation requires at least one device")
	}
	graph, err := topology.BuildGraph(devices, links)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	width, height := s.engine.Size()
	if err := s.rebuildLocked(graph, s.engine.Positions(), width, height); err != nil {
		return Snapshot{}, err
	}
	s.publishEvent(EventTopologyUpdated, s.snapshot)
	return s.snapshot, nil
}

// Graph returns a copy of the current topology.
func (s *Simulator) Graph() *topology.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Clone()
}

func (s *Simulator) frameLocked() Snapshot {
	width, height := s.engine.Size()
	positions := s.engine.Positions()

	nodes := make([]NodeFrame, 0, s.engine.Len())
	for _, d := range s.graph.Ordered() {
		pos := positions[d.ID]
		nodes = append(nodes, NodeFrame{
			ID:     d.ID,
			Name:   d.Name,
			Kind:   d.Kind,
			Status: d.Status,
			X:      pos.X,
			Y:      pos.Y,
			Style:  topology.NodeStyleFor(d.Status, d.Kind),
		})
	}

	var links []LinkFrame
	for _, e := range s.engine.Edges() {
		if !e.Resolved {
			continue
		}
		links = append(links, LinkFrame{
			Source: e.SourceID,
			Target: e.TargetID,
			Status: e.Status,
			From:   positions[e.SourceID],
			To:     positions[e.TargetID],
			Style:  topology.LinkStyleFor(e.Status),
		})
	}

	return Snapshot{
		ID:        s.id,
		Tick:      s.engine.Ticks(),
		Timestamp: time.Now().UTC(),
		Width:     width,
		Height:    height,
		Nodes:     nodes,
		Links:     links,
		Counts:    s.graph.StatusCounts(),
	}
}

func (s *Simulator) publishEvent(eventType EventType, snapshot Snapshot) {
	select {
	case s.events <- Event{Type: eventType, Snapshot: snapshot}:
	default:
		// Drop the event when the channel is full to avoid blocking the tick loop.
		s.metrics.EventDropped()
	}
}
