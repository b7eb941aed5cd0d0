package topology

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/netwatch/layout"
)

// Device describes a monitored node shown on the topology view.
type Device struct {
	ID       string          `json:"id" toml:"id"`
	Name     string          `json:"name" toml:"name"`
	Kind     layout.Kind     `json:"type" toml:"type"`
	Status   layout.Status   `json:"status" toml:"status"`
	Position *layout.Vector2 `json:"position,omitempty" toml:"-"`
}

// Link is an undirected connection between two devices.
type Link struct {
	Source string        `json:"source" toml:"source"`
	Target string        `json:"target" toml:"target"`
	Status layout.Status `json:"status" toml:"status"`
}

// Graph stores devices, links and the undirected adjacency built from links
// whose endpoints both exist.
type Graph struct {
	Devices map[string]Device
	Adj     map[string][]string
	order   []string
	links   []Link
}

var (
	ErrEmptyDeviceID     = errors.New("device ID cannot be empty")
	ErrDuplicateDeviceID = errors.New("duplicate device ID")
)

// BuildGraph constructs the topology. Links that reference unknown devices are
// kept so callers can surface them, but never enter the adjacency.
func BuildGraph(devices []Device, links []Link) (*Graph, error) {
	g := &Graph{
		Devices: make(map[string]Device, len(devices)),
		Adj:     make(map[string][]string, len(devices)),
		order:   make([]string, 0, len(devices)),
		links:   make([]Link, len(links)),
	}
	for _, d := range devices {
		if d.ID == "" {
			return nil, ErrEmptyDeviceID
		}
		if _, exists := g.Devices[d.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDeviceID, d.ID)
		}
		if d.Position != nil {
			pos := *d.Position
			d.Position = &pos
		}
		g.Devices[d.ID] = d
		g.order = append(g.order, d.ID)
	}
	copy(g.links, links)

	for _, l := range g.links {
		if !g.resolves(l) {
			continue
		}
		g.Adj[l.Source] = append(g.Adj[l.Source], l.Target)
		if l.Source != l.Target {
			g.Adj[l.Target] = append(g.Adj[l.Target], l.Source)
		}
	}

	return g, nil
}

func (g *Graph) resolves(l Link) bool {
	_, okSrc := g.Devices[l.Source]
	_, okDst := g.Devices[l.Target]
	return okSrc && okDst
}

// Ordered returns devices in insertion order.
func (g *Graph) Ordered() []Device {
	out := make([]Device, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.Devices[id])
	}
	return out
}

// Links returns every link, including dangling ones.
func (g *Graph) Links() []Link {
	out := make([]Link, len(g.links))
	copy(out, g.links)
	return out
}

// Dangling returns links with at least one unknown endpoint.
func (g *Graph) Dangling() []Link {
	var out []Link
	for _, l := range g.links {
		if !g.resolves(l) {
			out = append(out, l)
		}
	}
	return out
}

// Neighbors returns the sorted, de-duplicated neighbors of a device.
func (g *Graph) Neighbors(id string) []string {
	seen := make(map[string]struct{}, len(g.Adj[id]))
	out := make([]string, 0, len(g.Adj[id]))
	for _, n := range g.Adj[id] {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Degree counts distinct neighbors.
func (g *Graph) Degree(id string) int {
	return len(g.Neighbors(id))
}

// Clone creates a deep copy of the graph for callers that mutate state.
func (g *Graph) Clone() *Graph {
	copyGraph := &Graph{
		Devices: make(map[string]Device, len(g.Devices)),
		Adj:     make(map[string][]string, len(g.Adj)),
		order:   append([]string(nil), g.order...),
		links:   append([]Link(nil), g.links...),
	}
	for id, d := range g.Devices {
		if d.Position != nil {
			pos := *d.Position
			d.Position = &pos
		}
		copyGraph.Devices[id] = d
	}
	for id, adj := range g.Adj {
		copyGraph.Adj[id] = append([]string(nil), adj...)
	}
	return copyGraph
}

// RemoveDevice deletes a device together with every link touching it.
func (g *Graph) RemoveDevice(id string) {
	if _, ok := g.Devices[id]; !ok {
		return
	}
	delete(g.Devices, id)
	delete(g.Adj, id)

	order := g.order[:0]
	for _, o := range g.order {
		if o != id {
			order = append(order, o)
		}
	}
	g.order = order

	links := g.links[:0]
	for _, l := range g.links {
		if l.Source != id && l.Target != id {
			links = append(links, l)
		}
	}
	g.links = links

	for from, adj := range g.Adj {
		filtered := adj[:0]
		for _, to := range adj {
			if to != id {
				filtered = append(filtered, to)
			}
		}
		if len(filtered) == 0 {
			delete(g.Adj, from)
			continue
		}
		g.Adj[from] = filtered
	}
}

// StatusCounts tallies devices per status for the dashboard status cards.
type StatusCounts struct {
	Normal   int `json:"normal"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
}

// Total is the number of devices counted.
func (c StatusCounts) Total() int {
	return c.Normal + c.Warning + c.Critical
}

// StatusCounts summarizes device health.
func (g *Graph) StatusCounts() StatusCounts {
	var c StatusCounts
	for _, d := range g.Devices {
		switch d.Status {
		case layout.StatusWarning:
			c.Warning++
		case layout.StatusCritical:
			c.Critical++
		default:
			c.Normal++
		}
	}
	return c
}

// SimNodes converts devices into layout inputs. Positions found in prior take
// precedence over the device's own position so a rebuilt layout keeps its
// shape; everything else is left for the engine to seed.
func (g *Graph) SimNodes(prior map[string]layout.Vector2) []layout.SimNode {
	out := make([]layout.SimNode, 0, len(g.order))
	for _, id := range g.order {
		d := g.Devices[id]
		n := layout.SimNode{ID: d.ID, Kind: d.Kind, Status: d.Status}
		if pos, ok := prior[id]; ok {
			n.Position = &pos
		} else if d.Position != nil {
			pos := *d.Position
			n.Position = &pos
		}
		out = append(out, n)
	}
	return out
}

// SimEdges converts every link, dangling ones included, into layout edges.
func (g *Graph) SimEdges() []layout.SimEdge {
	out := make([]layout.SimEdge, 0, len(g.links))
	for _, l := range g.links {
		out = append(out, layout.SimEdge{SourceID: l.Source, TargetID: l.Target, Status: l.Status})
	}
	return out
}
