package layout

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// body is the arena entry for one node. Edges refer to bodies by index.
type body struct {
	id       string
	kind     Kind
	status   Status
	position Vector2
	velocity Vector2
}

// spring is a resolved edge; a and b are arena indices, -1 when unknown.
type spring struct {
	edge SimEdge
	a, b int
}

func (s spring) resolved() bool {
	return s.a >= 0 && s.b >= 0
}

// Engine advances the layout. It is not safe for concurrent use; a single host
// loop is expected to own it.
type Engine struct {
	params  Params
	width   float64
	height  float64
	bodies  []body
	index   map[string]int
	springs []spring
	delta   []Vector2
	ticks   uint64
}

// Option customizes an Engine at construction.
type Option func(*options)

type options struct {
	params Params
	rng    *rand.Rand
}

// WithParams overrides the default force constants.
func WithParams(p Params) Option {
	return func(o *options) { o.params = p }
}

// WithRand sets the random source used to seed missing positions.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

// New builds an engine from a snapshot of nodes and edges. Nodes without a
// finite position are placed uniformly at random inside the viewport with zero
// velocity; a non-finite velocity is dropped to zero. Edges whose endpoints
// are unknown are kept but ignored.
func New(nodes []SimNode, edges []SimEdge, width, height float64, opts ...Option) (*Engine, error) {
	o := options{params: DefaultParams()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.params.Validate(); err != nil {
		return nil, err
	}
	if err := validateViewport(width, height); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNoNodes
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	e := &Engine{
		params: o.params,
		width:  width,
		height: height,
		bodies: make([]body, 0, len(nodes)),
		index:  make(map[string]int, len(nodes)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, ErrEmptyNodeID
		}
		if _, exists := e.index[n.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		b := body{id: n.ID, kind: n.Kind, status: n.Status}
		if n.Position != nil && finite(n.Position.X, n.Position.Y) {
			b.position = *n.Position
			if finite(n.Velocity.X, n.Velocity.Y) {
				b.velocity = n.Velocity
			}
		} else {
			b.position = Vector2{X: o.rng.Float64() * width, Y: o.rng.Float64() * height}
		}
		e.index[n.ID] = len(e.bodies)
		e.bodies = append(e.bodies, b)
	}

	e.springs = make([]spring, 0, len(edges))
	for _, edge := range edges {
		e.springs = append(e.springs, spring{edge: edge, a: e.lookup(edge.SourceID), b: e.lookup(edge.TargetID)})
	}
	e.delta = make([]Vector2, len(e.bodies))

	return e, nil
}

func (e *Engine) lookup(id string) int {
	if i, ok := e.index[id]; ok {
		return i
	}
	return -1
}

// Step advances the simulation by one tick. All forces are derived from the
// positions at the start of the tick before any position moves.
func (e *Engine) Step() {
	p := e.params
	center := e.Center()
	for i := range e.delta {
		e.delta[i] = Vector2{}
	}

	for i := range e.bodies {
		e.delta[i] = add(e.delta[i], scale(sub(center, e.bodies[i].position), p.CenterAttraction))
	}

	for i := 0; i < len(e.bodies); i++ {
		for j := i + 1; j < len(e.bodies); j++ {
			offset := sub(e.bodies[i].position, e.bodies[j].position)
			length := norm(offset)
			// Coincident nodes have no direction to push along.
			if length == 0 {
				continue
			}
			dist := math.Max(length, 1)
			if dist >= p.RepulsionRadius {
				continue
			}
			push := scale(offset, p.RepulsionStrength/(dist*dist)/length)
			e.delta[i] = add(e.delta[i], push)
			e.delta[j] = sub(e.delta[j], push)
		}
	}

	for _, s := range e.springs {
		if !s.resolved() {
			continue
		}
		offset := sub(e.bodies[s.a].position, e.bodies[s.b].position)
		dist := norm(offset)
		if dist == 0 {
			dist = 1
		}
		force := (dist - p.LinkDistance) * p.SpringConstant
		pull := scale(offset, force/dist)
		e.delta[s.a] = sub(e.delta[s.a], pull)
		e.delta[s.b] = add(e.delta[s.b], pull)
	}

	for i := range e.bodies {
		b := &e.bodies[i]
		b.velocity = scale(add(b.velocity, e.delta[i]), p.Damping)
		b.position = add(b.position, b.velocity)
		b.position.X = clamp(b.position.X, p.Padding, e.width-p.Padding)
		b.position.Y = clamp(b.position.Y, p.Padding, e.height-p.Padding)
	}
	e.ticks++
}

// Positions returns the current position of every node keyed by id.
func (e *Engine) Positions() map[string]Vector2 {
	out := make(map[string]Vector2, len(e.bodies))
	for _, b := range e.bodies {
		out[b.id] = b.position
	}
	return out
}

// Position returns the current position of a single node.
func (e *Engine) Position(id string) (Vector2, bool) {
	i, ok := e.index[id]
	if !ok {
		return Vector2{}, false
	}
	return e.bodies[i].position, true
}

// Nodes returns the node states in construction order.
func (e *Engine) Nodes() []NodeState {
	out := make([]NodeState, len(e.bodies))
	for i, b := range e.bodies {
		out[i] = NodeState{ID: b.id, Kind: b.kind, Status: b.status, Position: b.position, Velocity: b.velocity}
	}
	return out
}

// Edges returns every edge given at construction, resolved or not.
func (e *Engine) Edges() []EdgeState {
	out := make([]EdgeState, len(e.springs))
	for i, s := range e.springs {
		out[i] = EdgeState{SourceID: s.edge.SourceID, TargetID: s.edge.TargetID, Status: s.edge.Status, Resolved: s.resolved()}
	}
	return out
}

// Resize changes the viewport used by subsequent ticks. Positions are not
// rescaled; the center target and clamp window move instead.
func (e *Engine) Resize(width, height float64) error {
	if err := validateViewport(width, height); err != nil {
		return err
	}
	e.width, e.height = width, height
	return nil
}

// Center is the point the center attraction pulls toward.
func (e *Engine) Center() Vector2 {
	return Vector2{X: e.width / 2, Y: e.height / 2}
}

// Size returns the current viewport.
func (e *Engine) Size() (width, height float64) {
	return e.width, e.height
}

// Ticks reports how many times Step has run.
func (e *Engine) Ticks() uint64 {
	return e.ticks
}

// Params returns the constants the engine was built with.
func (e *Engine) Params() Params {
	return e.params
}

// Len reports the number of nodes.
func (e *Engine) Len() int {
	return len(e.bodies)
}
