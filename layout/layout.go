// Package layout implements a force-directed layout for small network
// topologies. An Engine owns a private copy of its nodes and edges and
// advances a simple physics model one tick at a time: center gravity,
// inverse-square repulsion, Hooke springs along edges, velocity damping and a
// hard clamp to the padded viewport. The engine never schedules itself; a host
// loop calls Step once per frame and reads Positions afterwards.
package layout

import (
	"errors"
	"fmt"
	"math"
)

// Kind tags what a node represents. It does not affect the physics.
type Kind string

const (
	KindServer   Kind = "server"
	KindRouter   Kind = "router"
	KindFirewall Kind = "firewall"
	KindClient   Kind = "client"
	KindMobile   Kind = "mobile"
	KindInternet Kind = "internet"
)

// ParseKind validates a raw kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindServer, KindRouter, KindFirewall, KindClient, KindMobile, KindInternet:
		return k, nil
	}
	return "", fmt.Errorf("unknown node kind %q", s)
}

// Status is the severity classification of a node or edge. Display only.
type Status string

const (
	StatusNormal   Status = "normal"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
)

// ParseStatus validates a raw status string. Empty input maps to normal.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "":
		return StatusNormal, nil
	case StatusNormal, StatusWarning, StatusCritical:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// SimNode is a node handed to New. A nil or non-finite Position asks the
// engine to seed one.
type SimNode struct {
	ID       string
	Kind     Kind
	Status   Status
	Position *Vector2
	Velocity Vector2
}

// SimEdge is an undirected relation between two node ids.
type SimEdge struct {
	SourceID string
	TargetID string
	Status   Status
}

// NodeState is a read-only view of a node after the most recent tick.
type NodeState struct {
	ID       string  `json:"id"`
	Kind     Kind    `json:"kind"`
	Status   Status  `json:"status"`
	Position Vector2 `json:"position"`
	Velocity Vector2 `json:"velocity"`
}

// EdgeState is a read-only view of an edge. Resolved is false when either
// endpoint is unknown; such edges never exert force.
type EdgeState struct {
	SourceID string `json:"source"`
	TargetID string `json:"target"`
	Status   Status `json:"status"`
	Resolved bool   `json:"resolved"`
}

// Params holds the force constants.
type Params struct {
	CenterAttraction  float64 `toml:"center_attraction" json:"centerAttraction"`
	RepulsionStrength float64 `toml:"repulsion_strength" json:"repulsionStrength"`
	RepulsionRadius   float64 `toml:"repulsion_radius" json:"repulsionRadius"`
	LinkDistance      float64 `toml:"link_distance" json:"linkDistance"`
	SpringConstant    float64 `toml:"spring_constant" json:"springConstant"`
	Damping           float64 `toml:"damping" json:"damping"`
	Padding           float64 `toml:"padding" json:"padding"`
}

// DefaultParams returns the constants tuned for dashboard-sized graphs.
func DefaultParams() Params {
	return Params{
		CenterAttraction:  0.005,
		RepulsionStrength: 700,
		RepulsionRadius:   150,
		LinkDistance:      100,
		SpringConstant:    0.05,
		Damping:           0.7,
		Padding:           30,
	}
}

var (
	ErrNoNodes         = errors.New("layout requires at least one node")
	ErrEmptyNodeID     = errors.New("node ID cannot be empty")
	ErrDuplicateNodeID = errors.New("duplicate node ID")
	ErrInvalidViewport = errors.New("viewport dimensions must be positive")
	ErrInvalidParams   = errors.New("invalid layout parameters")
)

// Validate ensures the constants describe a stable simulation.
func (p Params) Validate() error {
	switch {
	case !finite(p.CenterAttraction, p.RepulsionStrength, p.RepulsionRadius, p.LinkDistance, p.SpringConstant, p.Damping, p.Padding):
		return fmt.Errorf("%w: constants must be finite", ErrInvalidParams)
	case p.CenterAttraction < 0 || p.RepulsionStrength < 0 || p.SpringConstant < 0:
		return fmt.Errorf("%w: strengths cannot be negative", ErrInvalidParams)
	case p.RepulsionRadius <= 0:
		return fmt.Errorf("%w: repulsion radius must be positive", ErrInvalidParams)
	case p.LinkDistance <= 0:
		return fmt.Errorf("%w: link distance must be positive", ErrInvalidParams)
	case p.Damping < 0 || p.Damping >= 1:
		return fmt.Errorf("%w: damping must be in [0, 1)", ErrInvalidParams)
	case p.Padding < 0:
		return fmt.Errorf("%w: padding cannot be negative", ErrInvalidParams)
	}
	return nil
}

func validateViewport(width, height float64) error {
	if !finite(width, height) || width <= 0 || height <= 0 {
		return fmt.Errorf("%w: got %vx%v", ErrInvalidViewport, width, height)
	}
	return nil
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
