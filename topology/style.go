package topology

import "github.com/example/netwatch/layout"

// NodeStyle is the render classification of a device.
type NodeStyle struct {
	Fill   string  `json:"fill"`
	Stroke string  `json:"stroke"`
	Radius float64 `json:"radius"`
	// Halo marks nodes drawn with a translucent pulse ring.
	Halo bool   `json:"halo"`
	Icon string `json:"icon"`
}

// LinkStyle is the render classification of a link.
type LinkStyle struct {
	Stroke string `json:"stroke"`
	Width  int    `json:"width"`
	Dash   []int  `json:"dash,omitempty"`
}

// NodeRadius is the drawn radius of a device marker.
const NodeRadius = 15

// NodeStyleFor maps a device status and kind to its palette.
func NodeStyleFor(status layout.Status, kind layout.Kind) NodeStyle {
	style := NodeStyle{Fill: "#22C55E", Stroke: "#16A34A", Radius: NodeRadius, Icon: IconFor(kind)}
	switch status {
	case layout.StatusWarning:
		style.Fill, style.Stroke = "#F59E0B", "#D97706"
	case layout.StatusCritical:
		style.Fill, style.Stroke = "#DC2626", "#B91C1C"
		style.Halo = true
	}
	return style
}

// LinkStyleFor maps a link status to stroke color, width and dash pattern.
func LinkStyleFor(status layout.Status) LinkStyle {
	switch status {
	case layout.StatusWarning:
		return LinkStyle{Stroke: "#F59E0B", Width: 2, Dash: []int{4, 2}}
	case layout.StatusCritical:
		return LinkStyle{Stroke: "#DC2626", Width: 2}
	default:
		return LinkStyle{Stroke: "#94A3B8", Width: 1}
	}
}

// IconFor returns the glyph drawn inside a device marker.
func IconFor(kind layout.Kind) string {
	switch kind {
	case layout.KindServer:
		return "🖥️"
	case layout.KindRouter:
		return "🌐"
	case layout.KindFirewall:
		return "🛡️"
	case layout.KindClient:
		return "💻"
	case layout.KindMobile:
		return "📱"
	case layout.KindInternet:
		return "☁️"
	}
	return ""
}
