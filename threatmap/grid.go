package threatmap

import (
	"errors"
	"fmt"
	"math"
)

// GridConfig controls the binning resolution of the threat heatmap.
type GridConfig struct {
	LatStep float64 `toml:"lat_step" json:"latStep"` // degrees between latitude bands
	LonStep float64 `toml:"lon_step" json:"lonStep"` // degrees between longitude bands
}

// Validate ensures the configuration is usable for generating a grid.
func (c GridConfig) Validate() error {
	if c.LatStep <= 0 || c.LonStep <= 0 {
		return errors.New("grid steps must be positive")
	}
	if c.LatStep > 180 || c.LonStep > 360 {
		return errors.New("grid steps are too large to tile the globe")
	}
	return nil
}

// Level grades how dangerous a source region is.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// ParseLevel validates a raw threat level.
func ParseLevel(s string) (Level, error) {
	switch l := Level(s); l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return l, nil
	}
	return "", fmt.Errorf("unknown threat level %q", s)
}

// Rank orders levels from low (1) to critical (4); unknown levels rank 0.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	}
	return 0
}

// Color is the marker fill used for the level on the map.
func (l Level) Color() string {
	switch l {
	case LevelMedium:
		return "rgba(245, 158, 11, 0.7)"
	case LevelHigh:
		return "rgba(249, 115, 22, 0.7)"
	case LevelCritical:
		return "rgba(220, 38, 38, 0.7)"
	}
	return "rgba(34, 197, 94, 0.7)"
}

// Location is an attack origin observed over the reporting window.
type Location struct {
	ID      string  `json:"id" toml:"id"`
	Lat     float64 `json:"latitude" toml:"latitude"`
	Lon     float64 `json:"longitude" toml:"longitude"`
	Country string  `json:"country" toml:"country"`
	City    string  `json:"city" toml:"city"`
	Level   Level   `json:"threatLevel" toml:"threat_level"`
	Count   int     `json:"count" toml:"count"`
}

// Cell captures aggregated threat metrics for one grid bin.
type Cell struct {
	Lat          float64 // degrees, bin center
	Lon          float64 // degrees, bin center
	Events       int
	Sources      int
	HighestLevel Level
}

// Hot reports whether any location fell into the cell.
func (c Cell) Hot() bool {
	return c.Sources > 0
}

// Grid holds the generated cells and supports binning of locations.
type Grid struct {
	Config GridConfig
	rows   int
	cols   int
	cells  []Cell
}

// NewGrid builds a globe-spanning grid with the provided resolution.
// Cells are centered halfway into each step, beginning at -90/-180 degrees.
func NewGrid(config GridConfig) (*Grid, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{Config: config}
	for lat := -90.0 + config.LatStep/2; lat < 90.0; lat += config.LatStep {
		g.rows++
		cols := 0
		for lon := -180.0 + config.LonStep/2; lon < 180.0; lon += config.LonStep {
			g.cells = append(g.cells, Cell{Lat: lat, Lon: lon})
			cols++
		}
		g.cols = cols
	}

	return g, nil
}

// ApplyLocations bins each location into the cell containing it, summing event
// counts and keeping the highest threat level seen there.
func (g *Grid) ApplyLocations(locations []Location) {
	for _, loc := range locations {
		i, ok := g.cellIndex(loc.Lat, loc.Lon)
		if !ok {
			continue
		}
		cell := &g.cells[i]
		cell.Sources++
		cell.Events += loc.Count
		if loc.Level.Rank() > cell.HighestLevel.Rank() {
			cell.HighestLevel = loc.Level
		}
	}
}

func (g *Grid) cellIndex(lat, lon float64) (int, bool) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, false
	}
	row := int(math.Floor((lat + 90) / g.Config.LatStep))
	col := int(math.Floor((lon + 180) / g.Config.LonStep))
	if row >= g.rows {
		row = g.rows - 1
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	return row*g.cols + col, true
}

// Summary captures high-level statistics for the grid.
type Summary struct {
	TotalCells  int      `json:"totalCells"`
	HotCells    int      `json:"hotCells"`
	HotPercent  float64  `json:"hotPercent"`
	TotalEvents int      `json:"totalEvents"`
	Hottest     *Hotspot `json:"hottest,omitempty"`
}

// Hotspot locates the busiest cell.
type Hotspot struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Events int     `json:"events"`
	Level  Level   `json:"level"`
}

// Summarize returns grid statistics and the busiest cell.
func (g *Grid) Summarize() Summary {
	var hot, events int
	var hottest *Hotspot

	for _, cell := range g.cells {
		if !cell.Hot() {
			continue
		}
		hot++
		events += cell.Events
		if hottest == nil || cell.Events > hottest.Events {
			hottest = &Hotspot{Lat: cell.Lat, Lon: cell.Lon, Events: cell.Events, Level: cell.HighestLevel}
		}
	}

	total := len(g.cells)
	percent := 0.0
	if total > 0 {
		percent = (float64(hot) / float64(total)) * 100.0
	}

	return Summary{
		TotalCells:  total,
		HotCells:    hot,
		HotPercent:  percent,
		TotalEvents: events,
		Hottest:     hottest,
	}
}

// HeatmapCell is a frontend-friendly payload describing a cell's threat load.
type HeatmapCell struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Hot    bool    `json:"hot"`
	Events int     `json:"events"`
	Level  Level   `json:"level,omitempty"`
}

// HeatmapData exports grid information formatted for the UI heatmap.
func (g *Grid) HeatmapData() []HeatmapCell {
	heatmap := make([]HeatmapCell, 0, len(g.cells))
	for _, cell := range g.cells {
		heatmap = append(heatmap, HeatmapCell{
			Lat:    cell.Lat,
			Lon:    cell.Lon,
			Hot:    cell.Hot(),
			Events: cell.Events,
			Level:  cell.HighestLevel,
		})
	}
	return heatmap
}

// Cells exposes a copy of the grid cells to callers that need raw results.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, len(g.cells))
	copy(out, g.cells)
	return out
}
