// Package fixtures supplies the dashboard's static dataset: the office
// topology, recent alerts, attack origins and hourly traffic. The built-in
// copy is embedded; LoadDir reads the same TOML layout from disk so operators
// can swap in their own inventory.
package fixtures

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/example/netwatch/alerts"
	"github.com/example/netwatch/layout"
	"github.com/example/netwatch/threatmap"
	"github.com/example/netwatch/topology"
)

//go:embed data/*.toml
var embedded embed.FS

// TrafficSample is one point on the traffic chart.
type TrafficSample struct {
	Time      string `json:"time" toml:"time"`
	Normal    int    `json:"normal" toml:"normal"`
	Anomalies int    `json:"anomalies" toml:"anomalies"`
}

// Dataset is everything the dashboard renders.
type Dataset struct {
	Devices []topology.Device
	Links   []topology.Link
	Alerts  []alerts.Alert
	Threats []threatmap.Location
	Traffic []TrafficSample
}

type networkFile struct {
	Devices []topology.Device `toml:"devices"`
	Links   []topology.Link   `toml:"links"`
}

type alertFile struct {
	Alerts []alerts.Alert `toml:"alerts"`
}

type threatFile struct {
	Locations []threatmap.Location `toml:"locations"`
}

type trafficFile struct {
	Samples []TrafficSample `toml:"samples"`
}

// Load decodes the embedded dataset.
func Load() (*Dataset, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
}

// LoadDir decodes a dataset from a directory on disk. Missing files fall back
// to the embedded copy.
func LoadDir(dir string) (*Dataset, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return LoadFS(overlay{primary: os.DirFS(dir), fallback: sub})
}

// LoadFS decodes network.toml, alerts.toml, threats.toml and traffic.toml
// from fsys and validates every enumerated field.
func LoadFS(fsys fs.FS) (*Dataset, error) {
	var (
		network  networkFile
		alertDoc alertFile
		threats  threatFile
		traffic  trafficFile
	)
	docs := []struct {
		name string
		into any
	}{
		{"network.toml", &network},
		{"alerts.toml", &alertDoc},
		{"threats.toml", &threats},
		{"traffic.toml", &traffic},
	}
	for _, doc := range docs {
		data, err := fs.ReadFile(fsys, doc.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", doc.name, err)
		}
		if err := toml.Unmarshal(data, doc.into); err != nil {
			return nil, fmt.Errorf("decode %s: %w", doc.name, err)
		}
	}

	ds := &Dataset{
		Devices: network.Devices,
		Links:   network.Links,
		Alerts:  alertDoc.Alerts,
		Threats: threats.Locations,
		Traffic: traffic.Samples,
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks enumerations and normalizes empty statuses to normal.
func (ds *Dataset) Validate() error {
	for i := range ds.Devices {
		d := &ds.Devices[i]
		if _, err := layout.ParseKind(string(d.Kind)); err != nil {
			return fmt.Errorf("device %s: %w", d.ID, err)
		}
		st, err := layout.ParseStatus(string(d.Status))
		if err != nil {
			return fmt.Errorf("device %s: %w", d.ID, err)
		}
		d.Status = st
	}
	for i := range ds.Links {
		l := &ds.Links[i]
		st, err := layout.ParseStatus(string(l.Status))
		if err != nil {
			return fmt.Errorf("link %s-%s: %w", l.Source, l.Target, err)
		}
		l.Status = st
	}
	for _, a := range ds.Alerts {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	for _, loc := range ds.Threats {
		if _, err := threatmap.ParseLevel(string(loc.Level)); err != nil {
			return fmt.Errorf("location %s: %w", loc.ID, err)
		}
	}
	return nil
}

// overlay serves files from primary and falls back when they are absent.
type overlay struct {
	primary  fs.FS
	fallback fs.FS
}

func (o overlay) Open(name string) (fs.File, error) {
	f, err := o.primary.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return o.fallback.Open(name)
	}
	return f, err
}
