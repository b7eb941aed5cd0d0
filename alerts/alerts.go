// Package alerts filters, sorts and summarizes intrusion alerts for the
// alerts table and the dashboard summary cards.
package alerts

import (
	"fmt"
	"sort"
	"strings"
)

// Severity grades an alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities from low (1) to critical (4).
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

// Status is the triage state of an alert.
type Status string

const (
	StatusNew           Status = "new"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
	StatusFalsePositive Status = "false-positive"
)

// Open reports whether the alert still needs attention.
func (s Status) Open() bool {
	return s == StatusNew || s == StatusInvestigating
}

// Alert is one detection shown in the alerts table.
type Alert struct {
	ID          string   `json:"id" toml:"id"`
	Timestamp   string   `json:"timestamp" toml:"timestamp"`
	Description string   `json:"description" toml:"description"`
	Source      string   `json:"source" toml:"source"`
	Destination string   `json:"destination" toml:"destination"`
	Protocol    string   `json:"protocol" toml:"protocol"`
	Severity    Severity `json:"severity" toml:"severity"`
	Status      Status   `json:"status" toml:"status"`
	Category    string   `json:"category" toml:"category"`
}

// Validate checks the enumerated fields.
func (a Alert) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("alert ID cannot be empty")
	}
	if a.Severity.Rank() == 0 {
		return fmt.Errorf("alert %s: unknown severity %q", a.ID, a.Severity)
	}
	switch a.Status {
	case StatusNew, StatusInvestigating, StatusResolved, StatusFalsePositive:
	default:
		return fmt.Errorf("alert %s: unknown status %q", a.ID, a.Status)
	}
	return nil
}

// Filter selects alerts. Each facet accepts any of its values
// case-insensitively; an empty facet accepts everything. Query matches the
// description, source or destination.
type Filter struct {
	Query    string
	Severity []string
	Status   []string
	Category []string
}

// Active counts selected facet values, as shown on the filter badge.
func (f Filter) Active() int {
	return len(f.Severity) + len(f.Status) + len(f.Category)
}

// Match reports whether a passes every facet of the filter.
func (f Filter) Match(a Alert) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(a.Description), q) &&
			!strings.Contains(strings.ToLower(a.Source), q) &&
			!strings.Contains(strings.ToLower(a.Destination), q) {
			return false
		}
	}
	return anyOf(f.Severity, string(a.Severity)) &&
		anyOf(f.Status, string(a.Status)) &&
		anyOf(f.Category, a.Category)
}

func anyOf(values []string, got string) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values {
		if strings.EqualFold(v, got) {
			return true
		}
	}
	return false
}

// Apply returns the alerts matching f, preserving order.
func Apply(list []Alert, f Filter) []Alert {
	out := make([]Alert, 0, len(list))
	for _, a := range list {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// Direction is a sort order.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Sortable fields.
const (
	FieldTimestamp   = "timestamp"
	FieldSeverity    = "severity"
	FieldStatus      = "status"
	FieldCategory    = "category"
	FieldSource      = "source"
	FieldDestination = "destination"
	FieldProtocol    = "protocol"
	FieldID          = "id"
)

// Sort returns a sorted copy of list. Ties keep their input order.
func Sort(list []Alert, field string, dir Direction) ([]Alert, error) {
	less, err := comparator(field)
	if err != nil {
		return nil, err
	}
	out := append([]Alert(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		if dir == Asc {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out, nil
}

func comparator(field string) (func(a, b Alert) bool, error) {
	byString := func(get func(Alert) string) func(a, b Alert) bool {
		return func(a, b Alert) bool { return get(a) < get(b) }
	}
	switch field {
	case "", FieldTimestamp:
		return byString(func(a Alert) string { return a.Timestamp }), nil
	case FieldSeverity:
		return func(a, b Alert) bool { return a.Severity.Rank() < b.Severity.Rank() }, nil
	case FieldStatus:
		return byString(func(a Alert) string { return string(a.Status) }), nil
	case FieldCategory:
		return byString(func(a Alert) string { return a.Category }), nil
	case FieldSource:
		return byString(func(a Alert) string { return a.Source }), nil
	case FieldDestination:
		return byString(func(a Alert) string { return a.Destination }), nil
	case FieldProtocol:
		return byString(func(a Alert) string { return a.Protocol }), nil
	case FieldID:
		return byString(func(a Alert) string { return a.ID }), nil
	}
	return nil, fmt.Errorf("unsupported sort field %q", field)
}

// Summary feeds the alert summary cards.
type Summary struct {
	Total      int              `json:"total"`
	BySeverity map[Severity]int `json:"bySeverity"`
	Open       int              `json:"open"`
	Closed     int              `json:"closed"`
}

// Summarize tallies alerts by severity and triage state.
func Summarize(list []Alert) Summary {
	s := Summary{Total: len(list), BySeverity: make(map[Severity]int, 4)}
	for _, a := range list {
		s.BySeverity[a.Severity]++
		if a.Status.Open() {
			s.Open++
		} else {
			s.Closed++
		}
	}
	return s
}
