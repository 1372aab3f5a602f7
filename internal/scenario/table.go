// Package scenario holds the calendar of hidden process anomalies that the
// generators fold into their draws.
package scenario

import (
	"math"
	"strings"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// ID identifies a scenario window.
type ID string

const (
	COVID19          ID = "covid-19"
	PressAWear       ID = "press-a-wear"
	MCCExcipient     ID = "mcc-excipient"
	MethodTransition ID = "method-transition"
	SummerHeat       ID = "summer-heat"
	PressBDrift      ID = "press-b-drift"
	APISupplier      ID = "api-supplier"
)

// Provider answers which adjustments apply on a day for a piece of equipment.
// Every generator consumes scenarios through this interface.
type Provider interface {
	For(date time.Time, equipment string) Adjustment
}

// Adjustment is the merged effect of every window active for a (date, equipment) pair.
type Adjustment struct {
	YieldModifier         float64
	HardnessModifier      float64
	DissolutionModifier   float64
	ComplaintRateModifier float64
	CAPARateModifier      float64
	Labels                []string
	IDs                   []ID
}

// Neutral returns an adjustment with no effect.
func Neutral() Adjustment {
	return Adjustment{ComplaintRateModifier: 1.0, CAPARateModifier: 1.0}
}

// Has reports whether the window id contributed to the adjustment.
func (a Adjustment) Has(id ID) bool {
	for _, v := range a.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Label joins every active scenario label, or returns "" when none applies.
func (a Adjustment) Label() string {
	return strings.Join(a.Labels, " & ")
}

// Delta is the contribution of one window. Rate multipliers of zero are read as 1.0.
type Delta struct {
	Yield         float64
	Hardness      float64
	Dissolution   float64
	ComplaintRate float64
	CAPARate      float64
}

// Ramp grows the hardness contribution linearly from the window start up to a cap.
type Ramp struct {
	PerDay float64
	Cap    float64
}

// Window is one row of the scenario table. Start and End are inclusive days.
type Window struct {
	ID        ID
	Label     string
	Period    string
	Start     time.Time
	End       time.Time
	Equipment string
	Delta     Delta
	Hardness  *Ramp
	Effects   []string
	Affects   []core.DataType
}

func (w Window) matches(day time.Time, equipment string) bool {
	if day.Before(w.Start) || day.After(w.End) {
		return false
	}
	return w.Equipment == "" || w.Equipment == equipment
}

// Table is an ordered set of windows.
type Table struct {
	windows []Window
}

// NewTable builds a table from windows in evaluation order.
func NewTable(windows []Window) *Table {
	ws := make([]Window, len(windows))
	copy(ws, windows)
	return &Table{windows: ws}
}

// Windows returns a copy of the table rows.
func (t *Table) Windows() []Window {
	ws := make([]Window, len(t.windows))
	copy(ws, t.windows)
	return ws
}

// For merges every window matching the day and equipment. Additive fields
// sum, rate multipliers multiply, labels keep table order.
func (t *Table) For(date time.Time, equipment string) Adjustment {
	day := core.Day(date)
	adj := Neutral()

	for _, w := range t.windows {
		if !w.matches(day, equipment) {
			continue
		}
		adj.YieldModifier += w.Delta.Yield
		adj.HardnessModifier += w.Delta.Hardness
		adj.DissolutionModifier += w.Delta.Dissolution
		adj.ComplaintRateModifier *= multiplier(w.Delta.ComplaintRate)
		adj.CAPARateModifier *= multiplier(w.Delta.CAPARate)
		if w.Hardness != nil {
			days := float64(core.DaysBetween(w.Start, day))
			adj.HardnessModifier += math.Min(w.Hardness.PerDay*days, w.Hardness.Cap)
		}
		adj.Labels = append(adj.Labels, w.Label)
		adj.IDs = append(adj.IDs, w.ID)
	}
	return adj
}

// Active returns the labels of every window covering date, whatever equipment
// it is bound to.
func (t *Table) Active(date time.Time) []string {
	day := core.Day(date)
	var labels []string
	for _, w := range t.windows {
		if !day.Before(w.Start) && !day.After(w.End) {
			labels = append(labels, w.Label)
		}
	}
	return labels
}

func multiplier(m float64) float64 {
	if m == 0 {
		return 1.0
	}
	return m
}

// Info is the public description of one window.
type Info struct {
	Period            string          `json:"period"`
	Scenario          string          `json:"scenario"`
	Effects           []string        `json:"effects"`
	DataTypesAffected []core.DataType `json:"data_types_affected"`
}

// Describe lists the windows for display.
func (t *Table) Describe() []Info {
	out := make([]Info, 0, len(t.windows))
	for _, w := range t.windows {
		out = append(out, Info{
			Period:            w.Period,
			Scenario:          w.Label,
			Effects:           append([]string(nil), w.Effects...),
			DataTypesAffected: append([]core.DataType(nil), w.Affects...),
		})
	}
	return out
}
