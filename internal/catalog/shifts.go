package catalog

import "fmt"

// Shift defines one production shift. Start and End are hours (0-23); a shift
// whose End is not after its Start crosses midnight.
type Shift struct {
	Name   string  `yaml:"name" json:"name"`
	Start  int     `yaml:"start" json:"start"`
	End    int     `yaml:"end" json:"end"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// DefaultShifts returns the three-shift model used on the tablet floor.
func DefaultShifts() []Shift {
	return []Shift{
		{Name: "Day", Start: 6, End: 14, Weight: 0.50},
		{Name: "Evening", Start: 14, End: 22, Weight: 0.35},
		{Name: "Night", Start: 22, End: 6, Weight: 0.15}, // next day
	}
}

// Hours returns the length of the shift in hours.
func (s Shift) Hours() int {
	if s.End > s.Start {
		return s.End - s.Start
	}
	return s.End + 24 - s.Start
}

// HourAt returns the clock hour offset hours into the shift.
func (s Shift) HourAt(offset int) int {
	return (s.Start + offset) % 24
}

// ShiftWeights returns the selection weight of every shift.
func (c *Catalog) ShiftWeights() []float64 {
	weights := make([]float64, len(c.Shifts))
	for i, s := range c.Shifts {
		weights[i] = s.Weight
	}
	return weights
}

func sequence(format string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf(format, i+1)
	}
	return out
}
