package scenario

import (
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// DefaultWindows is the built-in anomaly calendar.
var DefaultWindows = []Window{
	{
		ID:      COVID19,
		Label:   "COVID-19 disruption",
		Period:  "March-May 2020",
		Start:   core.Date(2020, time.March, 1),
		End:     core.Date(2020, time.May, 31),
		Delta:   Delta{Yield: -2.0},
		Effects: []string{"Reduced batch count (10-15/day)", "Yield -2%"},
		Affects: []core.DataType{core.DataTypeManufacturing, core.DataTypeComplaints},
	},
	{
		ID:        PressAWear,
		Label:     "Press-A wear",
		Period:    "September-November 2021",
		Start:     core.Date(2021, time.September, 1),
		End:       core.Date(2021, time.November, 30),
		Equipment: "Press-A",
		Hardness:  &Ramp{PerDay: 0.05, Cap: 2.0},
		Effects:   []string{"Gradual hardness increase on Press-A", "Higher compression force"},
		Affects:   []core.DataType{core.DataTypeManufacturing, core.DataTypeQC},
	},
	{
		ID:      MCCExcipient,
		Label:   "MCC excipient issue",
		Period:  "June 2022",
		Start:   core.Date(2022, time.June, 1),
		End:     core.Date(2022, time.June, 30),
		Delta:   Delta{Dissolution: -5.0, ComplaintRate: 1.5},
		Effects: []string{"Dissolution -5%", "Complaints +50%"},
		Affects: []core.DataType{core.DataTypeQC, core.DataTypeComplaints, core.DataTypeCAPA},
	},
	{
		ID:      MethodTransition,
		Label:   "Method transition",
		Period:  "April-June 2023",
		Start:   core.Date(2023, time.April, 1),
		End:     core.Date(2023, time.June, 30),
		Effects: []string{"Assay results shifted +1.5% during lab method change"},
		Affects: []core.DataType{core.DataTypeQC},
	},
	{
		ID:      SummerHeat,
		Label:   "Summer heat effect",
		Period:  "July-August 2024",
		Start:   core.Date(2024, time.July, 1),
		End:     core.Date(2024, time.August, 31),
		Effects: []string{"Higher drying air temperatures", "Cleanroom temperature and humidity excursions"},
		Affects: []core.DataType{core.DataTypeManufacturing, core.DataTypeEnvironmental},
	},
	{
		ID:        PressBDrift,
		Label:     "Press-B drift",
		Period:    "August 1-15 2025",
		Start:     core.Date(2025, time.August, 1),
		End:       core.Date(2025, time.August, 15),
		Equipment: "Press-B",
		Delta:     Delta{Hardness: 1.5, Dissolution: -8.0},
		Effects:   []string{"Hardness increase on Press-B", "Dissolution -8%"},
		Affects:   []core.DataType{core.DataTypeManufacturing, core.DataTypeQC, core.DataTypeCAPA},
	},
	{
		ID:      APISupplier,
		Label:   "New API supplier adjustment",
		Period:  "August-December 2025",
		Start:   core.Date(2025, time.August, 1),
		End:     core.Date(2025, time.December, 31),
		Delta:   Delta{Yield: -1.0, CAPARate: 1.3},
		Effects: []string{"Yield -1%", "CAPAs +30%"},
		Affects: []core.DataType{core.DataTypeManufacturing, core.DataTypeCAPA},
	},
}

// Default returns a table holding DefaultWindows.
func Default() *Table {
	return NewTable(DefaultWindows)
}
