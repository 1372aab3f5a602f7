package generator

import (
	"fmt"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/catalog"
	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

var environmentalColumns = []string{
	"record_id", "monitoring_date", "monitoring_time",
	"room_code", "room_name", "room_classification",
	"particles_05um_per_m3", "particles_50um_per_m3",
	"viable_air_cfu_m3", "viable_surface_cfu_plate",
	"temperature_c", "humidity_pct", "differential_pressure_pa",
	"temperature_in_spec", "humidity_in_spec", "pressure_in_spec",
	"overall_result", "monitored_by",
}

// EnvironmentalReading is one cleanroom monitoring sample.
type EnvironmentalReading struct {
	RecordID       string
	Date           time.Time
	Time           time.Time
	RoomCode       string
	RoomName       string
	Classification string
	Particles05um  int
	Particles50um  int
	ViableAir      int
	ViableSurface  int
	TemperatureC   float64
	HumidityPct    float64
	DiffPressurePa float64
	TemperatureOK  bool
	HumidityOK     bool
	PressureOK     bool
	MonitoredBy    string
}

// Passed reports whether every monitored parameter is within limits.
func (r EnvironmentalReading) Passed() bool {
	return r.TemperatureOK && r.HumidityOK && r.PressureOK
}

// Values implements Record.
func (r EnvironmentalReading) Values() []string {
	return []string{
		r.RecordID, fmtDate(r.Date), r.Time.Format(core.TimeLayout),
		r.RoomCode, r.RoomName, r.Classification,
		fmtInt(r.Particles05um), fmtInt(r.Particles50um),
		fmtInt(r.ViableAir), fmtInt(r.ViableSurface),
		fmtFloat(r.TemperatureC), fmtFloat(r.HumidityPct), fmtFloat(r.DiffPressurePa),
		yesNo(r.TemperatureOK), yesNo(r.HumidityOK), yesNo(r.PressureOK),
		passFail(r.Passed()), r.MonitoredBy,
	}
}

// Environmental samples every room readingsPerDay times a day at the catalog
// sampling hours. readingsPerDay is capped to the number of sampling hours.
func (g *Generator) Environmental(start, end time.Time, readingsPerDay int) []EnvironmentalReading {
	g.reset()

	hours := g.catalog.SamplingHours
	if readingsPerDay > len(hours) {
		readingsPerDay = len(hours)
	}

	var readings []EnvironmentalReading
	seq := 1
	eachDay(start, end, func(day time.Time) {
		summer := g.scenarios.For(day, "").Has(scenario.SummerHeat)
		for _, room := range g.catalog.Rooms {
			for i := 0; i < readingsPerDay; i++ {
				readings = append(readings, g.sampleRoom(day, hours[i], room, seq, summer))
				seq++
			}
		}
	})
	return readings
}

func (g *Generator) sampleRoom(day time.Time, hour int, room catalog.Room, seq int, summer bool) EnvironmentalReading {
	rnd := g.rnd

	r := EnvironmentalReading{
		RecordID:       fmt.Sprintf("EM-%d-%06d", day.Year(), seq),
		Date:           day,
		Time:           day.Add(time.Duration(hour)*time.Hour + time.Duration(rnd.UniformInt(0, 30))*time.Minute),
		RoomCode:       room.Code,
		RoomName:       room.Name,
		Classification: room.Classification,
	}

	if room.Classification == "ISO 7" {
		r.Particles05um = int(rnd.Gaussian(150000, 30000))
		r.Particles50um = int(rnd.Exponential(200))
	} else {
		r.Particles05um = int(rnd.Gaussian(2500000, 500000))
		r.Particles50um = int(rnd.Exponential(10000))
	}
	r.ViableAir = int(rnd.Exponential(5))
	r.ViableSurface = int(rnd.Exponential(3))

	if summer {
		r.TemperatureC = core.Round(rnd.Gaussian(23, 1.5), 1)
		r.HumidityPct = core.Round(rnd.Gaussian(50, 7), 1)
	} else {
		r.TemperatureC = core.Round(rnd.Gaussian(21, 1), 1)
		r.HumidityPct = core.Round(rnd.Gaussian(45, 5), 1)
	}
	r.DiffPressurePa = core.Round(rnd.Gaussian(15, 2), 1)

	r.TemperatureOK = r.TemperatureC >= 18 && r.TemperatureC <= 25
	r.HumidityOK = r.HumidityPct >= 30 && r.HumidityPct <= 60
	r.PressureOK = r.DiffPressurePa >= 10
	r.MonitoredBy = g.pick(catalog.Head(g.catalog.Operators, 10))
	return r
}

// EnvironmentalTable wraps readings as a Table.
func EnvironmentalTable(rows []EnvironmentalReading) Table {
	return newTable(core.DataTypeEnvironmental, environmentalColumns, rows)
}
