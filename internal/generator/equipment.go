package generator

import (
	"fmt"
	"math"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/catalog"
	"github.com/sebastiankruger/apr-datagen/internal/core"
)

var equipmentColumns = []string{
	"calibration_id", "equipment_id", "equipment_name", "equipment_type", "criticality",
	"parameter", "scheduled_date", "actual_date", "next_due_date",
	"as_found_value", "as_left_value", "deviation", "tolerance",
	"out_of_tolerance", "result", "calibrated_by", "reviewed_by",
}

var (
	calibrationDelays       = []int{0, 1, 2, 3, 5, 10}
	calibrationDelayWeights = []float64{0.70, 0.10, 0.10, 0.05, 0.03, 0.02}
)

// Calibration is one calibration event of an instrument.
type Calibration struct {
	CalibrationID  string
	EquipmentID    string
	EquipmentName  string
	EquipmentType  string
	Criticality    string
	Parameter      string
	ScheduledDate  time.Time
	ActualDate     time.Time
	NextDueDate    time.Time
	AsFound        float64
	AsLeft         float64
	Deviation      float64
	Tolerance      float64
	OutOfTolerance bool
	CalibratedBy   string
	ReviewedBy     string
}

// Result is Fail exactly when the instrument was found out of tolerance.
func (c Calibration) Result() string {
	return passFail(!c.OutOfTolerance)
}

// Values implements Record.
func (c Calibration) Values() []string {
	return []string{
		c.CalibrationID, c.EquipmentID, c.EquipmentName, c.EquipmentType, c.Criticality,
		c.Parameter, fmtDate(c.ScheduledDate), fmtDate(c.ActualDate), fmtDate(c.NextDueDate),
		fmtFloat(c.AsFound), fmtFloat(c.AsLeft), fmtFloat(c.Deviation), fmtFloat(c.Tolerance),
		yesNo(c.OutOfTolerance), c.Result(), c.CalibratedBy, c.ReviewedBy,
	}
}

// calibrationCheck is the measured parameter of an instrument type.
type calibrationCheck struct {
	parameter   string
	center      float64
	foundSpread float64
	leftSpread  float64
	places      int
	tolerance   float64
}

func checkFor(instrumentType string) calibrationCheck {
	switch instrumentType {
	case "Balance":
		return calibrationCheck{parameter: "Mass accuracy", center: 100.0, foundSpread: 0.005, leftSpread: 0.002, places: 4, tolerance: 0.01}
	case "Temperature":
		return calibrationCheck{parameter: "Temperature", center: 25.0, foundSpread: 0.3, leftSpread: 0.1, places: 2, tolerance: 0.5}
	default:
		return calibrationCheck{parameter: "Performance check", center: 100.0, foundSpread: 2, leftSpread: 1, places: 2, tolerance: 5.0}
	}
}

// Calibrations walks each instrument's schedule from start at its frequency.
func (g *Generator) Calibrations(start, end time.Time) []Calibration {
	g.reset()

	var records []Calibration
	seq := 1
	last := core.Day(end)
	for _, in := range g.catalog.Instruments {
		for due := core.Day(start); !due.After(last); due = due.AddDate(0, 0, in.FrequencyDays) {
			records = append(records, g.calibrate(in, due, seq))
			seq++
		}
	}
	return records
}

func (g *Generator) calibrate(in catalog.Instrument, scheduled time.Time, seq int) Calibration {
	rnd := g.rnd
	check := checkFor(in.Type)

	actual := scheduled.AddDate(0, 0, core.ChooseWeighted(rnd, calibrationDelays, calibrationDelayWeights))
	c := Calibration{
		CalibrationID: fmt.Sprintf("CAL-%d-%05d", scheduled.Year(), seq),
		EquipmentID:   in.ID,
		EquipmentName: in.Name,
		EquipmentType: in.Type,
		Criticality:   in.Criticality,
		Parameter:     check.parameter,
		ScheduledDate: scheduled,
		ActualDate:    actual,
		NextDueDate:   actual.AddDate(0, 0, in.FrequencyDays),
		AsFound:       core.Round(rnd.Gaussian(check.center, check.foundSpread), check.places),
		AsLeft:        core.Round(rnd.Gaussian(check.center, check.leftSpread), check.places),
		Tolerance:     check.tolerance,
	}
	deviation := math.Abs(c.AsFound - c.AsLeft)
	c.Deviation = core.Round(deviation, 4)
	c.OutOfTolerance = deviation > c.Tolerance
	c.CalibratedBy = g.pick(catalog.Head(g.catalog.QCAnalysts, 10))
	c.ReviewedBy = g.pick(catalog.Slice(g.catalog.QCAnalysts, 10, 20))
	return c
}

// CalibrationTable wraps calibrations as a Table.
func CalibrationTable(rows []Calibration) Table {
	return newTable(core.DataTypeEquipment, equipmentColumns, rows)
}
