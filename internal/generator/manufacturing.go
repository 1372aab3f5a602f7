package generator

import (
	"fmt"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

var manufacturingColumns = []string{
	"batch_id", "product_name", "product_code", "batch_size_kg",
	"manufacturing_date", "manufacturing_start", "manufacturing_end", "shift",
	"process_time_hours", "operator_primary", "operator_secondary",
	"tablet_press_id", "granulator_id", "dryer_id", "blender_id",
	"api_weight_kg", "excipient_weight_kg",
	"granulation_mixing_time_min", "binder_volume_ml", "granulation_temp_c",
	"inlet_air_temp_c", "outlet_air_temp_c", "drying_time_min", "moisture_content_pct",
	"compression_force_main_kn", "compression_force_pre_kn", "turret_speed_rpm",
	"tablet_weight_mg", "tablet_thickness_mm", "tablet_hardness_n",
	"friability_pct", "disintegration_time_min",
	"theoretical_yield_tablets", "actual_yield_tablets", "yield_percent",
	"reject_count", "reject_reason",
	"has_deviation", "deviation_id", "deviation_type",
	"room_temp_c", "room_humidity_pct", "differential_pressure_pa",
	"batch_status", "release_status",
}

// ManufacturingBatch is the executed batch record of one tablet batch.
type ManufacturingBatch struct {
	BatchID           string
	ProductName       string
	ProductCode       string
	BatchSizeKg       float64
	ManufacturingDate time.Time
	Start             time.Time
	End               time.Time
	Shift             string
	ProcessTimeHours  float64
	OperatorPrimary   string
	OperatorSecondary string
	TabletPress       string
	Granulator        string
	Dryer             string
	Blender           string

	APIWeightKg       float64
	ExcipientWeightKg float64
	MixingTimeMin     float64
	BinderVolumeMl    float64
	GranulationTempC  float64
	InletAirTempC     float64
	OutletAirTempC    float64
	DryingTimeMin     float64
	MoisturePct       float64

	CompressionMainKN float64
	CompressionPreKN  float64
	TurretSpeedRPM    float64
	TabletWeightMg    float64
	TabletThicknessMm float64
	TabletHardnessN   float64
	FriabilityPct     float64
	DisintegrationMin float64

	TheoreticalYield int
	ActualYield      int
	YieldPercent     float64
	RejectCount      int
	RejectReason     string

	HasDeviation  bool
	DeviationID   string
	DeviationType string

	RoomTempC       float64
	RoomHumidityPct float64
	DiffPressurePa  float64
	BatchStatus     string
	ReleaseStatus   string
}

// Values implements Record.
func (b ManufacturingBatch) Values() []string {
	return []string{
		b.BatchID, b.ProductName, b.ProductCode, fmtFloat(b.BatchSizeKg),
		fmtDate(b.ManufacturingDate), b.Start.Format(core.DateTimeLayout), b.End.Format(core.DateTimeLayout), b.Shift,
		fmtFloat(b.ProcessTimeHours), b.OperatorPrimary, b.OperatorSecondary,
		b.TabletPress, b.Granulator, b.Dryer, b.Blender,
		fmtFloat(b.APIWeightKg), fmtFloat(b.ExcipientWeightKg),
		fmtFloat(b.MixingTimeMin), fmtFloat(b.BinderVolumeMl), fmtFloat(b.GranulationTempC),
		fmtFloat(b.InletAirTempC), fmtFloat(b.OutletAirTempC), fmtFloat(b.DryingTimeMin), fmtFloat(b.MoisturePct),
		fmtFloat(b.CompressionMainKN), fmtFloat(b.CompressionPreKN), fmtFloat(b.TurretSpeedRPM),
		fmtFloat(b.TabletWeightMg), fmtFloat(b.TabletThicknessMm), fmtFloat(b.TabletHardnessN),
		fmtFloat(b.FriabilityPct), fmtFloat(b.DisintegrationMin),
		fmtInt(b.TheoreticalYield), fmtInt(b.ActualYield), fmtFloat(b.YieldPercent),
		fmtInt(b.RejectCount), b.RejectReason,
		yesNo(b.HasDeviation), b.DeviationID, b.DeviationType,
		fmtFloat(b.RoomTempC), fmtFloat(b.RoomHumidityPct), fmtFloat(b.DiffPressurePa),
		b.BatchStatus, b.ReleaseStatus,
	}
}

// Manufacturing generates batch records for every day in [start, end]. The
// batch sequence is global across the call and starts at 1.
func (g *Generator) Manufacturing(start, end time.Time, batchesPerDay, productIndex int) ([]ManufacturingBatch, error) {
	g.reset()

	product, ok := g.catalog.Product(productIndex)
	if !ok {
		return nil, fmt.Errorf("product index %d out of range (0-%d)", productIndex, len(g.catalog.Products)-1)
	}
	if batchesPerDay < 1 {
		return nil, fmt.Errorf("batches per day must be at least 1, got %d", batchesPerDay)
	}

	var batches []ManufacturingBatch
	seq := 1
	shiftWeights := g.catalog.ShiftWeights()

	eachDay(start, end, func(day time.Time) {
		daily := batchesPerDay
		if g.scenarios.For(day, "").Has(scenario.COVID19) {
			daily = g.rnd.UniformInt(10, 15)
		}

		for i := 0; i < daily; i++ {
			b := g.manufactureBatch(day, seq, product.Name, product.Code, product.Prefix, shiftWeights)
			batches = append(batches, b)
			seq++
		}
	})

	return batches, nil
}

func (g *Generator) manufactureBatch(day time.Time, seq int, name, code, prefix string, shiftWeights []float64) ManufacturingBatch {
	c := g.catalog
	rnd := g.rnd

	b := ManufacturingBatch{
		BatchID:           fmt.Sprintf("%s-%02d-%05d", prefix, day.Year()%100, seq),
		ProductName:       name,
		ProductCode:       code,
		ManufacturingDate: day,
		BatchStatus:       "Complete",
		ReleaseStatus:     "Pending QC",
	}

	shift := c.Shifts[rnd.SelectWeighted(shiftWeights)]
	hour := shift.HourAt(rnd.UniformInt(0, shift.Hours()-1))
	b.Shift = shift.Name
	b.Start = day.Add(time.Duration(hour)*time.Hour + time.Duration(rnd.UniformInt(0, 59))*time.Minute)

	b.TabletPress = g.pick(c.TabletPresses)
	b.Granulator = g.pick(c.Granulators)
	b.Dryer = g.pick(c.Dryers)
	b.Blender = g.pick(c.Blenders)

	adj := g.scenarios.For(day, b.TabletPress)

	b.OperatorPrimary, b.OperatorSecondary = core.ChooseDistinct(rnd, c.Operators)

	b.APIWeightKg = core.Round(rnd.Gaussian(50.0, 0.5), 3)
	b.ExcipientWeightKg = core.Round(rnd.Gaussian(45.0, 0.4), 3)
	b.BatchSizeKg = core.Round(b.APIWeightKg+b.ExcipientWeightKg, 3)

	b.MixingTimeMin = core.Round(rnd.Gaussian(15.0, 1.0), 2)
	b.BinderVolumeMl = core.Round(rnd.Gaussian(2500, 100), 1)
	b.GranulationTempC = core.Round(rnd.Gaussian(28, 2), 1)

	if adj.Has(scenario.SummerHeat) {
		b.InletAirTempC = core.Round(rnd.Gaussian(63, 3), 1)
		b.OutletAirTempC = core.Round(rnd.Gaussian(43, 2), 1)
	} else {
		b.InletAirTempC = core.Round(rnd.Gaussian(60, 2), 1)
		b.OutletAirTempC = core.Round(rnd.Gaussian(40, 2), 1)
	}
	b.DryingTimeMin = core.Round(rnd.Gaussian(45, 5), 1)
	b.MoisturePct = core.Round(rnd.Gaussian(2.0, 0.3), 2)

	b.CompressionMainKN = core.Round(rnd.Gaussian(18.0, 1.5)+adj.HardnessModifier, 2)
	b.CompressionPreKN = core.Round(rnd.Gaussian(3.0, 0.3), 2)
	b.TurretSpeedRPM = core.Round(rnd.Gaussian(45, 3), 1)

	b.TabletWeightMg = core.Round(rnd.Gaussian(500, 5), 1)
	b.TabletThicknessMm = core.Round(rnd.Gaussian(4.5, 0.1), 2)
	b.TabletHardnessN = core.Round(rnd.Gaussian(120+adj.HardnessModifier*5, 10), 1)
	b.FriabilityPct = core.Round(rnd.Exponential(0.3), 3)
	b.DisintegrationMin = core.Round(rnd.Gaussian(8, 2), 1)

	b.TheoreticalYield = int(b.APIWeightKg * 1000 / 0.5 * 1000)
	b.YieldPercent = core.Clamp(core.Round(rnd.Gaussian(98.5+adj.YieldModifier, 1.0), 2), 90.0, 100.0)
	b.ActualYield = int(float64(b.TheoreticalYield) * b.YieldPercent / 100)

	b.RejectCount = int(rnd.Exponential(50))
	b.RejectReason = "None"
	if b.RejectCount > 10 {
		b.RejectReason = g.pick(c.RejectReasons)
	}

	if rnd.Bool(0.02) {
		b.HasDeviation = true
		b.DeviationID = fmt.Sprintf("DEV-%d-%03d", day.Year(), rnd.UniformInt(1, 999))
		b.DeviationType = g.pick(c.DeviationTypes)
	}

	b.RoomTempC = core.Round(rnd.Gaussian(22, 1), 1)
	b.RoomHumidityPct = core.Round(rnd.Gaussian(45, 5), 1)
	b.DiffPressurePa = core.Round(rnd.Gaussian(15, 2), 1)

	b.ProcessTimeHours = core.Round(rnd.Gaussian(8, 1), 2)
	b.End = b.Start.Add(time.Duration(b.ProcessTimeHours * float64(time.Hour)))

	return b
}

// ManufacturingTable wraps batches as a Table.
func ManufacturingTable(rows []ManufacturingBatch) Table {
	return newTable(core.DataTypeManufacturing, manufacturingColumns, rows)
}
