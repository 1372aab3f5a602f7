package generator

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// Request describes one generation run. Zero values of the optional knobs
// fall back to the package defaults.
type Request struct {
	Start           time.Time
	End             time.Time
	BatchesPerDay   int
	DataTypes       []core.DataType // empty selects every type
	Product         int
	ComplaintRate   float64
	CAPABaseCount   int
	ReadingsPerDay  int
	BatchesPerStudy int
	ReceiptsPerWeek int
}

func (r Request) withDefaults() Request {
	if r.ComplaintRate <= 0 {
		r.ComplaintRate = DefaultComplaintRate
	}
	if r.CAPABaseCount <= 0 {
		r.CAPABaseCount = DefaultCAPABaseCount
	}
	if r.ReadingsPerDay <= 0 {
		r.ReadingsPerDay = DefaultReadingsPerDay
	}
	if r.BatchesPerStudy <= 0 {
		r.BatchesPerStudy = DefaultBatchesPerStudy
	}
	if r.ReceiptsPerWeek <= 0 {
		r.ReceiptsPerWeek = DefaultReceiptsPerWeek
	}
	return r
}

// Validate checks the period, batch count and data type names.
func (r Request) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s is before start %s", core.ErrInvalidPeriod,
			r.End.Format(core.DateLayout), r.Start.Format(core.DateLayout))
	}
	if r.BatchesPerDay < 1 {
		return fmt.Errorf("batches per day must be at least 1, got %d", r.BatchesPerDay)
	}
	_, err := core.ParseDataTypes(typeNames(r.DataTypes))
	return err
}

func typeNames(types []core.DataType) []string {
	names := make([]string, len(types))
	for i, dt := range types {
		names[i] = string(dt)
	}
	return names
}

// Dataset holds the generated tables of one run. Only requested tables are
// exposed by Tables; upstream tables computed as inputs stay internal.
type Dataset struct {
	Start     time.Time
	End       time.Time
	Seed      int64
	Requested []core.DataType

	Manufacturing []ManufacturingBatch
	QC            []QCResult
	Complaints    []Complaint
	CAPA          []CAPA
	Environmental []EnvironmentalReading
	Equipment     []Calibration
	Stability     []StabilityResult
	RawMaterials  []RawMaterialReceipt
	BatchRelease  []BatchRelease
}

// Table returns the table of dt.
func (d *Dataset) Table(dt core.DataType) Table {
	switch dt {
	case core.DataTypeManufacturing:
		return ManufacturingTable(d.Manufacturing)
	case core.DataTypeQC:
		return QCTable(d.QC)
	case core.DataTypeComplaints:
		return ComplaintTable(d.Complaints)
	case core.DataTypeCAPA:
		return CAPATable(d.CAPA)
	case core.DataTypeEnvironmental:
		return EnvironmentalTable(d.Environmental)
	case core.DataTypeEquipment:
		return CalibrationTable(d.Equipment)
	case core.DataTypeStability:
		return StabilityTable(d.Stability)
	case core.DataTypeRawMaterials:
		return RawMaterialTable(d.RawMaterials)
	case core.DataTypeBatchRelease:
		return BatchReleaseTable(d.BatchRelease)
	}
	return nil
}

// Tables returns the requested tables in canonical order.
func (d *Dataset) Tables() []Table {
	tables := make([]Table, 0, len(d.Requested))
	for _, dt := range d.Requested {
		tables = append(tables, d.Table(dt))
	}
	return tables
}

// Counts returns the row count of every requested table.
func (d *Dataset) Counts() map[core.DataType]int {
	counts := make(map[core.DataType]int, len(d.Requested))
	for _, t := range d.Tables() {
		counts[t.Type()] = t.Len()
	}
	return counts
}

// Total returns the number of rows across the requested tables.
func (d *Dataset) Total() int {
	total := 0
	for _, n := range d.Counts() {
		total += n
	}
	return total
}

// upstream lists the tables a data type is derived from.
var upstream = map[core.DataType][]core.DataType{
	core.DataTypeQC:           {core.DataTypeManufacturing},
	core.DataTypeComplaints:   {core.DataTypeManufacturing},
	core.DataTypeStability:    {core.DataTypeManufacturing},
	core.DataTypeBatchRelease: {core.DataTypeManufacturing, core.DataTypeQC},
}

func closure(requested []core.DataType) map[core.DataType]bool {
	need := make(map[core.DataType]bool)
	var visit func(dt core.DataType)
	visit = func(dt core.DataType) {
		if need[dt] {
			return
		}
		need[dt] = true
		for _, up := range upstream[dt] {
			visit(up)
		}
	}
	for _, dt := range requested {
		visit(dt)
	}
	return need
}

// Generate runs the entity generators in dependency order, producing the
// requested tables and whatever they are derived from.
func (g *Generator) Generate(req Request) (*Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	g.reset()
	requested, _ := core.ParseDataTypes(typeNames(req.DataTypes))
	req = req.withDefaults()
	need := closure(requested)

	start, end := core.Day(req.Start), core.Day(req.End)
	ds := &Dataset{Start: start, End: end, Seed: g.seed, Requested: requested}

	logger := log.With().
		Str("start", start.Format(core.DateLayout)).
		Str("end", end.Format(core.DateLayout)).
		Int64("seed", g.seed).
		Logger()

	if need[core.DataTypeManufacturing] {
		batches, err := g.Manufacturing(start, end, req.BatchesPerDay, req.Product)
		if err != nil {
			return nil, fmt.Errorf("manufacturing: %w", err)
		}
		ds.Manufacturing = batches
		logger.Debug().Int("records", len(batches)).Msg("Generated manufacturing")
	}
	if need[core.DataTypeQC] {
		ds.QC = g.QC(ds.Manufacturing)
		logger.Debug().Int("records", len(ds.QC)).Msg("Generated qc")
	}
	if need[core.DataTypeComplaints] {
		ds.Complaints = g.Complaints(ds.Manufacturing, req.ComplaintRate)
		logger.Debug().Int("records", len(ds.Complaints)).Msg("Generated complaints")
	}
	if need[core.DataTypeStability] {
		ds.Stability = g.Stability(ds.Manufacturing, req.BatchesPerStudy)
		logger.Debug().Int("records", len(ds.Stability)).Msg("Generated stability")
	}
	if need[core.DataTypeBatchRelease] {
		ds.BatchRelease = g.BatchRelease(ds.Manufacturing, ds.QC)
		logger.Debug().Int("records", len(ds.BatchRelease)).Msg("Generated batch_release")
	}
	if need[core.DataTypeCAPA] {
		ds.CAPA = g.CAPAs(start, end, req.CAPABaseCount)
		logger.Debug().Int("records", len(ds.CAPA)).Msg("Generated capa")
	}
	if need[core.DataTypeEnvironmental] {
		ds.Environmental = g.Environmental(start, end, req.ReadingsPerDay)
		logger.Debug().Int("records", len(ds.Environmental)).Msg("Generated environmental")
	}
	if need[core.DataTypeEquipment] {
		ds.Equipment = g.Calibrations(start, end)
		logger.Debug().Int("records", len(ds.Equipment)).Msg("Generated equipment")
	}
	if need[core.DataTypeRawMaterials] {
		ds.RawMaterials = g.RawMaterials(start, end, req.ReceiptsPerWeek)
		logger.Debug().Int("records", len(ds.RawMaterials)).Msg("Generated raw_materials")
	}

	return ds, nil
}

// EstimateRecords approximates row counts without generating anything.
func EstimateRecords(start, end time.Time, batchesPerDay int, types []core.DataType) map[core.DataType]int {
	days := core.DaysBetween(core.Day(start), core.Day(end)) + 1
	if days < 0 {
		days = 0
	}
	batches := days * batchesPerDay

	est := make(map[core.DataType]int, len(types))
	for _, dt := range types {
		switch dt {
		case core.DataTypeManufacturing, core.DataTypeQC, core.DataTypeBatchRelease:
			est[dt] = batches
		case core.DataTypeComplaints:
			est[dt] = int(float64(batches) * DefaultComplaintRate)
		case core.DataTypeCAPA:
			est[dt] = int(float64(days) / 30 * DefaultCAPABaseCount)
		case core.DataTypeEnvironmental:
			est[dt] = days * 6 * DefaultReadingsPerDay
		case core.DataTypeEquipment:
			est[dt] = int(float64(days) / 30 * 13)
		case core.DataTypeStability:
			est[dt] = int(float64(batches) / 20 * 3 * 8)
		case core.DataTypeRawMaterials:
			est[dt] = int(float64(days) / 7 * DefaultReceiptsPerWeek)
		}
	}
	return est
}
