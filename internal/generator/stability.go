package generator

import (
	"fmt"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/catalog"
	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// daysPerMonth converts stability timepoints to calendar offsets.
const daysPerMonth = 30

var stabilityColumns = []string{
	"study_id", "batch_id", "stability_condition", "storage_temp_c", "storage_rh_pct",
	"timepoint_months", "test_date", "assay_percent", "dissolution_pct",
	"total_impurities_pct", "water_content_pct", "appearance", "overall_result", "analyst",
}

// StabilityResult is one pull of a stability study.
type StabilityResult struct {
	StudyID         string
	BatchID         string
	Condition       string
	StorageTempC    int
	StorageRHPct    int
	TimepointMonths int
	TestDate        time.Time
	AssayPercent    float64
	DissolutionPct  float64
	TotalImpurities float64
	WaterContentPct float64
	Appearance      string
	Analyst         string
}

// InSpec reports whether assay, dissolution and impurities are within limits.
func (s StabilityResult) InSpec() bool {
	return s.AssayPercent >= 95.0 && s.AssayPercent <= 105.0 &&
		s.DissolutionPct >= 80.0 && s.TotalImpurities <= 1.0
}

// Values implements Record.
func (s StabilityResult) Values() []string {
	return []string{
		s.StudyID, s.BatchID, s.Condition, fmtInt(s.StorageTempC), fmtInt(s.StorageRHPct),
		fmtInt(s.TimepointMonths), fmtDate(s.TestDate), fmtFloat(s.AssayPercent), fmtFloat(s.DissolutionPct),
		fmtFloat(s.TotalImpurities), fmtFloat(s.WaterContentPct), s.Appearance, passFail(s.InSpec()), s.Analyst,
	}
}

// SelectStabilityBatches picks every k-th batch id, k = max(1, n / (perStudy*4)),
// keeping at most perStudy*4 of them.
func SelectStabilityBatches(batchIDs []string, perStudy int) []string {
	limit := perStudy * 4
	if limit <= 0 {
		return nil
	}
	step := len(batchIDs) / limit
	if step < 1 {
		step = 1
	}
	var selected []string
	for i := 0; i < len(batchIDs) && len(selected) < limit; i += step {
		selected = append(selected, batchIDs[i])
	}
	return selected
}

// Stability runs one study per selected batch and storage condition, with
// values degrading linearly in the months since manufacture.
func (g *Generator) Stability(batches []ManufacturingBatch, batchesPerStudy int) []StabilityResult {
	g.reset()

	byID := make(map[string]ManufacturingBatch, len(batches))
	ids := make([]string, 0, len(batches))
	for _, b := range batches {
		if _, seen := byID[b.BatchID]; !seen {
			ids = append(ids, b.BatchID)
		}
		byID[b.BatchID] = b
	}

	var results []StabilityResult
	seq := 1
	for _, id := range SelectStabilityBatches(ids, batchesPerStudy) {
		b, ok := byID[id]
		if !ok {
			continue
		}
		for _, cond := range g.catalog.StabilityConditions {
			studyID := fmt.Sprintf("STAB-%d-%04d", b.ManufacturingDate.Year(), seq)
			for _, tp := range cond.Timepoints {
				results = append(results, g.pullSample(studyID, b, cond, tp))
			}
			seq++
		}
	}
	return results
}

func (g *Generator) pullSample(studyID string, b ManufacturingBatch, cond catalog.StabilityCondition, months int) StabilityResult {
	rnd := g.rnd
	decay := cond.DegradationRate * float64(months)

	s := StabilityResult{
		StudyID:         studyID,
		BatchID:         b.BatchID,
		Condition:       cond.Name,
		StorageTempC:    cond.TemperatureC,
		StorageRHPct:    cond.HumidityPct,
		TimepointMonths: months,
		TestDate:        b.ManufacturingDate.AddDate(0, 0, months*daysPerMonth),
		AssayPercent:    core.Round(100.0-decay+rnd.Gaussian(0, 0.5), 2),
		DissolutionPct:  core.Round(92.0-decay*0.5+rnd.Gaussian(0, 1), 1),
		TotalImpurities: core.Round(0.1+decay*0.3+rnd.Exponential(0.02), 3),
		WaterContentPct: core.Round(2.0+decay*0.1+rnd.Gaussian(0, 0.1), 2),
	}
	s.Appearance = "White, round tablets"
	if s.AssayPercent <= 95 {
		s.Appearance = "Slight yellowing observed"
	}
	s.Analyst = g.pick(g.catalog.QCAnalysts)
	return s
}

// StabilityTable wraps stability pulls as a Table.
func StabilityTable(rows []StabilityResult) Table {
	return newTable(core.DataTypeStability, stabilityColumns, rows)
}
