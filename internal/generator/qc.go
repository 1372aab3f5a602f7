package generator

import (
	"math"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/scenario"
)

// DissolutionVessels is the number of vessels per dissolution run.
const DissolutionVessels = 6

const contentUniformityUnits = 10

var qcColumns = []string{
	"sample_id", "batch_id", "test_date", "product_name", "product_code",
	"analyst_chemical", "analyst_physical", "hplc_system", "dissolution_apparatus",
	"id_ir_result", "id_hplc_rt_min", "assay_percent", "assay_result",
	"dissolution_vessel_1", "dissolution_vessel_2", "dissolution_vessel_3",
	"dissolution_vessel_4", "dissolution_vessel_5", "dissolution_vessel_6",
	"dissolution_mean", "dissolution_min", "dissolution_result",
	"cu_acceptance_value", "cu_result",
	"impurity_a_pct", "impurity_b_pct", "total_impurities_pct", "impurities_result",
	"hardness_mean_kp", "friability_pct", "disintegration_max_min",
	"weight_mean_mg", "weight_rsd_pct",
	"tamc_cfu_g", "tymc_cfu_g", "micro_result",
	"overall_result", "comments",
}

// QCResult is the release testing record of one batch.
type QCResult struct {
	SampleID             string
	BatchID              string
	TestDate             time.Time
	ProductName          string
	ProductCode          string
	AnalystChemical      string
	AnalystPhysical      string
	HPLCSystem           string
	DissolutionApparatus string

	IdentityIR      string
	RetentionTime   float64
	AssayPercent    float64
	AssayResult     string
	Vessels         [DissolutionVessels]float64
	DissolutionMean float64
	DissolutionMin  float64
	DissolutionPass string

	CUAcceptanceValue float64
	CUResult          string
	ImpurityA         float64
	ImpurityB         float64
	TotalImpurities   float64
	ImpuritiesResult  string

	HardnessMeanKp    float64
	FriabilityPct     float64
	DisintegrationMax float64
	WeightMeanMg      float64
	WeightRSDPct      float64

	TAMC          int
	TYMC          int
	MicroResult   string
	OverallResult string
	Comments      string
}

// Passed reports whether the overall result is Pass.
func (q QCResult) Passed() bool {
	return q.OverallResult == "Pass"
}

// Values implements Record.
func (q QCResult) Values() []string {
	v := []string{
		q.SampleID, q.BatchID, fmtDate(q.TestDate), q.ProductName, q.ProductCode,
		q.AnalystChemical, q.AnalystPhysical, q.HPLCSystem, q.DissolutionApparatus,
		q.IdentityIR, fmtFloat(q.RetentionTime), fmtFloat(q.AssayPercent), q.AssayResult,
	}
	for _, vessel := range q.Vessels {
		v = append(v, fmtFloat(vessel))
	}
	return append(v,
		fmtFloat(q.DissolutionMean), fmtFloat(q.DissolutionMin), q.DissolutionPass,
		fmtFloat(q.CUAcceptanceValue), q.CUResult,
		fmtFloat(q.ImpurityA), fmtFloat(q.ImpurityB), fmtFloat(q.TotalImpurities), q.ImpuritiesResult,
		fmtFloat(q.HardnessMeanKp), fmtFloat(q.FriabilityPct), fmtFloat(q.DisintegrationMax),
		fmtFloat(q.WeightMeanMg), fmtFloat(q.WeightRSDPct),
		fmtInt(q.TAMC), fmtInt(q.TYMC), q.MicroResult,
		q.OverallResult, q.Comments,
	)
}

// QC generates exactly one test record per manufactured batch.
func (g *Generator) QC(batches []ManufacturingBatch) []QCResult {
	g.reset()

	results := make([]QCResult, 0, len(batches))
	for _, b := range batches {
		results = append(results, g.testBatch(b))
	}
	return results
}

func (g *Generator) testBatch(b ManufacturingBatch) QCResult {
	c := g.catalog
	rnd := g.rnd

	testDate := b.ManufacturingDate.AddDate(0, 0, rnd.UniformInt(1, 3))
	adj := g.scenarios.For(testDate, b.TabletPress)

	q := QCResult{
		SampleID:    "QC-" + b.BatchID,
		BatchID:     b.BatchID,
		TestDate:    testDate,
		ProductName: b.ProductName,
		ProductCode: b.ProductCode,
	}
	q.AnalystChemical, q.AnalystPhysical = core.ChooseDistinct(rnd, c.QCAnalysts)
	q.HPLCSystem = g.pick(c.HPLCSystems)
	q.DissolutionApparatus = g.pick(c.Dissolution)

	q.IdentityIR = "Conforms"
	if !rnd.Bool(0.999) {
		q.IdentityIR = "Does Not Conform"
	}
	q.RetentionTime = core.Round(rnd.Gaussian(8.5, 0.1), 3)

	assayCenter := 100.0
	if adj.Has(scenario.MethodTransition) {
		assayCenter = 101.5
	}
	q.AssayPercent = core.Round(rnd.Gaussian(assayCenter, 1.5), 2)
	assayOK := q.AssayPercent >= 95.0 && q.AssayPercent <= 105.0
	q.AssayResult = passFail(assayOK)

	center := 92.0 + adj.DissolutionModifier
	for i := range q.Vessels {
		q.Vessels[i] = core.Round(rnd.Gaussian(center, 3.0), 1)
	}
	q.DissolutionMean, q.DissolutionMin = vesselStats(q.Vessels)
	dissolutionOK := q.DissolutionMin >= 75.0
	q.DissolutionPass = passFail(dissolutionOK)

	var units [contentUniformityUnits]float64
	for i := range units {
		units[i] = core.Round(rnd.Gaussian(100, 2), 1)
	}
	q.CUAcceptanceValue = core.Round(acceptanceValue(units[:]), 1)
	cuOK := q.CUAcceptanceValue <= 15.0
	q.CUResult = passFail(cuOK)

	q.ImpurityA = core.Round(rnd.Exponential(0.05), 3)
	q.ImpurityB = core.Round(rnd.Exponential(0.03), 3)
	q.TotalImpurities = core.Round(q.ImpurityA+q.ImpurityB+rnd.Exponential(0.02), 3)
	impuritiesOK := q.TotalImpurities <= 1.0
	q.ImpuritiesResult = passFail(impuritiesOK)

	q.HardnessMeanKp = core.Round(rnd.Gaussian(12.0+adj.HardnessModifier*0.5, 1), 1)
	q.FriabilityPct = core.Round(rnd.Exponential(0.3), 2)
	q.DisintegrationMax = core.Round(rnd.Gaussian(8, 2), 1)
	q.WeightMeanMg = core.Round(rnd.Gaussian(500, 3), 1)
	q.WeightRSDPct = core.Round(rnd.Exponential(1.0), 2)

	q.TAMC = int(rnd.Exponential(50))
	q.TYMC = int(rnd.Exponential(20))
	microOK := q.TAMC < 1000 && q.TYMC < 100
	q.MicroResult = passFail(microOK)

	pass := assayOK && dissolutionOK && cuOK && impuritiesOK && microOK &&
		q.FriabilityPct < 1.0 && q.DisintegrationMax < 15
	q.OverallResult = passFail(pass)
	if !pass {
		q.Comments = "Investigation required"
	}
	return q
}

// vesselStats returns the arithmetic mean and minimum of the vessel values.
func vesselStats(vessels [DissolutionVessels]float64) (mean, min float64) {
	sum := 0.0
	min = math.Inf(1)
	for _, v := range vessels {
		sum += v
		if v < min {
			min = v
		}
	}
	return sum / DissolutionVessels, min
}

// acceptanceValue is the USP <905> style AV: |mean - 100| + 2.4 * population stddev.
func acceptanceValue(values []float64) float64 {
	n := float64(len(values))
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Abs(mean-100) + 2.4*math.Sqrt(ss/n)
}

// QCTable wraps results as a Table.
func QCTable(rows []QCResult) Table {
	return newTable(core.DataTypeQC, qcColumns, rows)
}
