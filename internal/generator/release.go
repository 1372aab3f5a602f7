package generator

import (
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// Release dispositions.
const (
	Released              = "Released"
	ReleasedWithDeviation = "Released with deviation"
	Rejected              = "Rejected"
)

var batchReleaseColumns = []string{
	"batch_id", "product_name", "product_code", "manufacturing_date",
	"qp_id", "qp_name", "review_start_date", "qc_complete_date",
	"release_date", "disposition", "days_to_release", "has_deviation",
	"has_oos", "yield_percent", "market_destination", "batch_size_kg",
}

// BatchRelease is the QP certification decision for a batch.
type BatchRelease struct {
	BatchID           string
	ProductName       string
	ProductCode       string
	ManufacturingDate time.Time
	QPID              string
	QPName            string
	ReviewStartDate   time.Time
	QCCompleteDate    time.Time
	ReleaseDate       *time.Time
	Disposition       string
	DaysToRelease     *int
	HasDeviation      bool
	HasOOS            bool
	YieldPercent      float64
	Market            string
	BatchSizeKg       float64
}

// Values implements Record.
func (r BatchRelease) Values() []string {
	return []string{
		r.BatchID, r.ProductName, r.ProductCode, fmtDate(r.ManufacturingDate),
		r.QPID, r.QPName, fmtDate(r.ReviewStartDate), fmtDate(r.QCCompleteDate),
		fmtOptDate(r.ReleaseDate), r.Disposition, fmtOptInt(r.DaysToRelease), yesNo(r.HasDeviation),
		yesNo(r.HasOOS), fmtFloat(r.YieldPercent), r.Market, fmtFloat(r.BatchSizeKg),
	}
}

// BatchRelease decides disposition for every batch that has a QC result.
// Batches without one are skipped.
func (g *Generator) BatchRelease(batches []ManufacturingBatch, results []QCResult) []BatchRelease {
	g.reset()

	qcByBatch := make(map[string]QCResult, len(results))
	for _, q := range results {
		if _, ok := qcByBatch[q.BatchID]; !ok {
			qcByBatch[q.BatchID] = q
		}
	}

	var releases []BatchRelease
	for _, b := range batches {
		q, ok := qcByBatch[b.BatchID]
		if !ok {
			continue
		}
		releases = append(releases, g.certify(b, q))
	}
	return releases
}

func (g *Generator) certify(b ManufacturingBatch, q QCResult) BatchRelease {
	c := g.catalog
	rnd := g.rnd

	review := q.TestDate.AddDate(0, 0, rnd.UniformInt(1, 3))
	complete := review.AddDate(0, 0, rnd.UniformInt(1, 2))

	r := BatchRelease{
		BatchID:           b.BatchID,
		ProductName:       b.ProductName,
		ProductCode:       b.ProductCode,
		ManufacturingDate: b.ManufacturingDate,
		ReviewStartDate:   review,
		QCCompleteDate:    complete,
		HasDeviation:      b.HasDeviation,
		HasOOS:            !q.Passed(),
		YieldPercent:      b.YieldPercent,
		BatchSizeKg:       b.BatchSizeKg,
	}

	switch {
	case r.HasOOS:
		r.Disposition = core.ChooseWeighted(rnd, []string{Rejected, ReleasedWithDeviation}, []float64{0.7, 0.3})
	case r.HasDeviation:
		r.Disposition = core.ChooseWeighted(rnd, []string{Released, ReleasedWithDeviation}, []float64{0.8, 0.2})
	default:
		r.Disposition = Released
	}

	if r.Disposition != Rejected {
		released := complete.AddDate(0, 0, rnd.UniformInt(1, 5))
		r.ReleaseDate = timePtr(released)
		r.DaysToRelease = intPtr(core.DaysBetween(b.ManufacturingDate, released))
	}

	r.QPID = g.pick(c.QualifiedPeople)
	r.QPName = rnd.Name()
	r.Market = g.pick(c.Markets)
	return r
}

// BatchReleaseTable wraps release decisions as a Table.
func BatchReleaseTable(rows []BatchRelease) Table {
	return newTable(core.DataTypeBatchRelease, batchReleaseColumns, rows)
}
