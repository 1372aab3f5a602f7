package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

const adverseEvent = "Adverse Event"

var complaintColumns = []string{
	"complaint_id", "complaint_date", "batch_id", "product_name", "product_code",
	"category", "description", "severity", "market", "reporter_type",
	"investigation_required", "root_cause", "investigation_outcome",
	"regulatory_reportable", "capa_reference", "status", "days_to_close",
}

// Complaint is a market complaint raised against a batch.
type Complaint struct {
	ComplaintID           string
	ComplaintDate         time.Time
	BatchID               string
	ProductName           string
	ProductCode           string
	Category              string
	Description           string
	Severity              string
	Market                string
	ReporterType          string
	InvestigationRequired bool
	RootCause             string
	InvestigationOutcome  string
	RegulatoryReportable  bool
	CAPAReference         string
	Status                string
	DaysToClose           *int
}

// Values implements Record.
func (c Complaint) Values() []string {
	return []string{
		c.ComplaintID, fmtDate(c.ComplaintDate), c.BatchID, c.ProductName, c.ProductCode,
		c.Category, c.Description, c.Severity, c.Market, c.ReporterType,
		yesNo(c.InvestigationRequired), c.RootCause, c.InvestigationOutcome,
		yesNo(c.RegulatoryReportable), c.CAPAReference, c.Status, fmtOptInt(c.DaysToClose),
	}
}

// Complaints draws a Bernoulli trial per batch with probability
// rate x the complaint modifier active on the manufacturing date.
func (g *Generator) Complaints(batches []ManufacturingBatch, rate float64) []Complaint {
	g.reset()

	var complaints []Complaint
	seq := 1
	today := g.today()

	for _, b := range batches {
		adj := g.scenarios.For(b.ManufacturingDate, "")
		if !g.rnd.Bool(rate * adj.ComplaintRateModifier) {
			continue
		}
		complaints = append(complaints, g.raiseComplaint(b, seq, today))
		seq++
	}
	return complaints
}

func (g *Generator) raiseComplaint(b ManufacturingBatch, seq int, today time.Time) Complaint {
	c := g.catalog
	rnd := g.rnd

	date := b.ManufacturingDate.AddDate(0, 0, rnd.UniformInt(2, 90))
	category := core.Choose(rnd, c.ComplaintCategories)

	cmp := Complaint{
		ComplaintID:   fmt.Sprintf("CMP-%d-%05d", date.Year(), seq),
		ComplaintDate: date,
		BatchID:       b.BatchID,
		ProductName:   b.ProductName,
		ProductCode:   b.ProductCode,
		Category:      category.Name,
		Description:   g.pick(category.Descriptions),
	}

	if category.Name == adverseEvent {
		cmp.Severity = g.pickWeighted(c.AdverseEventSeverity)
	} else {
		cmp.Severity = g.pickWeighted(c.ComplaintSeverity)
	}
	cmp.Market = g.pick(c.Markets)
	cmp.ReporterType = g.pickWeighted(c.ReporterTypes)

	cmp.InvestigationRequired = cmp.Severity == "Critical" || cmp.Severity == "Major" || rnd.Bool(0.5)
	if cmp.InvestigationRequired {
		cmp.RootCause = g.pick(c.ComplaintRootCauses)
		cmp.InvestigationOutcome = g.pick(c.InvestigationOutcomes)
	} else {
		cmp.InvestigationOutcome = "Not investigated"
	}

	cmp.RegulatoryReportable = category.Name == adverseEvent && cmp.Severity == "Critical"
	if strings.Contains(cmp.InvestigationOutcome, "CAPA") {
		cmp.CAPAReference = fmt.Sprintf("CAPA-%d-%03d", date.Year(), rnd.UniformInt(1, 200))
	}

	age := core.DaysBetween(date, today)
	switch {
	case age > 60:
		cmp.Status = "Closed"
	case age > 30:
		cmp.Status = core.Choose(rnd, []string{"Closed", "Under Investigation"})
	default:
		cmp.Status = core.Choose(rnd, []string{"Open", "Under Investigation"})
	}
	if cmp.Status == "Closed" {
		cmp.DaysToClose = intPtr(rnd.UniformInt(5, 45))
	}
	return cmp
}

// ComplaintTable wraps complaints as a Table.
func ComplaintTable(rows []Complaint) Table {
	return newTable(core.DataTypeComplaints, complaintColumns, rows)
}
