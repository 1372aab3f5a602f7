package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/catalog"
	"github.com/sebastiankruger/apr-datagen/internal/core"
)

var capaColumns = []string{
	"capa_id", "capa_type", "source", "source_reference", "open_date",
	"problem_statement", "problem_category", "risk_score", "rca_method",
	"root_cause_category", "root_cause_description", "responsible_department",
	"capa_owner", "target_date", "actual_completion_date", "days_to_close",
	"status", "effectiveness_verified", "num_actions",
}

// CAPA is a corrective and preventive action record.
type CAPA struct {
	CAPAID                string
	CAPAType              string
	Source                string
	SourceReference       string
	OpenDate              time.Time
	ProblemStatement      string
	ProblemCategory       string
	RiskScore             string
	RCAMethod             string
	RootCauseCategory     string
	RootCauseDescription  string
	ResponsibleDepartment string
	Owner                 string
	TargetDate            time.Time
	CompletionDate        *time.Time
	DaysToClose           *int
	Status                string
	EffectivenessVerified string
	NumActions            int
}

// Closed reports whether the CAPA has been closed.
func (c CAPA) Closed() bool {
	return strings.HasPrefix(c.Status, "Closed")
}

// Values implements Record.
func (c CAPA) Values() []string {
	return []string{
		c.CAPAID, c.CAPAType, c.Source, c.SourceReference, fmtDate(c.OpenDate),
		c.ProblemStatement, c.ProblemCategory, c.RiskScore, c.RCAMethod,
		c.RootCauseCategory, c.RootCauseDescription, c.ResponsibleDepartment,
		c.Owner, fmtDate(c.TargetDate), fmtOptDate(c.CompletionDate), fmtOptInt(c.DaysToClose),
		c.Status, c.EffectivenessVerified, fmtInt(c.NumActions),
	}
}

// CAPAs opens floor(baseCount x CAPA modifier) records per calendar month,
// starting with the month containing start.
func (g *Generator) CAPAs(start, end time.Time, baseCount int) []CAPA {
	g.reset()

	var capas []CAPA
	seq := 1
	today := g.today()
	last := core.Day(end)

	for month := core.Date(start.Year(), start.Month(), 1); !month.After(last); month = month.AddDate(0, 1, 0) {
		adj := g.scenarios.For(month, "")
		count := int(float64(baseCount) * adj.CAPARateModifier)
		for i := 0; i < count; i++ {
			capas = append(capas, g.openCAPA(month, seq, today))
			seq++
		}
	}
	return capas
}

func (g *Generator) openCAPA(month time.Time, seq int, today time.Time) CAPA {
	c := g.catalog
	rnd := g.rnd

	open := core.Date(month.Year(), month.Month(), rnd.UniformInt(1, 28))
	year := open.Year()

	capa := CAPA{
		CAPAID:   fmt.Sprintf("CAPA-%d-%04d", year, seq),
		OpenDate: open,
		Source:   g.pickWeighted(c.CAPASources),
	}

	switch capa.Source {
	case "Deviation":
		capa.SourceReference = fmt.Sprintf("DEV-%d-%04d", year, rnd.UniformInt(1, 500))
	case "Customer Complaint":
		capa.SourceReference = fmt.Sprintf("CMP-%d-%05d", year, rnd.UniformInt(1, 200))
	case "OOS Investigation":
		capa.SourceReference = fmt.Sprintf("OOS-%d-%03d", year, rnd.UniformInt(1, 100))
	default:
		capa.SourceReference = fmt.Sprintf("REF-%d-%03d", year, rnd.UniformInt(1, 50))
	}

	capa.CAPAType = g.pick(c.CAPATypes)
	capa.ProblemCategory = g.pick(c.ProblemCategories)
	capa.ProblemStatement = rnd.Sentence(12)
	capa.RootCauseCategory = g.pick(c.RootCauseCategories)
	capa.RootCauseDescription = rnd.Sentence(15)
	capa.RCAMethod = g.pick(c.RCAMethods)
	capa.RiskScore = g.pickWeighted(c.RiskScores)
	capa.ResponsibleDepartment = g.pick(c.Departments)
	capa.Owner = g.pick(catalog.Head(c.Operators, 20))
	capa.TargetDate = open.AddDate(0, 0, rnd.UniformInt(30, 90))

	age := core.DaysBetween(open, today)
	switch {
	case age > 120:
		capa.Status = core.ChooseWeighted(rnd, []string{"Closed - Effective", "Closed - Not Effective"}, []float64{0.9, 0.1})
		capa.complete(capa.TargetDate.AddDate(0, 0, rnd.UniformInt(-10, 30)))
		capa.EffectivenessVerified = "Yes"
	case age > 60:
		capa.Status = core.ChooseWeighted(rnd, []string{"Closed - Effective", "Implementation", "Verification"}, []float64{0.6, 0.2, 0.2})
		capa.EffectivenessVerified = "Pending"
		if capa.Closed() {
			capa.complete(capa.TargetDate.AddDate(0, 0, rnd.UniformInt(-10, 20)))
			capa.EffectivenessVerified = "Yes"
		}
	default:
		capa.Status = g.pick([]string{"Open", "Implementation", "Root Cause Analysis"})
		capa.EffectivenessVerified = "Pending"
	}

	capa.NumActions = rnd.UniformInt(1, 5)
	return capa
}

func (c *CAPA) complete(on time.Time) {
	c.CompletionDate = timePtr(on)
	c.DaysToClose = intPtr(core.DaysBetween(c.OpenDate, on))
}

// CAPATable wraps CAPAs as a Table.
func CAPATable(rows []CAPA) Table {
	return newTable(core.DataTypeCAPA, capaColumns, rows)
}
