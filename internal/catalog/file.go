package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML overlay and applies it on top of the default catalog.
// Sections absent from the file keep their defaults.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse applies YAML overlay data on top of the default catalog.
func Parse(data []byte) (*Catalog, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the pools the generators need are usable.
func (c *Catalog) Validate() error {
	switch {
	case len(c.Products) == 0:
		return fmt.Errorf("catalog: at least one product required")
	case len(c.TabletPresses) == 0 || len(c.Granulators) == 0 || len(c.Dryers) == 0 || len(c.Blenders) == 0:
		return fmt.Errorf("catalog: equipment pools must not be empty")
	case len(c.Operators) < 20:
		return fmt.Errorf("catalog: at least 20 operators required, got %d", len(c.Operators))
	case len(c.QCAnalysts) < 20:
		return fmt.Errorf("catalog: at least 20 QC analysts required, got %d", len(c.QCAnalysts))
	case len(c.QualifiedPeople) == 0 || len(c.HPLCSystems) == 0 || len(c.Dissolution) == 0:
		return fmt.Errorf("catalog: QP, HPLC and dissolution pools must not be empty")
	case len(c.Shifts) == 0:
		return fmt.Errorf("catalog: at least one shift required")
	case len(c.Rooms) == 0 || len(c.SamplingHours) == 0:
		return fmt.Errorf("catalog: rooms and sampling hours required")
	case len(c.Suppliers) == 0 || len(c.Materials) == 0 || len(c.Markets) == 0:
		return fmt.Errorf("catalog: suppliers, materials and markets required")
	case len(c.ComplaintCategories) == 0:
		return fmt.Errorf("catalog: complaint categories required")
	case len(c.Instruments) == 0 || len(c.StabilityConditions) == 0:
		return fmt.Errorf("catalog: instruments and stability conditions required")
	}
	pools := []struct {
		name  string
		items []string
	}{
		{"complaint_root_causes", c.ComplaintRootCauses},
		{"investigation_outcomes", c.InvestigationOutcomes},
		{"capa_types", c.CAPATypes},
		{"problem_categories", c.ProblemCategories},
		{"root_cause_categories", c.RootCauseCategories},
		{"rca_methods", c.RCAMethods},
		{"departments", c.Departments},
		{"reject_reasons", c.RejectReasons},
		{"deviation_types", c.DeviationTypes},
	}
	for _, p := range pools {
		if len(p.items) == 0 {
			return fmt.Errorf("catalog: %s must not be empty", p.name)
		}
	}
	for _, cat := range c.ComplaintCategories {
		if len(cat.Descriptions) == 0 {
			return fmt.Errorf("catalog: complaint category %q needs descriptions", cat.Name)
		}
	}
	tables := []struct {
		name  string
		items []Weighted
	}{
		{"complaint_severity", c.ComplaintSeverity},
		{"adverse_event_severity", c.AdverseEventSeverity},
		{"reporter_types", c.ReporterTypes},
		{"capa_sources", c.CAPASources},
		{"risk_scores", c.RiskScores},
	}
	for _, t := range tables {
		if err := validateWeights(t.name, t.items); err != nil {
			return err
		}
	}
	for _, p := range c.Products {
		if p.Prefix == "" || p.Code == "" {
			return fmt.Errorf("catalog: product %q needs a code and prefix", p.Name)
		}
	}
	for _, s := range c.Suppliers {
		if len(s.ID) < 3 {
			return fmt.Errorf("catalog: supplier id %q too short", s.ID)
		}
	}
	for _, in := range c.Instruments {
		if in.FrequencyDays <= 0 {
			return fmt.Errorf("catalog: instrument %s needs a positive frequency", in.ID)
		}
	}
	return nil
}

// validateWeights requires a non-empty table with non-negative weights and a
// positive total.
func validateWeights(name string, ws []Weighted) error {
	if len(ws) == 0 {
		return fmt.Errorf("catalog: %s must not be empty", name)
	}
	total := 0.0
	for _, w := range ws {
		if w.Weight < 0 {
			return fmt.Errorf("catalog: %s weight of %q is negative", name, w.Value)
		}
		total += w.Weight
	}
	if total <= 0 {
		return fmt.Errorf("catalog: %s weights must sum to more than zero", name)
	}
	return nil
}
