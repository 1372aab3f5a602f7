// Package catalog holds the immutable reference data the generators draw from:
// products, equipment pools, personnel, rooms, suppliers, instruments and the
// categorical vocabularies of the quality system.
package catalog

import "strings"

// Product is a finished dosage form.
type Product struct {
	Name   string `yaml:"name" json:"name"`
	Code   string `yaml:"code" json:"code"`
	Prefix string `yaml:"prefix" json:"prefix"`
}

// Room is a classified cleanroom.
type Room struct {
	Code           string `yaml:"code" json:"code"`
	Name           string `yaml:"name" json:"name"`
	Classification string `yaml:"classification" json:"classification"`
}

// Supplier is an approved material supplier.
type Supplier struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Instrument is a calibrated piece of equipment.
type Instrument struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	Type          string `yaml:"type" json:"type"`
	FrequencyDays int    `yaml:"frequency_days" json:"frequency_days"`
	Criticality   string `yaml:"criticality" json:"criticality"`
}

// ComplaintCategory groups complaint descriptions.
type ComplaintCategory struct {
	Name         string   `yaml:"name" json:"name"`
	Descriptions []string `yaml:"descriptions" json:"descriptions"`
}

// StabilityCondition is an ICH storage condition with its pull schedule.
type StabilityCondition struct {
	Name            string  `yaml:"name" json:"name"`
	TemperatureC    int     `yaml:"temperature_c" json:"temperature_c"`
	HumidityPct     int     `yaml:"humidity_pct" json:"humidity_pct"`
	Timepoints      []int   `yaml:"timepoints" json:"timepoints"`
	DegradationRate float64 `yaml:"degradation_rate" json:"degradation_rate"`
}

// Weighted is a categorical value with a selection weight.
type Weighted struct {
	Value  string  `yaml:"value" json:"value"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Catalog is the full reference data set. Treat it as read-only once built.
type Catalog struct {
	Products        []Product  `yaml:"products"`
	TabletPresses   []string   `yaml:"tablet_presses"`
	Granulators     []string   `yaml:"granulators"`
	Dryers          []string   `yaml:"dryers"`
	Blenders        []string   `yaml:"blenders"`
	Operators       []string   `yaml:"operators"`
	QCAnalysts      []string   `yaml:"qc_analysts"`
	QualifiedPeople []string   `yaml:"qualified_people"`
	HPLCSystems     []string   `yaml:"hplc_systems"`
	Dissolution     []string   `yaml:"dissolution_apparatus"`
	Shifts          []Shift    `yaml:"shifts"`
	Rooms           []Room     `yaml:"rooms"`
	SamplingHours   []int      `yaml:"sampling_hours"`
	Suppliers       []Supplier `yaml:"suppliers"`
	Materials       []string   `yaml:"materials"`
	Markets         []string   `yaml:"markets"`

	ComplaintCategories   []ComplaintCategory `yaml:"complaint_categories"`
	ComplaintSeverity     []Weighted          `yaml:"complaint_severity"`
	AdverseEventSeverity  []Weighted          `yaml:"adverse_event_severity"`
	ReporterTypes         []Weighted          `yaml:"reporter_types"`
	ComplaintRootCauses   []string            `yaml:"complaint_root_causes"`
	InvestigationOutcomes []string            `yaml:"investigation_outcomes"`

	CAPASources         []Weighted `yaml:"capa_sources"`
	CAPATypes           []string   `yaml:"capa_types"`
	ProblemCategories   []string   `yaml:"problem_categories"`
	RootCauseCategories []string   `yaml:"root_cause_categories"`
	RCAMethods          []string   `yaml:"rca_methods"`
	RiskScores          []Weighted `yaml:"risk_scores"`
	Departments         []string   `yaml:"departments"`

	RejectReasons  []string `yaml:"reject_reasons"`
	DeviationTypes []string `yaml:"deviation_types"`

	Instruments         []Instrument         `yaml:"instruments"`
	StabilityConditions []StabilityCondition `yaml:"stability_conditions"`
}

// Default returns the built-in catalog. Each call returns a fresh copy.
func Default() *Catalog {
	return &Catalog{
		Products: []Product{
			{Name: "Paracetamol 500mg Tablets", Code: "PARA-500-TAB", Prefix: "PARA"},
			{Name: "Ibuprofen 400mg Tablets", Code: "IBU-400-TAB", Prefix: "IBU"},
			{Name: "Aspirin 100mg Tablets", Code: "ASP-100-TAB", Prefix: "ASP"},
		},
		TabletPresses:   []string{"Press-A", "Press-B", "Press-C", "Press-D"},
		Granulators:     []string{"Gran-01", "Gran-02", "Gran-03"},
		Dryers:          []string{"FBD-01", "FBD-02", "FBD-03"},
		Blenders:        []string{"Blend-01", "Blend-02", "Blend-03"},
		Operators:       sequence("OP-%03d", 50),
		QCAnalysts:      sequence("QC-%03d", 30),
		QualifiedPeople: sequence("QP-%02d", 9),
		HPLCSystems:     []string{"HPLC-01", "HPLC-02", "HPLC-03", "HPLC-04"},
		Dissolution:     []string{"Diss-01", "Diss-02", "Diss-03"},
		Shifts:          DefaultShifts(),
		Rooms: []Room{
			{Code: "CR-001", Name: "Dispensing Area", Classification: "ISO 8"},
			{Code: "CR-002", Name: "Granulation Suite", Classification: "ISO 8"},
			{Code: "CR-003", Name: "Compression Room A", Classification: "ISO 7"},
			{Code: "CR-004", Name: "Compression Room B", Classification: "ISO 7"},
			{Code: "CR-005", Name: "Packaging Hall", Classification: "ISO 8"},
			{Code: "CR-006", Name: "QC Laboratory", Classification: "ISO 7"},
		},
		SamplingHours: []int{8, 14, 20},
		Suppliers: []Supplier{
			{ID: "SUP-001", Name: "ChemPharma Inc."},
			{ID: "SUP-002", Name: "ExcipientCorp"},
			{ID: "SUP-003", Name: "BinderSolutions"},
			{ID: "SUP-004", Name: "CoatingMasters"},
			{ID: "SUP-005", Name: "PackagingPro"},
			{ID: "SUP-006", Name: "GlobalAPI Ltd."},
		},
		Materials: []string{
			"Paracetamol API", "Ibuprofen API", "Aspirin API",
			"MCC (Microcrystalline Cellulose)", "Lactose Monohydrate", "Pregelatinized Starch",
			"PVP K30 (Povidone)", "HPMC (Hypromellose)", "Magnesium Stearate",
			"Colloidal Silicon Dioxide", "Croscarmellose Sodium", "Opadry Coating",
		},
		Markets: []string{
			"USA", "Canada", "UK", "Germany", "France", "Australia",
			"Japan", "Brazil", "India", "Mexico", "Spain", "Italy",
		},
		ComplaintCategories: []ComplaintCategory{
			{Name: "Product Quality", Descriptions: []string{
				"Broken tablets", "Discolored tablets", "Chipped tablets", "Foreign particle",
				"Odor complaint", "Wrong count", "Packaging damage",
			}},
			{Name: "Efficacy", Descriptions: []string{"Not effective", "Delayed onset", "Short duration"}},
			{Name: "Adverse Event", Descriptions: []string{
				"Allergic reaction", "GI upset", "Headache", "Skin rash", "Nausea",
			}},
			{Name: "Labeling", Descriptions: []string{"Missing expiry", "Illegible lot", "Wrong instructions"}},
		},
		ComplaintSeverity: []Weighted{
			{Value: "Critical", Weight: 0.05}, {Value: "Major", Weight: 0.25}, {Value: "Minor", Weight: 0.70},
		},
		AdverseEventSeverity: []Weighted{
			{Value: "Critical", Weight: 0.4}, {Value: "Major", Weight: 0.6},
		},
		ReporterTypes: []Weighted{
			{Value: "Patient", Weight: 0.4}, {Value: "Healthcare Professional", Weight: 0.3},
			{Value: "Pharmacist", Weight: 0.2}, {Value: "Distributor", Weight: 0.1},
		},
		ComplaintRootCauses: []string{
			"Manufacturing process variation", "Storage condition issue", "Packaging defect",
			"User handling error", "No issue confirmed", "Transportation damage",
		},
		InvestigationOutcomes: []string{
			"Confirmed - CAPA initiated", "Not confirmed - No action required",
			"Confirmed - Process adjustment made", "Under investigation",
		},
		CAPASources: []Weighted{
			{Value: "Deviation", Weight: 0.35}, {Value: "Customer Complaint", Weight: 0.20},
			{Value: "OOS Investigation", Weight: 0.15}, {Value: "Internal Audit", Weight: 0.10},
			{Value: "External Audit", Weight: 0.05}, {Value: "Management Review", Weight: 0.05},
			{Value: "Trend Analysis", Weight: 0.05}, {Value: "Self-Identified", Weight: 0.05},
		},
		CAPATypes: []string{"Corrective", "Preventive", "Corrective & Preventive"},
		ProblemCategories: []string{
			"Process deviation", "Equipment failure", "Documentation error",
			"Training gap", "Supplier issue", "Environmental excursion",
		},
		RootCauseCategories: []string{
			"Procedure not followed", "Procedure inadequate", "Training deficiency",
			"Equipment malfunction", "Environmental factor", "Raw material variation",
			"Human error", "Communication failure", "Design flaw", "Supplier issue",
		},
		RCAMethods: []string{"5 Whys", "Fishbone Diagram", "Fault Tree Analysis", "FMEA"},
		RiskScores: []Weighted{
			{Value: "Critical", Weight: 0.05}, {Value: "High", Weight: 0.15},
			{Value: "Medium", Weight: 0.50}, {Value: "Low", Weight: 0.30},
		},
		Departments: []string{
			"Manufacturing", "Quality Control", "Quality Assurance",
			"Warehouse", "Engineering", "Packaging",
		},
		RejectReasons:  []string{"Weight", "Capping", "Sticking", "Chipping", "None"},
		DeviationTypes: []string{"Process", "Equipment", "Material", "Documentation"},
		Instruments: []Instrument{
			{ID: "BAL-001", Name: "Analytical Balance 1", Type: "Balance", FrequencyDays: 30, Criticality: "High"},
			{ID: "BAL-002", Name: "Analytical Balance 2", Type: "Balance", FrequencyDays: 30, Criticality: "High"},
			{ID: "BAL-003", Name: "Floor Scale", Type: "Balance", FrequencyDays: 90, Criticality: "Medium"},
			{ID: "HPLC-01", Name: "HPLC System 1", Type: "Chromatography", FrequencyDays: 180, Criticality: "High"},
			{ID: "HPLC-02", Name: "HPLC System 2", Type: "Chromatography", FrequencyDays: 180, Criticality: "High"},
			{ID: "DISS-01", Name: "Dissolution Apparatus 1", Type: "Dissolution", FrequencyDays: 90, Criticality: "High"},
			{ID: "DISS-02", Name: "Dissolution Apparatus 2", Type: "Dissolution", FrequencyDays: 90, Criticality: "High"},
			{ID: "HARD-01", Name: "Hardness Tester 1", Type: "Physical Testing", FrequencyDays: 30, Criticality: "Medium"},
			{ID: "HARD-02", Name: "Hardness Tester 2", Type: "Physical Testing", FrequencyDays: 30, Criticality: "Medium"},
			{ID: "PH-001", Name: "pH Meter 1", Type: "Electrochemistry", FrequencyDays: 30, Criticality: "Medium"},
			{ID: "TEMP-01", Name: "Temperature Probe 1", Type: "Temperature", FrequencyDays: 365, Criticality: "High"},
			{ID: "PRESS-A", Name: "Tablet Press A", Type: "Manufacturing", FrequencyDays: 90, Criticality: "Critical"},
			{ID: "PRESS-B", Name: "Tablet Press B", Type: "Manufacturing", FrequencyDays: 90, Criticality: "Critical"},
		},
		StabilityConditions: []StabilityCondition{
			{Name: "Long-term", TemperatureC: 25, HumidityPct: 60, Timepoints: []int{0, 3, 6, 9, 12, 18, 24, 36}, DegradationRate: 0.015},
			{Name: "Accelerated", TemperatureC: 40, HumidityPct: 75, Timepoints: []int{0, 1, 2, 3, 6}, DegradationRate: 0.08},
			{Name: "Intermediate", TemperatureC: 30, HumidityPct: 65, Timepoints: []int{0, 3, 6, 9, 12}, DegradationRate: 0.04},
		},
	}
}

// Product returns the product at index i, or false when out of range.
func (c *Catalog) Product(i int) (Product, bool) {
	if i < 0 || i >= len(c.Products) {
		return Product{}, false
	}
	return c.Products[i], true
}

// Classification looks up the room classification of a room code.
func (c *Catalog) Classification(roomCode string) string {
	for _, r := range c.Rooms {
		if r.Code == roomCode {
			return r.Classification
		}
	}
	return ""
}

// IsAPI reports whether a material name is an active ingredient.
func IsAPI(material string) bool {
	return strings.Contains(material, "API")
}

// Values splits weighted entries into parallel value and weight slices.
func Values(ws []Weighted) ([]string, []float64) {
	values := make([]string, len(ws))
	weights := make([]float64, len(ws))
	for i, w := range ws {
		values[i] = w.Value
		weights[i] = w.Weight
	}
	return values, weights
}

// Head returns the first n entries of s, or all of s when shorter.
func Head(s []string, n int) []string {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

// Slice returns s[from:to] clamped to the bounds of s.
func Slice(s []string, from, to int) []string {
	if to > len(s) {
		to = len(s)
	}
	if from > to {
		from = to
	}
	return s[from:to]
}
