package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DataType names one generated dataset.
type DataType string

const (
	DataTypeManufacturing DataType = "manufacturing"
	DataTypeQC            DataType = "qc"
	DataTypeComplaints    DataType = "complaints"
	DataTypeCAPA          DataType = "capa"
	DataTypeEnvironmental DataType = "environmental"
	DataTypeEquipment     DataType = "equipment"
	DataTypeStability     DataType = "stability"
	DataTypeRawMaterials  DataType = "raw_materials"
	DataTypeBatchRelease  DataType = "batch_release"
)

var (
	// ErrInvalidPeriod is returned when a period ends before it starts or lies outside the supported range.
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrUnknownDataType is returned for a data type name outside the vocabulary.
	ErrUnknownDataType = errors.New("unknown data type")
)

// DataTypeInfo describes a dataset for listings.
type DataTypeInfo struct {
	ID          DataType `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     int      `json:"columns"`
}

// dataTypeCatalog is in canonical export order.
var dataTypeCatalog = []DataTypeInfo{
	{ID: DataTypeManufacturing, Name: "Manufacturing Batch Records", Columns: 45,
		Description: "Comprehensive manufacturing data with CPPs, IPCs, yields, and equipment tracking"},
	{ID: DataTypeQC, Name: "QC Lab Results", Columns: 38,
		Description: "Quality control testing data: assay, dissolution, impurities, microbial"},
	{ID: DataTypeComplaints, Name: "Customer Complaints", Columns: 17,
		Description: "Customer complaint records with categories, severity, and investigations"},
	{ID: DataTypeCAPA, Name: "CAPA Records", Columns: 19,
		Description: "Corrective and Preventive Action records with root cause analysis"},
	{ID: DataTypeEnvironmental, Name: "Environmental Monitoring", Columns: 18,
		Description: "Cleanroom environmental data: particles, viable counts, temperature/humidity"},
	{ID: DataTypeEquipment, Name: "Equipment Calibration", Columns: 17,
		Description: "Calibration and maintenance records for manufacturing and lab equipment"},
	{ID: DataTypeStability, Name: "Stability Studies", Columns: 14,
		Description: "ICH stability testing data: long-term, accelerated, intermediate conditions"},
	{ID: DataTypeRawMaterials, Name: "Raw Materials", Columns: 15,
		Description: "Material receipt and testing data with supplier information"},
	{ID: DataTypeBatchRelease, Name: "Batch Release", Columns: 16,
		Description: "Batch disposition and QP release decisions"},
}

// DataTypes returns every data type in canonical order.
func DataTypes() []DataType {
	out := make([]DataType, len(dataTypeCatalog))
	for i, info := range dataTypeCatalog {
		out[i] = info.ID
	}
	return out
}

// DataTypeInfos returns the descriptive vocabulary in canonical order.
func DataTypeInfos() []DataTypeInfo {
	out := make([]DataTypeInfo, len(dataTypeCatalog))
	copy(out, dataTypeCatalog)
	return out
}

// Info returns the description of dt.
func Info(dt DataType) (DataTypeInfo, bool) {
	for _, info := range dataTypeCatalog {
		if info.ID == dt {
			return info, true
		}
	}
	return DataTypeInfo{}, false
}

// Valid reports whether dt is part of the vocabulary.
func (dt DataType) Valid() bool {
	_, ok := Info(dt)
	return ok
}

// Order returns the canonical position of dt, or -1.
func (dt DataType) Order() int {
	for i, info := range dataTypeCatalog {
		if info.ID == dt {
			return i
		}
	}
	return -1
}

// ParseDataTypes converts names to data types. An empty list selects every type.
// Duplicates are dropped and the result is in canonical order.
func ParseDataTypes(names []string) ([]DataType, error) {
	if len(names) == 0 {
		return DataTypes(), nil
	}

	selected := make(map[DataType]bool, len(names))
	var invalid []string
	for _, name := range names {
		dt := DataType(strings.TrimSpace(name))
		if !dt.Valid() {
			invalid = append(invalid, name)
			continue
		}
		selected[dt] = true
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("%w: %s (valid types: %s)", ErrUnknownDataType,
			strings.Join(invalid, ", "), strings.Join(dataTypeNames(), ", "))
	}

	out := make([]DataType, 0, len(selected))
	for _, dt := range DataTypes() {
		if selected[dt] {
			out = append(out, dt)
		}
	}
	return out, nil
}

func dataTypeNames() []string {
	names := make([]string, len(dataTypeCatalog))
	for i, info := range dataTypeCatalog {
		names[i] = string(info.ID)
	}
	return names
}

// Date and timestamp layouts used in every generated table.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
	TimeLayout     = "15:04"
)

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidPeriod, s)
	}
	return t, nil
}

// DaysBetween returns the whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
