package generator

import (
	"strconv"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/core"
)

// Record is one row of a generated table.
type Record interface {
	Values() []string
}

// Table is a generated dataset in column order.
type Table interface {
	Type() core.DataType
	Header() []string
	Len() int
	Row(i int) []string
}

type recordTable[R Record] struct {
	dataType core.DataType
	header   []string
	rows     []R
}

func newTable[R Record](dt core.DataType, header []string, rows []R) Table {
	return &recordTable[R]{dataType: dt, header: header, rows: rows}
}

func (t *recordTable[R]) Type() core.DataType { return t.dataType }

func (t *recordTable[R]) Header() []string { return append([]string(nil), t.header...) }

func (t *recordTable[R]) Len() int { return len(t.rows) }

func (t *recordTable[R]) Row(i int) []string { return t.rows[i].Values() }

// Header returns the column names of a data type.
func Header(dt core.DataType) []string {
	var h []string
	switch dt {
	case core.DataTypeManufacturing:
		h = manufacturingColumns
	case core.DataTypeQC:
		h = qcColumns
	case core.DataTypeComplaints:
		h = complaintColumns
	case core.DataTypeCAPA:
		h = capaColumns
	case core.DataTypeEnvironmental:
		h = environmentalColumns
	case core.DataTypeEquipment:
		h = equipmentColumns
	case core.DataTypeStability:
		h = stabilityColumns
	case core.DataTypeRawMaterials:
		h = rawMaterialColumns
	case core.DataTypeBatchRelease:
		h = batchReleaseColumns
	}
	return append([]string(nil), h...)
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fmtInt(v int) string {
	return strconv.Itoa(v)
}

func fmtDate(t time.Time) string {
	return t.Format(core.DateLayout)
}

func fmtOptDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(core.DateLayout)
}

func fmtOptInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func passFail(ok bool) string {
	if ok {
		return "Pass"
	}
	return "Fail"
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }
