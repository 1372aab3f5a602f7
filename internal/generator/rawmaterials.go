package generator

import (
	"fmt"
	"strings"
	"time"

	"github.com/sebastiankruger/apr-datagen/internal/catalog"
	"github.com/sebastiankruger/apr-datagen/internal/core"
)

var rawMaterialColumns = []string{
	"grn_number", "receipt_date", "material_code", "material_name",
	"supplier_id", "supplier_name", "quantity", "unit", "batch_lot_number",
	"expiry_date", "coa_received", "test_status", "disposition",
	"received_by", "storage_location",
}

var (
	incomingTestStatuses = []string{"Pass", "Pass", "Pass", "Pass", "Fail", "Pending"}
	warehouses           = []string{"A", "B", "C"}
)

// RawMaterialReceipt is a goods receipt of a starting material.
type RawMaterialReceipt struct {
	GRNNumber       string
	ReceiptDate     time.Time
	MaterialCode    string
	MaterialName    string
	SupplierID      string
	SupplierName    string
	Quantity        float64
	Unit            string
	LotNumber       string
	ExpiryDate      time.Time
	CoAReceived     bool
	TestStatus      string
	Disposition     string
	ReceivedBy      string
	StorageLocation string
}

// Values implements Record.
func (r RawMaterialReceipt) Values() []string {
	return []string{
		r.GRNNumber, fmtDate(r.ReceiptDate), r.MaterialCode, r.MaterialName,
		r.SupplierID, r.SupplierName, fmtFloat(r.Quantity), r.Unit, r.LotNumber,
		fmtDate(r.ExpiryDate), yesNo(r.CoAReceived), r.TestStatus, r.Disposition,
		r.ReceivedBy, r.StorageLocation,
	}
}

// RawMaterials books receiptsPerWeek +/- 2 receipts for every week starting at start.
func (g *Generator) RawMaterials(start, end time.Time, receiptsPerWeek int) []RawMaterialReceipt {
	g.reset()

	var receipts []RawMaterialReceipt
	seq := 1
	last := core.Day(end)
	for week := core.Day(start); !week.After(last); week = week.AddDate(0, 0, 7) {
		n := g.rnd.UniformInt(receiptsPerWeek-2, receiptsPerWeek+2)
		for i := 0; i < n; i++ {
			receipts = append(receipts, g.receive(week, seq))
			seq++
		}
	}
	return receipts
}

func (g *Generator) receive(week time.Time, seq int) RawMaterialReceipt {
	c := g.catalog
	rnd := g.rnd

	date := week.AddDate(0, 0, rnd.UniformInt(0, 6))
	material := g.pick(c.Materials)
	supplier := core.Choose(rnd, c.Suppliers)

	r := RawMaterialReceipt{
		GRNNumber:    fmt.Sprintf("GRN-%d-%06d", week.Year(), seq),
		ReceiptDate:  date,
		MaterialName: material,
		SupplierID:   supplier.ID,
		SupplierName: supplier.Name,
		Unit:         "kg",
	}
	r.MaterialCode = fmt.Sprintf("MAT-%s-%d", materialPrefix(material), rnd.UniformInt(100, 999))

	if catalog.IsAPI(material) {
		r.Quantity = core.Round(rnd.Gaussian(100, 20), 1)
	} else {
		r.Quantity = core.Round(rnd.Gaussian(500, 100), 1)
	}

	r.CoAReceived = rnd.Bool(0.98)
	r.TestStatus = g.pick(incomingTestStatuses)
	switch r.TestStatus {
	case "Pass":
		r.Disposition = "Released"
	case "Fail":
		r.Disposition = "Rejected"
	default:
		r.Disposition = "Quarantine"
	}

	r.LotNumber = fmt.Sprintf("%s-%s-%02d", lotPrefix(supplier.ID), date.Format("0601"), rnd.UniformInt(1, 99))
	r.ExpiryDate = date.AddDate(0, 0, rnd.UniformInt(365, 730))
	r.ReceivedBy = g.pick(catalog.Head(c.Operators, 10))
	r.StorageLocation = fmt.Sprintf("WH-%s-%02d", g.pick(warehouses), rnd.UniformInt(1, 50))
	return r
}

func materialPrefix(name string) string {
	if len(name) > 3 {
		name = name[:3]
	}
	return strings.ToUpper(name)
}

func lotPrefix(supplierID string) string {
	if len(supplierID) > 3 {
		return supplierID[len(supplierID)-3:]
	}
	return supplierID
}

// RawMaterialTable wraps receipts as a Table.
func RawMaterialTable(rows []RawMaterialReceipt) Table {
	return newTable(core.DataTypeRawMaterials, rawMaterialColumns, rows)
}
