package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
)

var clock = generator.WithClock(func() time.Time {
	return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
})

func testRequest(types ...core.DataType) generator.Request {
	return generator.Request{
		Start:         core.Date(2025, time.August, 1),
		End:           core.Date(2025, time.August, 3),
		BatchesPerDay: 4,
		DataTypes:     types,
	}
}

func TestWriteCSV(t *testing.T) {
	ds, err := generator.New(generator.WithSeed(42), clock).Generate(testRequest(core.DataTypeManufacturing))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds.Table(core.DataTypeManufacturing)); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 13 {
		t.Fatalf("expected header + 12 rows, got %d", len(records))
	}
	if records[0][0] != "batch_id" || len(records[0]) != 45 {
		t.Fatalf("unexpected header %v", records[0])
	}
}

func TestGenerateCSVIsDeterministic(t *testing.T) {
	a, err := GenerateCSV(testRequest(), generator.WithSeed(9), clock)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := GenerateCSV(testRequest(), generator.WithSeed(9), clock)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(a) != len(core.DataTypes()) {
		t.Fatalf("expected %d files, got %d", len(core.DataTypes()), len(a))
	}
	for dt, data := range a {
		if !bytes.Equal(data, b[dt]) {
			t.Fatalf("%s differs between identical runs", dt)
		}
	}
}

func TestWriteArchiveEntryNames(t *testing.T) {
	ds, err := generator.New(clock).Generate(testRequest(core.DataTypeQC, core.DataTypeCAPA))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	data, err := Archive(ds, "2025_08")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Method != zip.Deflate {
			t.Fatalf("%s is not deflated", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		if len(content) == 0 {
			t.Fatalf("%s is empty", f.Name)
		}
	}
	if got := strings.Join(names, ","); got != "2025_08_qc.csv,2025_08_capa.csv" {
		t.Fatalf("unexpected entries %s", got)
	}
}
