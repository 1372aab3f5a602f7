// Package export renders generated tables as CSV files and ZIP archives.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"

	"github.com/sebastiankruger/apr-datagen/internal/core"
	"github.com/sebastiankruger/apr-datagen/internal/generator"
)

// File is one encoded table.
type File struct {
	DataType core.DataType
	Data     []byte
}

// FileName is the archive entry name of dt under prefix.
func FileName(prefix string, dt core.DataType) string {
	return fmt.Sprintf("%s_%s.csv", prefix, dt)
}

// WriteCSV writes the header and every row of t.
func WriteCSV(w io.Writer, t generator.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write %s header: %w", t.Type(), err)
	}
	for i := 0; i < t.Len(); i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return fmt.Errorf("write %s row %d: %w", t.Type(), i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeCSV encodes every requested table of ds in canonical order.
func EncodeCSV(ds *generator.Dataset) ([]File, error) {
	tables := ds.Tables()
	files := make([]File, 0, len(tables))
	for _, t := range tables {
		var buf bytes.Buffer
		if err := WriteCSV(&buf, t); err != nil {
			return nil, err
		}
		files = append(files, File{DataType: t.Type(), Data: buf.Bytes()})
	}
	return files, nil
}

// GenerateCSV runs req on a fresh generator and returns the CSV bytes of
// each requested table.
func GenerateCSV(req generator.Request, opts ...generator.Option) (map[core.DataType][]byte, error) {
	ds, err := generator.New(opts...).Generate(req)
	if err != nil {
		return nil, err
	}
	files, err := EncodeCSV(ds)
	if err != nil {
		return nil, err
	}
	out := make(map[core.DataType][]byte, len(files))
	for _, f := range files {
		out[f.DataType] = f.Data
	}
	return out, nil
}

// WriteArchive writes files as a deflate-compressed ZIP with entries named
// {prefix}_{data_type}.csv.
func WriteArchive(w io.Writer, prefix string, files []File) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:   FileName(prefix, f.DataType),
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", f.DataType, err)
		}
		if _, err := entry.Write(f.Data); err != nil {
			return fmt.Errorf("write entry %s: %w", f.DataType, err)
		}
	}
	return zw.Close()
}

// Archive encodes ds and returns the ZIP bytes.
func Archive(ds *generator.Dataset, prefix string) ([]byte, error) {
	files, err := EncodeCSV(ds)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteArchive(&buf, prefix, files); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
