// Package export renders OneBeat datasets into the four semicolon separated
// report files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/odyssey-erp/onebeat/internal/onebeat"
)

// File is a rendered report.
type File struct {
	Kind Kind
	Name string
	Data []byte
}

// Assembler renders datasets with a fixed schema.
type Assembler struct {
	schema Schema
}

// NewAssembler constructs an Assembler.
func NewAssembler(schema Schema) *Assembler {
	return &Assembler{schema: schema}
}

// Schema returns the active schema.
func (a *Assembler) Schema() Schema {
	return a.schema
}

// FileName returns the name kind would be written under.
func (a *Assembler) FileName(ds *onebeat.Dataset, kind Kind) (string, error) {
	if ds == nil {
		return "", fmt.Errorf("export: nil dataset")
	}
	if ds.CompanyCode == "" {
		return "", &onebeat.ConfigurationError{Field: "vat", Reason: fmt.Sprintf("company %q has no VAT", ds.Company.Name)}
	}
	tz := ds.Timezone
	if tz == nil {
		tz = time.UTC
	}
	stamp := ds.AsOf.In(tz).Format("20060102")
	switch kind {
	case KindStockLocations:
		return a.schema.StockLocations.FileName(ds.CompanyCode, stamp), nil
	case KindSKUs:
		return a.schema.SKUs.FileName(ds.CompanyCode, stamp), nil
	case KindTransactions:
		return a.schema.Transactions.FileName(ds.CompanyCode, stamp), nil
	case KindStatus:
		return a.schema.Status.FileName(ds.CompanyCode, stamp), nil
	}
	return "", fmt.Errorf("export: unknown report %q", kind)
}

// Write streams one report to w and returns its file name.
func (a *Assembler) Write(w io.Writer, ds *onebeat.Dataset, kind Kind) (string, error) {
	name, err := a.FileName(ds, kind)
	if err != nil {
		return "", err
	}
	switch kind {
	case KindStockLocations:
		err = WriteReport(w, a.schema.StockLocations, StockLocationRows(ds))
	case KindSKUs:
		err = WriteReport(w, a.schema.SKUs, SKURows(ds))
	case KindTransactions:
		err = WriteReport(w, a.schema.Transactions, TransactionRows(ds))
	case KindStatus:
		err = WriteReport(w, a.schema.Status, StatusRows(ds))
	}
	if err != nil {
		return "", fmt.Errorf("export: write %s: %w", kind, err)
	}
	return name, nil
}

// Render builds one report in memory.
func (a *Assembler) Render(ds *onebeat.Dataset, kind Kind) (File, error) {
	var buf bytes.Buffer
	name, err := a.Write(&buf, ds, kind)
	if err != nil {
		return File{}, err
	}
	return File{Kind: kind, Name: name, Data: buf.Bytes()}, nil
}

// RenderAll builds the four reports in upload order.
func (a *Assembler) RenderAll(ds *onebeat.Dataset) ([]File, error) {
	files := make([]File, 0, len(Kinds))
	for _, kind := range Kinds {
		f, err := a.Render(ds, kind)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// ParseKind maps a user supplied report name onto a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == strings.ToUpper(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("export: unknown report %q", s)
}
