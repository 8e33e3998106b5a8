package replenish

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/onebeat/internal/onebeat"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("replenish: missing column")

// Row is one recommended replenishment.
type Row struct {
	SKU string
	Qty float64
}

// Rejected describes a line that could not be parsed.
type Rejected struct {
	Line   int
	Reason string
}

type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(r io.Reader, required ...string) (table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return table{}, fmt.Errorf("replenish: read csv: %w", err)
	}
	if len(records) == 0 {
		return table{}, fmt.Errorf("%w: empty file", ErrMissingColumn)
	}
	t := table{header: map[string]int{}, rows: records[1:]}
	for i, h := range records[0] {
		t.header[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := t.header[col]; !ok {
			return table{}, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return t, nil
}

func (t table) get(row []string, col string) string {
	i := t.header[col]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseQty(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// ParseRows reads sku;qty_replenishment lines.
func ParseRows(r io.Reader) ([]Row, []Rejected, error) {
	t, err := readTable(r, "sku", "qty_replenishment")
	if err != nil {
		return nil, nil, err
	}
	var (
		rows     []Row
		rejected []Rejected
	)
	for i, rec := range t.rows {
		line := i + 2
		sku := t.get(rec, "sku")
		if sku == "" {
			rejected = append(rejected, Rejected{Line: line, Reason: "empty sku"})
			continue
		}
		qty, err := parseQty(t.get(rec, "qty_replenishment"))
		if err != nil {
			rejected = append(rejected, Rejected{Line: line, Reason: fmt.Sprintf("invalid quantity for %s", sku)})
			continue
		}
		rows = append(rows, Row{SKU: sku, Qty: qty})
	}
	return rows, rejected, nil
}

// ParseBufferUpdates reads sku;location;buffer lines.
func ParseBufferUpdates(r io.Reader) ([]onebeat.BufferUpdate, []Rejected, error) {
	t, err := readTable(r, "sku", "location", "buffer")
	if err != nil {
		return nil, nil, err
	}
	var (
		updates  []onebeat.BufferUpdate
		rejected []Rejected
	)
	for i, rec := range t.rows {
		line := i + 2
		u := onebeat.BufferUpdate{SKU: t.get(rec, "sku"), Location: t.get(rec, "location")}
		if u.SKU == "" || u.Location == "" {
			rejected = append(rejected, Rejected{Line: line, Reason: "empty sku or location"})
			continue
		}
		size, err := parseQty(t.get(rec, "buffer"))
		if err != nil || size < 0 {
			rejected = append(rejected, Rejected{Line: line, Reason: fmt.Sprintf("invalid buffer for %s", u.SKU)})
			continue
		}
		u.BufferSize = size
		updates = append(updates, u)
	}
	return updates, rejected, nil
}
