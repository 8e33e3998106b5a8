package onebeat

import (
	"math"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

// SnapshotInput gathers the records a snapshot is computed from.
type SnapshotInput struct {
	Products   []inventory.Product
	Resolution Resolution
	Quants     []inventory.Quant
	Lines      []inventory.MoveLine
}

// Level is the stock position of a product at a location.
type Level struct {
	OnHand    float64
	InTransit float64
}

// Pair identifies a product at a location.
type Pair struct {
	ProductID  int64
	LocationID int64
}

// Snapshot holds on-hand and in-transit sums rolled up to reportable
// locations. Values are raw sums; Level rounds them on read.
type Snapshot struct {
	levels    map[Pair]Level
	products  map[int64]inventory.Product
	Locations []int64
	// Leaked holds quantities found at locations without a reportable
	// ancestor. They are not part of any reportable total.
	Leaked map[Pair]Level
}

// BuildSnapshot aggregates quants and open move lines per product and
// location, then merges child locations into their reportable ancestor.
func BuildSnapshot(in SnapshotInput) *Snapshot {
	snap := &Snapshot{
		levels:    map[Pair]Level{},
		products:  make(map[int64]inventory.Product, len(in.Products)),
		Locations: in.Resolution.Reportable(),
		Leaked:    map[Pair]Level{},
	}
	for _, p := range in.Products {
		snap.products[p.ID] = p
	}

	raw := map[Pair]Level{}
	for _, q := range in.Quants {
		loc, ok := in.Resolution.Location(q.LocationID)
		if !ok || loc.Ignore || loc.Usage != inventory.UsageInternal {
			continue
		}
		key := Pair{ProductID: q.ProductID, LocationID: q.LocationID}
		lvl := raw[key]
		lvl.OnHand += q.Quantity
		raw[key] = lvl
	}
	for _, line := range in.Lines {
		if !inTransit(line, in.Resolution) {
			continue
		}
		key := Pair{ProductID: line.ProductID, LocationID: line.LocationDestID}
		lvl := raw[key]
		lvl.InTransit += line.Remaining()
		raw[key] = lvl
	}

	for key, lvl := range raw {
		target, ok := in.Resolution.Target(key.LocationID)
		if !ok {
			leak := snap.Leaked[key]
			leak.OnHand += lvl.OnHand
			leak.InTransit += lvl.InTransit
			snap.Leaked[key] = leak
			continue
		}
		dst := Pair{ProductID: key.ProductID, LocationID: target}
		agg := snap.levels[dst]
		agg.OnHand += lvl.OnHand
		agg.InTransit += lvl.InTransit
		snap.levels[dst] = agg
	}
	return snap
}

func inTransit(line inventory.MoveLine, res Resolution) bool {
	if !line.State.Pending() {
		return false
	}
	src, ok := res.Location(line.LocationID)
	if !ok || src.Ignore {
		return false
	}
	dst, ok := res.Location(line.LocationDestID)
	if !ok || dst.Ignore {
		return false
	}
	if src.Usage != inventory.UsageSupplier && src.Usage != inventory.UsageTransit {
		return false
	}
	return dst.Usage == inventory.UsageInternal
}

// Raw returns the unrounded sums for a product at a reportable location.
func (s *Snapshot) Raw(productID, locationID int64) Level {
	if s == nil {
		return Level{}
	}
	return s.levels[Pair{ProductID: productID, LocationID: locationID}]
}

// Level returns the sums rounded to the product unit of measure and
// floored at zero. Missing pairs read as zero.
func (s *Snapshot) Level(productID, locationID int64) Level {
	raw := s.Raw(productID, locationID)
	step := 0.0
	if s != nil {
		step = s.products[productID].UoM.Rounding
	}
	return Level{
		OnHand:    math.Max(RoundToUoM(raw.OnHand, step), 0),
		InTransit: math.Max(RoundToUoM(raw.InTransit, step), 0),
	}
}

// Rows lists every product at every reportable location, zero-filled.
func (s *Snapshot) Rows(products []inventory.Product) []SnapshotRow {
	if s == nil {
		return nil
	}
	rows := make([]SnapshotRow, 0, len(products)*len(s.Locations))
	for _, locID := range s.Locations {
		for _, p := range products {
			rows = append(rows, SnapshotRow{ProductID: p.ID, LocationID: locID, Level: s.Level(p.ID, locID)})
		}
	}
	return rows
}

// SnapshotRow is one product/location line of a snapshot.
type SnapshotRow struct {
	ProductID  int64
	LocationID int64
	Level      Level
}
