package onebeat

import (
	"sort"
	"time"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

// TransactionKey identifies one ledger line.
type TransactionKey struct {
	SKU         string
	Origin      string
	Destination string
	Direction   Direction
	Date        Day
}

// Ledger accumulates moved quantities per key.
type Ledger map[TransactionKey]float64

// LedgerEntry is a key with its quantity.
type LedgerEntry struct {
	Key      TransactionKey
	Quantity float64
}

// SeedConfig pre-fills the ledger with zero rows for fixed lanes so the
// planner receives a complete matrix even on days without traffic.
type SeedConfig struct {
	Products     []inventory.Product
	Origins      []inventory.Location
	Destinations []inventory.Location
}

// GroupInput gathers what GroupTransactions needs.
type GroupInput struct {
	Moves      []inventory.Move
	Products   []inventory.Product
	Resolution Resolution
	Window     Window
	Timezone   *time.Location
	Seed       *SeedConfig
}

// GroupTransactions merges finished moves of the window into a ledger keyed
// by product, reportable origin and destination, direction and local day.
// Quantities sharing a key are summed.
func GroupTransactions(in GroupInput) Ledger {
	ledger := Ledger{}
	if in.Seed != nil {
		seedLedger(ledger, *in.Seed, in.Resolution, WindowDays(in.Window, in.Timezone))
	}
	products := make(map[int64]inventory.Product, len(in.Products))
	for _, p := range in.Products {
		products[p.ID] = p
	}
	for _, move := range in.Moves {
		if move.State != inventory.MoveStateDone || !in.Window.Contains(move.Date) {
			continue
		}
		product, ok := products[move.ProductID]
		if !ok || product.Code == "" {
			continue
		}
		src, ok := in.Resolution.Location(move.LocationID)
		if !ok || src.Ignore {
			continue
		}
		dst, ok := in.Resolution.Location(move.LocationDestID)
		if !ok || dst.Ignore {
			continue
		}
		if !ValidTransition(src.Usage, dst.Usage) {
			continue
		}
		key := TransactionKey{
			SKU:         product.Code,
			Origin:      in.Resolution.ReportableName(src),
			Destination: in.Resolution.ReportableName(dst),
			Direction:   DirectionFor(src.Usage),
			Date:        DayOf(move.Date, in.Timezone),
		}
		ledger[key] += move.QuantityDone
	}
	return ledger
}

func seedLedger(ledger Ledger, seed SeedConfig, res Resolution, days []Day) {
	for _, p := range seed.Products {
		if !p.Reportable() {
			continue
		}
		for _, origin := range seed.Origins {
			for _, dest := range seed.Destinations {
				if origin.ID == dest.ID {
					continue
				}
				for _, day := range days {
					key := TransactionKey{
						SKU:         p.Code,
						Origin:      res.ReportableName(origin),
						Destination: res.ReportableName(dest),
						Direction:   DirectionFor(origin.Usage),
						Date:        day,
					}
					ledger[key] += 0
				}
			}
		}
	}
}

// ValidTransition reports whether a move between the two usages is reported.
func ValidTransition(src, dst inventory.Usage) bool {
	if src == inventory.UsageProduction && dst == inventory.UsageInternal {
		return true
	}
	if src == dst {
		return false
	}
	switch src {
	case inventory.UsageSupplier, inventory.UsageInternal, inventory.UsageCustomer:
	default:
		return false
	}
	switch dst {
	case inventory.UsageInternal, inventory.UsageCustomer, inventory.UsageProduction:
		return true
	}
	return false
}

// DirectionFor derives the direction from the origin usage.
func DirectionFor(src inventory.Usage) Direction {
	if src == inventory.UsageInternal {
		return DirectionOut
	}
	return DirectionIn
}

// WindowDays lists the local calendar days touched by the window: from the
// day containing Start up to the last day starting before Stop.
func WindowDays(w Window, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	if !w.Start.Before(w.Stop) {
		return nil
	}
	var days []Day
	for day := DayOf(w.Start, loc); day.Start(loc).Before(w.Stop); {
		days = append(days, day)
		day = DayOf(day.Start(loc).AddDate(0, 0, 1), loc)
	}
	return days
}

// Entries returns the ledger sorted by date, SKU, origin, destination and direction.
func (l Ledger) Entries() []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(l))
	for key, qty := range l {
		entries = append(entries, LedgerEntry{Key: key, Quantity: qty})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Key, entries[j].Key
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if a.SKU != b.SKU {
			return a.SKU < b.SKU
		}
		if a.Origin != b.Origin {
			return a.Origin < b.Origin
		}
		if a.Destination != b.Destination {
			return a.Destination < b.Destination
		}
		return a.Direction < b.Direction
	})
	return entries
}
