package onebeat

import (
	"sort"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

// Resolution maps candidate locations onto their warehouse-direct ancestor.
type Resolution struct {
	Mapping    map[int64]int64
	Unresolved []int64
	locations  map[int64]inventory.Location
}

// ResolveReportable collapses the location tree into reportable locations.
// A location climbs through parents that are part of the candidate set until
// it meets a warehouse-direct node. Only internal locations are mapped;
// partner locations (supplier, customer, production, transit) are indexed for
// lookups but never rolled up. Ignored locations and internal locations that
// never reach a warehouse-direct node are left out of Mapping; the latter are
// listed in Unresolved so callers can warn about them.
func ResolveReportable(locations []inventory.Location) Resolution {
	byID := make(map[int64]inventory.Location, len(locations))
	for _, loc := range locations {
		byID[loc.ID] = loc
	}
	res := Resolution{
		Mapping:   make(map[int64]int64, len(locations)),
		locations: byID,
	}
	for _, loc := range locations {
		if loc.Ignore || loc.Usage != inventory.UsageInternal {
			continue
		}
		target, ok := climb(loc, byID)
		if !ok {
			res.Unresolved = append(res.Unresolved, loc.ID)
			continue
		}
		res.Mapping[loc.ID] = target
	}
	sort.Slice(res.Unresolved, func(i, j int) bool { return res.Unresolved[i] < res.Unresolved[j] })
	return res
}

func climb(loc inventory.Location, byID map[int64]inventory.Location) (int64, bool) {
	seen := map[int64]struct{}{}
	current := loc
	for !current.WarehouseDirect {
		if _, looped := seen[current.ID]; looped {
			return 0, false
		}
		seen[current.ID] = struct{}{}
		parent, ok := byID[current.ParentID]
		if !ok || current.ParentID == 0 {
			return 0, false
		}
		current = parent
	}
	if current.Ignore {
		return 0, false
	}
	return current.ID, true
}

// Target returns the reportable ancestor for a location id.
func (r Resolution) Target(locationID int64) (int64, bool) {
	id, ok := r.Mapping[locationID]
	return id, ok
}

// Reportable returns the sorted distinct reportable location ids.
func (r Resolution) Reportable() []int64 {
	set := map[int64]struct{}{}
	for _, target := range r.Mapping {
		set[target] = struct{}{}
	}
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Location looks up a candidate location by id.
func (r Resolution) Location(id int64) (inventory.Location, bool) {
	loc, ok := r.locations[id]
	return loc, ok
}

// ReportableName names a location the way ledgers and reports show it: the
// reportable ancestor when one exists, otherwise the location itself.
func (r Resolution) ReportableName(loc inventory.Location) string {
	if target, ok := r.Mapping[loc.ID]; ok {
		if anc, ok := r.locations[target]; ok {
			return anc.DisplayName()
		}
	}
	return loc.DisplayName()
}
