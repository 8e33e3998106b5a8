package onebeat

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/onebeat/internal/inventory"
)

func TestResolveReportableClimbsToWarehouseRoot(t *testing.T) {
	res := ResolveReportable(testLocations())

	for _, id := range []int64{locWarehouse, locZone, locShelf} {
		target, ok := res.Target(id)
		require.True(t, ok, "location %d", id)
		require.Equal(t, locWarehouse, target)
	}
	require.Equal(t, []int64{locWarehouse}, res.Reportable())
	require.Equal(t, []int64{locOrphan}, res.Unresolved)
}

func TestResolveReportableSkipsPartnerAndIgnoredLocations(t *testing.T) {
	res := ResolveReportable(testLocations())

	for _, id := range []int64{locSupplier, locCustomer, locProduction, locTransit, locIgnored, locView} {
		_, ok := res.Target(id)
		require.False(t, ok, "location %d", id)
	}
	loc, ok := res.Location(locSupplier)
	require.True(t, ok)
	require.Equal(t, "Partners/Vendors", res.ReportableName(loc))

	shelf, _ := res.Location(locShelf)
	require.Equal(t, "WH/Stock", res.ReportableName(shelf))
}

func TestResolveReportableTreatsCyclesAsUnresolved(t *testing.T) {
	res := ResolveReportable([]inventory.Location{
		{ID: 1, ParentID: 2, Name: "A", Usage: inventory.UsageInternal},
		{ID: 2, ParentID: 1, Name: "B", Usage: inventory.UsageInternal},
	})

	require.Empty(t, res.Mapping)
	require.Equal(t, []int64{1, 2}, res.Unresolved)
}

func TestResolveReportableRejectsIgnoredRoot(t *testing.T) {
	res := ResolveReportable([]inventory.Location{
		{ID: 1, Name: "Stock", Usage: inventory.UsageInternal, WarehouseDirect: true, Ignore: true},
		{ID: 2, ParentID: 1, Name: "Bin", Usage: inventory.UsageInternal},
	})

	_, ok := res.Target(2)
	require.False(t, ok)
	require.Equal(t, []int64{2}, res.Unresolved)
}
