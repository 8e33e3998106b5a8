package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/onebeat/internal/app"
	"github.com/odyssey-erp/onebeat/jobs"
)

func TestCronRegistrationsPerCompany(t *testing.T) {
	cron, err := cronRegistrations(app.OneBeatConfig{
		CompanyIDs:    []int64{1, 4},
		ExportCron:    "0 2 * * *",
		ReplenishCron: "0 6 * * *",
	})
	require.NoError(t, err)
	require.Len(t, cron, 4)

	require.Equal(t, "0 2 * * *", cron[0].Spec)
	require.Equal(t, jobs.TaskOnebeatExport, cron[0].Task.Type())
	require.Equal(t, jobs.TaskOnebeatReplenish, cron[3].Task.Type())

	var payload jobs.ReplenishPayload
	require.NoError(t, json.Unmarshal(cron[3].Task.Payload(), &payload))
	require.Equal(t, int64(4), payload.CompanyID)
}

func TestCronRegistrationsRejectsInvalidCompany(t *testing.T) {
	_, err := cronRegistrations(app.OneBeatConfig{CompanyIDs: []int64{0}})
	require.Error(t, err)
}
