package dashboard

import (
	"context"
	"testing"
	"time"

	"hseguardian/internal/airtable"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	byTable  map[string][]airtable.Record
	formulas map[string]string
}

func (f *fakeLister) ListRecords(_ context.Context, table, formula string) ([]airtable.Record, error) {
	if f.formulas == nil {
		f.formulas = make(map[string]string)
	}
	f.formulas[table] = formula
	return f.byTable[table], nil
}

func TestSummaryAggregatesCounts(t *testing.T) {
	lister := &fakeLister{byTable: map[string][]airtable.Record{
		"Observations": {
			{ID: "rec1", Fields: map[string]any{"Observation Type": "Unsafe Act", "Site": "North Yard"}},
			{ID: "rec2", Fields: map[string]any{"Observation Type": "Unsafe Act", "Site": "Dockside"}},
			{ID: "rec3", Fields: map[string]any{"Observation Type": "Positive Observation", "Site": "North Yard"}},
			{ID: "rec4", Fields: map[string]any{"Site": "North Yard"}}, // untyped
		},
		"Incidents": {
			{ID: "rec5", Fields: map[string]any{"Severity": "High", "Site": "Dockside"}},
			{ID: "rec6", Fields: map[string]any{"Severity": "Low", "Site": "Dockside"}},
		},
	}}

	svc := New(lister, "Observations", "Incidents")
	since := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	summary, err := svc.Summary(context.Background(), since, "")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalObservations)
	assert.Equal(t, 2, summary.TotalIncidents)
	assert.Equal(t, map[string]int{"Unsafe Act": 2, "Positive Observation": 1}, summary.ByObservationType)
	assert.Equal(t, map[string]int{"High": 1, "Low": 1}, summary.BySeverity)
	assert.Equal(t, map[string]int{"North Yard": 3, "Dockside": 3}, summary.BySite)

	assert.Contains(t, lister.formulas["Observations"], "Observed At")
	assert.Contains(t, lister.formulas["Incidents"], "Occurred At")
}

func TestSummarySiteFilterAppearsInFormula(t *testing.T) {
	lister := &fakeLister{byTable: map[string][]airtable.Record{}}

	svc := New(lister, "Observations", "Incidents")

	_, err := svc.Summary(context.Background(), time.Now().Add(-24*time.Hour), "North Yard")
	require.NoError(t, err)

	assert.Contains(t, lister.formulas["Observations"], "{Site} = 'North Yard'")
	assert.Contains(t, lister.formulas["Incidents"], "{Site} = 'North Yard'")
}
