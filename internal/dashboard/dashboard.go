// Package dashboard computes the aggregate counts behind the charts on the
// HSE dashboard, straight from Airtable list queries.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"hseguardian/internal/airtable"
)

type Lister interface {
	ListRecords(ctx context.Context, table, formula string) ([]airtable.Record, error)
}

type Summary struct {
	Since             time.Time      `json:"since"`
	TotalObservations int            `json:"total_observations"`
	TotalIncidents    int            `json:"total_incidents"`
	ByObservationType map[string]int `json:"by_observation_type"`
	BySeverity        map[string]int `json:"by_severity"`
	BySite            map[string]int `json:"by_site"`
}

type Service struct {
	records           Lister
	observationsTable string
	incidentsTable    string
}

func New(records Lister, observationsTable, incidentsTable string) *Service {
	return &Service{
		records:           records,
		observationsTable: observationsTable,
		incidentsTable:    incidentsTable,
	}
}

// Summary aggregates report counts since the given time. Site can narrow the
// window to a single site.
func (s *Service) Summary(ctx context.Context, since time.Time, site string) (*Summary, error) {
	summary := &Summary{
		Since:             since,
		ByObservationType: make(map[string]int),
		BySeverity:        make(map[string]int),
		BySite:            make(map[string]int),
	}

	siteClause := ""
	if site != "" {
		siteClause = airtable.FieldEquals("Site", site)
	}

	observations, err := s.records.ListRecords(ctx, s.observationsTable,
		airtable.And(airtable.OnOrAfter("Observed At", since), siteClause))
	if err != nil {
		return nil, fmt.Errorf("list observations: %w", err)
	}

	summary.TotalObservations = len(observations)
	for _, rec := range observations {
		bump(summary.ByObservationType, rec.Fields, "Observation Type")
		bump(summary.BySite, rec.Fields, "Site")
	}

	incidents, err := s.records.ListRecords(ctx, s.incidentsTable,
		airtable.And(airtable.OnOrAfter("Occurred At", since), siteClause))
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	summary.TotalIncidents = len(incidents)
	for _, rec := range incidents {
		bump(summary.BySeverity, rec.Fields, "Severity")
		bump(summary.BySite, rec.Fields, "Site")
	}

	return summary, nil
}

func bump(counts map[string]int, fields map[string]any, column string) {
	v, ok := fields[column].(string)
	if !ok || v == "" {
		return
	}
	counts[v]++
}
