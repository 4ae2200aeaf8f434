package types

import (
	"time"
)

type ReportKind string

const (
	ReportKindObservation ReportKind = "observation"
	ReportKindIncident    ReportKind = "incident"
)

type ObservationType string

const (
	ObservationUnsafeAct       ObservationType = "Unsafe Act"
	ObservationUnsafeCondition ObservationType = "Unsafe Condition"
	ObservationPositive        ObservationType = "Positive Observation"
)

type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// ObservationForm is a submitted safety observation, field names mirror the
// form the browser client posts.
type ObservationForm struct {
	ReporterName    string          `form:"reporter_name" json:"reporter_name"`
	Site            string          `form:"site" json:"site"`
	Area            string          `form:"area" json:"area"`
	ObservationType ObservationType `form:"observation_type" json:"observation_type"`
	Description     string          `form:"description" json:"description"`
	ActionTaken     string          `form:"action_taken" json:"action_taken"`
	ObservedAt      time.Time       `form:"observed_at" json:"observed_at"`
}

// Fields maps the form onto Airtable column names. Attachment columns are
// appended by the caller once image URLs exist.
func (f ObservationForm) Fields() map[string]any {
	return map[string]any{
		"Reporter":         f.ReporterName,
		"Site":             f.Site,
		"Area":             f.Area,
		"Observation Type": string(f.ObservationType),
		"Description":      f.Description,
		"Action Taken":     f.ActionTaken,
		"Observed At":      f.ObservedAt.Format(time.RFC3339),
	}
}

// IncidentForm is a submitted safety incident.
type IncidentForm struct {
	ReporterName string    `form:"reporter_name" json:"reporter_name"`
	Site         string    `form:"site" json:"site"`
	Area         string    `form:"area" json:"area"`
	Severity     Severity  `form:"severity" json:"severity"`
	InjuryType   string    `form:"injury_type" json:"injury_type"`
	Description  string    `form:"description" json:"description"`
	ImmediateAid string    `form:"immediate_aid" json:"immediate_aid"`
	OccurredAt   time.Time `form:"occurred_at" json:"occurred_at"`
}

func (f IncidentForm) Fields() map[string]any {
	return map[string]any{
		"Reporter":      f.ReporterName,
		"Site":          f.Site,
		"Area":          f.Area,
		"Severity":      string(f.Severity),
		"Injury Type":   f.InjuryType,
		"Description":   f.Description,
		"Immediate Aid": f.ImmediateAid,
		"Occurred At":   f.OccurredAt.Format(time.RFC3339),
	}
}

// QueuedImage is a raw image captured with a report, held locally until the
// report syncs.
type QueuedImage struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// QueuedReport is a locally buffered report awaiting remote submission. It is
// owned exclusively by the offline queue and destroyed once synced.
type QueuedReport struct {
	ID        string        `json:"id"`
	Kind      ReportKind    `json:"kind"`
	Form      []byte        `json:"form"` // JSON-encoded ObservationForm or IncidentForm
	Images    []QueuedImage `json:"images"`
	Attempts  int           `json:"attempts"`
	LastError string        `json:"last_error"`
	CreatedAt time.Time     `json:"created_at"`
}

// Attachment is a successfully uploaded image, referenced by URL in the
// Airtable record. Ephemeral: produced by the uploader and consumed by the
// record submission, never persisted.
type Attachment struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}
