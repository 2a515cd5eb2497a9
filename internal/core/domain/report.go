package domain

import "time"

type EntityStatus string

const (
	StatusInSync        EntityStatus = "IN_SYNC"
	StatusDrifted       EntityStatus = "DRIFTED"
	StatusMissingInLive EntityStatus = "MISSING_IN_LIVE" // declared but not scanned
	StatusUnmanaged     EntityStatus = "UNMANAGED"       // scanned but not declared
)

// Diagnostic records a recoverable condition captured during a comparison run.
// Code is an errors.Code string; Subject names the entity or file involved.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Subject string `json:"subject,omitempty"`
}

// EntityDrift is the per-entity slice of the report. Matched entities with no
// diffs are still present with StatusInSync so totals reconcile.
type EntityDrift struct {
	ID             EntityID       `json:"id"`
	Kind           EntityKind     `json:"kind"`
	Name           string         `json:"name"`
	Status         EntityStatus   `json:"status"`
	Region         string         `json:"region,omitempty"`
	SourceLocation string         `json:"source_location,omitempty"`
	Diffs          []PropertyDiff `json:"diffs,omitempty"`
	Risk           RiskLevel      `json:"risk"`
}

type RiskSummary struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

func (s *RiskSummary) Add(level RiskLevel, n int) {
	switch level {
	case RiskLow:
		s.Low += n
	case RiskMedium:
		s.Medium += n
	case RiskHigh:
		s.High += n
	}
}

type ReportCounts struct {
	TotalDeclared int `json:"total_declared"`
	TotalLive     int `json:"total_live"`
	Matched       int `json:"matched"`
	InSync        int `json:"in_sync"`
	Drifted       int `json:"drifted"`
	MissingInLive int `json:"missing_in_live"`
	Unmanaged     int `json:"unmanaged"`
}

// DriftReport is the sole artifact crossing the core's output boundary.
// Consumers treat it as read-only and must not re-derive risk.
type DriftReport struct {
	ResourceGroup string        `json:"resource_group"`
	GeneratedAt   time.Time     `json:"generated_at"`
	Counts        ReportCounts  `json:"counts"`
	Summary       RiskSummary   `json:"risk_summary"`
	Entities      []EntityDrift `json:"entities"`
	Diagnostics   []Diagnostic  `json:"diagnostics,omitempty"`
	Commands      []Command     `json:"commands,omitempty"`
}

func (r DriftReport) HasDrift() bool {
	return r.Counts.Drifted > 0 || r.Counts.MissingInLive > 0 || r.Counts.Unmanaged > 0
}
