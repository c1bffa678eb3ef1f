package models

import (
	"database/sql"
	"fmt"
	"strings"
)

// StatusKind is the operational state of a trip.
type StatusKind string

const (
	StatusScheduled StatusKind = "scheduled"
	StatusDelayed   StatusKind = "delayed"
	StatusCancelled StatusKind = "cancelled"
)

// ParseStatusKind accepts scheduled, delayed or cancelled (case-insensitive).
func ParseStatusKind(s string) (StatusKind, error) {
	switch k := StatusKind(strings.ToLower(strings.TrimSpace(s))); k {
	case StatusScheduled, StatusDelayed, StatusCancelled:
		return k, nil
	default:
		return "", fmt.Errorf("unknown trip status %q", s)
	}
}

// OperationalStatus is Scheduled, Delayed(description) or Cancelled(description).
// Scheduled is persisted as the absence of an overlay row.
type OperationalStatus struct {
	Kind        StatusKind
	Description string
}

func Scheduled() OperationalStatus { return OperationalStatus{Kind: StatusScheduled} }

func Delayed(desc string) OperationalStatus {
	return OperationalStatus{Kind: StatusDelayed, Description: desc}
}

func Cancelled(desc string) OperationalStatus {
	return OperationalStatus{Kind: StatusCancelled, Description: desc}
}

func (s OperationalStatus) IsScheduled() bool { return s.Kind == "" || s.Kind == StatusScheduled }
func (s OperationalStatus) IsCancelled() bool { return s.Kind == StatusCancelled }

// String returns the wire name, scheduled when the kind is unset.
func (s OperationalStatus) String() string {
	if s.IsScheduled() {
		return string(StatusScheduled)
	}
	return string(s.Kind)
}

// Overlay maps the status to its overlay row. present is false for Scheduled.
func (s OperationalStatus) Overlay() (status string, description sql.NullString, present bool) {
	if s.IsScheduled() {
		return "", sql.NullString{}, false
	}
	desc := strings.TrimSpace(s.Description)
	return string(s.Kind), sql.NullString{String: desc, Valid: desc != ""}, true
}

// StatusFromOverlay rebuilds the status from a LEFT JOINed overlay row.
func StatusFromOverlay(status, description sql.NullString) OperationalStatus {
	if !status.Valid || status.String == "" {
		return Scheduled()
	}
	kind, err := ParseStatusKind(status.String)
	if err != nil || kind == StatusScheduled {
		return Scheduled()
	}
	return OperationalStatus{Kind: kind, Description: description.String}
}
