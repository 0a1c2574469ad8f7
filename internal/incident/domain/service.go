package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service ingests incident reports, creating the reporting user on first contact.
type Service interface {
	Report(ctx context.Context, req ReportRequest) (ReportResponse, error)
}

var (
	ErrMissingIncidentType = errors.New("missing_incident_type")
)

// ReportRequest carries a single incident submission. UserID may be zero for
// first-time reporters; a new user is created and returned.
type ReportRequest struct {
	UserID           snowflake.ID
	Email            string
	WorkspaceID      string
	IncidentType     string
	Provider         string
	SeatsBand        string
	AgentsBand       string
	Urgency          string
	ConsentTelemetry bool
}

type ReportResponse struct {
	UserID     snowflake.ID `json:"userId"`
	IncidentID snowflake.ID `json:"incidentId"`
}
