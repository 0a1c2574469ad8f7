package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
)

type createIncidentRequest struct {
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	WorkspaceID      string `json:"workspace_id"`
	IncidentType     string `json:"incident_type"`
	Provider         string `json:"provider"`
	SeatsBand        string `json:"seats_band"`
	AgentsBand       string `json:"agents_band"`
	Urgency          string `json:"urgency"`
	ConsentTelemetry bool   `json:"consent_telemetry"`
}

func (s *Server) CreateIncident(c *gin.Context) {
	var req createIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	// An absent or unknown userId means a first-time reporter; the service
	// creates the user.
	userID, _ := parseOptionalID(req.UserID)

	resp, err := s.incidentSvc.Report(c.Request.Context(), incidentdomain.ReportRequest{
		UserID:           userID,
		Email:            strings.TrimSpace(req.Email),
		WorkspaceID:      strings.TrimSpace(req.WorkspaceID),
		IncidentType:     strings.TrimSpace(req.IncidentType),
		Provider:         strings.TrimSpace(req.Provider),
		SeatsBand:        strings.TrimSpace(req.SeatsBand),
		AgentsBand:       strings.TrimSpace(req.AgentsBand),
		Urgency:          strings.TrimSpace(req.Urgency),
		ConsentTelemetry: req.ConsentTelemetry,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

type createUsageSnapshotRequest struct {
	UserID           string `json:"userId"`
	WindowDays       int    `json:"window_days"`
	Provider         string `json:"provider"`
	ConsentTelemetry *bool  `json:"consent_telemetry"`
}

func (s *Server) CreateUsageSnapshot(c *gin.Context) {
	var req createUsageSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseRequiredID(req.UserID, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Consent defaults to true when the field is omitted.
	consent := req.ConsentTelemetry == nil || *req.ConsentTelemetry

	snapshot, err := s.telemetrySvc.BuildSnapshot(c.Request.Context(), telemetrydomain.BuildSnapshotRequest{
		UserID:     userID,
		WindowDays: req.WindowDays,
		Provider:   strings.TrimSpace(req.Provider),
		Consent:    consent,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

type verifyRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) VerifyUser(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID, err := parseRequiredID(req.UserID, "userId")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	score, err := s.verificationSvc.Verify(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}

func parseOptionalID(value string) (snowflake.ID, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(value)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseRequiredID(value, field string) (snowflake.ID, error) {
	id, ok := parseOptionalID(value)
	if !ok {
		return 0, newValidationError(field, "required", field+" is required")
	}
	return id, nil
}
