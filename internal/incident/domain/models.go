// Package domain contains persistence models for stability incident reports.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Incident is one self-reported stability problem. Rows are append-only.
type Incident struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID           snowflake.ID `gorm:"not null;index" json:"user_id"`
	IncidentType     string       `gorm:"type:text;not null" json:"incident_type"`
	Provider         string       `gorm:"type:text;not null" json:"provider"`
	SeatsBand        string       `gorm:"type:text;not null;default:''" json:"seats_band"`
	AgentsBand       string       `gorm:"type:text;not null;default:''" json:"agents_band"`
	Urgency          string       `gorm:"type:text;not null;default:''" json:"urgency"`
	ConsentTelemetry bool         `gorm:"not null;default:false" json:"consent_telemetry"`
	CreatedAt        time.Time    `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (Incident) TableName() string { return "incidents" }
