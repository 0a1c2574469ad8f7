// Package domain contains verification scoring for builder telemetry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Trust tiers derived from usage telemetry.
const (
	TierUnverified = "unverified"
	TierVerified   = "verified"
	TierPower      = "power"
)

// VerificationScore is a scored outcome for a user at a point in time. Rows
// are append-only; the latest row by created_at is the user's current tier.
type VerificationScore struct {
	ID        snowflake.ID                `gorm:"primaryKey" json:"-"`
	UserID    snowflake.ID                `gorm:"not null;index" json:"user_id"`
	Score     int                         `gorm:"not null" json:"score"`
	Tier      string                      `gorm:"type:text;not null" json:"tier"`
	Reasons   datatypes.JSONSlice[string] `gorm:"type:json" json:"reasons"`
	CreatedAt time.Time                   `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (VerificationScore) TableName() string { return "verification_scores" }

// TierIsVerified reports whether a tier counts as verified for pledge stamping.
func TierIsVerified(tier string) bool {
	return tier == TierVerified || tier == TierPower
}
