// Package domain contains opt-in guardrail settings for builder automation.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Guardrail setting keys.
const (
	SettingCapConcurrency = "cap_concurrency"
	SettingJitterBackoff  = "jitter_backoff"
	SettingLoopLimiter    = "loop_limiter"
	SettingCacheDedupe    = "cache_dedupe"
)

// GuardrailSetting records which safety settings a user has applied. One row
// per user; reapplication overwrites the previous row.
type GuardrailSetting struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID      `gorm:"not null;uniqueIndex:ux_guardrails_user" json:"user_id"`
	Applied   bool              `gorm:"not null;default:false" json:"applied"`
	Settings  datatypes.JSONMap `gorm:"type:json" json:"settings"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (GuardrailSetting) TableName() string { return "guardrail_settings" }
