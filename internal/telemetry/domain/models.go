// Package domain contains telemetry bands and usage snapshot models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DefaultProvider is assumed when a submission omits the provider name.
const DefaultProvider = "Claude"

const DefaultWindowDays = 30

// Agents bands a builder can self-report.
const (
	AgentsBand1To10   = "1-10"
	AgentsBand10To50  = "10-50"
	AgentsBand50To200 = "50-200"
	AgentsBand200Plus = "200+"
)

// Baseline is the telemetry baseline implied by a self-reported agents band.
type Baseline struct {
	RunCount        int
	PeakConcurrency int
}

var baselineByBand = map[string]Baseline{
	AgentsBand1To10:   {RunCount: 300, PeakConcurrency: 6},
	AgentsBand10To50:  {RunCount: 1200, PeakConcurrency: 20},
	AgentsBand50To200: {RunCount: 6000, PeakConcurrency: 80},
	AgentsBand200Plus: {RunCount: 14000, PeakConcurrency: 220},
}

// BaselineFor maps an agents band to its baseline telemetry. Unknown bands
// fall back to the smallest band.
func BaselineFor(agentsBand string) Baseline {
	if baseline, ok := baselineByBand[agentsBand]; ok {
		return baseline
	}
	return baselineByBand[AgentsBand1To10]
}

// UsageSnapshot is derived telemetry for a user over a time window. Rows are
// append-only; the latest row by generated_at is the user's current snapshot.
// A consent-less snapshot has zero counts, an empty provider usage map and a
// null retry rate: it means "no usable telemetry", not an error.
type UsageSnapshot struct {
	ID              snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID          snowflake.ID      `gorm:"not null;index" json:"user_id"`
	WindowDays      int               `gorm:"not null" json:"window_days"`
	RunCount        int               `gorm:"not null" json:"run_count"`
	PeakConcurrency int               `gorm:"not null" json:"peak_concurrency"`
	ProviderUsage   datatypes.JSONMap `gorm:"type:json" json:"provider_usage"`
	TokenProxy      int64             `gorm:"not null" json:"token_proxy"`
	RetryRate       *float64          `json:"retry_rate"`
	GeneratedAt     time.Time         `gorm:"not null;index" json:"generated_at"`
}

// TableName sets the database table name.
func (UsageSnapshot) TableName() string { return "usage_snapshots" }

// ProviderFraction returns the usage fraction recorded for a provider.
func (s UsageSnapshot) ProviderFraction(provider string) float64 {
	return asFraction(s.ProviderUsage[provider])
}

// HasProviderUsage reports whether any provider carries a non-zero fraction.
func (s UsageSnapshot) HasProviderUsage() bool {
	for _, value := range s.ProviderUsage {
		if asFraction(value) > 0 {
			return true
		}
	}
	return false
}

// JSON numbers come back from the map as float64, but values set in-process
// may still be typed.
func asFraction(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
