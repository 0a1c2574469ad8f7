// Package domain contains demand pool and pledge models plus the aggregate
// shapes served to callers.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Pool statuses.
const (
	PoolStatusForming = "forming"
)

const DefaultPoolType = "code_agents"

// Counterparty is presentation copy, not a computed value.
const Counterparty = "Buyer-of-record: TBD (Swimmeret / partner / SPV)"

// Seat histogram buckets.
const (
	SeatBucketSmall  = "1-3"
	SeatBucketMedium = "4-12"
	SeatBucketLarge  = "13+"
)

// Willingness-to-pay bands. Bands outside this set are counted under
// WTPBandOther and priced at the fallback rate.
const (
	WTPBandLow   = "low"
	WTPBandMid   = "mid"
	WTPBandHigh  = "high"
	WTPBandOther = "other"
)

// Urgency buckets for the latest incident of each pledging user.
const (
	UrgencyToday     = "today"
	UrgencyThisWeek  = "this week"
	UrgencyThisMonth = "this month"
	UrgencyUnknown   = "unknown"
)

// Per-seat monthly prices by willingness-to-pay band.
var wtpBandPrices = map[string]int64{
	WTPBandLow:  300,
	WTPBandMid:  600,
	WTPBandHigh: 1000,
}

const wtpFallbackPrice = 400

// PriceForWTPBand returns the per-seat monthly price implied by a band.
func PriceForWTPBand(band string) int64 {
	if price, ok := wtpBandPrices[band]; ok {
		return price
	}
	return wtpFallbackPrice
}

// BucketSeatCount buckets a pledge's intended seats for the histogram.
func BucketSeatCount(seats int) string {
	switch {
	case seats <= 3:
		return SeatBucketSmall
	case seats <= 12:
		return SeatBucketMedium
	default:
		return SeatBucketLarge
	}
}

// Pool is a demand pool for one (provider, pool type) pair.
type Pool struct {
	ID                 snowflake.ID                `gorm:"primaryKey" json:"id"`
	PoolType           string                      `gorm:"type:text;not null;uniqueIndex:ux_pools_provider_type,priority:2" json:"pool_type"`
	Provider           string                      `gorm:"type:text;not null;uniqueIndex:ux_pools_provider_type,priority:1" json:"provider"`
	Name               string                      `gorm:"type:text;not null" json:"name"`
	Slug               string                      `gorm:"type:text;not null;index" json:"slug"`
	ThresholdSeats     int                         `gorm:"not null" json:"threshold_seats"`
	NextThresholdSeats int                         `gorm:"not null" json:"next_threshold_seats"`
	TargetTerms        datatypes.JSONSlice[string] `gorm:"type:json" json:"target_terms"`
	Status             string                      `gorm:"type:text;not null" json:"status"`
	CreatedAt          time.Time                   `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Pool) TableName() string { return "pools" }

// Pledge is one user's seat commitment toward a pool. The (pool_id, user_id)
// pair is unique: a second pledge overwrites the first. IsVerified captures
// the user's tier at write time and is never recomputed afterwards.
type Pledge struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	PoolID           snowflake.ID `gorm:"not null;uniqueIndex:ux_pledges_pool_user,priority:1" json:"pool_id"`
	UserID           snowflake.ID `gorm:"not null;uniqueIndex:ux_pledges_pool_user,priority:2" json:"user_id"`
	SeatsIntended    int          `gorm:"not null" json:"seats_intended"`
	WTPBand          string       `gorm:"column:wtp_band;type:text;not null" json:"wtp_band"`
	Contact          string       `gorm:"type:text;not null;default:''" json:"contact"`
	ReferralCodeUsed *string      `gorm:"type:text" json:"referral_code_used"`
	IsVerified       bool         `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Pledge) TableName() string { return "pledges" }

// Totals summarizes a pool's pledged demand.
type Totals struct {
	PledgedSeats  int `json:"pledged_seats"`
	VerifiedSeats int `json:"verified_seats"`
	PledgeCount   int `json:"pledge_count"`
}

// WorkloadProfile averages the latest snapshot of each pledging user.
type WorkloadProfile struct {
	AvgRunCount          int `json:"avg_run_count"`
	AvgPeakConcurrency   int `json:"avg_peak_concurrency"`
	ProviderUsagePercent int `json:"provider_usage_percent"`
}

// PoolAggregate is the pool-wide statistics payload, recomputed fresh on
// every read.
type PoolAggregate struct {
	Pool                Pool            `json:"pool"`
	Totals              Totals          `json:"totals"`
	Histogram           map[string]int  `json:"histogram"`
	WTPDistribution     map[string]int  `json:"wtp_distribution"`
	UrgencyDistribution map[string]int  `json:"urgency_distribution"`
	ImpliedMonthly      int64           `json:"implied_monthly"`
	WorkloadProfile     WorkloadProfile `json:"workload_profile"`
	GuardrailAdoption   int             `json:"guardrail_adoption"`
	TargetTerms         []string        `json:"target_terms"`
	Counterparty        string          `json:"counterparty"`
}
