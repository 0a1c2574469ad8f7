package domain

import (
	"math"

	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
)

// Scoring thresholds. Run counts and peaks are assumed non-negative; the
// snapshot builder never produces negative telemetry.
const (
	noTelemetryScore = 18

	powerRunCount    = 5000
	powerPeak        = 60
	verifiedRunCount = 1000
	verifiedPeak     = 20

	providerBonusPoints = 8
	retryPenaltyPoints  = 8
	highRetryRate       = 0.12

	runCountDivisor = 120
)

// Result is the outcome of scoring a snapshot.
type Result struct {
	Score   int
	Tier    string
	Reasons []string
}

// Score maps a usage snapshot, or the absence of one, to a verification
// result. It is a pure function of its input: a nil snapshot or one with a
// zero run count yields a fixed unverified sentinel rather than a computed
// score.
func Score(snapshot *telemetrydomain.UsageSnapshot) Result {
	if snapshot == nil || snapshot.RunCount == 0 {
		return Result{
			Score:   noTelemetryScore,
			Tier:    TierUnverified,
			Reasons: []string{"Telemetry consent missing or too little usage data"},
		}
	}

	runCount := snapshot.RunCount
	peak := snapshot.PeakConcurrency

	providerBonus := 0
	if snapshot.HasProviderUsage() {
		providerBonus = providerBonusPoints
	}
	retryPenalty := 0
	if snapshot.RetryRate != nil && *snapshot.RetryRate > highRetryRate {
		retryPenalty = retryPenaltyPoints
	}

	raw := float64(runCount)/runCountDivisor + float64(peak) + float64(providerBonus) - float64(retryPenalty)
	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	tier := TierUnverified
	switch {
	case runCount >= powerRunCount && peak >= powerPeak:
		tier = TierPower
	case runCount >= verifiedRunCount || peak >= verifiedPeak:
		tier = TierVerified
	}

	var reasons []string
	if runCount >= verifiedRunCount {
		reasons = append(reasons, "Run volume over 1,000 in 30 days")
	}
	if runCount >= powerRunCount {
		reasons = append(reasons, "Run volume over 5,000 in 30 days")
	}
	if peak >= verifiedPeak {
		reasons = append(reasons, "Peak concurrency over 20")
	}
	if peak >= powerPeak {
		reasons = append(reasons, "Peak concurrency over 60")
	}
	if providerBonus > 0 {
		reasons = append(reasons, "Consistent provider usage in telemetry")
	}
	if retryPenalty > 0 {
		reasons = append(reasons, "High retry rate detected")
	}
	if len(reasons) == 0 {
		reasons = []string{"Usage profile below verification thresholds"}
	}

	return Result{Score: score, Tier: tier, Reasons: reasons}
}
