package service

import (
	"context"
	"errors"
	"math"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	guardraildomain "github.com/cedarforestgiant/swimmeret/internal/guardrail/domain"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
)

// Aggregate recomputes pool statistics from the current record set. It is a
// pure read: no caching, no incremental state, so two calls with no
// intervening writes return identical output.
func (s *Service) Aggregate(ctx context.Context, poolID snowflake.ID) (pooldomain.PoolAggregate, error) {
	var pool pooldomain.Pool
	err := s.db.WithContext(ctx).Where("id = ?", poolID).First(&pool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pooldomain.PoolAggregate{}, pooldomain.ErrPoolNotFound
		}
		return pooldomain.PoolAggregate{}, err
	}
	return s.buildAggregate(ctx, pool)
}

// AggregateBySlug resolves a pool by slug before aggregating. Pools are
// immutable after creation, so the slug lookup goes through a small cache.
func (s *Service) AggregateBySlug(ctx context.Context, slug string) (pooldomain.PoolAggregate, error) {
	if poolID, ok := s.slugCache.Get(slug); ok {
		return s.Aggregate(ctx, poolID)
	}

	var pool pooldomain.Pool
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&pool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pooldomain.PoolAggregate{}, pooldomain.ErrPoolNotFound
		}
		return pooldomain.PoolAggregate{}, err
	}
	s.slugCache.Set(slug, pool.ID, slugCacheTTL)
	return s.buildAggregate(ctx, pool)
}

func (s *Service) buildAggregate(ctx context.Context, pool pooldomain.Pool) (pooldomain.PoolAggregate, error) {
	var pledges []pooldomain.Pledge
	err := s.db.WithContext(ctx).
		Where("pool_id = ?", pool.ID).
		Order("created_at ASC, id ASC").
		Find(&pledges).Error
	if err != nil {
		return pooldomain.PoolAggregate{}, err
	}

	agg := pooldomain.PoolAggregate{
		Pool: pool,
		Histogram: map[string]int{
			pooldomain.SeatBucketSmall:  0,
			pooldomain.SeatBucketMedium: 0,
			pooldomain.SeatBucketLarge:  0,
		},
		WTPDistribution: map[string]int{
			pooldomain.WTPBandLow:  0,
			pooldomain.WTPBandMid:  0,
			pooldomain.WTPBandHigh: 0,
		},
		UrgencyDistribution: map[string]int{
			pooldomain.UrgencyToday:     0,
			pooldomain.UrgencyThisWeek:  0,
			pooldomain.UrgencyThisMonth: 0,
			pooldomain.UrgencyUnknown:   0,
		},
		GuardrailAdoption: 0,
		TargetTerms:       pool.TargetTerms,
		Counterparty:      pooldomain.Counterparty,
	}
	if agg.TargetTerms == nil {
		agg.TargetTerms = []string{}
	}

	// Distinct pledging users in first-pledge order keeps the walk
	// deterministic for a fixed record set.
	userIDs := make([]snowflake.ID, 0, len(pledges))
	seen := make(map[snowflake.ID]bool, len(pledges))

	for _, pledge := range pledges {
		agg.Totals.PledgedSeats += pledge.SeatsIntended
		if pledge.IsVerified {
			agg.Totals.VerifiedSeats += pledge.SeatsIntended
		}
		agg.Totals.PledgeCount++

		agg.Histogram[pooldomain.BucketSeatCount(pledge.SeatsIntended)]++

		band := pledge.WTPBand
		if _, known := agg.WTPDistribution[band]; !known {
			band = pooldomain.WTPBandOther
		}
		agg.WTPDistribution[band]++

		agg.ImpliedMonthly += int64(pledge.SeatsIntended) * pooldomain.PriceForWTPBand(pledge.WTPBand)

		if !seen[pledge.UserID] {
			seen[pledge.UserID] = true
			userIDs = append(userIDs, pledge.UserID)
		}

		urgency, err := s.latestIncidentUrgency(ctx, pledge.UserID)
		if err != nil {
			return pooldomain.PoolAggregate{}, err
		}
		if _, known := agg.UrgencyDistribution[urgency]; !known {
			urgency = pooldomain.UrgencyUnknown
		}
		agg.UrgencyDistribution[urgency]++
	}

	profile, err := s.workloadProfile(ctx, userIDs, pool.Provider)
	if err != nil {
		return pooldomain.PoolAggregate{}, err
	}
	agg.WorkloadProfile = profile

	adoption, err := s.guardrailAdoption(ctx, userIDs)
	if err != nil {
		return pooldomain.PoolAggregate{}, err
	}
	agg.GuardrailAdoption = adoption

	return agg, nil
}

// latestIncidentUrgency returns the urgency of the user's most recent
// incident, or the unknown bucket when none exists.
func (s *Service) latestIncidentUrgency(ctx context.Context, userID snowflake.ID) (string, error) {
	var incident incidentdomain.Incident
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pooldomain.UrgencyUnknown, nil
		}
		return "", err
	}
	return incident.Urgency, nil
}

// workloadProfile averages the latest snapshot of each pledging user. Users
// without a snapshot are excluded from the averages entirely.
func (s *Service) workloadProfile(ctx context.Context, userIDs []snowflake.ID, provider string) (pooldomain.WorkloadProfile, error) {
	var (
		count       int
		runSum      int
		peakSum     int
		providerSum float64
	)
	for _, userID := range userIDs {
		var snapshot telemetrydomain.UsageSnapshot
		err := s.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("generated_at DESC, id DESC").
			First(&snapshot).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return pooldomain.WorkloadProfile{}, err
		}
		count++
		runSum += snapshot.RunCount
		peakSum += snapshot.PeakConcurrency
		providerSum += snapshot.ProviderFraction(provider)
	}

	if count == 0 {
		return pooldomain.WorkloadProfile{}, nil
	}
	n := float64(count)
	return pooldomain.WorkloadProfile{
		AvgRunCount:          int(math.Round(float64(runSum) / n)),
		AvgPeakConcurrency:   int(math.Round(float64(peakSum) / n)),
		ProviderUsagePercent: int(math.Round(providerSum / n * 100)),
	}, nil
}

// guardrailAdoption is the rounded percentage of pledging users with an
// applied guardrail record. A pool with no pledging users reports 0.
func (s *Service) guardrailAdoption(ctx context.Context, userIDs []snowflake.ID) (int, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	var applied int64
	err := s.db.WithContext(ctx).
		Model(&guardraildomain.GuardrailSetting{}).
		Where("user_id IN ? AND applied = ?", userIDs, true).
		Count(&applied).Error
	if err != nil {
		return 0, err
	}
	return int(math.Round(float64(applied) / float64(len(userIDs)) * 100)), nil
}
