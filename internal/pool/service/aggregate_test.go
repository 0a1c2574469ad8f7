package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	guardraildomain "github.com/cedarforestgiant/swimmeret/internal/guardrail/domain"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	verificationdomain "github.com/cedarforestgiant/swimmeret/internal/verification/domain"
)

func insertAggIncident(t *testing.T, db *gorm.DB, userID snowflake.ID, urgency string, createdAt time.Time) {
	t.Helper()
	incident := incidentdomain.Incident{
		ID:           testIDNode(t).Generate(),
		UserID:       userID,
		IncidentType: "throttled",
		Provider:     telemetrydomain.DefaultProvider,
		Urgency:      urgency,
		CreatedAt:    createdAt,
	}
	if err := db.Create(&incident).Error; err != nil {
		t.Fatalf("insert incident: %v", err)
	}
}

func insertAggSnapshot(t *testing.T, db *gorm.DB, userID snowflake.ID, runCount, peak int, providerShare float64, generatedAt time.Time) {
	t.Helper()
	snapshot := telemetrydomain.UsageSnapshot{
		ID:              testIDNode(t).Generate(),
		UserID:          userID,
		WindowDays:      telemetrydomain.DefaultWindowDays,
		RunCount:        runCount,
		PeakConcurrency: peak,
		ProviderUsage: datatypes.JSONMap{
			telemetrydomain.DefaultProvider: providerShare,
		},
		GeneratedAt: generatedAt,
	}
	if err := db.Create(&snapshot).Error; err != nil {
		t.Fatalf("insert snapshot: %v", err)
	}
}

func insertGuardrail(t *testing.T, db *gorm.DB, userID snowflake.ID, applied bool) {
	t.Helper()
	entry := guardraildomain.GuardrailSetting{
		ID:        testIDNode(t).Generate(),
		UserID:    userID,
		Applied:   applied,
		Settings:  datatypes.JSONMap{guardraildomain.SettingCapConcurrency: true},
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("insert guardrail: %v", err)
	}
}

func TestAggregateTotalsAndDistributions(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	svc := newTestService(t, db, now)
	pool := mustJoin(t, svc)

	verifiedUser := snowflake.ID(301)
	insertUser(t, db, verifiedUser, "agg-verified@example.com")
	insertScore(t, db, verifiedUser, verificationdomain.TierVerified, now.Add(-time.Hour))

	unverifiedUser := snowflake.ID(302)
	insertUser(t, db, unverifiedUser, "agg-unverified@example.com")

	if _, err := svc.UpsertPledge(context.Background(), pooldomain.PledgeRequest{
		PoolID:        pool.ID,
		UserID:        verifiedUser,
		SeatsIntended: 10,
		WTPBand:       pooldomain.WTPBandMid,
	}); err != nil {
		t.Fatalf("verified pledge: %v", err)
	}
	if _, err := svc.UpsertPledge(context.Background(), pooldomain.PledgeRequest{
		PoolID:        pool.ID,
		UserID:        unverifiedUser,
		SeatsIntended: 5,
		WTPBand:       pooldomain.WTPBandLow,
	}); err != nil {
		t.Fatalf("unverified pledge: %v", err)
	}

	agg, err := svc.Aggregate(context.Background(), pool.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if agg.Totals.PledgedSeats != 15 {
		t.Fatalf("expected 15 pledged seats, got %d", agg.Totals.PledgedSeats)
	}
	if agg.Totals.VerifiedSeats != 10 {
		t.Fatalf("expected 10 verified seats, got %d", agg.Totals.VerifiedSeats)
	}
	if agg.Totals.PledgeCount != 2 {
		t.Fatalf("expected 2 pledges, got %d", agg.Totals.PledgeCount)
	}

	wantHistogram := map[string]int{
		pooldomain.SeatBucketSmall:  0,
		pooldomain.SeatBucketMedium: 2,
		pooldomain.SeatBucketLarge:  0,
	}
	if !reflect.DeepEqual(agg.Histogram, wantHistogram) {
		t.Fatalf("unexpected histogram: %v", agg.Histogram)
	}

	wantWTP := map[string]int{
		pooldomain.WTPBandLow:  1,
		pooldomain.WTPBandMid:  1,
		pooldomain.WTPBandHigh: 0,
	}
	if !reflect.DeepEqual(agg.WTPDistribution, wantWTP) {
		t.Fatalf("unexpected wtp distribution: %v", agg.WTPDistribution)
	}

	// 10 * 600 + 5 * 300
	if agg.ImpliedMonthly != 7500 {
		t.Fatalf("expected implied monthly 7500, got %d", agg.ImpliedMonthly)
	}

	if agg.UrgencyDistribution[pooldomain.UrgencyUnknown] != 2 {
		t.Fatalf("users without incidents should be unknown urgency: %v", agg.UrgencyDistribution)
	}
	if agg.Counterparty != pooldomain.Counterparty {
		t.Fatalf("unexpected counterparty %q", agg.Counterparty)
	}
}

func TestAggregateUnknownPool(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, time.Now().UTC())

	_, err := svc.Aggregate(context.Background(), 999999)
	if !errors.Is(err, pooldomain.ErrPoolNotFound) {
		t.Fatalf("expected pool not found, got %v", err)
	}
}

func TestAggregateBySlug(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, time.Now().UTC())
	pool := mustJoin(t, svc)

	agg, err := svc.AggregateBySlug(context.Background(), pool.Slug)
	if err != nil {
		t.Fatalf("aggregate by slug: %v", err)
	}
	if agg.Pool.ID != pool.ID {
		t.Fatalf("expected pool %v, got %v", pool.ID, agg.Pool.ID)
	}

	// Second call resolves through the slug cache.
	again, err := svc.AggregateBySlug(context.Background(), pool.Slug)
	if err != nil {
		t.Fatalf("cached aggregate by slug: %v", err)
	}
	if again.Pool.ID != pool.ID {
		t.Fatalf("cached lookup returned pool %v", again.Pool.ID)
	}

	if _, err := svc.AggregateBySlug(context.Background(), "no-such-pool"); !errors.Is(err, pooldomain.ErrPoolNotFound) {
		t.Fatalf("expected pool not found for unknown slug, got %v", err)
	}
}

func TestAggregateUrgencyUsesLatestIncident(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	svc := newTestService(t, db, now)
	pool := mustJoin(t, svc)

	userID := snowflake.ID(303)
	insertUser(t, db, userID, "urgency@example.com")
	insertAggIncident(t, db, userID, pooldomain.UrgencyThisMonth, now.Add(-2*time.Hour))
	insertAggIncident(t, db, userID, pooldomain.UrgencyToday, now.Add(-time.Hour))

	if _, err := svc.UpsertPledge(context.Background(), pooldomain.PledgeRequest{
		PoolID:        pool.ID,
		UserID:        userID,
		SeatsIntended: 1,
		WTPBand:       pooldomain.WTPBandLow,
	}); err != nil {
		t.Fatalf("upsert pledge: %v", err)
	}

	agg, err := svc.Aggregate(context.Background(), pool.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.UrgencyDistribution[pooldomain.UrgencyToday] != 1 {
		t.Fatalf("expected latest incident urgency counted: %v", agg.UrgencyDistribution)
	}
	if agg.UrgencyDistribution[pooldomain.UrgencyThisMonth] != 0 {
		t.Fatalf("older incident should not count: %v", agg.UrgencyDistribution)
	}
}

func TestAggregateWorkloadProfile(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	svc := newTestService(t, db, now)
	pool := mustJoin(t, svc)

	userA := snowflake.ID(304)
	insertUser(t, db, userA, "profile-a@example.com")
	insertAggSnapshot(t, db, userA, 7200, 90, 0.78, now.Add(-time.Hour))

	userB := snowflake.ID(305)
	insertUser(t, db, userB, "profile-b@example.com")
	insertAggSnapshot(t, db, userB, 2100, 28, 0.64, now.Add(-time.Hour))

	// No snapshot for this user; excluded from the averages.
	userC := snowflake.ID(306)
	insertUser(t, db, userC, "profile-c@example.com")

	for _, userID := range []snowflake.ID{userA, userB, userC} {
		if _, err := svc.UpsertPledge(context.Background(), pooldomain.PledgeRequest{
			PoolID:        pool.ID,
			UserID:        userID,
			SeatsIntended: 2,
			WTPBand:       pooldomain.WTPBandMid,
		}); err != nil {
			t.Fatalf("upsert pledge: %v", err)
		}
	}

	agg, err := svc.Aggregate(context.Background(), pool.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if agg.WorkloadProfile.AvgRunCount != 4650 {
		t.Fatalf("expected avg run count 4650, got %d", agg.WorkloadProfile.AvgRunCount)
	}
	if agg.WorkloadProfile.AvgPeakConcurrency != 59 {
		t.Fatalf("expected avg peak 59, got %d", agg.WorkloadProfile.AvgPeakConcurrency)
	}
	if agg.WorkloadProfile.ProviderUsagePercent != 71 {
		t.Fatalf("expected provider usage 71%%, got %d", agg.WorkloadProfile.ProviderUsagePercent)
	}
}

func TestAggregateGuardrailAdoption(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	svc := newTestService(t, db, now)
	pool := mustJoin(t, svc)

	userA := snowflake.ID(307)
	insertUser(t, db, userA, "guard-a@example.com")
	insertGuardrail(t, db, userA, true)

	userB := snowflake.ID(308)
	insertUser(t, db, userB, "guard-b@example.com")

	for _, userID := range []snowflake.ID{userA, userB} {
		if _, err := svc.UpsertPledge(context.Background(), pooldomain.PledgeRequest{
			PoolID:        pool.ID,
			UserID:        userID,
			SeatsIntended: 2,
			WTPBand:       pooldomain.WTPBandLow,
		}); err != nil {
			t.Fatalf("upsert pledge: %v", err)
		}
	}

	agg, err := svc.Aggregate(context.Background(), pool.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.GuardrailAdoption != 50 {
		t.Fatalf("expected 50%% adoption, got %d", agg.GuardrailAdoption)
	}
}

func TestAggregateEmptyPool(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, time.Now().UTC())
	pool := mustJoin(t, svc)

	agg, err := svc.Aggregate(context.Background(), pool.ID)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if agg.Totals.PledgedSeats != 0 || agg.Totals.PledgeCount != 0 {
		t.Fatalf("expected empty totals, got %+v", agg.Totals)
	}
	if agg.ImpliedMonthly != 0 {
		t.Fatalf("expected zero implied monthly, got %d", agg.ImpliedMonthly)
	}
	if agg.GuardrailAdoption != 0 {
		t.Fatalf("expected zero adoption, got %d", agg.GuardrailAdoption)
	}
	if len(agg.TargetTerms) != 4 {
		t.Fatalf("expected pool target terms carried, got %v", agg.TargetTerms)
	}
	if agg.WorkloadProfile != (pooldomain.WorkloadProfile{}) {
		t.Fatalf("expected zero workload profile, got %+v", agg.WorkloadProfile)
	}
}

func TestAggregateIsRepeatable(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now().UTC()
	svc := newTestService(t, db, now)
	pool := mustJoin(t, svc)

	userID := snowflake.ID(309)
	insertUser(t, db, userID, "repeat@example.com")
	if _, err := svc.UpsertPledge(context.Background(), pooldomain.PledgeRequest{
		PoolID:        pool.ID,
		UserID:        userID,
		SeatsIntended: 6,
		WTPBand:       pooldomain.WTPBandHigh,
	}); err != nil {
		t.Fatalf("upsert pledge: %v", err)
	}

	first, err := svc.Aggregate(context.Background(), pool.ID)
	if err != nil {
		t.Fatalf("first aggregate: %v", err)
	}
	second, err := svc.Aggregate(context.Background(), pool.ID)
	if err != nil {
		t.Fatalf("second aggregate: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("aggregates differ between reads with no writes")
	}
}
