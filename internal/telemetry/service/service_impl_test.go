package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/clock"
	"github.com/cedarforestgiant/swimmeret/internal/events"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	"github.com/cedarforestgiant/swimmeret/internal/jitter"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
)

var testDBSeq atomic.Int64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:telemetry_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&incidentdomain.Incident{},
		&telemetrydomain.UsageSnapshot{},
		&events.PoolEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, now time.Time) *Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return &Service{
		db:     db,
		log:    zap.NewNop(),
		genID:  node,
		clk:    clock.FixedClock{Time: now},
		src:    jitter.NewSeededSource(42),
		outbox: events.NewOutbox(db, node),
	}
}

var (
	testNodeOnce sync.Once
	testNode     *snowflake.Node
)

func testIDNode(t *testing.T) *snowflake.Node {
	t.Helper()
	testNodeOnce.Do(func() {
		node, err := snowflake.NewNode(2)
		if err != nil {
			t.Fatalf("new node: %v", err)
		}
		testNode = node
	})
	return testNode
}

func insertIncident(t *testing.T, db *gorm.DB, userID snowflake.ID, agentsBand string, createdAt time.Time) {
	t.Helper()
	incident := incidentdomain.Incident{
		ID:           testIDNode(t).Generate(),
		UserID:       userID,
		IncidentType: "throttled",
		Provider:     telemetrydomain.DefaultProvider,
		AgentsBand:   agentsBand,
		CreatedAt:    createdAt,
	}
	if err := db.Create(&incident).Error; err != nil {
		t.Fatalf("insert incident: %v", err)
	}
}

func TestBuildSnapshotRequiresUserID(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, time.Now().UTC())

	_, err := svc.BuildSnapshot(context.Background(), telemetrydomain.BuildSnapshotRequest{Consent: true})
	if !errors.Is(err, telemetrydomain.ErrMissingUserID) {
		t.Fatalf("expected missing user id, got %v", err)
	}
}

func TestBuildSnapshotWithoutConsentIsZeroed(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	snapshot, err := svc.BuildSnapshot(context.Background(), telemetrydomain.BuildSnapshotRequest{
		UserID:  77,
		Consent: false,
	})
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}

	if snapshot.RunCount != 0 || snapshot.PeakConcurrency != 0 || snapshot.TokenProxy != 0 {
		t.Fatalf("expected zeroed counts, got %+v", snapshot)
	}
	if snapshot.RetryRate != nil {
		t.Fatalf("expected nil retry rate, got %v", *snapshot.RetryRate)
	}
	if len(snapshot.ProviderUsage) != 0 {
		t.Fatalf("expected empty provider usage, got %v", snapshot.ProviderUsage)
	}
	if snapshot.WindowDays != telemetrydomain.DefaultWindowDays {
		t.Fatalf("expected default window, got %d", snapshot.WindowDays)
	}
	if !snapshot.GeneratedAt.Equal(now) {
		t.Fatalf("expected generated_at %v, got %v", now, snapshot.GeneratedAt)
	}
}

func TestBuildSnapshotUsesLatestIncidentBand(t *testing.T) {
	db := setupTestDB(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, db, now)

	userID := snowflake.ID(88)
	insertIncident(t, db, userID, telemetrydomain.AgentsBand1To10, now.Add(-2*time.Hour))
	insertIncident(t, db, userID, telemetrydomain.AgentsBand50To200, now.Add(-time.Hour))

	snapshot, err := svc.BuildSnapshot(context.Background(), telemetrydomain.BuildSnapshotRequest{
		UserID:  userID,
		Consent: true,
	})
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}

	baseline := telemetrydomain.BaselineFor(telemetrydomain.AgentsBand50To200)
	if snapshot.RunCount < baseline.RunCount || snapshot.RunCount >= baseline.RunCount+runJitterSpan {
		t.Fatalf("run count %d outside [%d, %d)", snapshot.RunCount, baseline.RunCount, baseline.RunCount+runJitterSpan)
	}
	if snapshot.PeakConcurrency < baseline.PeakConcurrency || snapshot.PeakConcurrency >= baseline.PeakConcurrency+peakJitterSpan {
		t.Fatalf("peak %d outside [%d, %d)", snapshot.PeakConcurrency, baseline.PeakConcurrency, baseline.PeakConcurrency+peakJitterSpan)
	}
	if snapshot.TokenProxy != int64(snapshot.RunCount)*tokensPerRun {
		t.Fatalf("token proxy %d does not match run count %d", snapshot.TokenProxy, snapshot.RunCount)
	}
	if snapshot.RetryRate == nil {
		t.Fatalf("expected retry rate set")
	}
	if *snapshot.RetryRate < retryRateFloor || *snapshot.RetryRate > retryRateFloor+retryRateSpan {
		t.Fatalf("retry rate %v outside bounds", *snapshot.RetryRate)
	}
	if got := snapshot.ProviderFraction(telemetrydomain.DefaultProvider); got != providerShare {
		t.Fatalf("expected provider share %v, got %v", providerShare, got)
	}
	if got := snapshot.ProviderFraction("Other"); got != otherShare {
		t.Fatalf("expected other share %v, got %v", otherShare, got)
	}
}

func TestBuildSnapshotNoIncidentsFallsBack(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, time.Now().UTC())

	snapshot, err := svc.BuildSnapshot(context.Background(), telemetrydomain.BuildSnapshotRequest{
		UserID:  99,
		Consent: true,
	})
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}

	baseline := telemetrydomain.BaselineFor(telemetrydomain.AgentsBand1To10)
	if snapshot.RunCount < baseline.RunCount || snapshot.RunCount >= baseline.RunCount+runJitterSpan {
		t.Fatalf("run count %d outside smallest band bounds", snapshot.RunCount)
	}
}

func TestBuildSnapshotPersistsRowAndEvent(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, time.Now().UTC())

	snapshot, err := svc.BuildSnapshot(context.Background(), telemetrydomain.BuildSnapshotRequest{
		UserID:  55,
		Consent: true,
	})
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}

	var stored telemetrydomain.UsageSnapshot
	if err := db.Where("id = ?", snapshot.ID).First(&stored).Error; err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if stored.RunCount != snapshot.RunCount {
		t.Fatalf("stored run count %d, expected %d", stored.RunCount, snapshot.RunCount)
	}

	var eventCount int64
	if err := db.Model(&events.PoolEvent{}).
		Where("event_type = ?", events.EventSnapshotBuilt).
		Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("expected one snapshot event, got %d", eventCount)
	}
}

func TestBuildSnapshotDefaultsProviderName(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(t, db, time.Now().UTC())

	snapshot, err := svc.BuildSnapshot(context.Background(), telemetrydomain.BuildSnapshotRequest{
		UserID:   66,
		Provider: "  ",
		Consent:  true,
	})
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	if !snapshot.HasProviderUsage() {
		t.Fatalf("expected provider usage recorded")
	}
	if got := snapshot.ProviderFraction(telemetrydomain.DefaultProvider); got != providerShare {
		t.Fatalf("expected default provider entry, got %v", snapshot.ProviderUsage)
	}
}
