package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/clock"
	"github.com/cedarforestgiant/swimmeret/internal/events"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	"github.com/cedarforestgiant/swimmeret/internal/jitter"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
)

// Jitter bounds applied to consented baselines.
const (
	runJitterSpan  = 300
	peakJitterSpan = 6

	retryRateFloor = 0.04
	retryRateSpan  = 0.08

	tokensPerRun = 250

	providerShare = 0.72
	otherShare    = 0.28
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID  *snowflake.Node
	clk    clock.Clock
	src    jitter.Source
	outbox *events.Outbox
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Jitter jitter.Source
	Outbox *events.Outbox
}

func NewService(p ServiceParam) telemetrydomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("telemetry.service"),

		genID:  p.GenID,
		clk:    p.Clock,
		src:    p.Jitter,
		outbox: p.Outbox,
	}
}

// BuildSnapshot derives a usage snapshot from the baseline implied by the
// user's latest self-reported agents band. Without telemetry consent the
// snapshot is zeroed rather than rejected.
func (s *Service) BuildSnapshot(ctx context.Context, req telemetrydomain.BuildSnapshotRequest) (telemetrydomain.UsageSnapshot, error) {
	if req.UserID == 0 {
		return telemetrydomain.UsageSnapshot{}, telemetrydomain.ErrMissingUserID
	}

	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = telemetrydomain.DefaultProvider
	}
	windowDays := req.WindowDays
	if windowDays <= 0 {
		windowDays = telemetrydomain.DefaultWindowDays
	}

	agentsBand, err := s.latestAgentsBand(ctx, req.UserID)
	if err != nil {
		return telemetrydomain.UsageSnapshot{}, err
	}
	baseline := telemetrydomain.BaselineFor(agentsBand)

	snapshot := telemetrydomain.UsageSnapshot{
		ID:            s.genID.Generate(),
		UserID:        req.UserID,
		WindowDays:    windowDays,
		ProviderUsage: datatypes.JSONMap{},
		GeneratedAt:   s.clk.Now(),
	}
	if req.Consent {
		snapshot.RunCount = baseline.RunCount + s.src.IntN(runJitterSpan)
		snapshot.PeakConcurrency = baseline.PeakConcurrency + s.src.IntN(peakJitterSpan)
		snapshot.ProviderUsage = datatypes.JSONMap{
			provider: providerShare,
			"Other":  otherShare,
		}
		snapshot.TokenProxy = int64(snapshot.RunCount) * tokensPerRun
		retry := math.Round((retryRateFloor+s.src.Float64()*retryRateSpan)*100) / 100
		snapshot.RetryRate = &retry
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Create(&snapshot).Error; err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventSnapshotBuilt,
			Payload: map[string]any{
				"snapshot_id": snapshot.ID.String(),
				"user_id":     snapshot.UserID.String(),
				"consent":     req.Consent,
			},
		})
	})
	if err != nil {
		return telemetrydomain.UsageSnapshot{}, err
	}

	s.log.Info("usage snapshot built",
		zap.String("user_id", snapshot.UserID.String()),
		zap.Int("run_count", snapshot.RunCount),
		zap.Bool("consent", req.Consent),
	)
	return snapshot, nil
}

// latestAgentsBand reads the agents band from the user's most recent
// incident. Users with no incidents fall back to the smallest band.
func (s *Service) latestAgentsBand(ctx context.Context, userID snowflake.ID) (string, error) {
	var incident incidentdomain.Incident
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return telemetrydomain.AgentsBand1To10, nil
		}
		return "", err
	}
	return incident.AgentsBand, nil
}
