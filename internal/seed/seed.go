// Package seed bootstraps a demo pool and a handful of builders so a fresh
// checkout serves meaningful aggregates immediately.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	guardraildomain "github.com/cedarforestgiant/swimmeret/internal/guardrail/domain"
	incidentdomain "github.com/cedarforestgiant/swimmeret/internal/incident/domain"
	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	userdomain "github.com/cedarforestgiant/swimmeret/internal/user/domain"
	verificationdomain "github.com/cedarforestgiant/swimmeret/internal/verification/domain"
)

const (
	demoPoolName  = "Heavy Agent Builders - Stable Lane"
	demoPoolSlug  = "heavy-agent-builders-stable-lane"
	demoWorkspace = "ws_seed"
)

var demoTargetTerms = []string{
	"Throughput floor with priority lane during peak",
	"Policy notice window before enforcement changes",
	"Clear acceptable-use envelope for automation",
	"Dedicated escalation path for verified builders",
}

type demoBuilder struct {
	email     string
	incident  incidentdomain.Incident
	snapshot  telemetrydomain.UsageSnapshot
	score     verificationdomain.VerificationScore
	pledge    pooldomain.Pledge
	guardrail *guardraildomain.GuardrailSetting
}

// EnsureDemoData seeds the demo pool and builders when the pools table is
// empty. Re-running against a seeded database is a no-op.
func EnsureDemoData(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&pooldomain.Pool{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		return seedDemoTx(ctx, tx, node)
	})
}

func seedDemoTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) error {
	now := time.Now().UTC()

	pool := pooldomain.Pool{
		ID:                 node.Generate(),
		PoolType:           pooldomain.DefaultPoolType,
		Provider:           telemetrydomain.DefaultProvider,
		Name:               demoPoolName,
		Slug:               demoPoolSlug,
		ThresholdSeats:     50,
		NextThresholdSeats: 100,
		TargetTerms:        datatypes.NewJSONSlice(demoTargetTerms),
		Status:             pooldomain.PoolStatusForming,
		CreatedAt:          now,
	}
	if err := tx.WithContext(ctx).Create(&pool).Error; err != nil {
		return err
	}

	retry := func(v float64) *float64 { return &v }
	builders := []demoBuilder{
		{
			email: "seed-one@example.com",
			incident: incidentdomain.Incident{
				IncidentType: "throttled",
				SeatsBand:    "4-12",
				AgentsBand:   telemetrydomain.AgentsBand50To200,
				Urgency:      pooldomain.UrgencyToday,
			},
			snapshot: telemetrydomain.UsageSnapshot{
				RunCount:        7200,
				PeakConcurrency: 90,
				ProviderUsage: datatypes.JSONMap{
					telemetrydomain.DefaultProvider: 0.78,
					"Other":                         0.22,
				},
				TokenProxy: 1800000,
				RetryRate:  retry(0.06),
			},
			score: verificationdomain.VerificationScore{
				Score: 92,
				Tier:  verificationdomain.TierPower,
				Reasons: datatypes.NewJSONSlice([]string{
					"Run volume over 1,000 in 30 days",
					"Run volume over 5,000 in 30 days",
					"Peak concurrency over 20",
					"Peak concurrency over 60",
					"Consistent provider usage in telemetry",
				}),
			},
			pledge: pooldomain.Pledge{
				SeatsIntended: 12,
				WTPBand:       pooldomain.WTPBandMid,
				IsVerified:    true,
			},
			guardrail: &guardraildomain.GuardrailSetting{
				Applied: true,
				Settings: datatypes.JSONMap{
					guardraildomain.SettingCapConcurrency: true,
					guardraildomain.SettingJitterBackoff:  true,
					guardraildomain.SettingLoopLimiter:    true,
					guardraildomain.SettingCacheDedupe:    false,
				},
			},
		},
		{
			email: "seed-two@example.com",
			incident: incidentdomain.Incident{
				IncidentType: "warned",
				SeatsBand:    "2-3",
				AgentsBand:   telemetrydomain.AgentsBand10To50,
				Urgency:      pooldomain.UrgencyThisWeek,
			},
			snapshot: telemetrydomain.UsageSnapshot{
				RunCount:        2100,
				PeakConcurrency: 28,
				ProviderUsage: datatypes.JSONMap{
					telemetrydomain.DefaultProvider: 0.64,
					"Other":                         0.36,
				},
				TokenProxy: 540000,
				RetryRate:  retry(0.04),
			},
			score: verificationdomain.VerificationScore{
				Score: 74,
				Tier:  verificationdomain.TierVerified,
				Reasons: datatypes.NewJSONSlice([]string{
					"Run volume over 1,000 in 30 days",
					"Peak concurrency over 20",
					"Consistent provider usage in telemetry",
				}),
			},
			pledge: pooldomain.Pledge{
				SeatsIntended: 8,
				WTPBand:       pooldomain.WTPBandLow,
				IsVerified:    true,
			},
			guardrail: &guardraildomain.GuardrailSetting{
				Applied: true,
				Settings: datatypes.JSONMap{
					guardraildomain.SettingCapConcurrency: true,
					guardraildomain.SettingJitterBackoff:  false,
					guardraildomain.SettingLoopLimiter:    true,
					guardraildomain.SettingCacheDedupe:    true,
				},
			},
		},
		{
			email: "seed-three@example.com",
			incident: incidentdomain.Incident{
				IncidentType: "canceled",
				SeatsBand:    "13+",
				AgentsBand:   telemetrydomain.AgentsBand200Plus,
				Urgency:      pooldomain.UrgencyThisMonth,
			},
			snapshot: telemetrydomain.UsageSnapshot{
				RunCount:        14200,
				PeakConcurrency: 210,
				ProviderUsage: datatypes.JSONMap{
					telemetrydomain.DefaultProvider: 0.82,
					"Other":                         0.18,
				},
				TokenProxy: 3400000,
				RetryRate:  retry(0.08),
			},
			score: verificationdomain.VerificationScore{
				Score: 98,
				Tier:  verificationdomain.TierPower,
				Reasons: datatypes.NewJSONSlice([]string{
					"Run volume over 1,000 in 30 days",
					"Run volume over 5,000 in 30 days",
					"Peak concurrency over 20",
					"Peak concurrency over 60",
					"Consistent provider usage in telemetry",
				}),
			},
			pledge: pooldomain.Pledge{
				SeatsIntended: 7,
				WTPBand:       pooldomain.WTPBandHigh,
				IsVerified:    true,
			},
		},
	}

	for _, builder := range builders {
		user := userdomain.User{
			ID:          node.Generate(),
			Email:       builder.email,
			WorkspaceID: demoWorkspace,
			CreatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
			return err
		}

		incident := builder.incident
		incident.ID = node.Generate()
		incident.UserID = user.ID
		incident.Provider = telemetrydomain.DefaultProvider
		incident.ConsentTelemetry = true
		incident.CreatedAt = now
		if err := tx.WithContext(ctx).Create(&incident).Error; err != nil {
			return err
		}

		snapshot := builder.snapshot
		snapshot.ID = node.Generate()
		snapshot.UserID = user.ID
		snapshot.WindowDays = telemetrydomain.DefaultWindowDays
		snapshot.GeneratedAt = now
		if err := tx.WithContext(ctx).Create(&snapshot).Error; err != nil {
			return err
		}

		score := builder.score
		score.ID = node.Generate()
		score.UserID = user.ID
		score.CreatedAt = now
		if err := tx.WithContext(ctx).Create(&score).Error; err != nil {
			return err
		}

		pledge := builder.pledge
		pledge.ID = node.Generate()
		pledge.PoolID = pool.ID
		pledge.UserID = user.ID
		pledge.Contact = builder.email
		pledge.CreatedAt = now
		if err := tx.WithContext(ctx).Create(&pledge).Error; err != nil {
			return err
		}

		if builder.guardrail != nil {
			guardrail := *builder.guardrail
			guardrail.ID = node.Generate()
			guardrail.UserID = user.ID
			guardrail.CreatedAt = now
			if err := tx.WithContext(ctx).Create(&guardrail).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
