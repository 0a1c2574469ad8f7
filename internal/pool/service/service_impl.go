package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/cache"
	"github.com/cedarforestgiant/swimmeret/internal/clock"
	"github.com/cedarforestgiant/swimmeret/internal/events"
	pooldomain "github.com/cedarforestgiant/swimmeret/internal/pool/domain"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	userdomain "github.com/cedarforestgiant/swimmeret/internal/user/domain"
	verificationdomain "github.com/cedarforestgiant/swimmeret/internal/verification/domain"
)

// Defaults used when find-or-creating a pool.
const (
	defaultPoolName           = "Heavy Agent Builders - Stable Lane"
	defaultThresholdSeats     = 50
	defaultNextThresholdSeats = 100
)

var defaultTargetTerms = []string{
	"Throughput floor with priority lane during peak",
	"Policy notice window before enforcement changes",
	"Clear acceptable-use envelope for automation",
	"Dedicated escalation path for verified builders",
}

// Pool rows are immutable after creation, so slug resolution is safe to cache.
const slugCacheTTL = 5 * time.Minute

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	clk       clock.Clock
	outbox    *events.Outbox
	slugCache cache.Cache[string, snowflake.ID]
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

func NewService(p ServiceParam) pooldomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("pool.service"),

		genID:     p.GenID,
		clk:       p.Clock,
		outbox:    p.Outbox,
		slugCache: cache.NewTTLCache[string, snowflake.ID](),
	}
}

// Join finds or creates the pool keyed by (provider, pool type) and returns
// the caller's existing pledge alongside a shareable link.
func (s *Service) Join(ctx context.Context, req pooldomain.JoinRequest) (pooldomain.JoinResponse, error) {
	provider := strings.TrimSpace(req.Provider)
	if provider == "" {
		provider = telemetrydomain.DefaultProvider
	}
	poolType := strings.TrimSpace(req.PoolType)
	if poolType == "" {
		poolType = pooldomain.DefaultPoolType
	}

	var resp pooldomain.JoinResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pool, err := s.ensurePool(ctx, tx, provider, poolType)
		if err != nil {
			return err
		}

		var pledge pooldomain.Pledge
		err = tx.WithContext(ctx).
			Where("pool_id = ? AND user_id = ?", pool.ID, req.UserID).
			First(&pledge).Error
		switch {
		case err == nil:
			resp.Pledge = &pledge
		case errors.Is(err, gorm.ErrRecordNotFound):
			resp.Pledge = nil
		default:
			return err
		}

		resp.Pool = pool
		resp.ShareLink = "/p/" + pool.Slug
		return nil
	})
	if err != nil {
		return pooldomain.JoinResponse{}, err
	}
	return resp, nil
}

// UpsertPledge writes the caller's pledge for a pool. The (pool_id, user_id)
// pair is unique: resubmission overwrites seats, band and timestamps, and the
// verification flag is re-stamped from the tier current at write time.
func (s *Service) UpsertPledge(ctx context.Context, req pooldomain.PledgeRequest) (pooldomain.Pledge, error) {
	if req.UserID == 0 {
		return pooldomain.Pledge{}, pooldomain.ErrMissingUserID
	}
	if req.SeatsIntended < 1 {
		return pooldomain.Pledge{}, pooldomain.ErrInvalidSeats
	}
	switch req.WTPBand {
	case pooldomain.WTPBandLow, pooldomain.WTPBandMid, pooldomain.WTPBandHigh:
	default:
		return pooldomain.Pledge{}, pooldomain.ErrInvalidWTP
	}

	now := s.clk.Now()
	contact := strings.TrimSpace(req.Contact)
	referral := strings.TrimSpace(req.ReferralCodeUsed)

	var pledge pooldomain.Pledge
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pool pooldomain.Pool
		if err := tx.WithContext(ctx).Where("id = ?", req.PoolID).First(&pool).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pooldomain.ErrPoolNotFound
			}
			return err
		}

		isVerified, err := s.currentTierIsVerified(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		err = tx.WithContext(ctx).
			Where("pool_id = ? AND user_id = ?", pool.ID, req.UserID).
			First(&pledge).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			pledge = pooldomain.Pledge{
				ID:     s.genID.Generate(),
				PoolID: pool.ID,
				UserID: req.UserID,
			}
		}

		pledge.SeatsIntended = req.SeatsIntended
		pledge.WTPBand = req.WTPBand
		if contact != "" {
			pledge.Contact = contact
		}
		if referral != "" {
			pledge.ReferralCodeUsed = &referral
		}
		pledge.IsVerified = isVerified
		pledge.CreatedAt = now
		if err := tx.WithContext(ctx).Save(&pledge).Error; err != nil {
			return err
		}

		if contact != "" {
			if err := tx.WithContext(ctx).Model(&userdomain.User{}).
				Where("id = ?", req.UserID).
				Update("email", contact).Error; err != nil {
				return err
			}
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPledgeUpserted,
			Payload: events.PledgePayload{
				PledgeID:   pledge.ID.String(),
				PoolID:     pool.ID.String(),
				UserID:     req.UserID.String(),
				Seats:      pledge.SeatsIntended,
				IsVerified: pledge.IsVerified,
			}.ToMap(),
		})
	})
	if err != nil {
		return pooldomain.Pledge{}, err
	}

	s.log.Info("pledge upserted",
		zap.String("pool_id", pledge.PoolID.String()),
		zap.String("user_id", pledge.UserID.String()),
		zap.Int("seats", pledge.SeatsIntended),
		zap.Bool("is_verified", pledge.IsVerified),
	)
	return pledge, nil
}

// currentTierIsVerified reads the user's most recent verification score. No
// score on file means not verified; the stamp is never recomputed later.
func (s *Service) currentTierIsVerified(ctx context.Context, tx *gorm.DB, userID snowflake.ID) (bool, error) {
	var score verificationdomain.VerificationScore
	err := tx.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return verificationdomain.TierIsVerified(score.Tier), nil
}

func (s *Service) ensurePool(ctx context.Context, tx *gorm.DB, provider, poolType string) (pooldomain.Pool, error) {
	var pool pooldomain.Pool
	err := tx.WithContext(ctx).
		Where("provider = ? AND pool_type = ?", provider, poolType).
		First(&pool).Error
	if err == nil {
		return pool, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pooldomain.Pool{}, err
	}

	pool = pooldomain.Pool{
		ID:                 s.genID.Generate(),
		PoolType:           poolType,
		Provider:           provider,
		Name:               defaultPoolName,
		Slug:               Slugify(defaultPoolName),
		ThresholdSeats:     defaultThresholdSeats,
		NextThresholdSeats: defaultNextThresholdSeats,
		TargetTerms:        datatypes.NewJSONSlice(defaultTargetTerms),
		Status:             pooldomain.PoolStatusForming,
		CreatedAt:          s.clk.Now(),
	}
	if err := tx.WithContext(ctx).Create(&pool).Error; err != nil {
		return pooldomain.Pool{}, err
	}

	if err := s.outbox.PublishTx(ctx, tx, events.Event{
		Type: events.EventPoolCreated,
		Payload: map[string]any{
			"pool_id":   pool.ID.String(),
			"provider":  provider,
			"pool_type": poolType,
		},
		DedupeKey: "pool.created:" + provider + ":" + poolType,
	}); err != nil {
		return pooldomain.Pool{}, err
	}

	s.log.Info("pool created",
		zap.String("pool_id", pool.ID.String()),
		zap.String("provider", provider),
		zap.String("pool_type", poolType),
	)
	return pool, nil
}

// Slugify lowercases a name and collapses non-alphanumeric runs to dashes.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
