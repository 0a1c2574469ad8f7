package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/cedarforestgiant/swimmeret/internal/clock"
	telemetrydomain "github.com/cedarforestgiant/swimmeret/internal/telemetry/domain"
	verificationdomain "github.com/cedarforestgiant/swimmeret/internal/verification/domain"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	clk   clock.Clock
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

func NewService(p ServiceParam) verificationdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("verification.service"),

		genID: p.GenID,
		clk:   p.Clock,
	}
}

// Verify scores the user's latest snapshot and appends the outcome. A user
// with no snapshot still gets a score row: the unverified sentinel.
func (s *Service) Verify(ctx context.Context, userID snowflake.ID) (verificationdomain.VerificationScore, error) {
	if userID == 0 {
		return verificationdomain.VerificationScore{}, verificationdomain.ErrMissingUserID
	}

	snapshot, err := s.latestSnapshot(ctx, userID)
	if err != nil {
		return verificationdomain.VerificationScore{}, err
	}

	result := verificationdomain.Score(snapshot)
	score := verificationdomain.VerificationScore{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Score:     result.Score,
		Tier:      result.Tier,
		Reasons:   datatypes.NewJSONSlice(result.Reasons),
		CreatedAt: s.clk.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&score).Error; err != nil {
		return verificationdomain.VerificationScore{}, err
	}

	s.log.Info("verification scored",
		zap.String("user_id", userID.String()),
		zap.Int("score", score.Score),
		zap.String("tier", score.Tier),
	)
	return score, nil
}

func (s *Service) latestSnapshot(ctx context.Context, userID snowflake.ID) (*telemetrydomain.UsageSnapshot, error) {
	var snapshot telemetrydomain.UsageSnapshot
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("generated_at DESC, id DESC").
		First(&snapshot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
