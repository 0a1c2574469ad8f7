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
	"github.com/cedarforestgiant/swimmeret/internal/events"
	guardraildomain "github.com/cedarforestgiant/swimmeret/internal/guardrail/domain"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID  *snowflake.Node
	clk    clock.Clock
	outbox *events.Outbox
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

func NewService(p ServiceParam) guardraildomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("guardrail.service"),

		genID:  p.GenID,
		clk:    p.Clock,
		outbox: p.Outbox,
	}
}

// Apply upserts the user's guardrail settings. One row per user; the
// submitted flags replace the previous set and the row is re-stamped.
func (s *Service) Apply(ctx context.Context, userID snowflake.ID, settings map[string]bool) (guardraildomain.GuardrailSetting, error) {
	if userID == 0 {
		return guardraildomain.GuardrailSetting{}, guardraildomain.ErrMissingUserID
	}

	payload := datatypes.JSONMap{}
	for key, value := range settings {
		payload[key] = value
	}
	now := s.clk.Now()

	var entry guardraildomain.GuardrailSetting
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			entry = guardraildomain.GuardrailSetting{
				ID:     s.genID.Generate(),
				UserID: userID,
			}
		}

		entry.Applied = true
		entry.Settings = payload
		entry.CreatedAt = now
		if err := tx.WithContext(ctx).Save(&entry).Error; err != nil {
			return err
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventGuardrailApplied,
			Payload: map[string]any{
				"user_id": userID.String(),
			},
		})
	})
	if err != nil {
		return guardraildomain.GuardrailSetting{}, err
	}

	s.log.Info("guardrails applied", zap.String("user_id", userID.String()))
	return entry, nil
}
