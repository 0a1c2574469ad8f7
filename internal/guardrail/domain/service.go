package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service applies guardrail settings for a user.
type Service interface {
	Apply(ctx context.Context, userID snowflake.ID, settings map[string]bool) (GuardrailSetting, error)
}

var (
	ErrMissingUserID = errors.New("missing_user_id")
)
