package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service scores a user's latest snapshot and records the outcome.
type Service interface {
	Verify(ctx context.Context, userID snowflake.ID) (VerificationScore, error)
}

var (
	ErrMissingUserID = errors.New("missing_user_id")
)
