package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service manages pools, pledges and pool-wide aggregation.
type Service interface {
	// Join finds or creates the pool for a (provider, pool type) pair and
	// returns the caller's existing pledge, if any.
	Join(ctx context.Context, req JoinRequest) (JoinResponse, error)
	// UpsertPledge writes the caller's pledge for a pool, stamping the
	// verification tier current at write time.
	UpsertPledge(ctx context.Context, req PledgeRequest) (Pledge, error)
	// Aggregate recomputes pool statistics from the current record set.
	Aggregate(ctx context.Context, poolID snowflake.ID) (PoolAggregate, error)
	// AggregateBySlug resolves a pool by slug before aggregating.
	AggregateBySlug(ctx context.Context, slug string) (PoolAggregate, error)
}

var (
	ErrPoolNotFound  = errors.New("pool_not_found")
	ErrMissingUserID = errors.New("missing_user_id")
	ErrInvalidSeats  = errors.New("invalid_seats_intended")
	ErrInvalidWTP    = errors.New("invalid_wtp_band")
)

// JoinRequest identifies the pool to join. Empty provider and pool type fall
// back to the defaults.
type JoinRequest struct {
	UserID   snowflake.ID
	Provider string
	PoolType string
}

type JoinResponse struct {
	Pool      Pool    `json:"pool"`
	Pledge    *Pledge `json:"pledge"`
	ShareLink string  `json:"shareLink"`
}

// PledgeRequest carries a pledge submission for an existing pool.
type PledgeRequest struct {
	PoolID           snowflake.ID
	UserID           snowflake.ID
	SeatsIntended    int
	WTPBand          string
	Contact          string
	ReferralCodeUsed string
}
