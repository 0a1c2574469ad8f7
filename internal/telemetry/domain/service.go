package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service builds usage snapshots from consent and the user's latest
// self-reported agents band.
type Service interface {
	BuildSnapshot(ctx context.Context, req BuildSnapshotRequest) (UsageSnapshot, error)
}

var (
	ErrMissingUserID = errors.New("missing_user_id")
)

// BuildSnapshotRequest asks for a fresh snapshot over a trailing window.
type BuildSnapshotRequest struct {
	UserID     snowflake.ID
	WindowDays int
	Provider   string
	Consent    bool
}
