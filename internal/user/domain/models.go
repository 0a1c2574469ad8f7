// Package domain contains persistence models for builder identities.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultWorkspaceID = "ws_demo"

// User is a builder identity, created on first incident report.
type User struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Email       string       `gorm:"type:text;not null;default:''" json:"email"`
	WorkspaceID string       `gorm:"type:text;not null;default:''" json:"workspace_id"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
