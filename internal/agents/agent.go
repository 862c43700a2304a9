// Package agents provides the domain system for storing, validating, and
// versioning AI agent configuration documents. It enforces two storage-level
// invariants: at most one default agent per account, and a version count that
// always matches the number of immutable snapshots.
package agents

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Agent represents a live agent configuration record owned by an account.
type Agent struct {
	ID           uuid.UUID       `json:"agent_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	IsDefault    bool            `json:"is_default"`
	IsPublic     bool            `json:"is_public"`
	Avatar       *string         `json:"avatar,omitempty"`
	AvatarColor  *string         `json:"avatar_color,omitempty"`
	VersionCount int             `json:"version_count"`
	Config       json.RawMessage `json:"config"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// AgentVersion is an immutable snapshot of an agent's configuration.
type AgentVersion struct {
	ID            uuid.UUID       `json:"version_id"`
	AgentID       uuid.UUID       `json:"agent_id"`
	VersionNumber int             `json:"version_number"`
	Config        json.RawMessage `json:"config"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CreateCommand contains the data required to create a new agent.
type CreateCommand struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Avatar      *string         `json:"avatar,omitempty"`
	AvatarColor *string         `json:"avatar_color,omitempty"`
	IsPublic    bool            `json:"is_public"`
	Config      json.RawMessage `json:"config"`
}

// EnsureDefaultCommand contains the fallback fields used when an account has
// no default agent yet.
type EnsureDefaultCommand struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Avatar      *string         `json:"avatar,omitempty"`
	AvatarColor *string         `json:"avatar_color,omitempty"`
	Config      json.RawMessage `json:"config"`
}
