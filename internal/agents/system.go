package agents

import (
	"context"
	"encoding/json"

	"github.com/avernlabs/agent-store/pkg/pagination"
	"github.com/google/uuid"
)

// System defines the interface for agent configuration storage, versioning,
// and default-agent resolution.
type System interface {
	Create(ctx context.Context, cmd CreateCommand) (*Agent, error)
	UpdateConfig(ctx context.Context, id uuid.UUID, config json.RawMessage) (*Agent, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, id uuid.UUID) (*Agent, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Agent], error)

	SetDefault(ctx context.Context, accountID, agentID uuid.UUID) error
	EnsureDefault(ctx context.Context, accountID uuid.UUID, cmd EnsureDefaultCommand) (*Agent, error)

	Versions(ctx context.Context, agentID uuid.UUID, page pagination.PageRequest) (*pagination.PageResult[AgentVersion], error)
	FindVersion(ctx context.Context, agentID, versionID uuid.UUID) (*AgentVersion, error)
	CompareVersions(ctx context.Context, agentID, fromID, toID uuid.UUID) (*VersionDiff, error)
	Rollback(ctx context.Context, agentID, versionID uuid.UUID) (*Agent, error)
	LatestTools(ctx context.Context, agentID uuid.UUID) (*ToolSet, error)
}
