package agents

import "github.com/avernlabs/agent-store/pkg/query"

var projection = query.
	NewProjectionMap("public", "agents", "a").
	Project("agent_id", "ID").
	Project("account_id", "AccountID").
	Project("name", "Name").
	Project("description", "Description").
	Project("is_default", "IsDefault").
	Project("is_public", "IsPublic").
	Project("avatar", "Avatar").
	Project("avatar_color", "AvatarColor").
	Project("version_count", "VersionCount").
	Project("config", "Config").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{Field: "Name"}

var versionProjection = query.
	NewProjectionMap("public", "agent_versions", "v").
	Project("version_id", "ID").
	Project("agent_id", "AgentID").
	Project("version_number", "VersionNumber").
	Project("config", "Config").
	Project("created_at", "CreatedAt")

// version history reads newest first
var versionSort = query.SortField{Field: "VersionNumber", Descending: true}
