package agents

import "encoding/json"

// UpdateConfigRequest is the body for replacing an agent's config document.
type UpdateConfigRequest struct {
	Config json.RawMessage `json:"config"`
}
