package agents

import (
	"bytes"
	"encoding/json"
)

// ToolSet is the tool capability set of an agent: built-in tool enablement
// plus external tool-provider descriptors. Descriptors are opaque to this
// engine; validation of their internal shape belongs to the tool runtime.
type ToolSet struct {
	AgentPress map[string]bool   `json:"agentpress"`
	MCP        []json.RawMessage `json:"mcp"`
	CustomMCP  []json.RawMessage `json:"custom_mcp"`
}

// NewToolSet returns an empty capability set that marshals to
// {"agentpress":{},"mcp":[],"custom_mcp":[]}.
func NewToolSet() ToolSet {
	return ToolSet{
		AgentPress: map[string]bool{},
		MCP:        []json.RawMessage{},
		CustomMCP:  []json.RawMessage{},
	}
}

// UnmarshalJSON accepts both the canonical enablement shape
// ("tool_name": true) and the legacy object shape ("tool_name": {"enabled": true}).
func (s *ToolSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		AgentPress map[string]json.RawMessage `json:"agentpress"`
		MCP        []json.RawMessage          `json:"mcp"`
		CustomMCP  []json.RawMessage          `json:"custom_mcp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = NewToolSet()
	for name, value := range raw.AgentPress {
		s.AgentPress[name] = parseEnabled(value)
	}
	if raw.MCP != nil {
		s.MCP = raw.MCP
	}
	if raw.CustomMCP != nil {
		s.CustomMCP = raw.CustomMCP
	}
	return nil
}

// Equal reports structural equality: identical agentpress enablement and
// byte-identical descriptor sequences in order.
func (s ToolSet) Equal(other ToolSet) bool {
	if len(s.AgentPress) != len(other.AgentPress) {
		return false
	}
	for name, enabled := range s.AgentPress {
		if o, ok := other.AgentPress[name]; !ok || o != enabled {
			return false
		}
	}
	return rawSliceEqual(s.MCP, other.MCP) && rawSliceEqual(s.CustomMCP, other.CustomMCP)
}

// Merge combines the receiver with a newer set: agentpress keys are unioned
// with the newer set winning conflicts; descriptor sequences are taken from
// the newer set only, never concatenated across generations.
func (s ToolSet) Merge(newer ToolSet) ToolSet {
	merged := NewToolSet()
	for name, enabled := range s.AgentPress {
		merged.AgentPress[name] = enabled
	}
	for name, enabled := range newer.AgentPress {
		merged.AgentPress[name] = enabled
	}

	merged.MCP = append(merged.MCP, newer.MCP...)
	merged.CustomMCP = append(merged.CustomMCP, newer.CustomMCP...)
	return merged
}

func rawSliceEqual(a, b []json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// parseEnabled decodes a tool enablement value: a plain bool, or the legacy
// {"enabled": bool} object. Anything else reads as disabled.
func parseEnabled(value json.RawMessage) bool {
	var enabled bool
	if err := json.Unmarshal(value, &enabled); err == nil {
		return enabled
	}

	var legacy struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.Unmarshal(value, &legacy); err == nil {
		return legacy.Enabled
	}
	return false
}
