package agents

import (
	"bytes"
	"encoding/json"
)

// LegacyRecord is the reconciliation input: a stored config document plus the
// sibling legacy columns available to rebuild missing fields from.
type LegacyRecord struct {
	Kind        RecordKind
	Config      json.RawMessage
	Avatar      *string
	AvatarColor *string

	// AgentpressTools is the legacy flat tool-enablement column that predates
	// the unified config document. Agent records only.
	AgentpressTools json.RawMessage
}

// Reconcile produces the canonical replacement for a legacy or structurally
// incomplete record. It fills genuine absence only; existing non-empty values
// are never deleted or narrowed. Idempotent: an already-canonical
// record returns unchanged with changed=false, signaling that no write is
// needed. Reconciliation is a structural repair, not a configuration change;
// callers must not route the result through the versioning write path.
func Reconcile(rec LegacyRecord) (json.RawMessage, bool, error) {
	if ValidateConfig(rec.Config, rec.Kind) == nil {
		return rec.Config, false, nil
	}

	fields, err := topLevelFields(rec.Config)
	if err != nil {
		return nil, false, err
	}

	changed := false

	if _, ok := fields[keySystemPrompt]; !ok {
		fields[keySystemPrompt] = json.RawMessage(`""`)
		changed = true
	}

	toolsChanged, err := reconcileTools(fields, rec.AgentpressTools)
	if err != nil {
		return nil, false, err
	}
	changed = changed || toolsChanged

	if rec.Kind == KindAgent {
		if _, ok := fields[keyMetadata]; !ok {
			meta, err := json.Marshal(Metadata{
				Avatar:      deref(rec.Avatar),
				AvatarColor: deref(rec.AvatarColor),
			})
			if err != nil {
				return nil, false, err
			}
			fields[keyMetadata] = meta
			changed = true
		}
	}

	if !changed {
		return rec.Config, false, nil
	}

	canonical, err := json.Marshal(fields)
	if err != nil {
		return nil, false, err
	}
	return canonical, true, nil
}

// reconcileTools fills or augments the tools key. A missing key is rebuilt
// from the legacy column (or an empty set). When both the canonical key and a
// legacy column exist, the sets are merged with the canonical side winning
// conflicts, so enablement recorded only in the legacy column is not lost.
func reconcileTools(fields map[string]json.RawMessage, legacy json.RawMessage) (bool, error) {
	existing, hasExisting := fields[keyTools]
	hasLegacy := len(bytes.TrimSpace(legacy)) > 0 && !bytes.Equal(bytes.TrimSpace(legacy), []byte("null"))

	if hasExisting && !hasLegacy {
		return false, nil
	}

	legacySet := NewToolSet()
	if hasLegacy {
		var enablement map[string]json.RawMessage
		if err := json.Unmarshal(legacy, &enablement); err == nil {
			for name, value := range enablement {
				legacySet.AgentPress[name] = parseEnabled(value)
			}
		}
	}

	tools := legacySet
	if hasExisting {
		var current ToolSet
		if err := json.Unmarshal(existing, &current); err != nil {
			// canonical key present but unreadable: leave it untouched
			return false, nil
		}
		merged := legacySet.Merge(current)
		if merged.Equal(current) {
			return false, nil
		}
		tools = merged
	}

	encoded, err := json.Marshal(tools)
	if err != nil {
		return false, err
	}
	fields[keyTools] = encoded
	return true, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
