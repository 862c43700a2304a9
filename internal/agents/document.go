package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document field names for the canonical config shape.
const (
	keySystemPrompt = "system_prompt"
	keyTools        = "tools"
	keyMetadata     = "metadata"
)

// Metadata holds display fields duplicated from the agent's avatar columns.
type Metadata struct {
	Avatar      string `json:"avatar"`
	AvatarColor string `json:"avatar_color"`
}

// Document is the typed view of a config document. The three canonical fields
// are explicit; any other top-level keys are preserved verbatim in Extra so a
// read-modify-write cycle never drops forward-compatible data.
type Document struct {
	SystemPrompt string
	Tools        ToolSet
	Metadata     Metadata
	Extra        map[string]json.RawMessage
}

// ParseDocument decodes a raw config document. The input must already satisfy
// the canonical shape for its record kind; use ValidateConfig first.
func ParseDocument(raw json.RawMessage) (*Document, error) {
	fields, err := topLevelFields(raw)
	if err != nil {
		return nil, err
	}

	doc := &Document{Tools: NewToolSet()}

	for key, value := range fields {
		switch key {
		case keySystemPrompt:
			if err := json.Unmarshal(value, &doc.SystemPrompt); err != nil {
				return nil, fmt.Errorf("parse %s: %w", keySystemPrompt, err)
			}
		case keyTools:
			if err := json.Unmarshal(value, &doc.Tools); err != nil {
				return nil, fmt.Errorf("parse %s: %w", keyTools, err)
			}
		case keyMetadata:
			if err := json.Unmarshal(value, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("parse %s: %w", keyMetadata, err)
			}
		default:
			if doc.Extra == nil {
				doc.Extra = make(map[string]json.RawMessage)
			}
			doc.Extra[key] = value
		}
	}

	return doc, nil
}

// Marshal encodes the document in the canonical agent shape, including metadata.
func (d *Document) Marshal() (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage, len(d.Extra)+3)
	for key, value := range d.Extra {
		fields[key] = value
	}

	var err error
	if fields[keySystemPrompt], err = json.Marshal(d.SystemPrompt); err != nil {
		return nil, err
	}
	if fields[keyTools], err = json.Marshal(d.Tools); err != nil {
		return nil, err
	}
	if fields[keyMetadata], err = json.Marshal(d.Metadata); err != nil {
		return nil, err
	}

	return json.Marshal(fields)
}

// snapshotConfig derives the version snapshot document from an agent config:
// the metadata key belongs to the live record only and is stripped; every
// other top-level key is carried into the snapshot unchanged.
func snapshotConfig(raw json.RawMessage) (json.RawMessage, error) {
	fields, err := topLevelFields(raw)
	if err != nil {
		return nil, err
	}

	delete(fields, keyMetadata)
	return json.Marshal(fields)
}

// restoreConfig layers a version snapshot over a live agent document: every
// snapshot key replaces its live counterpart, while live-only keys (metadata
// in particular) are kept.
func restoreConfig(current, snapshot json.RawMessage) (json.RawMessage, error) {
	fields, err := topLevelFields(current)
	if err != nil {
		return nil, err
	}

	snapshotFields, err := topLevelFields(snapshot)
	if err != nil {
		return nil, err
	}

	for key, value := range snapshotFields {
		fields[key] = value
	}

	return json.Marshal(fields)
}

// topLevelFields decodes the top-level keys of a JSON object. Nil, empty, and
// JSON null inputs decode to an empty field set.
func topLevelFields(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]json.RawMessage{}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}
	return fields, nil
}

// isJSONObject reports whether raw is a JSON object value.
func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// isJSONString reports whether raw is a JSON string value.
func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}
