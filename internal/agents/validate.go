package agents

import "encoding/json"

// RecordKind selects the config schema to validate against.
type RecordKind int

const (
	// KindAgent is the live record: system_prompt, tools, and metadata required.
	KindAgent RecordKind = iota

	// KindVersion is the immutable snapshot: metadata is agent-only and not required.
	KindVersion
)

func (k RecordKind) requiredKeys() []string {
	if k == KindVersion {
		return []string{keySystemPrompt, keyTools}
	}
	return []string{keySystemPrompt, keyTools, keyMetadata}
}

// ValidateConfig checks a candidate config document against the required
// top-level keys for the record kind. It verifies only that system_prompt is
// a string and that tools/metadata are objects; descriptor internals are the
// tool runtime's concern. Pure: safe to call repeatedly and concurrently.
func ValidateConfig(raw json.RawMessage, kind RecordKind) error {
	fields, err := topLevelFields(raw)
	if err != nil {
		return err
	}

	var schemaErr SchemaError
	for _, key := range kind.requiredKeys() {
		value, ok := fields[key]
		if !ok {
			schemaErr.MissingKeys = append(schemaErr.MissingKeys, key)
			continue
		}

		valid := true
		switch key {
		case keySystemPrompt:
			valid = isJSONString(value)
		case keyTools, keyMetadata:
			valid = isJSONObject(value)
		}
		if !valid {
			schemaErr.InvalidKeys = append(schemaErr.InvalidKeys, key)
		}
	}

	if len(schemaErr.MissingKeys) > 0 || len(schemaErr.InvalidKeys) > 0 {
		return &schemaErr
	}
	return nil
}
