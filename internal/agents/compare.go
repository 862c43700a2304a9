package agents

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// FieldChange records one top-level config field that differs between two
// snapshots. A field present on one side only reports null for the other.
type FieldChange struct {
	Field string          `json:"field"`
	From  json.RawMessage `json:"from"`
	To    json.RawMessage `json:"to"`
}

// VersionDiff summarizes the field-level differences between two version
// snapshots of the same agent.
type VersionDiff struct {
	FromVersion int           `json:"from_version"`
	ToVersion   int           `json:"to_version"`
	Changes     []FieldChange `json:"changes"`
}

// CompareDocuments computes the top-level differences between two config
// documents. The canonical fields are compared through their typed forms
// (tools structurally via ToolSet.Equal), extension keys byte-wise after
// compaction so formatting differences do not register as changes.
func CompareDocuments(from, to json.RawMessage) ([]FieldChange, error) {
	fromDoc, err := ParseDocument(from)
	if err != nil {
		return nil, fmt.Errorf("parse from document: %w", err)
	}
	toDoc, err := ParseDocument(to)
	if err != nil {
		return nil, fmt.Errorf("parse to document: %w", err)
	}

	changes := make([]FieldChange, 0)

	if fromDoc.SystemPrompt != toDoc.SystemPrompt {
		change, err := typedChange(keySystemPrompt, fromDoc.SystemPrompt, toDoc.SystemPrompt)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	if !fromDoc.Tools.Equal(toDoc.Tools) {
		change, err := typedChange(keyTools, fromDoc.Tools, toDoc.Tools)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	if fromDoc.Metadata != toDoc.Metadata {
		change, err := typedChange(keyMetadata, fromDoc.Metadata, toDoc.Metadata)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	for _, key := range extraKeys(fromDoc, toDoc) {
		fromVal := fromDoc.Extra[key]
		toVal := toDoc.Extra[key]
		if !compactEqual(fromVal, toVal) {
			changes = append(changes, FieldChange{Field: key, From: fromVal, To: toVal})
		}
	}

	return changes, nil
}

func typedChange(field string, from, to any) (FieldChange, error) {
	fromRaw, err := json.Marshal(from)
	if err != nil {
		return FieldChange{}, err
	}
	toRaw, err := json.Marshal(to)
	if err != nil {
		return FieldChange{}, err
	}
	return FieldChange{Field: field, From: fromRaw, To: toRaw}, nil
}

// extraKeys returns the sorted union of both documents' extension keys.
func extraKeys(from, to *Document) []string {
	seen := make(map[string]bool, len(from.Extra)+len(to.Extra))
	for key := range from.Extra {
		seen[key] = true
	}
	for key := range to.Extra {
		seen[key] = true
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// compactEqual compares two JSON values ignoring whitespace. A nil side is
// equal only to another nil side.
func compactEqual(a, b json.RawMessage) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return bytes.Equal(a, b)
	}
	if err := json.Compact(&cb, b); err != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
