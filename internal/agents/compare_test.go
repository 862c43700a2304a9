package agents_test

import (
	"encoding/json"
	"testing"

	"github.com/avernlabs/agent-store/internal/agents"
)

func changeFields(changes []agents.FieldChange) []string {
	fields := make([]string, len(changes))
	for i, c := range changes {
		fields[i] = c.Field
	}
	return fields
}

func TestCompareDocuments(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		to         string
		wantFields []string
	}{
		{
			"identical documents",
			`{"system_prompt": "hi", "tools": {"agentpress": {"web_search": true}}, "model": "sonnet"}`,
			`{"system_prompt": "hi", "tools": {"agentpress": {"web_search": true}}, "model": "sonnet"}`,
			nil,
		},
		{
			"formatting differences do not register",
			`{"system_prompt": "hi", "tools": {}, "model": {"name":  "sonnet"}}`,
			`{"system_prompt": "hi", "tools": {}, "model": {"name": "sonnet"}}`,
			nil,
		},
		{
			"prompt change",
			`{"system_prompt": "old", "tools": {}}`,
			`{"system_prompt": "new", "tools": {}}`,
			[]string{"system_prompt"},
		},
		{
			"tool enablement change",
			`{"system_prompt": "hi", "tools": {"agentpress": {"web_search": true}}}`,
			`{"system_prompt": "hi", "tools": {"agentpress": {"web_search": false}}}`,
			[]string{"tools"},
		},
		{
			"descriptor reorder is a change",
			`{"system_prompt": "", "tools": {"mcp": [{"name": "a"}, {"name": "b"}]}}`,
			`{"system_prompt": "", "tools": {"mcp": [{"name": "b"}, {"name": "a"}]}}`,
			[]string{"tools"},
		},
		{
			"extension key added",
			`{"system_prompt": "", "tools": {}}`,
			`{"system_prompt": "", "tools": {}, "model": "sonnet"}`,
			[]string{"model"},
		},
		{
			"extension key removed",
			`{"system_prompt": "", "tools": {}, "model": "sonnet"}`,
			`{"system_prompt": "", "tools": {}}`,
			[]string{"model"},
		},
		{
			"multiple changes sorted extension keys",
			`{"system_prompt": "a", "tools": {}, "model": "x", "temperature": 0.2}`,
			`{"system_prompt": "b", "tools": {}, "model": "y", "temperature": 0.7}`,
			[]string{"system_prompt", "model", "temperature"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes, err := agents.CompareDocuments(
				json.RawMessage(tt.from), json.RawMessage(tt.to),
			)
			if err != nil {
				t.Fatalf("CompareDocuments() error = %v", err)
			}

			got := changeFields(changes)
			if len(got) != len(tt.wantFields) {
				t.Fatalf("changed fields = %v, want %v", got, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if got[i] != field {
					t.Errorf("changes[%d].Field = %q, want %q", i, got[i], field)
				}
			}
		})
	}
}

func TestCompareDocuments_ChangeValues(t *testing.T) {
	changes, err := agents.CompareDocuments(
		json.RawMessage(`{"system_prompt": "old", "tools": {}}`),
		json.RawMessage(`{"system_prompt": "new", "tools": {}, "model": "sonnet"}`),
	)
	if err != nil {
		t.Fatalf("CompareDocuments() error = %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %v, want 2", changes)
	}

	prompt := changes[0]
	if prompt.Field != "system_prompt" || string(prompt.From) != `"old"` || string(prompt.To) != `"new"` {
		t.Errorf("prompt change = %+v", prompt)
	}

	model := changes[1]
	if model.Field != "model" {
		t.Fatalf("changes[1].Field = %q, want model", model.Field)
	}
	if model.From != nil {
		t.Errorf("model.From = %s, want nil for an added key", model.From)
	}
	if string(model.To) != `"sonnet"` {
		t.Errorf("model.To = %s, want \"sonnet\"", model.To)
	}
}

func TestCompareDocuments_MalformedInput(t *testing.T) {
	_, err := agents.CompareDocuments(
		json.RawMessage(`{not json`),
		json.RawMessage(`{"system_prompt": "", "tools": {}}`),
	)
	if err == nil {
		t.Fatal("CompareDocuments() error = nil, want parse error")
	}
}
