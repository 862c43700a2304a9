package agents_test

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/avernlabs/agent-store/internal/agents"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		kind        agents.RecordKind
		wantMissing []string
		wantInvalid []string
	}{
		{
			"valid agent config",
			`{"system_prompt": "You are helpful.", "tools": {}, "metadata": {}}`,
			agents.KindAgent,
			nil, nil,
		},
		{
			"valid version config without metadata",
			`{"system_prompt": "", "tools": {"agentpress": {}}}`,
			agents.KindVersion,
			nil, nil,
		},
		{
			"extra keys are allowed",
			`{"system_prompt": "", "tools": {}, "metadata": {}, "model": "gpt-4o"}`,
			agents.KindAgent,
			nil, nil,
		},
		{
			"empty object reports every missing key",
			`{}`,
			agents.KindAgent,
			[]string{"system_prompt", "tools", "metadata"}, nil,
		},
		{
			"null document reports every missing key",
			`null`,
			agents.KindAgent,
			[]string{"system_prompt", "tools", "metadata"}, nil,
		},
		{
			"version config does not require metadata",
			`{}`,
			agents.KindVersion,
			[]string{"system_prompt", "tools"}, nil,
		},
		{
			"agent config missing metadata only",
			`{"system_prompt": "", "tools": {}}`,
			agents.KindAgent,
			[]string{"metadata"}, nil,
		},
		{
			"system_prompt must be a string",
			`{"system_prompt": 42, "tools": {}, "metadata": {}}`,
			agents.KindAgent,
			nil, []string{"system_prompt"},
		},
		{
			"tools must be an object",
			`{"system_prompt": "", "tools": [], "metadata": {}}`,
			agents.KindAgent,
			nil, []string{"tools"},
		},
		{
			"metadata must be an object",
			`{"system_prompt": "", "tools": {}, "metadata": "none"}`,
			agents.KindAgent,
			nil, []string{"metadata"},
		},
		{
			"missing and invalid keys reported together",
			`{"system_prompt": false}`,
			agents.KindAgent,
			[]string{"tools", "metadata"}, []string{"system_prompt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := agents.ValidateConfig(json.RawMessage(tt.config), tt.kind)

			if len(tt.wantMissing) == 0 && len(tt.wantInvalid) == 0 {
				if err != nil {
					t.Fatalf("ValidateConfig() error = %v, want nil", err)
				}
				return
			}

			var schemaErr *agents.SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("ValidateConfig() error = %v, want *SchemaError", err)
			}
			if !errors.Is(err, agents.ErrInvalidConfig) {
				t.Errorf("ValidateConfig() error does not unwrap to ErrInvalidConfig")
			}

			slices.Sort(schemaErr.MissingKeys)
			slices.Sort(schemaErr.InvalidKeys)

			wantMissing := slices.Clone(tt.wantMissing)
			wantInvalid := slices.Clone(tt.wantInvalid)
			slices.Sort(wantMissing)
			slices.Sort(wantInvalid)

			if !slices.Equal(schemaErr.MissingKeys, wantMissing) {
				t.Errorf("MissingKeys = %v, want %v", schemaErr.MissingKeys, wantMissing)
			}
			if !slices.Equal(schemaErr.InvalidKeys, wantInvalid) {
				t.Errorf("InvalidKeys = %v, want %v", schemaErr.InvalidKeys, wantInvalid)
			}
		})
	}
}

func TestValidateConfig_MalformedJSON(t *testing.T) {
	err := agents.ValidateConfig(json.RawMessage(`{not json`), agents.KindAgent)
	if !errors.Is(err, agents.ErrInvalidConfig) {
		t.Errorf("ValidateConfig() error = %v, want ErrInvalidConfig", err)
	}
}
