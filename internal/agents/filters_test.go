package agents_test

import (
	"net/url"
	"testing"

	"github.com/avernlabs/agent-store/internal/agents"
	"github.com/google/uuid"
)

func TestFiltersFromQuery(t *testing.T) {
	accountID := uuid.New()

	tests := []struct {
		name  string
		query url.Values
		check func(t *testing.T, f agents.Filters)
	}{
		{
			"empty query",
			url.Values{},
			func(t *testing.T, f agents.Filters) {
				if f.AccountID != nil || f.IsDefault != nil || f.IsPublic != nil || f.Name != nil {
					t.Errorf("Filters = %+v, want all nil", f)
				}
			},
		},
		{
			"account filter",
			url.Values{"account_id": {accountID.String()}},
			func(t *testing.T, f agents.Filters) {
				if f.AccountID == nil || *f.AccountID != accountID {
					t.Errorf("AccountID = %v, want %v", f.AccountID, accountID)
				}
			},
		},
		{
			"invalid account id ignored",
			url.Values{"account_id": {"not-a-uuid"}},
			func(t *testing.T, f agents.Filters) {
				if f.AccountID != nil {
					t.Errorf("AccountID = %v, want nil", f.AccountID)
				}
			},
		},
		{
			"default and public flags",
			url.Values{"is_default": {"true"}, "is_public": {"false"}},
			func(t *testing.T, f agents.Filters) {
				if f.IsDefault == nil || !*f.IsDefault {
					t.Errorf("IsDefault = %v, want true", f.IsDefault)
				}
				if f.IsPublic == nil || *f.IsPublic {
					t.Errorf("IsPublic = %v, want false", f.IsPublic)
				}
			},
		},
		{
			"name filter",
			url.Values{"name": {"research"}},
			func(t *testing.T, f agents.Filters) {
				if f.Name == nil || *f.Name != "research" {
					t.Errorf("Name = %v, want research", f.Name)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, agents.FiltersFromQuery(tt.query))
		})
	}
}
