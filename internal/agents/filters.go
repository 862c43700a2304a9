package agents

import (
	"net/url"
	"strconv"

	"github.com/avernlabs/agent-store/pkg/query"
	"github.com/google/uuid"
)

// Filters contains optional filtering criteria for agent queries.
type Filters struct {
	AccountID *uuid.UUID
	IsDefault *bool
	IsPublic  *bool
	Name      *string
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("account_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.AccountID = &id
		}
	}
	if v := values.Get("is_default"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsDefault = &b
		}
	}
	if v := values.Get("is_public"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsPublic = &b
		}
	}
	if v := values.Get("name"); v != "" {
		f.Name = &v
	}

	return f
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.AccountID != nil {
		b.WhereEquals("AccountID", *f.AccountID)
	}
	if f.IsDefault != nil {
		b.WhereEquals("IsDefault", *f.IsDefault)
	}
	if f.IsPublic != nil {
		b.WhereEquals("IsPublic", *f.IsPublic)
	}
	return b.WhereContains("Name", f.Name)
}
