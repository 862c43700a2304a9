package query_test

import (
	"reflect"
	"testing"

	"github.com/avernlabs/agent-store/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.
		NewProjectionMap("public", "agents", "a").
		Project("agent_id", "ID").
		Project("name", "Name").
		Project("description", "Description")
}

func TestBuilder_BuildSingle(t *testing.T) {
	sql, args := query.
		NewBuilder(testProjection(), query.SortField{Field: "Name"}).
		BuildSingle("ID", "abc")

	want := "SELECT a.agent_id, a.name, a.description FROM public.agents a WHERE a.agent_id = $1"
	if sql != want {
		t.Errorf("BuildSingle() sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"abc"}) {
		t.Errorf("BuildSingle() args = %v", args)
	}
}

func TestBuilder_BuildCount(t *testing.T) {
	name := "research"
	sql, args := query.
		NewBuilder(testProjection(), query.SortField{Field: "Name"}).
		WhereEquals("ID", 7).
		WhereContains("Name", &name).
		BuildCount()

	want := "SELECT COUNT(*) FROM public.agents a WHERE a.agent_id = $1 AND a.name ILIKE $2"
	if sql != want {
		t.Errorf("BuildCount() sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{7, "%research%"}) {
		t.Errorf("BuildCount() args = %v", args)
	}
}

func TestBuilder_BuildPage(t *testing.T) {
	sql, args := query.
		NewBuilder(testProjection(), query.SortField{Field: "Name"}).
		BuildPage(2, 10)

	want := "SELECT a.agent_id, a.name, a.description FROM public.agents a ORDER BY a.name ASC LIMIT 10 OFFSET 10"
	if sql != want {
		t.Errorf("BuildPage() sql = %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("BuildPage() args = %v, want none", args)
	}
}

func TestBuilder_OrderByFields(t *testing.T) {
	sql, _ := query.
		NewBuilder(testProjection(), query.SortField{Field: "Name"}).
		OrderByFields([]query.SortField{
			{Field: "Description", Descending: true},
			{Field: "Name"},
		}).
		BuildPage(1, 5)

	want := "SELECT a.agent_id, a.name, a.description FROM public.agents a ORDER BY a.description DESC, a.name ASC LIMIT 5 OFFSET 0"
	if sql != want {
		t.Errorf("BuildPage() sql = %q, want %q", sql, want)
	}
}

func TestBuilder_WhereSearch(t *testing.T) {
	search := "lab"
	sql, args := query.
		NewBuilder(testProjection(), query.SortField{Field: "Name"}).
		WhereSearch(&search, "Name", "Description").
		BuildCount()

	want := "SELECT COUNT(*) FROM public.agents a WHERE (a.name ILIKE $1 OR a.description ILIKE $2)"
	if sql != want {
		t.Errorf("BuildCount() sql = %q, want %q", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"%lab%", "%lab%"}) {
		t.Errorf("BuildCount() args = %v", args)
	}
}

func TestBuilder_NilConditionsIgnored(t *testing.T) {
	sql, args := query.
		NewBuilder(testProjection(), query.SortField{Field: "Name"}).
		WhereContains("Name", nil).
		WhereSearch(nil, "Name").
		BuildCount()

	want := "SELECT COUNT(*) FROM public.agents a"
	if sql != want {
		t.Errorf("BuildCount() sql = %q, want %q", sql, want)
	}
	if len(args) != 0 {
		t.Errorf("BuildCount() args = %v, want none", args)
	}
}

func TestProjectionMap_Has(t *testing.T) {
	p := testProjection()

	if !p.Has("Name") {
		t.Error("Has(Name) = false, want true")
	}
	if p.Has("Unknown") {
		t.Error("Has(Unknown) = true, want false")
	}
}

func TestProjectionMap_ColumnPanicsOnUnknownField(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Column() did not panic on unknown field")
		}
	}()
	testProjection().Column("Unknown")
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"single ascending", "name", []query.SortField{{Field: "name"}}},
		{"single descending", "-name", []query.SortField{{Field: "name", Descending: true}}},
		{
			"mixed with whitespace",
			"name, -updated_at",
			[]query.SortField{{Field: "name"}, {Field: "updated_at", Descending: true}},
		},
		{"blank terms skipped", "name,,", []query.SortField{{Field: "name"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
