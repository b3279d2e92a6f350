package query

import (
	"strings"
	"testing"
)

func testProjection() *ProjectionMap {
	return NewProjectionMap("public", "incidents", "i").
		Project("id", "ID").
		Project("owner_id", "OwnerID").
		Project("created_at", "CreatedAt")
}

func TestBuilderBuildPage(t *testing.T) {
	owner := "user-1"
	sql, args := NewBuilder(testProjection(), SortField{Field: "CreatedAt", Descending: true}).
		WhereEquals("OwnerID", &owner).
		BuildPage(2, 10)

	if !strings.Contains(sql, "WHERE i.owner_id = $1") {
		t.Errorf("missing where clause: %s", sql)
	}
	if !strings.Contains(sql, "ORDER BY i.created_at DESC") {
		t.Errorf("missing default order: %s", sql)
	}
	if !strings.Contains(sql, "LIMIT 10 OFFSET 10") {
		t.Errorf("missing paging clause: %s", sql)
	}
	if len(args) != 1 {
		t.Errorf("unexpected args %v", args)
	}
}

func TestOrderByFieldsDropsUnknown(t *testing.T) {
	sql, _ := NewBuilder(testProjection(), SortField{Field: "CreatedAt", Descending: true}).
		OrderByFields(ParseSortFields("bogus")).
		BuildPage(1, 10)

	if !strings.Contains(sql, "ORDER BY i.created_at DESC") {
		t.Errorf("unknown sort must fall back to the default, got %s", sql)
	}
	if strings.Contains(sql, "bogus") {
		t.Errorf("unknown field leaked into SQL: %s", sql)
	}
}

func TestOrderByFieldsKeepsKnown(t *testing.T) {
	sql, _ := NewBuilder(testProjection()).
		OrderByFields(ParseSortFields("OwnerID,-nope,-CreatedAt")).
		Build()

	if !strings.Contains(sql, "ORDER BY i.owner_id ASC, i.created_at DESC") {
		t.Errorf("known sort fields must survive filtering, got %s", sql)
	}
}

func TestParseSortFields(t *testing.T) {
	fields := ParseSortFields("status, -created_at")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", fields)
	}
	if fields[0].Field != "status" || fields[0].Descending {
		t.Errorf("unexpected first field %+v", fields[0])
	}
	if fields[1].Field != "created_at" || !fields[1].Descending {
		t.Errorf("unexpected second field %+v", fields[1])
	}

	if ParseSortFields("") != nil {
		t.Error("empty input must parse to nil")
	}
}

func TestProjectionHas(t *testing.T) {
	p := testProjection()
	if !p.Has("ID") {
		t.Error("projected field must be present")
	}
	if p.Has("bogus") {
		t.Error("unknown field must be absent")
	}
}
