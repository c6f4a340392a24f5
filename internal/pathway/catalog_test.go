package pathway

import (
	"testing"

	"clinicflow/flow-service/internal/station"
)

func TestResolveEndsWithDischarge(t *testing.T) {
	c := NewTableCatalog()

	cases := []struct {
		acuity   int
		category string
	}{
		{1, ""},
		{3, ""},
		{5, ""},
		{2, "glasses"},
		{3, "cataract"},
		{4, "no_such_category"},
		{0, ""},
	}
	for _, tt := range cases {
		path := c.Resolve(tt.acuity, tt.category)
		if len(path) == 0 {
			t.Fatalf("Resolve(%d, %q) returned empty pathway", tt.acuity, tt.category)
		}
		if path[len(path)-1] != station.Discharge {
			t.Fatalf("Resolve(%d, %q) does not end with discharge: %v", tt.acuity, tt.category, path)
		}
	}
}

func TestCategoryTakesPrecedenceOverAcuity(t *testing.T) {
	c := NewTableCatalog()

	path := c.Resolve(3, "glasses")
	if path[0] != "registration" || path[2] != "refraction" {
		t.Fatalf("glasses pathway = %v", path)
	}
	if len(path) == len(c.Resolve(3, "")) {
		t.Fatalf("category pathway should differ from the acuity-3 default")
	}
}

func TestAcuityOnePathwayIsTraumaFirst(t *testing.T) {
	c := NewTableCatalog()

	path := c.Resolve(1, "")
	if path[0] != "trauma_center" {
		t.Fatalf("acuity-1 pathway starts at %s, want trauma_center", path[0])
	}
}

func TestResolveReturnsCopy(t *testing.T) {
	c := NewTableCatalog()

	first := c.Resolve(3, "")
	first[0] = "mutated"
	second := c.Resolve(3, "")
	if second[0] == "mutated" {
		t.Fatalf("Resolve returned shared backing array")
	}
}
