package filter

import (
	"testing"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
)

func sampleContracts() []contract.Contract {
	return []contract.Contract{
		{ID: "c-1", Name: "Acme Corp Service Agreement", BlueprintID: "bp-1", BlueprintName: "Service Agreement", Status: contract.StatusSigned,
			Transitions: make([]contract.Transition, 3)},
		{ID: "c-2", Name: "TechStart NDA", BlueprintID: "bp-2", BlueprintName: "Non-Disclosure Agreement", Status: contract.StatusSent,
			Transitions: make([]contract.Transition, 2)},
		{ID: "c-5", Name: "Partner NDA", BlueprintID: "bp-2", BlueprintName: "Non-Disclosure Agreement", Status: contract.StatusRevoked,
			Transitions: make([]contract.Transition, 1)},
		{ID: "c-6", Name: "Old Contract", BlueprintID: "bp-1", BlueprintName: "Service Agreement", Status: contract.StatusLocked,
			Transitions: make([]contract.Transition, 4)},
	}
}

func matchIDs(t *testing.T, filterStr string) []string {
	t.Helper()
	f, err := ParseContractFilter(filterStr)
	if err != nil {
		t.Fatalf("parse %q: %v", filterStr, err)
	}
	matched, err := f.Apply(sampleContracts())
	if err != nil {
		t.Fatalf("apply %q: %v", filterStr, err)
	}
	ids := make([]string, len(matched))
	for i, c := range matched {
		ids[i] = c.ID
	}
	return ids
}

func TestContractFilter(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{filter: "", want: []string{"c-1", "c-2", "c-5", "c-6"}},
		{filter: `status = "SENT"`, want: []string{"c-2"}},
		{filter: `blueprint_id = "bp-2" AND status != "REVOKED"`, want: []string{"c-2"}},
		{filter: `status = "SIGNED" OR status = "LOCKED"`, want: []string{"c-1", "c-6"}},
		{filter: `transitions >= 3`, want: []string{"c-1", "c-6"}},
		{filter: `NOT status = "LOCKED"`, want: []string{"c-1", "c-2", "c-5"}},
		{filter: `name:"nda"`, want: []string{"c-2", "c-5"}},
	}
	for _, tc := range tests {
		t.Run(tc.filter, func(t *testing.T) {
			got := matchIDs(t, tc.filter)
			if len(got) != len(tc.want) {
				t.Fatalf("ids = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("ids = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestParseContractFilterRejectsUnknownField(t *testing.T) {
	_, err := ParseContractFilter(`owner = "me"`)
	if err == nil {
		t.Fatal("expected parse error for undeclared identifier")
	}
	if !IsInvalid(err) {
		t.Fatalf("expected FILTER_INVALID, got %v", err)
	}
}

func TestParseContractFilterRejectsTypeMismatch(t *testing.T) {
	if _, err := ParseContractFilter(`transitions = "three"`); err == nil {
		t.Fatal("expected type check error")
	}
}

func TestZeroFilterMatchesAll(t *testing.T) {
	var f ContractFilter
	matched, err := f.Match(contract.Contract{})
	if err != nil || !matched {
		t.Fatalf("Match = %v, %v; want true", matched, err)
	}
}

func TestParseRejectsUnsupportedFieldType(t *testing.T) {
	if _, err := Parse("x = 1", Fields{"x": "float"}); err == nil {
		t.Fatal("expected unsupported field type error")
	}
}
