package seed

import (
	"strings"
	"testing"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/louisbranch/contractdesk/internal/services/contracts/projection"
)

func TestSampleLoads(t *testing.T) {
	data, err := Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(data.Blueprints) != 3 {
		t.Fatalf("blueprints = %d, want 3", len(data.Blueprints))
	}
	if len(data.Contracts) != 6 {
		t.Fatalf("contracts = %d, want 6", len(data.Contracts))
	}

	summary := projection.Summarize(data.Contracts)
	if summary.Active != 4 || summary.Pending != 3 || summary.Revoked != 1 || summary.Completed != 2 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSampleRevokedContractKeepsNote(t *testing.T) {
	data, err := Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	for _, c := range data.Contracts {
		if c.ID != "c-5" {
			continue
		}
		if c.Status != contract.StatusRevoked {
			t.Fatalf("status = %s, want REVOKED", c.Status)
		}
		last := c.Transitions[len(c.Transitions)-1]
		if last.Note != "Partnership cancelled" {
			t.Fatalf("note = %q", last.Note)
		}
		return
	}
	t.Fatal("c-5 missing from sample")
}

func TestSampleValueKinds(t *testing.T) {
	data, err := Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	c := data.Contracts[0]
	if got := c.Values["Start Date"].Kind(); got != contract.KindDate {
		t.Fatalf("start date kind = %v, want date", got)
	}
	if accepted, ok := c.Values["Accept Terms"].Bool(); !ok || !accepted {
		t.Fatal("expected Accept Terms to be true")
	}
	if got := c.Values["Client Name"].Kind(); got != contract.KindText {
		t.Fatalf("client name kind = %v, want text", got)
	}
}

func TestParseRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "bad yaml", yaml: "blueprints: [", want: "parse seed yaml"},
		{
			name: "unknown blueprint",
			yaml: `
contracts:
  - {id: c-1, name: X, blueprintId: bp-9, blueprintName: Y, status: CREATED, createdAt: 2026-01-01T00:00:00Z, values: {}, transitions: []}
`,
			want: "unknown blueprint",
		},
		{
			name: "history mismatch",
			yaml: `
blueprints:
  - {id: bp-1, name: B, createdAt: 2026-01-01T00:00:00Z, fields: []}
contracts:
  - {id: c-1, name: X, blueprintId: bp-1, blueprintName: B, status: SENT, createdAt: 2026-01-01T00:00:00Z, values: {}, transitions: []}
`,
			want: "history",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestParseEmptyDocument(t *testing.T) {
	data, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(data.Blueprints) != 0 || len(data.Contracts) != 0 {
		t.Fatalf("data = %+v", data)
	}
}
