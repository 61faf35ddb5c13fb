package httpapi

import (
	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/codec"
)

type blueprintView struct {
	codec.BlueprintRecord
	RequiredLabels []string `json:"requiredLabels"`
}

type contractView struct {
	codec.ContractRecord
	StatusLabel string   `json:"statusLabel"`
	ReadOnly    bool     `json:"readOnly"`
	Targets     []string `json:"allowedTransitions"`
	NextStatus  string   `json:"nextStatus,omitempty"`
}

type statusCountView struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
}

type dashboardView struct {
	Total      int               `json:"total"`
	Active     int               `json:"active"`
	Pending    int               `json:"pending"`
	Completed  int               `json:"completed"`
	Signed     int               `json:"signed"`
	Revoked    int               `json:"revoked"`
	Blueprints int               `json:"blueprints"`
	ByStatus   []statusCountView `json:"byStatus"`
	Recent     []contractView    `json:"recent"`
}

func newBlueprintView(bp blueprint.Blueprint) blueprintView {
	labels := bp.RequiredLabels()
	if labels == nil {
		labels = []string{}
	}
	return blueprintView{BlueprintRecord: codec.FromBlueprint(bp), RequiredLabels: labels}
}

func newBlueprintViews(blueprints []blueprint.Blueprint) []blueprintView {
	out := make([]blueprintView, 0, len(blueprints))
	for _, bp := range blueprints {
		out = append(out, newBlueprintView(bp))
	}
	return out
}

func newFieldViews(fields []blueprint.Field) []codec.FieldRecord {
	out := make([]codec.FieldRecord, 0, len(fields))
	for _, f := range fields {
		out = append(out, codec.FromField(f))
	}
	return out
}

func newContractView(c contract.Contract) contractView {
	targets := contract.Targets(c.Status)
	names := make([]string, 0, len(targets))
	for _, target := range targets {
		names = append(names, string(target))
	}
	view := contractView{
		ContractRecord: codec.FromContract(c),
		StatusLabel:    c.Status.Label(),
		ReadOnly:       c.ReadOnly(),
		Targets:        names,
	}
	if next, ok := contract.NextStatus(c.Status); ok {
		view.NextStatus = string(next)
	}
	return view
}

func newContractViews(contracts []contract.Contract) []contractView {
	out := make([]contractView, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, newContractView(c))
	}
	return out
}

func newDashboardView(d app.Dashboard) dashboardView {
	counts := make([]statusCountView, 0, len(d.Summary.ByStatus))
	for _, sc := range d.Summary.ByStatus {
		counts = append(counts, statusCountView{Status: string(sc.Status), Label: sc.Status.Label(), Count: sc.Count})
	}
	return dashboardView{
		Total:      d.Summary.Total,
		Active:     d.Summary.Active,
		Pending:    d.Summary.Pending,
		Completed:  d.Summary.Completed,
		Signed:     d.Summary.Signed,
		Revoked:    d.Summary.Revoked,
		Blueprints: d.Blueprints,
		ByStatus:   counts,
		Recent:     newContractViews(d.Recent),
	}
}
