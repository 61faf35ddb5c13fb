package httpapi

import (
	"github.com/louisbranch/contractdesk/internal/services/contracts/api/http/templates"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
)

const historyTimeLayout = "2006-01-02 15:04"

// newDocumentView lays out c over fields, which arrive in render order.
func newDocumentView(c contract.Contract, fields []blueprint.Field) templates.DocumentView {
	view := templates.DocumentView{
		Name:          c.Name,
		BlueprintName: c.BlueprintName,
		Status:        string(c.Status),
		StatusLabel:   c.Status.Label(),
		PageStyle:     templates.PageStyle(blueprint.PageWidth, blueprint.PageHeight),
		Fields:        make([]templates.DocumentField, 0, len(fields)),
		History:       make([]templates.DocumentEntry, 0, len(c.Transitions)),
	}
	for _, f := range fields {
		field := templates.DocumentField{
			ID:    f.ID,
			Type:  string(f.Type),
			Label: f.Label,
			Style: templates.BoxStyle(f.Position.X, f.Position.Y, f.Width, f.Height),
		}
		value, ok := c.Values[f.Label]
		switch {
		case ok && value.Present():
			field.Text = value.String()
		case f.Required:
			field.Missing = true
			field.Text = "Required"
		}
		view.Fields = append(view.Fields, field)
	}
	for _, t := range c.Transitions {
		view.History = append(view.History, templates.DocumentEntry{
			From: t.From.Label(),
			To:   t.To.Label(),
			At:   t.Timestamp.UTC().Format(historyTimeLayout),
			Note: t.Note,
		})
	}
	return view
}
