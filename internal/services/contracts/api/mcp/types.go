package mcpapi

import (
	"strconv"
	"time"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
)

// BlueprintListInput takes no arguments.
type BlueprintListInput struct{}

// BlueprintListResult lists every blueprint.
type BlueprintListResult struct {
	Blueprints []BlueprintResult `json:"blueprints"`
}

// BlueprintCreateInput represents the MCP tool input for blueprint creation.
type BlueprintCreateInput struct {
	Name        string `json:"name" jsonschema:"blueprint name"`
	Description string `json:"description,omitempty" jsonschema:"optional description"`
}

// BlueprintFieldAddInput represents the MCP tool input for adding a field.
type BlueprintFieldAddInput struct {
	BlueprintID string   `json:"blueprint_id" jsonschema:"blueprint identifier"`
	Type        string   `json:"type" jsonschema:"field type (text, date, checkbox, signature)"`
	Label       string   `json:"label,omitempty" jsonschema:"field label; defaults to New <Type> Field"`
	X           *float64 `json:"x,omitempty" jsonschema:"horizontal position in points, clamped to 0..495"`
	Y           *float64 `json:"y,omitempty" jsonschema:"vertical position in points, clamped to 0..802"`
	Required    bool     `json:"required,omitempty" jsonschema:"whether contracts must answer this field"`
}

// BlueprintResult is a blueprint as returned by tools.
type BlueprintResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Fields      []FieldResult `json:"fields"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at,omitempty"`
}

// FieldResult is a blueprint field as returned by tools.
type FieldResult struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	Label    string  `json:"label"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Required bool    `json:"required"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
}

// ContractCreateInput represents the MCP tool input for contract creation.
type ContractCreateInput struct {
	Name        string         `json:"name" jsonschema:"contract name"`
	BlueprintID string         `json:"blueprint_id" jsonschema:"blueprint identifier"`
	Values      map[string]any `json:"values,omitempty" jsonschema:"field values keyed by field label; strings, booleans, or YYYY-MM-DD dates"`
}

// ContractTransitionInput represents the MCP tool input for a status change.
type ContractTransitionInput struct {
	ContractID     string `json:"contract_id" jsonschema:"contract identifier"`
	To             string `json:"to" jsonschema:"target status (APPROVED, SENT, SIGNED, LOCKED, REVOKED)"`
	Note           string `json:"note,omitempty" jsonschema:"optional note recorded with the transition"`
	ExpectedStatus string `json:"expected_status,omitempty" jsonschema:"reject the change unless the contract is currently in this status"`
}

// ContractRevokeInput represents the MCP tool input for revocation.
type ContractRevokeInput struct {
	ContractID     string `json:"contract_id" jsonschema:"contract identifier"`
	Note           string `json:"note,omitempty" jsonschema:"optional revocation reason"`
	ExpectedStatus string `json:"expected_status,omitempty" jsonschema:"reject the change unless the contract is currently in this status"`
}

// ContractListInput represents the MCP tool input for listing contracts.
type ContractListInput struct {
	Status      string `json:"status,omitempty" jsonschema:"only contracts in this status"`
	BlueprintID string `json:"blueprint_id,omitempty" jsonschema:"only contracts created from this blueprint"`
	Bucket      string `json:"bucket,omitempty" jsonschema:"status group (all, active, pending, completed, revoked)"`
	Filter      string `json:"filter,omitempty" jsonschema:"AIP-160 filter over id, name, status, blueprint_id, blueprint_name, transitions"`
	Recent      bool   `json:"recent,omitempty" jsonschema:"order newest first"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum number of contracts"`
}

// ContractListResult lists contracts with the collection version.
type ContractListResult struct {
	Contracts []ContractResult `json:"contracts"`
	Version   string           `json:"version"`
}

// ContractResult is a contract as returned by tools.
type ContractResult struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	BlueprintID        string             `json:"blueprint_id"`
	BlueprintName      string             `json:"blueprint_name"`
	Status             string             `json:"status"`
	StatusLabel        string             `json:"status_label"`
	ReadOnly           bool               `json:"read_only"`
	AllowedTransitions []string           `json:"allowed_transitions"`
	Values             map[string]any     `json:"values"`
	Transitions        []TransitionResult `json:"transitions"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at,omitempty"`
}

// TransitionResult is one history entry.
type TransitionResult struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp string `json:"timestamp"`
	Note      string `json:"note,omitempty"`
}

func blueprintResultFrom(bp blueprint.Blueprint) BlueprintResult {
	fields := make([]FieldResult, 0, len(bp.Fields))
	for _, f := range bp.Fields {
		fields = append(fields, fieldResultFrom(f))
	}
	return BlueprintResult{
		ID:          bp.ID,
		Name:        bp.Name,
		Description: bp.Description,
		Fields:      fields,
		CreatedAt:   formatTime(bp.CreatedAt),
		UpdatedAt:   formatTime(bp.UpdatedAt),
	}
}

func fieldResultFrom(f blueprint.Field) FieldResult {
	return FieldResult{
		ID:       f.ID,
		Type:     string(f.Type),
		Label:    f.Label,
		X:        f.Position.X,
		Y:        f.Position.Y,
		Required: f.Required,
		Width:    f.Width,
		Height:   f.Height,
	}
}

func contractResultFrom(c contract.Contract) ContractResult {
	targets := contract.Targets(c.Status)
	allowed := make([]string, 0, len(targets))
	for _, target := range targets {
		allowed = append(allowed, string(target))
	}
	values := make(map[string]any, len(c.Values))
	for label, value := range c.Values {
		if b, ok := value.Bool(); ok {
			values[label] = b
			continue
		}
		if value.Kind() != contract.KindUnset {
			values[label] = value.String()
		}
	}
	transitions := make([]TransitionResult, 0, len(c.Transitions))
	for _, t := range c.Transitions {
		transitions = append(transitions, TransitionResult{
			From:      string(t.From),
			To:        string(t.To),
			Timestamp: formatTime(t.Timestamp),
			Note:      t.Note,
		})
	}
	return ContractResult{
		ID:                 c.ID,
		Name:               c.Name,
		BlueprintID:        c.BlueprintID,
		BlueprintName:      c.BlueprintName,
		Status:             string(c.Status),
		StatusLabel:        c.Status.Label(),
		ReadOnly:           c.ReadOnly(),
		AllowedTransitions: allowed,
		Values:             values,
		Transitions:        transitions,
		CreatedAt:          formatTime(c.CreatedAt),
		UpdatedAt:          formatTime(c.UpdatedAt),
	}
}

func contractResultsFrom(contracts []contract.Contract) []ContractResult {
	out := make([]ContractResult, 0, len(contracts))
	for _, c := range contracts {
		out = append(out, contractResultFrom(c))
	}
	return out
}

// valuesFromInput converts loosely typed tool arguments into contract values.
// Field kinds are applied later from the blueprint.
func valuesFromInput(raw map[string]any) contract.Values {
	values := make(contract.Values, len(raw))
	for label, v := range raw {
		switch typed := v.(type) {
		case nil:
		case bool:
			values[label] = contract.BoolValue(typed)
		case string:
			values[label] = contract.TextValue(typed)
		case float64:
			values[label] = contract.TextValue(strconv.FormatFloat(typed, 'f', -1, 64))
		default:
			values[label] = contract.TextValue(fmtAny(typed))
		}
	}
	return values
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
