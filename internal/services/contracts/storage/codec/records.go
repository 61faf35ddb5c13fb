package codec

import (
	"time"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
)

// PositionRecord is the wire form of blueprint.Position.
type PositionRecord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FieldRecord is the wire form of blueprint.Field.
type FieldRecord struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Label    string         `json:"label"`
	Position PositionRecord `json:"position"`
	Required bool           `json:"required,omitempty"`
	Width    float64        `json:"width,omitempty"`
	Height   float64        `json:"height,omitempty"`
}

// BlueprintRecord is the wire form of blueprint.Blueprint.
type BlueprintRecord struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Fields      []FieldRecord `json:"fields"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt,omitzero"`
}

// TransitionRecord is the wire form of contract.Transition.
type TransitionRecord struct {
	From      string    `json:"from"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// ContractRecord is the wire form of contract.Contract.
type ContractRecord struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	BlueprintID   string             `json:"blueprintId"`
	BlueprintName string             `json:"blueprintName"`
	Status        string             `json:"status"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt,omitzero"`
	Values        contract.Values    `json:"values"`
	Transitions   []TransitionRecord `json:"transitions"`
}

// FromField converts a domain field.
func FromField(f blueprint.Field) FieldRecord {
	return FieldRecord{
		ID:       f.ID,
		Type:     string(f.Type),
		Label:    f.Label,
		Position: PositionRecord{X: f.Position.X, Y: f.Position.Y},
		Required: f.Required,
		Width:    f.Width,
		Height:   f.Height,
	}
}

// ToField converts back to a domain field.
func (r FieldRecord) ToField() blueprint.Field {
	return blueprint.Field{
		ID:       r.ID,
		Type:     blueprint.FieldType(r.Type),
		Label:    r.Label,
		Position: blueprint.Position{X: r.Position.X, Y: r.Position.Y},
		Required: r.Required,
		Width:    r.Width,
		Height:   r.Height,
	}
}

// FromBlueprint converts a domain blueprint.
func FromBlueprint(bp blueprint.Blueprint) BlueprintRecord {
	fields := make([]FieldRecord, 0, len(bp.Fields))
	for _, f := range bp.Fields {
		fields = append(fields, FromField(f))
	}
	return BlueprintRecord{
		ID:          bp.ID,
		Name:        bp.Name,
		Description: bp.Description,
		Fields:      fields,
		CreatedAt:   bp.CreatedAt.UTC(),
		UpdatedAt:   bp.UpdatedAt.UTC(),
	}
}

// ToBlueprint converts back to a domain blueprint.
func (r BlueprintRecord) ToBlueprint() blueprint.Blueprint {
	fields := make([]blueprint.Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		fields = append(fields, f.ToField())
	}
	return blueprint.Blueprint{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Fields:      fields,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// FromContract converts a domain contract.
func FromContract(c contract.Contract) ContractRecord {
	transitions := make([]TransitionRecord, 0, len(c.Transitions))
	for _, t := range c.Transitions {
		transitions = append(transitions, TransitionRecord{
			From:      string(t.From),
			To:        string(t.To),
			Timestamp: t.Timestamp.UTC(),
			Note:      t.Note,
		})
	}
	return ContractRecord{
		ID:            c.ID,
		Name:          c.Name,
		BlueprintID:   c.BlueprintID,
		BlueprintName: c.BlueprintName,
		Status:        string(c.Status),
		CreatedAt:     c.CreatedAt.UTC(),
		UpdatedAt:     c.UpdatedAt.UTC(),
		Values:        c.Values.Clone(),
		Transitions:   transitions,
	}
}

// ToContract converts back to a domain contract.
func (r ContractRecord) ToContract() contract.Contract {
	transitions := make([]contract.Transition, 0, len(r.Transitions))
	for _, t := range r.Transitions {
		transitions = append(transitions, contract.Transition{
			From:      contract.Status(t.From),
			To:        contract.Status(t.To),
			Timestamp: t.Timestamp.UTC(),
			Note:      t.Note,
		})
	}
	return contract.Contract{
		ID:            r.ID,
		Name:          r.Name,
		BlueprintID:   r.BlueprintID,
		BlueprintName: r.BlueprintName,
		Status:        contract.Status(r.Status),
		Values:        r.Values.Clone(),
		Transitions:   transitions,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}
