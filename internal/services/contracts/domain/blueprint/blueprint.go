package blueprint

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/contractdesk/internal/platform/id"
)

// Blueprint is a named template made of positioned fields.
type Blueprint struct {
	ID          string
	Name        string
	Description string
	Fields      []Field
	CreatedAt   time.Time
	// UpdatedAt is zero until the blueprint is first edited.
	UpdatedAt time.Time
}

// CreateInput describes a new blueprint.
type CreateInput struct {
	Name        string
	Description string
}

// UpdateInput is a partial blueprint update; nil members are left unchanged.
// Fields, when set, replaces the whole field list.
type UpdateInput struct {
	Name        *string
	Description *string
	Fields      *[]Field
}

// Create builds a blueprint with an empty field list.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Blueprint, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.WithPrefix("bp-")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Blueprint{}, ErrEmptyName
	}

	blueprintID, err := idGenerator()
	if err != nil {
		return Blueprint{}, fmt.Errorf("generate blueprint id: %w", err)
	}
	return Blueprint{
		ID:          blueprintID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Fields:      []Field{},
		CreatedAt:   now().UTC(),
	}, nil
}

// Update merges input into bp and stamps UpdatedAt.
func Update(bp Blueprint, input UpdateInput, now func() time.Time) (Blueprint, error) {
	if now == nil {
		now = time.Now
	}
	updated := bp.Clone()
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return Blueprint{}, ErrEmptyName
		}
		updated.Name = name
	}
	if input.Description != nil {
		updated.Description = strings.TrimSpace(*input.Description)
	}
	if input.Fields != nil {
		fields, err := normalizeFields(*input.Fields)
		if err != nil {
			return Blueprint{}, err
		}
		updated.Fields = fields
	}
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// AddField appends a new field with a generated id.
func AddField(bp Blueprint, input FieldInput, now func() time.Time, idGenerator func() (string, error)) (Blueprint, Field, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.WithPrefix("f-")
	}
	normalized, err := normalizeFieldInput(input)
	if err != nil {
		return Blueprint{}, Field{}, err
	}
	fieldID, err := idGenerator()
	if err != nil {
		return Blueprint{}, Field{}, fmt.Errorf("generate field id: %w", err)
	}
	if _, exists := bp.Field(fieldID); exists {
		return Blueprint{}, Field{}, duplicateFieldID(fieldID)
	}

	field := Field{
		ID:       fieldID,
		Type:     normalized.Type,
		Label:    normalized.Label,
		Position: normalized.Position,
		Required: normalized.Required,
		Width:    normalized.Width,
		Height:   normalized.Height,
	}
	updated := bp.Clone()
	updated.Fields = append(updated.Fields, field)
	updated.UpdatedAt = now().UTC()
	return updated, field, nil
}

// UpdateField merges patch into the field with fieldID.
func UpdateField(bp Blueprint, fieldID string, patch FieldPatch, now func() time.Time) (Blueprint, error) {
	if now == nil {
		now = time.Now
	}
	index := bp.fieldIndex(fieldID)
	if index < 0 {
		return Blueprint{}, fieldNotFound(fieldID)
	}

	updated := bp.Clone()
	field := updated.Fields[index]
	if patch.Type != nil {
		fieldType, ok := ParseFieldType(string(*patch.Type))
		if !ok {
			return Blueprint{}, invalidFieldType(*patch.Type)
		}
		field.Type = fieldType
	}
	if patch.Label != nil {
		// Renaming a label orphans values stored under the old label.
		label := strings.TrimSpace(*patch.Label)
		if label == "" {
			return Blueprint{}, ErrEmptyFieldLabel
		}
		field.Label = label
	}
	if patch.Position != nil {
		field.Position = ClampPosition(*patch.Position)
	}
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if patch.Width != nil {
		field.Width = max(*patch.Width, 0)
	}
	if patch.Height != nil {
		field.Height = max(*patch.Height, 0)
	}
	updated.Fields[index] = field
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// RemoveField drops the field with fieldID.
func RemoveField(bp Blueprint, fieldID string, now func() time.Time) (Blueprint, error) {
	if now == nil {
		now = time.Now
	}
	if bp.fieldIndex(fieldID) < 0 {
		return Blueprint{}, fieldNotFound(fieldID)
	}
	updated := bp.Clone()
	updated.Fields = slices.DeleteFunc(updated.Fields, func(f Field) bool { return f.ID == fieldID })
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// Field looks up a field by id.
func (bp Blueprint) Field(fieldID string) (Field, bool) {
	index := bp.fieldIndex(fieldID)
	if index < 0 {
		return Field{}, false
	}
	return bp.Fields[index], true
}

// RequiredLabels returns the labels of required fields in field order.
func (bp Blueprint) RequiredLabels() []string {
	var labels []string
	for _, field := range bp.Fields {
		if field.Required {
			labels = append(labels, field.Label)
		}
	}
	return labels
}

// Clone returns a copy that shares no field storage with bp.
func (bp Blueprint) Clone() Blueprint {
	out := bp
	out.Fields = slices.Clone(bp.Fields)
	if out.Fields == nil {
		out.Fields = []Field{}
	}
	return out
}

// Validate checks the invariants a stored blueprint must hold.
func Validate(bp Blueprint) error {
	if strings.TrimSpace(bp.Name) == "" {
		return ErrEmptyName
	}
	seen := make(map[string]struct{}, len(bp.Fields))
	for _, field := range bp.Fields {
		if !field.Type.Valid() {
			return invalidFieldType(field.Type)
		}
		if _, ok := seen[field.ID]; ok {
			return duplicateFieldID(field.ID)
		}
		seen[field.ID] = struct{}{}
	}
	return nil
}

func (bp Blueprint) fieldIndex(fieldID string) int {
	return slices.IndexFunc(bp.Fields, func(f Field) bool { return f.ID == fieldID })
}

func normalizeFields(fields []Field) ([]Field, error) {
	out := make([]Field, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		fieldType, ok := ParseFieldType(string(field.Type))
		if !ok {
			return nil, invalidFieldType(field.Type)
		}
		if _, dup := seen[field.ID]; dup {
			return nil, duplicateFieldID(field.ID)
		}
		seen[field.ID] = struct{}{}
		field.Type = fieldType
		field.Position = ClampPosition(field.Position)
		out = append(out, field)
	}
	return out, nil
}
