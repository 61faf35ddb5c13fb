package app

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
)

// Tx is a batch of changes against private copies of both collections.
// Nothing it does is visible until the enclosing Update commits.
type Tx struct {
	blueprints []blueprint.Blueprint
	contracts  []contract.Contract

	blueprintsChanged bool
	contractsChanged  bool

	now func() time.Time
	ids func() (string, error)
}

// ContractInput creates a contract from a stored blueprint.
type ContractInput struct {
	Name        string
	BlueprintID string
	Values      contract.Values
}

// TransitionRequest moves a contract to Target. A non-empty ExpectedStatus
// must equal the contract's current status or the request is rejected.
type TransitionRequest struct {
	Target         contract.Status
	Note           string
	ExpectedStatus contract.Status
}

// StepRequest is a transition whose target is implied (advance, revoke).
type StepRequest struct {
	Note           string
	ExpectedStatus contract.Status
}

// Blueprints returns a copy of the blueprint collection.
func (tx *Tx) Blueprints() []blueprint.Blueprint {
	return cloneBlueprints(tx.blueprints)
}

// Blueprint finds one blueprint.
func (tx *Tx) Blueprint(id string) (blueprint.Blueprint, bool) {
	i := tx.blueprintIndex(id)
	if i < 0 {
		return blueprint.Blueprint{}, false
	}
	return tx.blueprints[i].Clone(), true
}

// Contracts returns a copy of the contract collection.
func (tx *Tx) Contracts() []contract.Contract {
	return cloneContracts(tx.contracts)
}

// Contract finds one contract.
func (tx *Tx) Contract(id string) (contract.Contract, bool) {
	i := tx.contractIndex(id)
	if i < 0 {
		return contract.Contract{}, false
	}
	return tx.contracts[i].Clone(), true
}

// CreateBlueprint appends a new blueprint.
func (tx *Tx) CreateBlueprint(input blueprint.CreateInput) (blueprint.Blueprint, error) {
	bp, err := blueprint.Create(input, tx.now, tx.ids)
	if err != nil {
		return blueprint.Blueprint{}, err
	}
	tx.blueprints = append(slices.Clip(tx.blueprints), bp)
	tx.blueprintsChanged = true
	return bp.Clone(), nil
}

// UpdateBlueprint applies a partial update.
func (tx *Tx) UpdateBlueprint(id string, input blueprint.UpdateInput) (blueprint.Blueprint, error) {
	return tx.replaceBlueprint(id, func(bp blueprint.Blueprint) (blueprint.Blueprint, error) {
		return blueprint.Update(bp, input, tx.now)
	})
}

// DeleteBlueprint removes a blueprint. Contracts created from it keep their
// copied blueprint name.
func (tx *Tx) DeleteBlueprint(id string) error {
	i := tx.blueprintIndex(id)
	if i < 0 {
		return notFound("Blueprint", id)
	}
	tx.blueprints = slices.Delete(slices.Clone(tx.blueprints), i, i+1)
	tx.blueprintsChanged = true
	return nil
}

// AddField appends a field to a blueprint.
func (tx *Tx) AddField(blueprintID string, input blueprint.FieldInput) (blueprint.Field, error) {
	var field blueprint.Field
	_, err := tx.replaceBlueprint(blueprintID, func(bp blueprint.Blueprint) (blueprint.Blueprint, error) {
		updated, added, err := blueprint.AddField(bp, input, tx.now, tx.ids)
		field = added
		return updated, err
	})
	if err != nil {
		return blueprint.Field{}, err
	}
	return field, nil
}

// FieldDraft describes a field dropped from the palette. Zero or nil members
// keep the palette defaults for the blueprint's next slot.
type FieldDraft struct {
	Type     string
	Label    string
	Position *blueprint.Position
	Required bool
	Width    float64
	Height   float64
}

// AddFieldDraft appends a field built from the palette defaults.
func (tx *Tx) AddFieldDraft(blueprintID string, draft FieldDraft) (blueprint.Field, error) {
	bp, ok := tx.Blueprint(blueprintID)
	if !ok {
		return blueprint.Field{}, notFound("Blueprint", blueprintID)
	}
	fieldType := blueprint.FieldType(strings.ToLower(strings.TrimSpace(draft.Type)))
	input := blueprint.NewFieldDraft(fieldType, len(bp.Fields))
	if strings.TrimSpace(draft.Label) != "" {
		input.Label = draft.Label
	}
	if draft.Position != nil {
		input.Position = *draft.Position
	}
	if draft.Width > 0 {
		input.Width = draft.Width
	}
	if draft.Height > 0 {
		input.Height = draft.Height
	}
	input.Required = draft.Required
	return tx.AddField(blueprintID, input)
}

// UpdateField patches one field of a blueprint.
func (tx *Tx) UpdateField(blueprintID, fieldID string, patch blueprint.FieldPatch) (blueprint.Blueprint, error) {
	return tx.replaceBlueprint(blueprintID, func(bp blueprint.Blueprint) (blueprint.Blueprint, error) {
		return blueprint.UpdateField(bp, fieldID, patch, tx.now)
	})
}

// RemoveField deletes one field of a blueprint.
func (tx *Tx) RemoveField(blueprintID, fieldID string) (blueprint.Blueprint, error) {
	return tx.replaceBlueprint(blueprintID, func(bp blueprint.Blueprint) (blueprint.Blueprint, error) {
		return blueprint.RemoveField(bp, fieldID, tx.now)
	})
}

// CreateContract validates values against the blueprint's required fields
// and appends a CREATED contract.
func (tx *Tx) CreateContract(input ContractInput) (contract.Contract, error) {
	bp, ok := tx.Blueprint(input.BlueprintID)
	if !ok {
		return contract.Contract{}, notFound("Blueprint", input.BlueprintID)
	}
	c, err := contract.Create(contract.CreateInput{
		Name:      input.Name,
		Blueprint: bp,
		Values:    input.Values,
	}, tx.now, tx.ids)
	if err != nil {
		return contract.Contract{}, err
	}
	tx.contracts = append(slices.Clip(tx.contracts), c)
	tx.contractsChanged = true
	return c.Clone(), nil
}

// UpdateValues merges values into an editable contract, typed by its
// blueprint's fields. Contracts whose blueprint was deleted keep values as sent.
func (tx *Tx) UpdateValues(id string, values contract.Values) (contract.Contract, error) {
	return tx.replaceContract(id, "", func(c contract.Contract) (contract.Contract, error) {
		bp, _ := tx.Blueprint(c.BlueprintID)
		return contract.UpdateValues(c, bp, values, tx.now)
	})
}

// Transition moves a contract along one lifecycle edge.
func (tx *Tx) Transition(id string, req TransitionRequest) (contract.Contract, error) {
	return tx.replaceContract(id, req.ExpectedStatus, func(c contract.Contract) (contract.Contract, error) {
		return contract.ApplyTransition(c, req.Target, req.Note, tx.now)
	})
}

// Advance moves a contract to its next status on the happy path.
func (tx *Tx) Advance(id string, req StepRequest) (contract.Contract, error) {
	return tx.replaceContract(id, req.ExpectedStatus, func(c contract.Contract) (contract.Contract, error) {
		return contract.Advance(c, req.Note, tx.now)
	})
}

// Revoke cancels a contract.
func (tx *Tx) Revoke(id string, req StepRequest) (contract.Contract, error) {
	return tx.replaceContract(id, req.ExpectedStatus, func(c contract.Contract) (contract.Contract, error) {
		return contract.Revoke(c, req.Note, tx.now)
	})
}

// ReplaceAll swaps both collections wholesale.
func (tx *Tx) ReplaceAll(blueprints []blueprint.Blueprint, contracts []contract.Contract) {
	tx.blueprints = cloneBlueprints(blueprints)
	tx.contracts = typeContracts(tx.blueprints, cloneContracts(contracts))
	tx.blueprintsChanged = true
	tx.contractsChanged = true
}

func (tx *Tx) replaceBlueprint(id string, change func(blueprint.Blueprint) (blueprint.Blueprint, error)) (blueprint.Blueprint, error) {
	i := tx.blueprintIndex(id)
	if i < 0 {
		return blueprint.Blueprint{}, notFound("Blueprint", id)
	}
	updated, err := change(tx.blueprints[i])
	if err != nil {
		return blueprint.Blueprint{}, err
	}
	next := slices.Clone(tx.blueprints)
	next[i] = updated
	tx.blueprints = next
	tx.blueprintsChanged = true
	return updated.Clone(), nil
}

func (tx *Tx) replaceContract(id string, expected contract.Status, change func(contract.Contract) (contract.Contract, error)) (contract.Contract, error) {
	i := tx.contractIndex(id)
	if i < 0 {
		return contract.Contract{}, notFound("Contract", id)
	}
	current := tx.contracts[i]
	if expected != "" && current.Status != expected {
		return contract.Contract{}, statusConflict(id, expected, current.Status)
	}
	updated, err := change(current)
	if err != nil {
		return contract.Contract{}, err
	}
	next := slices.Clone(tx.contracts)
	next[i] = updated
	tx.contracts = next
	tx.contractsChanged = true
	return updated.Clone(), nil
}

func (tx *Tx) blueprintIndex(id string) int {
	return slices.IndexFunc(tx.blueprints, func(bp blueprint.Blueprint) bool { return bp.ID == id })
}

func (tx *Tx) contractIndex(id string) int {
	return slices.IndexFunc(tx.contracts, func(c contract.Contract) bool { return c.ID == id })
}

func notFound(resource, id string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		fmt.Sprintf("%s %s not found", resource, id),
		map[string]string{"Resource": resource, "ID": id},
	)
}

func statusConflict(id string, expected, actual contract.Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeContractStatusConflict,
		fmt.Sprintf("contract %s is %s, expected %s", id, actual, expected),
		map[string]string{"ContractID": id, "ExpectedStatus": string(expected), "ActualStatus": string(actual)},
	)
}

func cloneBlueprints(in []blueprint.Blueprint) []blueprint.Blueprint {
	out := make([]blueprint.Blueprint, len(in))
	for i, bp := range in {
		out[i] = bp.Clone()
	}
	return out
}

func cloneContracts(in []contract.Contract) []contract.Contract {
	out := make([]contract.Contract, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}

// typeContracts gives each contract's values the kinds of its blueprint's
// fields. Stored JSON carries dates as plain strings.
func typeContracts(blueprints []blueprint.Blueprint, contracts []contract.Contract) []contract.Contract {
	byID := make(map[string]blueprint.Blueprint, len(blueprints))
	for _, bp := range blueprints {
		byID[bp.ID] = bp
	}
	for i, c := range contracts {
		if bp, ok := byID[c.BlueprintID]; ok {
			contracts[i].Values = contract.ApplyFieldTypes(bp, c.Values)
		}
	}
	return contracts
}
