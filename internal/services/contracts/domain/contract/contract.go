// Package contract implements the contract lifecycle: creation against a
// blueprint, validated status transitions with an append-only history, and
// replay checks over stored histories.
package contract

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/louisbranch/contractdesk/internal/platform/id"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
)

// Transition records one accepted status change.
type Transition struct {
	From      Status
	To        Status
	Timestamp time.Time
	Note      string
}

// Contract is a blueprint instance moving through the lifecycle.
type Contract struct {
	ID          string
	Name        string
	BlueprintID string
	// BlueprintName is captured at creation and never re-synced.
	BlueprintName string
	Status        Status
	Values        Values
	Transitions   []Transition
	CreatedAt     time.Time
	// UpdatedAt is zero until the first transition or value edit.
	UpdatedAt time.Time
}

// CreateInput describes a new contract.
type CreateInput struct {
	Name      string
	Blueprint blueprint.Blueprint
	Values    Values
}

// Create validates input against the blueprint's required fields and returns
// a CREATED contract with an empty history.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Contract, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.WithPrefix("c-")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Contract{}, ErrEmptyName
	}
	values, err := TypeValues(input.Blueprint, input.Values)
	if err != nil {
		return Contract{}, err
	}
	if missing := MissingRequired(input.Blueprint, values); len(missing) > 0 {
		return Contract{}, &MissingFieldsError{Labels: missing}
	}

	contractID, err := idGenerator()
	if err != nil {
		return Contract{}, fmt.Errorf("generate contract id: %w", err)
	}
	return Contract{
		ID:            contractID,
		Name:          name,
		BlueprintID:   input.Blueprint.ID,
		BlueprintName: input.Blueprint.Name,
		Status:        StatusCreated,
		Values:        values,
		Transitions:   []Transition{},
		CreatedAt:     now().UTC(),
	}, nil
}

// MissingRequired returns the labels of required fields in bp with no
// present value. An explicit false answers a required checkbox; an absent
// entry does not.
func MissingRequired(bp blueprint.Blueprint, values Values) []string {
	var missing []string
	for _, field := range bp.Fields {
		if !field.Required {
			continue
		}
		if value, ok := values[field.Label]; !ok || !value.Present() {
			missing = append(missing, field.Label)
		}
	}
	return missing
}

// ApplyTransition moves c to target, appending the transition and stamping
// UpdatedAt. On failure c is returned unchanged alongside the error and
// nothing is recorded.
func ApplyTransition(c Contract, target Status, note string, now func() time.Time) (Contract, error) {
	if now == nil {
		now = time.Now
	}
	if !CanTransition(c.Status, target) {
		return c, invalidTransition(c.Status, target)
	}

	updated := c.Clone()
	stamp := now().UTC()
	updated.Transitions = append(updated.Transitions, Transition{
		From:      c.Status,
		To:        target,
		Timestamp: stamp,
		Note:      strings.TrimSpace(note),
	})
	updated.Status = target
	updated.UpdatedAt = stamp
	return updated, nil
}

// Revoke applies a transition to REVOKED. It fails from SIGNED onwards.
func Revoke(c Contract, note string, now func() time.Time) (Contract, error) {
	return ApplyTransition(c, StatusRevoked, note, now)
}

// Advance applies the forward transition reported by NextStatus.
func Advance(c Contract, note string, now func() time.Time) (Contract, error) {
	next, ok := NextStatus(c.Status)
	if !ok {
		return c, invalidTransition(c.Status, "none")
	}
	return ApplyTransition(c, next, note, now)
}

// UpdateValues types values against bp and merges them into c. Locked and
// revoked contracts are read-only.
func UpdateValues(c Contract, bp blueprint.Blueprint, values Values, now func() time.Time) (Contract, error) {
	if now == nil {
		now = time.Now
	}
	if c.ReadOnly() {
		return c, statusTerminal(c.Status)
	}
	typed, err := TypeValues(bp, values)
	if err != nil {
		return c, err
	}
	updated := c.Clone()
	updated.Values = c.Values.Merge(typed)
	updated.UpdatedAt = now().UTC()
	return updated, nil
}

// ReadOnly reports whether c is in a terminal status.
func (c Contract) ReadOnly() bool {
	return c.Status.Terminal()
}

// Clone returns a copy sharing no map or slice storage with c.
func (c Contract) Clone() Contract {
	out := c
	out.Values = c.Values.Clone()
	out.Transitions = slices.Clone(c.Transitions)
	if out.Transitions == nil {
		out.Transitions = []Transition{}
	}
	return out
}

// Replay walks history from CREATED and returns the status it reaches.
// Each entry must start where the previous one ended and follow an edge.
func Replay(history []Transition) (Status, error) {
	return replay("", history)
}

// Verify checks that c's history replays to its current status.
func Verify(c Contract) error {
	current, err := replay(c.ID, c.Transitions)
	if err != nil {
		return err
	}
	if current != c.Status {
		return historyInvalid(c.ID, len(c.Transitions), fmt.Sprintf("history ends at %s, status is %s", current, c.Status))
	}
	return nil
}

func replay(contractID string, history []Transition) (Status, error) {
	current := StatusCreated
	for i, step := range history {
		if step.From != current {
			return "", historyInvalid(contractID, i, fmt.Sprintf("expected from %s, got %s", current, step.From))
		}
		if !CanTransition(step.From, step.To) {
			return "", historyInvalid(contractID, i, fmt.Sprintf("no edge %s -> %s", step.From, step.To))
		}
		current = step.To
	}
	return current, nil
}
