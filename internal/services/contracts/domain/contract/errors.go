package contract

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
)

var (
	// ErrEmptyName indicates a missing contract name.
	ErrEmptyName = apperrors.New(apperrors.CodeContractNameEmpty, "contract name is required")
	// ErrInvalidTransition indicates a status change with no lifecycle edge.
	ErrInvalidTransition = apperrors.New(apperrors.CodeContractInvalidStatusTransition, "contract status transition is not allowed")
	// ErrMissingRequiredFields indicates required blueprint fields left unanswered.
	ErrMissingRequiredFields = apperrors.New(apperrors.CodeContractMissingRequiredFields, "required fields are missing")
	// ErrStatusTerminal indicates an edit to a locked or revoked contract.
	ErrStatusTerminal = apperrors.New(apperrors.CodeContractStatusTerminal, "contract is read-only")
	// ErrHistoryInvalid indicates transitions that do not replay to the stored status.
	ErrHistoryInvalid = apperrors.New(apperrors.CodeContractHistoryInvalid, "contract history is invalid")
)

// MissingFieldsError lists the labels of unanswered required fields, in
// blueprint field order.
type MissingFieldsError struct {
	Labels []string
}

func (e *MissingFieldsError) Error() string {
	return "required fields are missing: " + strings.Join(e.Labels, ", ")
}

// Unwrap exposes the coded error so errors.Is and apperrors.GetCode work.
func (e *MissingFieldsError) Unwrap() error {
	return apperrors.WithMetadata(
		apperrors.CodeContractMissingRequiredFields,
		e.Error(),
		map[string]string{"Fields": strings.Join(e.Labels, ", ")},
	)
}

func invalidTransition(from, to Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeContractInvalidStatusTransition,
		fmt.Sprintf("contract status transition not allowed: %s -> %s", from, to),
		map[string]string{"FromStatus": string(from), "ToStatus": string(to)},
	)
}

func statusTerminal(status Status) error {
	return apperrors.WithMetadata(
		apperrors.CodeContractStatusTerminal,
		fmt.Sprintf("contract is %s and read-only", status),
		map[string]string{"Status": string(status)},
	)
}

func historyInvalid(contractID string, step int, detail string) error {
	return apperrors.WithMetadata(
		apperrors.CodeContractHistoryInvalid,
		fmt.Sprintf("contract %s history invalid at step %d: %s", contractID, step, detail),
		map[string]string{"ContractID": contractID, "Step": fmt.Sprint(step)},
	)
}

func valueInvalid(label string, expected ValueKind, err error) error {
	return apperrors.WrapWithMetadata(
		apperrors.CodeContractValueInvalid,
		fmt.Sprintf("value for %s must be a %s", label, expected),
		map[string]string{"Field": label, "Expected": expected.String()},
		err,
	)
}
