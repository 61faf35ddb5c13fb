package blueprint

import apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"

var (
	// ErrEmptyName indicates a missing blueprint name.
	ErrEmptyName = apperrors.New(apperrors.CodeBlueprintNameEmpty, "blueprint name is required")
	// ErrInvalidFieldType indicates a field type outside the closed set.
	ErrInvalidFieldType = apperrors.New(apperrors.CodeBlueprintFieldInvalidType, "field type is not supported")
	// ErrDuplicateFieldID indicates two fields sharing an id.
	ErrDuplicateFieldID = apperrors.New(apperrors.CodeBlueprintFieldDuplicateID, "field id is duplicated")
	// ErrEmptyFieldLabel indicates a field label patched to blank.
	ErrEmptyFieldLabel = apperrors.New(apperrors.CodeBlueprintFieldLabelEmpty, "field label is required")
	// ErrFieldNotFound indicates a field id missing from the blueprint.
	ErrFieldNotFound = apperrors.New(apperrors.CodeNotFound, "field not found")
)

func invalidFieldType(value FieldType) error {
	return apperrors.WithMetadata(
		apperrors.CodeBlueprintFieldInvalidType,
		"field type is not supported: "+string(value),
		map[string]string{"FieldType": string(value)},
	)
}

func duplicateFieldID(fieldID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeBlueprintFieldDuplicateID,
		"field id is duplicated: "+fieldID,
		map[string]string{"FieldID": fieldID},
	)
}

func fieldNotFound(fieldID string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		"field not found: "+fieldID,
		map[string]string{"Resource": "Field", "FieldID": fieldID},
	)
}
