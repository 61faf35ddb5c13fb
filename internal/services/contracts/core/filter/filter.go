// Package filter parses AIP-160 filter expressions and evaluates them against
// in-memory contracts.
package filter

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// FieldType describes a supported filter field type.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldInt    FieldType = "int"
	FieldBool   FieldType = "bool"
)

// Fields defines filterable identifiers and their types.
type Fields map[string]FieldType

// Parse type-checks an AIP-160 expression against fields. A blank filter
// parses to a nil expression, which matches everything.
func Parse(filterStr string, fields Fields) (*expr.Expr, error) {
	if strings.TrimSpace(filterStr) == "" {
		return nil, nil
	}

	decls, err := declarations(fields)
	if err != nil {
		return nil, err
	}
	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, invalidFilter(filterStr, err)
	}
	return parsed.CheckedExpr.GetExpr(), nil
}

func declarations(fields Fields) (*filtering.Declarations, error) {
	decls := []filtering.DeclarationOption{filtering.DeclareStandardFunctions()}
	for name, kind := range fields {
		switch kind {
		case FieldString:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeString))
		case FieldInt:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeInt))
		case FieldBool:
			decls = append(decls, filtering.DeclareIdent(name, filtering.TypeBool))
		default:
			return nil, fmt.Errorf("unsupported field type for %s", name)
		}
	}
	return filtering.NewDeclarations(decls...)
}

func invalidFilter(filterStr string, cause error) error {
	return apperrors.WrapWithMetadata(
		apperrors.CodeFilterInvalid,
		"invalid filter",
		map[string]string{"Filter": filterStr},
		cause,
	)
}
