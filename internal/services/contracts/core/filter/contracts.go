package filter

import (
	"strings"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// ContractFields are the identifiers available when filtering contracts.
var ContractFields = Fields{
	"id":             FieldString,
	"name":           FieldString,
	"status":         FieldString,
	"blueprint_id":   FieldString,
	"blueprint_name": FieldString,
	"transitions":    FieldInt,
	"read_only":      FieldBool,
}

// ContractFilter is a parsed contract filter. The zero value matches all.
type ContractFilter struct {
	raw  string
	expr *expr.Expr
}

// ParseContractFilter parses filterStr against ContractFields.
func ParseContractFilter(filterStr string) (ContractFilter, error) {
	parsed, err := Parse(filterStr, ContractFields)
	if err != nil {
		return ContractFilter{}, err
	}
	return ContractFilter{raw: strings.TrimSpace(filterStr), expr: parsed}, nil
}

// String returns the filter source.
func (f ContractFilter) String() string {
	return f.raw
}

// Match evaluates the filter against c.
func (f ContractFilter) Match(c contract.Contract) (bool, error) {
	matched, err := Evaluate(f.expr, contractResolver(c))
	if err != nil {
		return false, invalidFilter(f.raw, err)
	}
	return matched, nil
}

// Apply keeps the contracts matching the filter, in input order.
func (f ContractFilter) Apply(contracts []contract.Contract) ([]contract.Contract, error) {
	out := make([]contract.Contract, 0, len(contracts))
	for _, c := range contracts {
		matched, err := f.Match(c)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, c)
		}
	}
	return out, nil
}

func contractResolver(c contract.Contract) Resolver {
	return func(name string) (any, bool) {
		switch name {
		case "id":
			return c.ID, true
		case "name":
			return c.Name, true
		case "status":
			return string(c.Status), true
		case "blueprint_id":
			return c.BlueprintID, true
		case "blueprint_name":
			return c.BlueprintName, true
		case "transitions":
			return len(c.Transitions), true
		case "read_only":
			return c.ReadOnly(), true
		default:
			return nil, false
		}
	}
}

// IsInvalid reports whether err came from a malformed filter.
func IsInvalid(err error) bool {
	return apperrors.IsCode(err, apperrors.CodeFilterInvalid)
}
