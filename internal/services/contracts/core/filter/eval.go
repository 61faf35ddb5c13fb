package filter

import (
	"cmp"
	"fmt"
	"strings"

	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Resolver returns the value of an identifier for the record being matched.
type Resolver func(name string) (any, bool)

// Evaluate evaluates a parsed filter expression against a resolver.
func Evaluate(e *expr.Expr, resolve Resolver) (bool, error) {
	if e == nil {
		return true, nil
	}
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_CallExpr:
		return evalCall(kind.CallExpr, resolve)
	case *expr.Expr_IdentExpr:
		value, ok := resolve(kind.IdentExpr.GetName())
		if !ok {
			return false, fmt.Errorf("unknown field: %s", kind.IdentExpr.GetName())
		}
		b, isBool := value.(bool)
		if !isBool {
			return false, fmt.Errorf("field %s is not boolean", kind.IdentExpr.GetName())
		}
		return b, nil
	default:
		return false, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func evalCall(call *expr.Expr_Call, resolve Resolver) (bool, error) {
	switch call.GetFunction() {
	case "AND", "FUZZY", "_&&_":
		return evalAnd(call.GetArgs(), resolve)
	case "OR", "_||_":
		return evalOr(call.GetArgs(), resolve)
	case "NOT", "-":
		if len(call.GetArgs()) != 1 {
			return false, fmt.Errorf("NOT requires 1 argument")
		}
		matched, err := Evaluate(call.GetArgs()[0], resolve)
		return !matched, err
	case ":":
		return evalHas(call.GetArgs(), resolve)
	case "=", "!=", "<", "<=", ">", ">=":
		return evalCompare(call.GetArgs(), resolve, call.GetFunction())
	default:
		return false, fmt.Errorf("unsupported function: %s", call.GetFunction())
	}
}

func evalAnd(args []*expr.Expr, resolve Resolver) (bool, error) {
	for _, arg := range args {
		matched, err := Evaluate(arg, resolve)
		if err != nil || !matched {
			return false, err
		}
	}
	return true, nil
}

func evalOr(args []*expr.Expr, resolve Resolver) (bool, error) {
	for _, arg := range args {
		matched, err := Evaluate(arg, resolve)
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// evalHas treats "field:value" as a case-insensitive substring match.
func evalHas(args []*expr.Expr, resolve Resolver) (bool, error) {
	left, right, err := operands(args, resolve)
	if err != nil {
		return false, err
	}
	l, lok := left.(string)
	r, rok := right.(string)
	if !lok || !rok {
		return false, fmt.Errorf("has operator requires strings")
	}
	return strings.Contains(strings.ToLower(l), strings.ToLower(r)), nil
}

func evalCompare(args []*expr.Expr, resolve Resolver, op string) (bool, error) {
	left, right, err := operands(args, resolve)
	if err != nil {
		return false, err
	}
	result, err := compareValues(left, right)
	if err != nil {
		return false, err
	}
	switch op {
	case "=":
		return result == 0, nil
	case "!=":
		return result != 0, nil
	case "<":
		return result < 0, nil
	case "<=":
		return result <= 0, nil
	case ">":
		return result > 0, nil
	default:
		return result >= 0, nil
	}
}

func operands(args []*expr.Expr, resolve Resolver) (any, any, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("comparison requires 2 arguments")
	}
	ident := args[0].GetIdentExpr()
	if ident == nil {
		return nil, nil, fmt.Errorf("expected identifier, got %T", args[0].GetExprKind())
	}
	left, ok := resolve(ident.GetName())
	if !ok {
		return nil, nil, fmt.Errorf("unknown field: %s", ident.GetName())
	}
	constant := args[1].GetConstExpr()
	if constant == nil {
		return nil, nil, fmt.Errorf("expected constant, got %T", args[1].GetExprKind())
	}
	right, err := constValue(constant)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func constValue(c *expr.Constant) (any, error) {
	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return float64(kind.Uint64Value), nil
	case *expr.Constant_DoubleValue:
		return kind.DoubleValue, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}

func compareValues(left, right any) (int, error) {
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		if !ok {
			return 0, fmt.Errorf("type mismatch: string vs %T", right)
		}
		return cmp.Compare(l, r), nil
	case int:
		return compareNumbers(float64(l), right)
	case int64:
		return compareNumbers(float64(l), right)
	case float64:
		return compareNumbers(l, right)
	case bool:
		r, ok := right.(bool)
		if !ok {
			return 0, fmt.Errorf("type mismatch: bool vs %T", right)
		}
		switch {
		case l == r:
			return 0, nil
		case !l:
			return -1, nil
		default:
			return 1, nil
		}
	default:
		return 0, fmt.Errorf("unsupported value type: %T", left)
	}
}

func compareNumbers(left float64, right any) (int, error) {
	switch r := right.(type) {
	case int64:
		return cmp.Compare(left, float64(r)), nil
	case float64:
		return cmp.Compare(left, r), nil
	default:
		return 0, fmt.Errorf("type mismatch: number vs %T", right)
	}
}
