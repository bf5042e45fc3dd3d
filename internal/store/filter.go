package store

import (
	"fmt"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// condition is a SQL WHERE fragment with positional parameters.
type condition struct {
	Clause string
	Params []any
}

// filterColumns maps filter identifiers to firings columns.
var filterColumns = map[string]string{
	"chain_id":   "chain_id",
	"seq":        "seq",
	"parent_seq": "parent_seq",
	"kind":       "kind",
	"host":       "host",
	"ruleset":    "ruleset",
	"outcome":    "outcome",
	"aborted_at": "aborted_at",
	"error":      "error",
}

// firingDeclarations declares the identifiers a log filter may use.
func firingDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("chain_id", filtering.TypeString),
		filtering.DeclareIdent("seq", filtering.TypeInt),
		filtering.DeclareIdent("parent_seq", filtering.TypeInt),
		filtering.DeclareIdent("kind", filtering.TypeString),
		filtering.DeclareIdent("host", filtering.TypeString),
		filtering.DeclareIdent("ruleset", filtering.TypeString),
		filtering.DeclareIdent("outcome", filtering.TypeString),
		filtering.DeclareIdent("aborted_at", filtering.TypeString),
		filtering.DeclareIdent("error", filtering.TypeString),
	)
}

// parseFilter translates an AIP-160 filter such as
//
//	ruleset = "Weaken" AND outcome = "aborted"
//
// into a WHERE condition. An empty filter yields an empty condition.
func parseFilter(s string) (condition, error) {
	if strings.TrimSpace(s) == "" {
		return condition{}, nil
	}

	decls, err := firingDeclarations()
	if err != nil {
		return condition{}, fmt.Errorf("declare filter: %w", err)
	}
	f, err := filtering.ParseFilterString(s, decls)
	if err != nil {
		return condition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translateExpr(f.CheckedExpr.GetExpr())
}

func translateExpr(e *expr.Expr) (condition, error) {
	if e == nil {
		return condition{}, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return condition{}, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}
	return translateCall(call.CallExpr)
}

func translateCall(call *expr.Expr_Call) (condition, error) {
	switch call.Function {
	case "_&&_", "AND":
		return translateJoin(call.Args, "AND")
	case "_||_", "OR":
		return translateJoin(call.Args, "OR")
	case "NOT", "-":
		return translateNot(call.Args)
	case "_==_", "=":
		return translateComparison(call.Args, "=")
	case "_!=_", "!=":
		return translateComparison(call.Args, "!=")
	case "_<_", "<":
		return translateComparison(call.Args, "<")
	case "_<=_", "<=":
		return translateComparison(call.Args, "<=")
	case "_>_", ">":
		return translateComparison(call.Args, ">")
	case "_>=_", ">=":
		return translateComparison(call.Args, ">=")
	default:
		return condition{}, fmt.Errorf("unsupported function: %s", call.Function)
	}
}

func translateJoin(args []*expr.Expr, op string) (condition, error) {
	if len(args) < 2 {
		return condition{}, fmt.Errorf("%s requires at least 2 arguments", op)
	}
	clauses := make([]string, 0, len(args))
	var params []any
	for _, arg := range args {
		c, err := translateExpr(arg)
		if err != nil {
			return condition{}, err
		}
		clauses = append(clauses, c.Clause)
		params = append(params, c.Params...)
	}
	return condition{
		Clause: "(" + strings.Join(clauses, " "+op+" ") + ")",
		Params: params,
	}, nil
}

func translateNot(args []*expr.Expr) (condition, error) {
	if len(args) != 1 {
		return condition{}, fmt.Errorf("NOT requires 1 argument")
	}
	c, err := translateExpr(args[0])
	if err != nil {
		return condition{}, err
	}
	return condition{Clause: "NOT " + c.Clause, Params: c.Params}, nil
}

func translateComparison(args []*expr.Expr, op string) (condition, error) {
	if len(args) != 2 {
		return condition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].ExprKind.(*expr.Expr_IdentExpr)
	if !ok {
		return condition{}, fmt.Errorf("expected identifier, got %T", args[0].ExprKind)
	}
	column, ok := filterColumns[ident.IdentExpr.Name]
	if !ok {
		return condition{}, fmt.Errorf("unknown field: %s", ident.IdentExpr.Name)
	}
	value, err := constValue(args[1])
	if err != nil {
		return condition{}, err
	}
	return condition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value},
	}, nil
}

func constValue(e *expr.Expr) (any, error) {
	c, ok := e.ExprKind.(*expr.Expr_ConstExpr)
	if !ok {
		return nil, fmt.Errorf("expected constant, got %T", e.ExprKind)
	}
	switch v := c.ConstExpr.ConstantKind.(type) {
	case *expr.Constant_StringValue:
		return v.StringValue, nil
	case *expr.Constant_Int64Value:
		return v.Int64Value, nil
	case *expr.Constant_Uint64Value:
		return int64(v.Uint64Value), nil
	case *expr.Constant_BoolValue:
		return v.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", v)
	}
}
