package expr

import "fmt"

// This file implements the built-in functions spec.md §4.3 requires:
// any, all, inv, only_one_true, only_one_false, max, min, sum, len, and
// <helper>.contains(...).

func evalCall(n *Node, bindings map[string]interface{}, helpers map[string]ContainsQueryable) (interface{}, error) {
	if n.Recv != nil {
		if n.Func != "contains" {
			return nil, fmt.Errorf("expr: unsupported method call %q on receiver", n.Func)
		}
		return evalContains(n, bindings, helpers)
	}

	args := make([]interface{}, len(n.Args))
	for i, a := range n.Args {
		v, err := Eval(a, bindings, helpers)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch n.Func {
	case "any":
		return boolReduce(args, false, func(acc, v bool) bool { return acc || v })
	case "all":
		return boolReduce(args, true, func(acc, v bool) bool { return acc && v })
	case "inv":
		if len(args) != 1 {
			return nil, fmt.Errorf("expr: inv() takes exactly 1 argument, got %d", len(args))
		}
		b, ok := args[0].(bool)
		if !ok {
			return nil, fmt.Errorf("expr: inv() requires a bool argument")
		}
		return !b, nil
	case "only_one_true":
		return onlyOneTrue(args)
	case "only_one_false":
		return onlyOneFalse(args)
	case "max":
		return numericAggregate(args, "max")
	case "min":
		return numericAggregate(args, "min")
	case "sum":
		return numericAggregate(args, "sum")
	case "len":
		return lenOf(args)
	default:
		return nil, fmt.Errorf("expr: unknown builtin %q", n.Func)
	}
}

func boolReduce(args []interface{}, seed bool, combine func(acc, v bool) bool) (bool, error) {
	acc := seed
	for _, a := range args {
		b, ok := a.(bool)
		if !ok {
			return false, fmt.Errorf("expr: boolean builtin requires bool arguments, got %T", a)
		}
		acc = combine(acc, b)
	}
	return acc, nil
}

func onlyOneTrue(args []interface{}) (bool, error) {
	count := 0
	for _, a := range args {
		b, ok := a.(bool)
		if !ok {
			return false, fmt.Errorf("expr: only_one_true requires bool arguments, got %T", a)
		}
		if b {
			count++
		}
	}
	return count == 1, nil
}

func onlyOneFalse(args []interface{}) (bool, error) {
	count := 0
	for _, a := range args {
		b, ok := a.(bool)
		if !ok {
			return false, fmt.Errorf("expr: only_one_false requires bool arguments, got %T", a)
		}
		if !b {
			count++
		}
	}
	return count == 1, nil
}

// expandCollection lets max/min/sum/len accept either a single
// collection argument (e.g. x.y where y is a one-to-many relation,
// represented as []interface{}) or a variadic list of scalars.
func expandCollection(args []interface{}) []interface{} {
	if len(args) == 1 {
		if coll, ok := args[0].([]interface{}); ok {
			return coll
		}
	}
	return args
}

func numericAggregate(args []interface{}, op string) (interface{}, error) {
	items := expandCollection(args)
	if len(items) == 0 {
		return nil, fmt.Errorf("expr: %s() requires at least one value", op)
	}
	allInt := true
	vals := make([]float64, len(items))
	for i, v := range items {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("expr: %s() requires numeric values, got %T", op, v)
		}
		if _, isFloat := v.(float64); isFloat {
			allInt = false
		}
		vals[i] = f
	}

	var result float64
	switch op {
	case "max":
		result = vals[0]
		for _, v := range vals[1:] {
			if v > result {
				result = v
			}
		}
	case "min":
		result = vals[0]
		for _, v := range vals[1:] {
			if v < result {
				result = v
			}
		}
	case "sum":
		for _, v := range vals {
			result += v
		}
	}
	if allInt {
		return int64(result), nil
	}
	return result, nil
}

func lenOf(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expr: len() takes exactly 1 argument, got %d", len(args))
	}
	switch v := args[0].(type) {
	case []interface{}:
		return int64(len(v)), nil
	case string:
		return int64(len(v)), nil
	default:
		return nil, fmt.Errorf("expr: len() does not support type %T", v)
	}
}

func evalContains(n *Node, bindings map[string]interface{}, helpers map[string]ContainsQueryable) (interface{}, error) {
	if n.Recv.Kind != KindVarRef {
		return nil, fmt.Errorf("expr: contains() receiver must be a helper name")
	}
	helper, ok := helpers[n.Recv.Var]
	if !ok {
		return nil, fmt.Errorf("expr: unknown helper %q", n.Recv.Var)
	}
	args := make(map[string]string, len(n.Kwargs))
	for _, name := range n.KwOrder {
		valNode := n.Kwargs[name]
		if valNode.Kind != KindVarRef {
			return nil, fmt.Errorf("expr: contains() argument %q must reference a variable", name)
		}
		args[name] = valNode.Var
	}
	return helper.Contains(args, bindings)
}
