package registry

import (
	"fmt"
	"math"
	"strconv"
)

// CoerceArguments converts a plain-data argument map (as decoded from a model
// invocation payload) into the types the tool's parameter descriptors declare.
// Coercion recurses through arrays and nested object parameters. Keys without
// a descriptor pass through untouched; explicit nulls stay nil so tools can
// distinguish "absent" from "null".
func CoerceArguments(params []Param, args map[string]any) (map[string]any, error) {
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}

	out := make(map[string]any, len(args))
	for key, value := range args {
		p, ok := byName[key]
		if !ok {
			out[key] = value
			continue
		}
		coerced, err := coerceValue(p, value)
		if err != nil {
			return nil, err
		}
		out[key] = coerced
	}

	for _, p := range params {
		if p.Required {
			if _, ok := out[p.Name]; !ok {
				return nil, fmt.Errorf("missing required parameter %q", p.Name)
			}
		}
	}
	return out, nil
}

func coerceValue(p Param, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch p.Type {
	case TypeString:
		switch v := value.(type) {
		case string:
			return v, nil
		case float64, bool:
			return fmt.Sprint(v), nil
		}
		return nil, typeError(p, value)

	case TypeInteger:
		switch v := value.(type) {
		case float64:
			if v != math.Trunc(v) {
				return nil, fmt.Errorf("parameter %q: %v is not an integer", p.Name, v)
			}
			return int64(v), nil
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %q is not an integer", p.Name, v)
			}
			return n, nil
		}
		return nil, typeError(p, value)

	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %q is not a number", p.Name, v)
			}
			return f, nil
		}
		return nil, typeError(p, value)

	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %q is not a boolean", p.Name, v)
			}
			return b, nil
		}
		return nil, typeError(p, value)

	case TypeArray:
		list, ok := value.([]any)
		if !ok {
			return nil, typeError(p, value)
		}
		if p.Items == nil {
			return list, nil
		}
		item := *p.Items
		if item.Name == "" {
			item.Name = p.Name + "[]"
		}
		out := make([]any, len(list))
		for i, el := range list {
			coerced, err := coerceValue(item, el)
			if err != nil {
				return nil, err
			}
			out[i] = coerced
		}
		return out, nil

	case TypeObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, typeError(p, value)
		}
		if len(p.Properties) == 0 {
			return obj, nil
		}
		return CoerceArguments(p.Properties, obj)
	}

	return value, nil
}

func typeError(p Param, value any) error {
	return fmt.Errorf("parameter %q: expected %s, got %T", p.Name, p.Type, value)
}
