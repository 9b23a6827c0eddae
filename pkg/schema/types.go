package schema

import (
	"encoding/json"
	"fmt"
)

// Type defines the contract for context value validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type kindType struct {
	name  string
	check func(any) bool
}

func (t *kindType) Name() string { return t.name }

func (t *kindType) Validate(value any) error {
	if !t.check(value) {
		return fmt.Errorf("expected %s, got %T", t.name, value)
	}
	return nil
}

// String accepts string values.
func String() Type {
	return &kindType{name: "string", check: func(v any) bool {
		_, ok := v.(string)
		return ok
	}}
}

// Int accepts integers, including whole floats and json.Number decoded from documents.
func Int() Type {
	return &kindType{name: "int", check: func(v any) bool {
		switch n := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return n == float64(int64(n))
		case json.Number:
			_, err := n.Int64()
			return err == nil
		}
		return false
	}}
}

// Float accepts any numeric value.
func Float() Type {
	return &kindType{name: "float", check: func(v any) bool {
		switch n := v.(type) {
		case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case json.Number:
			_, err := n.Float64()
			return err == nil
		}
		return false
	}}
}

// Bool accepts boolean values.
func Bool() Type {
	return &kindType{name: "bool", check: func(v any) bool {
		_, ok := v.(bool)
		return ok
	}}
}

// Any accepts every value.
func Any() Type {
	return &kindType{name: "any", check: func(any) bool { return true }}
}

// ParseType converts a type name to a Type. An empty name is Any.
func ParseType(name string) (Type, error) {
	switch name {
	case "", "any":
		return Any(), nil
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", name)
	}
}

// ValidateValues checks values against the declared types. Values without a
// declaration and explicit absences (nil) are accepted.
func ValidateValues(types map[string]Type, values map[string]any) error {
	var errs []error
	for _, key := range sortedKeys(values) {
		value := values[key]
		typ, ok := types[key]
		if !ok || value == nil {
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    "contexts[" + key + "]",
				Reason: err.Error(),
				Value:  value,
			})
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
