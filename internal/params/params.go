// Package params turns a loosely typed argument bag into backend-ready query parameters.
//
// A Signature lists the parameters an operation declares, in order, with whether each one
// may be left out. Clean walks that list against the supplied values: empty optional values
// are dropped, empty required values fail with a ValidationError, and lists of enumeration
// members collapse to a single comma-space joined string.
package params

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Kind describes the shape of a declared parameter
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindBoolean
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Descriptor declares a single parameter of an operation
type Descriptor struct {
	Name     string
	Kind     Kind
	Optional bool
}

// Signature is the ordered parameter list of an operation
type Signature []Descriptor

// Required returns the names of all parameters that must be supplied
func (s Signature) Required() []string {
	var names []string
	for _, d := range s {
		if !d.Optional {
			names = append(names, d.Name)
		}
	}
	return names
}

// Enum is implemented by members of a closed set of backend identifiers
type Enum interface {
	EnumValue() string
}

// EnumList converts a typed slice of enumeration members into the form Clean recognises
func EnumList[T Enum](items []T) []Enum {
	if items == nil {
		return nil
	}
	out := make([]Enum, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

// ValidationError reports a required parameter that was empty or absent
type ValidationError struct {
	Param string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("'%s' is required and cannot be empty", e.Param)
}

// Value is a single sanitised parameter
type Value struct {
	Name  string
	Value any
}

// Values is the ordered result of Clean
type Values []Value

// Get returns the value stored under name
func (v Values) Get(name string) (any, bool) {
	for _, p := range v {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is present
func (v Values) Has(name string) bool {
	_, ok := v.Get(name)
	return ok
}

// Names returns the parameter names in order
func (v Values) Names() []string {
	names := make([]string, len(v))
	for i, p := range v {
		names[i] = p.Name
	}
	return names
}

// Encode renders the values as a URL query string, keeping declaration order.
// Sequences that were not collapsed are emitted as repeated keys.
func (v Values) Encode() string {
	var b strings.Builder
	write := func(name, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}

	for _, p := range v {
		switch val := p.Value.(type) {
		case []string:
			for _, item := range val {
				write(p.Name, item)
			}
		case []any:
			for _, item := range val {
				write(p.Name, scalarString(item))
			}
		default:
			write(p.Name, scalarString(val))
		}
	}
	return b.String()
}

func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case Enum:
		return val.EnumValue()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Clean sanitises raw against the declared signature.
//
// Keys in raw that the signature does not declare are ignored. The function has no side effects
// and returns identical output for identical input.
func Clean(sig Signature, raw map[string]any) (Values, error) {
	cleaned := make(Values, 0, len(sig))

	for _, d := range sig {
		value, ok := raw[d.Name]
		if !ok {
			continue
		}

		value, present := deref(value)
		if !present || isEmpty(value) {
			if !d.Optional {
				return nil, &ValidationError{Param: d.Name}
			}
			continue
		}

		if joined, ok := joinEnums(value); ok {
			value = joined
		}

		cleaned = append(cleaned, Value{Name: d.Name, Value: value})
	}

	return cleaned, nil
}

// deref unwraps optional scalars. A nil pointer counts as absent.
func deref(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case *string:
		if val == nil {
			return nil, false
		}
		return *val, true
	case *int:
		if val == nil {
			return nil, false
		}
		return *val, true
	case *bool:
		if val == nil {
			return nil, false
		}
		return *val, true
	default:
		return v, true
	}
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case string:
		return val == ""
	case []Enum:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	default:
		return false
	}
}

// joinEnums collapses a sequence whose every element is an enumeration member
func joinEnums(v any) (string, bool) {
	var items []Enum
	switch val := v.(type) {
	case []Enum:
		items = val
	case []any:
		items = make([]Enum, 0, len(val))
		for _, item := range val {
			e, ok := item.(Enum)
			if !ok {
				return "", false
			}
			items = append(items, e)
		}
	default:
		return "", false
	}

	values := make([]string, len(items))
	for i, item := range items {
		values[i] = item.EnumValue()
	}
	return strings.Join(values, ", "), true
}
