package netlist

import (
	"encoding/json"
	"math"
)

// Attributes is the component configuration owned by the editor. Values are
// whatever the document decoder produced: numbers, booleans or strings.
type Attributes map[string]any

// Int returns an integral attribute. Non-integral numbers are rejected.
func (a Attributes) Int(key string) (int, bool) {
	switch v := a[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// Bool returns a boolean attribute.
func (a Attributes) Bool(key string) (bool, bool) {
	v, ok := a[key].(bool)
	return v, ok
}

// Text returns a string attribute.
func (a Attributes) Text(key string) (string, bool) {
	v, ok := a[key].(string)
	return v, ok
}
