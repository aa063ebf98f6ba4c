package config

import (
	"time"
)

// Params wraps a task's free-form parameters for type-safe value extraction.
// All accessor methods return default values if the key is missing
// or the value cannot be converted to the requested type.
type Params struct {
	data map[string]any
}

// NewParams creates Params from the given map.
// If data is nil, empty Params are returned.
func NewParams(data map[string]any) Params {
	if data == nil {
		data = make(map[string]any)
	}
	return Params{data: data}
}

// String returns the string value for key, or defaultVal if missing or not a string.
func (p Params) String(key, defaultVal string) string {
	if s, ok := p.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or not a bool.
func (p Params) Bool(key string, defaultVal bool) bool {
	if b, ok := p.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or not convertible.
//
// Accepts:
//   - int: used directly
//   - int64: converted to int
//   - float64: converted to int (only if no fractional part)
func (p Params) Int(key string, defaultVal int) int {
	switch val := p.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Ticks returns a non-negative tick count for key, or defaultVal if missing,
// negative or not convertible.
func (p Params) Ticks(key string, defaultVal uint32) uint32 {
	n := p.Int(key, -1)
	if n < 0 {
		return defaultVal
	}
	return uint32(n)
}

// Duration returns the duration value for key, or defaultVal if missing or invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (p Params) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := p.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Has returns true if the key exists.
func (p Params) Has(key string) bool {
	_, ok := p.data[key]
	return ok
}

// Raw returns the underlying map.
// The returned map should not be modified.
func (p Params) Raw() map[string]any {
	return p.data
}
