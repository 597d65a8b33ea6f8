// Package config loads vudrive run configuration from flags and config files.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting returns the first candidate key present in settings,
// also trying each key in lower case (viper lowercases file keys).
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

// blank reports whether value is nil or a whitespace-only string; every
// converter maps a blank value to its zero value.
func blank(value interface{}) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) == ""
}

func trimmed(value interface{}) interface{} {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}
	return value
}

func asString(value interface{}) (string, error) {
	return cast.ToStringE(value)
}

func asInt(value interface{}) (int, error) {
	if blank(value) {
		return 0, nil
	}
	return cast.ToIntE(trimmed(value))
}

func asInt64(value interface{}) (int64, error) {
	if blank(value) {
		return 0, nil
	}
	return cast.ToInt64E(trimmed(value))
}

func asFloat64(value interface{}) (float64, error) {
	if blank(value) {
		return 0, nil
	}
	return cast.ToFloat64E(trimmed(value))
}

func asBool(value interface{}) (bool, error) {
	if blank(value) {
		return false, nil
	}
	return cast.ToBoolE(trimmed(value))
}

// asDuration accepts Go duration strings ("1m30s") and bare numbers, which
// are seconds ("60", 60, 1.5).
func asDuration(value interface{}) (time.Duration, error) {
	if blank(value) {
		return 0, nil
	}
	switch v := trimmed(value).(type) {
	case time.Duration:
		return v, nil
	case bool:
		return 0, fmt.Errorf("unsupported duration type %T", value)
	case string:
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return cast.ToDurationE(v)
	default:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, fmt.Errorf("unsupported duration type %T", value)
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
}

// asStringSlice accepts a list or a single string. A single string is one
// element; it is not split on whitespace.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	default:
		return cast.ToStringSliceE(v)
	}
}

// toStringKeyMap normalizes a nested config section to lowercase string keys.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	raw, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	out := make(map[string]interface{}, len(raw))
	for key, val := range raw {
		out[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return out, nil
}
