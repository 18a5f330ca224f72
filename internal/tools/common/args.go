package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxIntArg bounds integer arguments. Larger magnitudes are clamped.
const maxIntArg = math.MaxInt32

// IntArg reads an optional integer argument. JSON numbers arrive as float64
// and must be whole; numeric strings are accepted too. A missing or null
// argument yields def. Values beyond ±maxIntArg are clamped.
func IntArg(args map[string]interface{}, name string, def int) (int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return def, nil
	}

	notNumber := fmt.Errorf("%s must be a number", name)
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, notNumber
		}
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s must be a whole number", name)
		}
		return clampInt(n), nil
	case int:
		return clampInt(float64(n)), nil
	case int64:
		return clampInt(float64(n)), nil
	case string:
		// ParseInt returns the saturated value alongside ErrRange
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, notNumber
		}
		return clampInt(float64(i)), nil
	default:
		return 0, notNumber
	}
}

func clampInt(f float64) int {
	return int(max(-maxIntArg, min(maxIntArg, f)))
}

// StringArg reads a string argument that must be present. An empty string
// is a valid value.
func StringArg(args map[string]interface{}, name string) (string, error) {
	v, ok := args[name].(string)
	if !ok {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// RequiredStringArg reads a string argument that must be present and non-empty
func RequiredStringArg(args map[string]interface{}, name string) (string, error) {
	v, err := StringArg(args, name)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}
