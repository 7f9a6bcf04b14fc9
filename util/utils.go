package util

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToFloat64 converts a string to a float64, if not a number returns
// false as the second argument.
func ToFloat64(x string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// ParseNumericField converts an attribute value into a number.
// Strings are trimmed and parsed, numeric types are converted directly.
// Empty strings, nil and anything else return false, they are a value
// that is "not there" and should be skipped by callers.
func ParseNumericField(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case float32:
		return ParseNumericField(float64(v))
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		return ToFloat64(string(v))
	case bool:
		return 0, false
	case string:
		return ToFloat64(v)
	}

	return 0, false
}

// FieldString returns the string form of an attribute value, as used for
// categorical keys and labels. nil becomes the empty string.
func FieldString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return string(v)
	}

	return fmt.Sprintf("%v", v)
}

// TwoDecimalPoint rounds the value to two decimal places.
func TwoDecimalPoint(val float64) float64 {
	return math.Round(val*100) / 100
}
