package scoring

import (
	"strconv"
	"time"
)

// ValuesEqual compares a document value with a query value for equality.
// Arrays match when any element matches.
func ValuesEqual(docVal, queryVal interface{}) bool {
	if items, ok := docVal.([]interface{}); ok {
		for _, item := range items {
			if ValuesEqual(item, queryVal) {
				return true
			}
		}
		return false
	}
	if items, ok := docVal.([]string); ok {
		for _, item := range items {
			if ValuesEqual(item, queryVal) {
				return true
			}
		}
		return false
	}

	// String comparison (case-sensitive)
	if docStr, isDocStr := docVal.(string); isDocStr {
		if queryStr, isQueryStr := queryVal.(string); isQueryStr {
			return docStr == queryStr
		}
	}

	if docBool, isBool := docVal.(bool); isBool {
		if queryBool, ok := queryVal.(bool); ok {
			return docBool == queryBool
		}
		return false
	}

	// Numeric comparison
	if docFloat, docOk := ToFloat64(docVal); docOk {
		if queryFloat, queryOk := ToFloat64(queryVal); queryOk {
			return docFloat == queryFloat
		}
	}

	// Time comparison
	if docTime, docOk := ToTime(docVal); docOk {
		if queryTime, queryOk := ToTime(queryVal); queryOk {
			return docTime.Equal(queryTime)
		}
	}

	return false
}

// CompareWithOperator applies gt, gte, lt or lte. Arrays match when any element does.
func CompareWithOperator(docVal, queryVal interface{}, operator string) bool {
	if items, ok := docVal.([]interface{}); ok {
		for _, item := range items {
			if CompareWithOperator(item, queryVal, operator) {
				return true
			}
		}
		return false
	}

	c, ok := compareComparable(docVal, queryVal)
	if !ok {
		return false
	}
	switch operator {
	case "gt":
		return c > 0
	case "gte":
		return c >= 0
	case "lt":
		return c < 0
	case "lte":
		return c <= 0
	}
	return false
}

// CompareOrdered returns -1, 0 or 1 ordering a before b. Values of
// incomparable kinds order numbers before times before strings.
func CompareOrdered(a, b interface{}) int {
	if c, ok := compareComparable(a, b); ok {
		return c
	}
	return kindRank(a) - kindRank(b)
}

func compareComparable(a, b interface{}) (int, bool) {
	// Numeric comparison
	if fa, okA := toNumber(a); okA {
		if fb, okB := toNumber(b); okB {
			return cmpFloat(fa, fb), true
		}
	}

	// Time comparison
	if ta, okA := ToTime(a); okA {
		if tb, okB := ToTime(b); okB {
			switch {
			case ta.Before(tb):
				return -1, true
			case ta.After(tb):
				return 1, true
			default:
				return 0, true
			}
		}
	}

	// String comparison
	if sa, okA := a.(string); okA {
		if sb, okB := b.(string); okB {
			switch {
			case sa < sb:
				return -1, true
			case sa > sb:
				return 1, true
			default:
				return 0, true
			}
		}
	}

	// Numeric strings against numbers
	if fa, okA := ToFloat64(a); okA {
		if fb, okB := ToFloat64(b); okB {
			return cmpFloat(fa, fb), true
		}
	}
	return 0, false
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func kindRank(v interface{}) int {
	if _, ok := toNumber(v); ok {
		return 0
	}
	if _, ok := ToTime(v); ok {
		return 1
	}
	if _, ok := v.(string); ok {
		return 2
	}
	return 3
}

// toNumber accepts only real numeric types, never strings.
func toNumber(val interface{}) (float64, bool) {
	if _, isStr := val.(string); isStr {
		return 0, false
	}
	return ToFloat64(val)
}

// ToFloat64 converts various numeric types to float64
func ToFloat64(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
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
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// ToTime converts time strings and time values to time.Time
func ToTime(val interface{}) (time.Time, bool) {
	switch v := val.(type) {
	case time.Time:
		return v, true
	case string:
		formats := []string{
			time.RFC3339Nano,
			time.RFC3339,
			"2006-01-02T15:04:05",
			"2006-01-02 15:04:05",
			"2006-01-02",
		}
		for _, format := range formats {
			if t, err := time.Parse(format, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
