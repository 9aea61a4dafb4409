// normalize.go - Field coercion: guarantees a complete, well-typed record
// regardless of what the model returned

package extract

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Normalize turns a ParseResult into a fully-populated ExpenseAnalysis.
// A parse failure yields the fixed fallback record. Parsed objects that
// already satisfy the strict schema are taken as-is; anything else goes
// through per-field lenient coercion with defaults.
func Normalize(result ParseResult, now time.Time) ExpenseAnalysis {
	value, ok := result.Value()
	if !ok {
		return FallbackAnalysis(now)
	}

	if err := ValidateAgainstSchema(value); err == nil {
		if analysis, decodeErr := decodeStrict(value); decodeErr == nil {
			return analysis
		}
	}

	return coerceFields(value, now)
}

// decodeStrict round-trips a schema-valid object into the typed record.
func decodeStrict(value map[string]interface{}) (ExpenseAnalysis, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return ExpenseAnalysis{}, err
	}
	var analysis ExpenseAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return ExpenseAnalysis{}, err
	}
	return analysis, nil
}

// coerceFields applies per-field coercion and defaults.
func coerceFields(value map[string]interface{}, now time.Time) ExpenseAnalysis {
	analysis := ExpenseAnalysis{
		Amount:         toAmount(value["amount"]),
		Vendor:         toStringDefault(value["vendor"], DefaultVendor),
		Date:           toDate(value["date"], now),
		Description:    toStringDefault(value["description"], FallbackDescription),
		Category:       toCategory(value["category"]),
		Confidence:     clampConfidence(value["confidence"]),
		ProjectMention: toBool(value["project_mention"]),
		ProjectName:    toNullableString(value["project_name"]),
		ProjectCode:    toNullableString(value["project_code"]),
	}
	return analysis
}

// toAmount coerces a financial value to a non-negative float64.
func toAmount(v interface{}) float64 {
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0
	}
	return f
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f, true
		}
	case string:
		s := strings.TrimSpace(t)
		// Tolerate thousand separators the model sometimes keeps, e.g. "35,000"
		s = strings.ReplaceAll(s, ",", "")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// clampConfidence coerces to an integer clamped to [0, 100]; anything
// non-numeric becomes 0.
func clampConfidence(v interface{}) int {
	f, ok := toFloat(v)
	if !ok {
		return 0
	}
	c := int(f)
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// toDate validates YYYY-MM-DD; absent or invalid dates default to today.
func toDate(v interface{}, now time.Time) string {
	s, ok := v.(string)
	if !ok {
		return now.Format("2006-01-02")
	}
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return now.Format("2006-01-02")
	}
	return s
}

// toCategory validates against the fixed enum; unknown values are clamped to
// "other" so downstream expense creation never sees an invalid category.
func toCategory(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return CategoryOther
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if !validCategories[s] {
		return CategoryOther
	}
	return s
}

func toStringDefault(v interface{}, def string) string {
	s, ok := v.(string)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func toBool(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

func toNullableString(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}
