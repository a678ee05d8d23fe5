package store

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Non-finite floats in SQLite columns are stored as one of these tokens.
// NaN keeps its IEEE bit pattern in hex so payloads survive the round trip.
const (
	tokenPosInf    = "+Inf"
	tokenNegInf    = "-Inf"
	tokenNaNPrefix = "NaN:"
)

func formatNonFinite32(v float32) string {
	switch {
	case math.IsInf(float64(v), 1):
		return tokenPosInf
	case math.IsInf(float64(v), -1):
		return tokenNegInf
	}
	return fmt.Sprintf("%s%08x", tokenNaNPrefix, math.Float32bits(v))
}

func formatNonFinite64(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return tokenPosInf
	case math.IsInf(v, -1):
		return tokenNegInf
	}
	return fmt.Sprintf("%s%016x", tokenNaNPrefix, math.Float64bits(v))
}

// Float32Value converts a scanned real column, or one element of a stored
// vector, back to the float32 that was written.
func Float32Value(v any) (float32, error) {
	// NaN bits are decoded directly; a detour through float64 may quiet a
	// signalling NaN.
	if s, ok := textValue(v); ok {
		if hex, ok := strings.CutPrefix(s, tokenNaNPrefix); ok {
			u, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return 0, fmt.Errorf("invalid NaN token %q: %w", s, err)
			}
			return math.Float32frombits(uint32(u)), nil
		}
	}
	f, err := floatValue(v, 32)
	return float32(f), err
}

// Float64Value converts a scanned double precision column back to the
// float64 that was written.
func Float64Value(v any) (float64, error) {
	return floatValue(v, 64)
}

func textValue(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return "", false
}

func floatValue(v any, bits int) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return strconv.ParseFloat(v.String(), bits)
	case []byte:
		return parseFloatText(string(v), bits)
	case string:
		return parseFloatText(v, bits)
	case nil:
		return 0, fmt.Errorf("unexpected NULL float")
	default:
		return 0, fmt.Errorf("unexpected float value of type %T", v)
	}
}

func parseFloatText(s string, bits int) (float64, error) {
	switch s {
	case tokenPosInf:
		return math.Inf(1), nil
	case tokenNegInf:
		return math.Inf(-1), nil
	}
	hex, ok := strings.CutPrefix(s, tokenNaNPrefix)
	if !ok {
		return strconv.ParseFloat(s, bits)
	}
	u, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid NaN token %q: %w", s, err)
	}
	return math.Float64frombits(u), nil
}

// Float32Array decodes a SQLite vector or quaternion column.
func Float32Array(text string) ([]float32, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid array %q: %w", text, err)
	}
	out := make([]float32, len(raw))
	for i, v := range raw {
		f, err := Float32Value(v)
		if err != nil {
			return nil, fmt.Errorf("element %d of %q: %w", i, text, err)
		}
		out[i] = f
	}
	return out, nil
}
