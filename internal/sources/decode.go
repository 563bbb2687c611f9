package sources

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// flexFloat accepts a JSON number, a numeric string, or null.
// Unparseable strings decode to zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// firstNonZero returns the first positive value.
func firstNonZero(vals ...flexFloat) float64 {
	for _, v := range vals {
		if v > 0 {
			return float64(v)
		}
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006", "02-01-2006"}

// parseDate falls back to now when s is empty or unrecognised.
func parseDate(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}

// unwrapRecords accepts either a bare array or an object holding the array under one of keys.
func unwrapRecords(body []byte, keys ...string) ([]json.RawMessage, bool) {
	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err == nil {
		return arr, true
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	for _, k := range keys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &arr); err == nil {
			return arr, true
		}
	}
	return nil, false
}
