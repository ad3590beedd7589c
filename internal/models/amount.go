package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a money value as sent by the backend.
//
// The backend serializes decimals either as JSON numbers or as strings ("800.00"),
// so decoding accepts both. Encoding always produces a number.
type Amount float64

// UnmarshalJSON implements [json.Unmarshaler].
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid amount %s: %w", raw, err)
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = 0
			return nil
		}
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", raw, err)
	}
	*a = Amount(v)
	return nil
}

// String formats the amount rounded to cents without trailing zeros ("800", "12.5").
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a.Cents())/100, 'f', -1, 64)
}

// Fixed formats the amount rounded to cents with exactly two decimals ("199.90").
func (a Amount) Fixed() string {
	return strconv.FormatFloat(float64(a.Cents())/100, 'f', 2, 64)
}

// Cents rounds the amount to whole cents.
func (a Amount) Cents() int64 {
	return int64(math.Round(float64(a) * 100))
}

// FromCents converts a whole number of cents back into an [Amount].
func FromCents(c int64) Amount {
	return Amount(float64(c) / 100)
}

// ParseAmount parses user input such as "150", "150.50" or "150,50".
func ParseAmount(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return Amount(v), nil
}
