package order

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a submitted money value. It accepts a JSON number or a numeric
// string; null and "" decode to an invalid amount so the caller can report
// the field as missing. Raw keeps the text as sent.
type Amount struct {
	decimal.NullDecimal
	Raw string
}

func NewAmount(s string) Amount {
	return Amount{NullDecimal: decimal.NewNullDecimal(decimal.RequireFromString(s)), Raw: s}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if raw == "" {
			return nil
		}
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	a.NullDecimal = decimal.NewNullDecimal(d)
	a.Raw = raw
	return nil
}

// String returns the submitted text, or the two-place form for amounts
// built without one.
func (a Amount) String() string {
	if a.Raw != "" {
		return a.Raw
	}
	if !a.Valid {
		return ""
	}
	return a.Decimal.StringFixed(2)
}
