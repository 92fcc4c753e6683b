package order

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalJSON(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		tests := map[string]struct {
			input string
			want  string
			raw   string
		}{
			"Number":        {`5.00`, "5", "5.00"},
			"NumericString": {`"25"`, "25", "25"},
			"Zero":          {`0`, "0", "0"},
		}

		for name, tc := range tests {
			t.Run(name, func(t *testing.T) {
				var a Amount
				require.NoError(t, json.Unmarshal([]byte(tc.input), &a))
				assert.True(t, a.Valid)
				assert.True(t, a.Decimal.Equal(decimal.RequireFromString(tc.want)))
				assert.Equal(t, tc.raw, a.String())
			})
		}
	})

	t.Run("BlankIsInvalid", func(t *testing.T) {
		for _, input := range []string{`""`, `null`} {
			var a Amount
			require.NoError(t, json.Unmarshal([]byte(input), &a))
			assert.False(t, a.Valid, input)
			assert.Empty(t, a.String())
		}
	})

	t.Run("Missing", func(t *testing.T) {
		var in PlaceOrderInput
		require.NoError(t, json.Unmarshal([]byte(`{"items":[]}`), &in))
		assert.False(t, in.ShippingFee.Valid)
		assert.False(t, in.TotalAmount.Valid)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, input := range []string{`"abc"`, `true`, `{}`} {
			var a Amount
			assert.Error(t, json.Unmarshal([]byte(input), &a), input)
		}
	})
}

func TestAmount_String(t *testing.T) {
	assert.Equal(t, "5.00", NewAmount("5.00").String())
	assert.Equal(t, "7.50", Amount{NullDecimal: decimal.NewNullDecimal(decimal.RequireFromString("7.5"))}.String())
}
