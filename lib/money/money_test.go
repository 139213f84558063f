package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		input string
		want  float64
		ok    bool
	}{
		{input: "₹79,900", want: 79900, ok: true},
		{input: "₹1,49,900.00", want: 149900, ok: true},
		{input: "Rs. 2,999", want: 2999, ok: true},
		{input: "INR 1499", want: 1499, ok: true},
		// no symbol, ambiguous thousands separator
		{input: "1,499", want: 1499, ok: true},
		{input: "1.499", want: 1499, ok: true},
		{input: "79900", want: 79900, ok: true},
		// a card showing selling price next to a struck-through MRP
		{input: "₹64,999 M.R.P.: ₹79,900", want: 64999, ok: true},
		// sub-floor badges next to the real price are ignored, not
		// taken as the minimum
		{input: "Save ₹99 with coupon ₹79,900", want: 79900, ok: true},
		{input: "₹79,900 + ₹49 delivery", want: 79900, ok: true},
		// only badges, no real price
		{input: "Save ₹99 with coupon", ok: false},
		// below the plausibility floor
		{input: "₹1", ok: false},
		{input: "1", ok: false},
		{input: "Rs. 1", ok: false},
		{input: "99", ok: false},
		{input: "", ok: false},
		{input: "out of stock", ok: false},
		{input: "₹", ok: false},
		{input: "-500", ok: false},
	}
	for _, c := range cases {
		got, ok := Normalize(c.input)
		require.Equal(t, c.ok, ok, "input %q", c.input)
		if c.ok {
			require.Equal(t, c.want, got, "input %q", c.input)
		}
	}
}
