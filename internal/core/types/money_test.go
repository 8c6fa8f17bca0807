package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "two decimals", input: "10.50", want: "10.5"},
		{name: "one decimal", input: "0.5", want: "0.5"},
		{name: "integer", input: "100", want: "100"},
		{name: "zero", input: "0", want: "0"},
		{name: "negative", input: "-3.25", want: "-3.25"},
		{name: "three decimals rejected", input: "10.005", wantErr: true},
		{name: "garbage rejected", input: "ten", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := MoneyFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestMulInt(t *testing.T) {
	assert.True(t, MulInt(MustMoney("1.15"), 3).Equal(MustMoney("3.45")))
	assert.True(t, MulInt(MustMoney("100.00"), 0).IsZero())
}

func TestDivInt_QuotientRemainderIdentity(t *testing.T) {
	tests := []struct {
		amount       string
		divisor      int64
		wantQuotient string
	}{
		{"10.00", 3, "3.33"},
		{"10.00", 7, "1.42"},
		{"0.01", 2, "0"},
		{"9.99", 3, "3.33"},
	}

	for _, tt := range tests {
		q, r := DivInt(MustMoney(tt.amount), tt.divisor)
		assert.True(t, q.Equal(MustMoney(tt.wantQuotient)),
			"quotient of %s/%d: got %s", tt.amount, tt.divisor, q)

		// m == quotient*n + remainder, always.
		recomposed := MulInt(q, tt.divisor).Add(r)
		assert.True(t, recomposed.Equal(MustMoney(tt.amount)),
			"identity broken for %s/%d: %s", tt.amount, tt.divisor, recomposed)
	}
}

func TestCentsRoundTrip(t *testing.T) {
	m := MoneyFromCents(1050)
	assert.True(t, m.Equal(MustMoney("10.50")))
	assert.Equal(t, int64(1050), Cents(m))
}

func TestRepeatedAdditionDoesNotDrift(t *testing.T) {
	sum := ZeroMoney()
	for i := 0; i < 1000; i++ {
		sum = sum.Add(MustMoney("0.10"))
	}
	assert.True(t, sum.Equal(MustMoney("100.00")), "got %s", sum)
}
