package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		assert.Error(t, err)
	})
}

func TestMoney_Add(t *testing.T) {
	a := NewMoneyUSDFromFloat(100.00)
	b := NewMoneyUSDFromFloat(13.00)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "113.00", sum.StringFixed(2))

	t.Run("mismatched currencies", func(t *testing.T) {
		other, _ := NewMoney(decimal.NewFromInt(1), EUR)
		_, err := a.Add(other)
		assert.Error(t, err)
	})
}

func TestMoney_Subtract(t *testing.T) {
	a := NewMoneyUSDFromFloat(113.00)
	b := NewMoneyUSDFromFloat(50.00)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "63.00", diff.StringFixed(2))
}

func TestMoney_MultiplyByInt(t *testing.T) {
	price := NewMoneyUSDFromFloat(25.00)
	total := price.MultiplyByInt(4)
	assert.Equal(t, "100.00", total.StringFixed(2))
}

func TestMoney_Comparisons(t *testing.T) {
	small := NewMoneyUSDFromFloat(50.00)
	large := NewMoneyUSDFromFloat(63.00)

	lt, err := small.LessThan(large)
	require.NoError(t, err)
	assert.True(t, lt)

	gte, err := large.GreaterThanOrEqual(large)
	require.NoError(t, err)
	assert.True(t, gte)

	assert.True(t, ZeroUSD().IsZero())
	assert.True(t, large.IsPositive())
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoneyUSDFromFloat(99.99)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("42.50"))
	assert.Equal(t, "42.50", m.StringFixed(2))
	assert.Equal(t, DefaultCurrency, m.Currency())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	assert.Error(t, m.Scan(42))
}
