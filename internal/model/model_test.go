package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", NormalizeSymbol("BTC/USDT"))
	assert.Equal(t, "ETHUSDT", NormalizeSymbol("eth-usdt"))
	assert.Equal(t, "SOLUSDC", NormalizeSymbol(" sol_usdc"))
}

func TestBaseCoin(t *testing.T) {
	tests := map[string]string{
		"BTC/USDT": "BTC",
		"eth-usdt": "ETH",
		"SOLUSDC":  "SOL",
		"XRPKRW":   "XRP",
		"ETHBTC":   "ETH",
		"USDT":     "USDT",
	}
	for in, want := range tests {
		assert.Equal(t, want, BaseCoin(in), in)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, OHLCSample{Open: 10, High: 12, Low: 9, Close: 11}.Valid())
	assert.False(t, OHLCSample{Open: 10, High: 9, Low: 8, Close: 11}.Valid())
}

func TestReindex(t *testing.T) {
	s := []OHLCSample{{Index: 7}, {Index: 3}}
	Reindex(s)
	assert.Equal(t, int64(0), s[0].Index)
	assert.Equal(t, int64(1), s[1].Index)
}

func TestParseTradeType(t *testing.T) {
	tt, err := ParseTradeType(" long_open ")
	require.NoError(t, err)
	assert.Equal(t, LongOpen, tt)

	tt, err = ParseTradeType("SHORT_CLOSE")
	require.NoError(t, err)
	assert.Equal(t, ShortClose, tt)

	for _, bad := range []string{"", "LONG", "LONG_OPEN_NOW", "FLAT_OPEN", "LONG_HOLD"} {
		_, err := ParseTradeType(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewTradeType(t *testing.T) {
	assert.Equal(t, ShortOpen, NewTradeType(SideShort, ActionOpen))
	side, action, err := LongClose.Split()
	require.NoError(t, err)
	assert.Equal(t, SideLong, side)
	assert.Equal(t, ActionClose, action)
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide("Short")
	require.NoError(t, err)
	assert.Equal(t, SideShort, s)
	_, err = ParseSide("flat")
	assert.Error(t, err)
}
