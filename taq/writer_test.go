package taq

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDerive(t *testing.T) {
	mid, spread, micro := Derive(100, 5, 102, 3)
	assert.Equal(t, 101.0, mid)
	assert.Equal(t, 2.0, spread)
	// (100*3 + 102*5) / 8
	assert.InDelta(t, 101.25, micro, 1e-12)

	// One-sided: mid collapses to the present side, rest undefined.
	mid, spread, micro = Derive(100, 5, 0, 0)
	assert.Equal(t, 100.0, mid)
	assert.True(t, math.IsNaN(spread))
	assert.True(t, math.IsNaN(micro))

	mid, _, _ = Derive(0, 0, 102, 3)
	assert.Equal(t, 102.0, mid)

	mid, _, _ = Derive(0, 0, 0, 0)
	assert.True(t, math.IsNaN(mid))
}

func TestWriter_QuoteAndTradeRows(t *testing.T) {
	dir := t.TempDir()
	quotes := filepath.Join(dir, "quotes.csv")
	trades := filepath.Join(dir, "trades.csv")

	w, err := Open(quotes, trades, zap.NewNop())
	require.NoError(t, err)

	w.WriteQuote(1000, 100, 5, 102, 3)
	w.WriteQuote(2000, 100, 5, 0, 0) // ask side gone
	w.WriteTrade(1500, 101, 2, 'B')
	w.WriteTrade(2500, 100.5, 1, 0)
	require.NoError(t, w.Close())

	qdata, err := os.ReadFile(quotes)
	require.NoError(t, err)
	qlines := strings.Split(strings.TrimSpace(string(qdata)), "\n")
	require.Len(t, qlines, 3)
	assert.Equal(t, "ts_ns,bid_px,bid_sz,ask_px,ask_sz,mid,spread,microprice", qlines[0])
	assert.Equal(t, "1000,100,5,102,3,101,2,101.25", qlines[1])
	// Missing ask: empty px/sz fields, mid collapses to bid, no spread/micro.
	assert.Equal(t, "2000,100,5,,,100,,", qlines[2])

	tdata, err := os.ReadFile(trades)
	require.NoError(t, err)
	// Trim only the final newline: an unknown side is written as a space.
	tlines := strings.Split(strings.TrimSuffix(string(tdata), "\n"), "\n")
	require.Len(t, tlines, 3)
	assert.Equal(t, "ts_ns,price,qty,side", tlines[0])
	assert.Equal(t, "1500,101,2,B", tlines[1])
	assert.Equal(t, "2500,100.5,1, ", tlines[2])
}

func TestWriter_WarnsOnNonMonotonicTimestamps(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(filepath.Join(dir, "q.csv"), filepath.Join(dir, "t.csv"), zap.NewNop())
	require.NoError(t, err)
	defer w.Close()

	// Out-of-order rows are still written; the writer only warns.
	w.WriteQuote(2000, 100, 1, 101, 1)
	w.WriteQuote(1000, 100, 1, 101, 1)
	w.WriteTrade(2000, 100, 1, 'A')
	w.WriteTrade(1000, 100, 1, 'A')
}
