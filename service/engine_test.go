package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vidar/domain/book"
	"vidar/infra/sequence"
	"vidar/infra/wal"
	"vidar/snapshot"
)

type dirs struct {
	wal   string
	snaps string
}

func newEngine(t *testing.T, d dirs) *Engine {
	t.Helper()

	w, err := wal.Open(wal.Config{Dir: d.wal})
	require.NoError(t, err)

	snaps, err := snapshot.OpenStore(d.snaps)
	require.NoError(t, err)

	b := book.New(book.NewSparseLadder(book.Bid), book.NewSparseLadder(book.Ask), nil)
	e := NewEngine(b, w, sequence.New(0), snaps, zap.NewNop())
	t.Cleanup(func() { closeEngine(e) })
	return e
}

// closeEngine releases the engine's journal and snapshot store; calling it
// again is a no-op. The snapshot store locks its directory while open, so a
// second engine over the same dirs needs the first one closed.
func closeEngine(e *Engine) {
	if e.wal != nil {
		_ = e.wal.Close()
		e.wal = nil
	}
	if e.snaps != nil {
		_ = e.snaps.Close()
		e.snaps = nil
	}
}

func TestEngine_SubmitStampsSequence(t *testing.T) {
	d := dirs{wal: t.TempDir(), snaps: t.TempDir()}
	e := newEngine(t, d)

	_, err := e.SubmitLimit(book.NewOrder{Ts: 10, ID: 1, User: 9001, Side: book.Bid, Price: 100, Qty: 5})
	require.NoError(t, err)
	_, err = e.SubmitLimit(book.NewOrder{Ts: 20, ID: 2, User: 9001, Side: book.Ask, Price: 102, Qty: 5})
	require.NoError(t, err)

	assert.Equal(t, uint64(2), e.Seq())
}

func TestEngine_RecoverFromJournal(t *testing.T) {
	d := dirs{wal: t.TempDir(), snaps: t.TempDir()}

	e := newEngine(t, d)
	_, err := e.SubmitLimit(book.NewOrder{Ts: 10, ID: 101, User: 9001, Side: book.Bid, Price: 100, Qty: 5})
	require.NoError(t, err)
	_, err = e.SubmitLimit(book.NewOrder{Ts: 20, ID: 102, User: 9002, Side: book.Bid, Price: 101, Qty: 7})
	require.NoError(t, err)
	_, err = e.SubmitLimit(book.NewOrder{Ts: 30, ID: 201, User: 9003, Side: book.Ask, Price: 103, Qty: 4})
	require.NoError(t, err)
	_, err = e.SubmitMarket(book.NewOrder{Ts: 40, ID: 301, User: 7000, Side: book.Ask, Qty: 3})
	require.NoError(t, err)
	_, err = e.Modify(book.ModifyOrder{Ts: 50, ID: 101, NewPrice: 99, NewQty: 5})
	require.NoError(t, err)
	_, err = e.Cancel(60, 201)
	require.NoError(t, err)
	require.NoError(t, e.Sync())

	want := e.Top()
	wantSeq := e.Seq()
	closeEngine(e)

	e2 := newEngine(t, d)
	require.NoError(t, e2.Recover(d.wal))

	assert.Equal(t, want, e2.Top())
	assert.Equal(t, wantSeq, e2.Seq())
	require.NoError(t, e2.Book().Validate())
}

func TestEngine_RecoverFromSnapshotPlusTail(t *testing.T) {
	d := dirs{wal: t.TempDir(), snaps: t.TempDir()}

	e := newEngine(t, d)
	_, err := e.SubmitLimit(book.NewOrder{Ts: 10, ID: 101, User: 9001, Side: book.Bid, Price: 100, Qty: 5})
	require.NoError(t, err)
	_, err = e.SubmitLimit(book.NewOrder{Ts: 20, ID: 201, User: 9002, Side: book.Ask, Price: 103, Qty: 4})
	require.NoError(t, err)
	require.NoError(t, e.Snapshot())

	// Tail after the snapshot point.
	_, err = e.SubmitLimit(book.NewOrder{Ts: 30, ID: 102, User: 9001, Side: book.Bid, Price: 101, Qty: 2})
	require.NoError(t, err)
	require.NoError(t, e.Sync())

	want := e.Top()
	wantSeq := e.Seq()
	closeEngine(e)

	e2 := newEngine(t, d)
	require.NoError(t, e2.Recover(d.wal))

	assert.Equal(t, want, e2.Top())
	assert.Equal(t, wantSeq, e2.Seq())

	// Both the snapshotted and the tail order are live and cancellable.
	ok, err := e2.Cancel(70, 101)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = e2.Cancel(71, 102)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEngine_QuoteSink(t *testing.T) {
	d := dirs{wal: t.TempDir(), snaps: t.TempDir()}
	e := newEngine(t, d)

	var got []book.Quote
	e.SetQuoteSink(func(_ int64, q book.Quote) { got = append(got, q) })

	_, err := e.SubmitLimit(book.NewOrder{Ts: 10, ID: 1, User: 9001, Side: book.Bid, Price: 100, Qty: 5})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.True(t, got[0].HasBid)
	assert.Equal(t, book.Tick(100), got[0].BidPx)
}

func TestConfig_NewLadders(t *testing.T) {
	bids, asks, err := Config{Ladder: "sparse"}.NewLadders()
	require.NoError(t, err)
	assert.Equal(t, book.Bid, bids.Side())
	assert.Equal(t, book.Ask, asks.Side())

	bids, asks, err = Config{Ladder: "contig", BandMin: 1, BandMax: 100}.NewLadders()
	require.NoError(t, err)
	assert.False(t, bids.InBand(101))
	assert.True(t, asks.InBand(100))

	_, _, err = Config{Ladder: "btree"}.NewLadders()
	assert.Error(t, err)
}
