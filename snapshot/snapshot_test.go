package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidar/domain/book"
)

func seedBook() *book.BookCore {
	b := book.New(book.NewSparseLadder(book.Bid), book.NewSparseLadder(book.Ask), nil)
	b.SubmitLimit(book.NewOrder{Seq: 1, Ts: 10, ID: 101, User: 9001, Side: book.Bid, Price: 100, Qty: 5})
	b.SubmitLimit(book.NewOrder{Seq: 2, Ts: 20, ID: 102, User: 9002, Side: book.Bid, Price: 100, Qty: 7})
	b.SubmitLimit(book.NewOrder{Seq: 3, Ts: 30, ID: 103, User: 9001, Side: book.Bid, Price: 99, Qty: 3})
	b.SubmitLimit(book.NewOrder{Seq: 4, Ts: 40, ID: 201, User: 9003, Side: book.Ask, Price: 102, Qty: 4})
	return b
}

func TestCaptureEncodeDecodeRestore(t *testing.T) {
	b := seedBook()

	snap := Capture(b, 4, 1234)
	require.Len(t, snap.Entries, 4)

	decoded, err := Decode(snap.Encode())
	require.NoError(t, err)
	assert.Equal(t, snap, decoded)

	restored := book.New(book.NewSparseLadder(book.Bid), book.NewSparseLadder(book.Ask), nil)
	Restore(restored, decoded)
	require.NoError(t, restored.Validate())

	assert.Equal(t, book.Tick(100), restored.BestBid())
	assert.Equal(t, book.Tick(102), restored.BestAsk())

	// Time priority at 100 survived: 101 is still ahead of 102.
	r := restored.SubmitMarket(book.NewOrder{Seq: 5, Ts: 50, ID: 301, User: 7000, Side: book.Ask, Qty: 5})
	assert.Equal(t, book.Qty(5), r.Filled)
	assert.False(t, restored.Cancel(101))
	assert.True(t, restored.Cancel(102))
}

func TestDecodeRejectsDamage(t *testing.T) {
	snap := Capture(seedBook(), 4, 1234)
	buf := snap.Encode()

	_, err := Decode(buf[:10])
	assert.ErrorIs(t, err, ErrTruncated)

	bad := append([]byte(nil), buf...)
	bad[0] ^= 0xFF
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrBadMagic)

	bad = append([]byte(nil), buf...)
	bad[len(bad)-10] ^= 0xFF
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestStorePutLatest(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Latest()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	b := seedBook()
	require.NoError(t, store.Put(Capture(b, 4, 100)))

	b.SubmitLimit(book.NewOrder{Seq: 5, Ts: 50, ID: 202, User: 9003, Side: book.Ask, Price: 103, Qty: 2})
	require.NoError(t, store.Put(Capture(b, 5, 200)))

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), latest.Seq)
	assert.Len(t, latest.Entries, 5)
}
