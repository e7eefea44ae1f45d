package service

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"vidar/domain/book"
	"vidar/infra/sequence"
	"vidar/infra/wal"
	"vidar/snapshot"
)

// Engine is the single write entry point into the system. Every accepted
// message is stamped with a sequence number, journaled as intent, and then
// applied to the matching core. Journal-before-apply keeps the WAL a
// faithful prefix of the book's history: an append failure rejects the
// message instead of creating unjournaled state.
//
// The core itself is single-threaded and lock-free; the engine serializes
// its callers (the intake loop and the maintenance jobs) with one mutex.
type Engine struct {
	mu    sync.Mutex
	book  *book.BookCore
	wal   *wal.WAL
	seq   *sequence.Sequencer
	snaps *snapshot.Store
	log   *zap.Logger

	quoteSink func(tsNs int64, q book.Quote)
}

func NewEngine(b *book.BookCore, w *wal.WAL, seq *sequence.Sequencer, snaps *snapshot.Store, log *zap.Logger) *Engine {
	return &Engine{
		book:  b,
		wal:   w,
		seq:   seq,
		snaps: snaps,
		log:   log,
	}
}

// SetQuoteSink installs a callback invoked with the post-operation top of
// book. It runs on the engine thread and must be cheap.
func (e *Engine) SetQuoteSink(fn func(tsNs int64, q book.Quote)) { e.quoteSink = fn }

// Book exposes the core for inspection. Callers must respect the engine's
// single-writer discipline.
func (e *Engine) Book() *book.BookCore { return e.book }

// SubmitLimit journals and applies a limit order. The caller's Seq is
// overwritten with the engine's.
func (e *Engine) SubmitLimit(o book.NewOrder) (book.ExecResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o.Seq = book.SeqNo(e.seq.Next())
	rec := &wal.Record{Type: wal.RecordLimit, Seq: uint64(o.Seq), Time: int64(o.Ts), Data: wal.EncodeNewOrder(o)}
	if err := e.wal.Append(rec); err != nil {
		return book.ExecResult{}, err
	}
	res := e.book.SubmitLimit(o)
	e.emitQuote(int64(o.Ts))
	return res, nil
}

// SubmitMarket journals and applies a market order.
func (e *Engine) SubmitMarket(o book.NewOrder) (book.ExecResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o.Seq = book.SeqNo(e.seq.Next())
	rec := &wal.Record{Type: wal.RecordMarket, Seq: uint64(o.Seq), Time: int64(o.Ts), Data: wal.EncodeNewOrder(o)}
	if err := e.wal.Append(rec); err != nil {
		return book.ExecResult{}, err
	}
	res := e.book.SubmitMarket(o)
	e.emitQuote(int64(o.Ts))
	return res, nil
}

// Cancel journals and applies a cancel.
func (e *Engine) Cancel(ts book.TimeNs, id book.OrderID) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	seq := e.seq.Next()
	rec := &wal.Record{Type: wal.RecordCancel, Seq: seq, Time: int64(ts), Data: wal.EncodeCancel(id)}
	if err := e.wal.Append(rec); err != nil {
		return false, err
	}
	ok := e.book.Cancel(id)
	e.emitQuote(int64(ts))
	return ok, nil
}

// Modify journals and applies a modify. The caller's Seq is overwritten.
func (e *Engine) Modify(m book.ModifyOrder) (book.ExecResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m.Seq = book.SeqNo(e.seq.Next())
	rec := &wal.Record{Type: wal.RecordModify, Seq: uint64(m.Seq), Time: int64(m.Ts), Data: wal.EncodeModify(m)}
	if err := e.wal.Append(rec); err != nil {
		return book.ExecResult{}, err
	}
	res := e.book.Modify(m)
	e.emitQuote(int64(m.Ts))
	return res, nil
}

// Top samples the current top of book.
func (e *Engine) Top() book.Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Top()
}

// Seq returns the last issued sequence number.
func (e *Engine) Seq() uint64 { return e.seq.Current() }

// Snapshot persists the current resting state.
func (e *Engine) Snapshot() error {
	e.mu.Lock()
	seq := e.seq.Current()
	snap := snapshot.Capture(e.book, seq, time.Now().UnixNano())
	e.mu.Unlock()
	if err := e.snaps.Put(snap); err != nil {
		return err
	}
	e.log.Info("snapshot stored",
		zap.Uint64("seq", seq), zap.Int("resting_orders", len(snap.Entries)))
	return nil
}

// Maintain prunes emptied price levels. Called by the snapshot job.
func (e *Engine) Maintain() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.book.Compact()
}

// Sync flushes the journal.
func (e *Engine) Sync() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.wal.Sync()
}

func (e *Engine) emitQuote(tsNs int64) {
	if e.quoteSink != nil {
		e.quoteSink(tsNs, e.book.Top())
	}
}
