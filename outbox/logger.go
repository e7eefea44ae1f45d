package outbox

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"vidar/domain/book"
	"vidar/infra/memory"
)

// TradeEvent is the published wire form of a trade.
type TradeEvent struct {
	V         int    `json:"v"`
	Seq       uint64 `json:"seq"`
	TsNs      int64  `json:"ts_ns"`
	TakerID   uint64 `json:"taker_id"`
	MakerID   uint64 `json:"maker_id"`
	TakerUser uint64 `json:"taker_user"`
	MakerUser uint64 `json:"maker_user"`
	Side      string `json:"side"`
	Price     int64  `json:"price"`
	Qty       int64  `json:"qty"`
}

func NewTradeEvent(t book.Trade) TradeEvent {
	return TradeEvent{
		V:         1,
		Seq:       uint64(t.Seq),
		TsNs:      int64(t.Ts),
		TakerID:   uint64(t.TakerID),
		MakerID:   uint64(t.MakerID),
		TakerUser: uint64(t.TakerUser),
		MakerUser: uint64(t.MakerUser),
		Side:      t.Side.String(),
		Price:     int64(t.Price),
		Qty:       int64(t.Qty),
	}
}

// TradeLogger is the engine-side event sink. Trade events are handed off to
// an SPSC ring on the matching thread -- a single enqueue, no I/O -- and a
// drainer goroutine persists them into the outbox for the broadcaster. A
// full ring drops the event and counts the drop rather than stalling the
// matcher.
type TradeLogger struct {
	ring    *memory.Ring[book.Trade]
	ob      *Outbox
	log     *zap.Logger
	dropped atomic.Uint64
}

func NewTradeLogger(ob *Outbox, ringSize uint64, log *zap.Logger) *TradeLogger {
	return &TradeLogger{
		ring: memory.NewRing[book.Trade](ringSize),
		ob:   ob,
		log:  log,
	}
}

func (l *TradeLogger) Accept(book.NewOrder)          {}
func (l *TradeLogger) Cancel(book.OrderID)           {}
func (l *TradeLogger) Modify(book.ModifyOrder, bool) {}

func (l *TradeLogger) Trade(t book.Trade) {
	if !l.ring.Enqueue(t) {
		l.dropped.Add(1)
	}
}

// Dropped reports how many trades were lost to a full ring.
func (l *TradeLogger) Dropped() uint64 { return l.dropped.Load() }

// Run drains the ring into the outbox until ctx is cancelled. Call from a
// single goroutine; the ring is SPSC.
func (l *TradeLogger) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Drain()
			return
		case <-ticker.C:
			l.Drain()
		}
	}
}

// Drain moves every queued trade into the outbox.
func (l *TradeLogger) Drain() {
	for {
		t, ok := l.ring.Dequeue()
		if !ok {
			return
		}
		payload, err := json.Marshal(NewTradeEvent(t))
		if err != nil {
			l.log.Error("marshal trade event", zap.Error(err))
			continue
		}
		if _, err := l.ob.Append(payload); err != nil {
			l.log.Error("append trade event to outbox", zap.Error(err), zap.Uint64("seq", uint64(t.Seq)))
		}
	}
}
