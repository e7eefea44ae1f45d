package feed

import (
	"context"
	"encoding/json"
	"math"

	"go.uber.org/zap"

	"vidar/domain/book"
	"vidar/infra/kafka"
	"vidar/taq"
)

// QuoteEvent is the published wire form of a sampled top of book. Prices are
// raw ticks; mid, spread and microprice are derived in tick units.
type QuoteEvent struct {
	V     int     `json:"v"`
	TsNs  int64   `json:"ts_ns"`
	BidPx *int64  `json:"bid_px"`
	BidSz *int64  `json:"bid_sz"`
	AskPx *int64  `json:"ask_px"`
	AskSz *int64  `json:"ask_sz"`
	Mid   float64 `json:"mid"`
	Sprd  float64 `json:"spread"`
	Micro float64 `json:"microprice"`
}

// NewQuoteEvent derives the published row from a book sample. Absent sides
// come out as nulls with NaN-free derived fields left at zero.
func NewQuoteEvent(tsNs int64, q book.Quote) QuoteEvent {
	ev := QuoteEvent{V: 1, TsNs: tsNs}

	bidPx, bidSz, askPx, askSz := quoteFloats(q)
	if q.HasBid {
		px, sz := int64(q.BidPx), int64(q.BidSz)
		ev.BidPx, ev.BidSz = &px, &sz
	}
	if q.HasAsk {
		px, sz := int64(q.AskPx), int64(q.AskSz)
		ev.AskPx, ev.AskSz = &px, &sz
	}

	mid, spread, micro := taq.Derive(bidPx, bidSz, askPx, askSz)
	if !math.IsNaN(mid) {
		ev.Mid = mid
	}
	if !math.IsNaN(spread) {
		ev.Sprd = spread
	}
	if !math.IsNaN(micro) {
		ev.Micro = micro
	}
	return ev
}

func quoteFloats(q book.Quote) (bidPx, bidSz, askPx, askSz float64) {
	if q.HasBid {
		bidPx, bidSz = float64(q.BidPx), float64(q.BidSz)
	}
	if q.HasAsk {
		askPx, askSz = float64(q.AskPx), float64(q.AskSz)
	}
	return
}

// Publisher ships quote events to Kafka. The underlying writer batches and
// is goroutine-safe, so the engine thread can fire and forget.
type Publisher struct {
	producer *kafka.Producer
	log      *zap.Logger
}

func NewPublisher(producer *kafka.Producer, log *zap.Logger) *Publisher {
	return &Publisher{producer: producer, log: log}
}

func (p *Publisher) PublishQuote(ctx context.Context, tsNs int64, q book.Quote) {
	payload, err := json.Marshal(NewQuoteEvent(tsNs, q))
	if err != nil {
		p.log.Error("marshal quote event", zap.Error(err))
		return
	}
	if err := p.producer.Send(ctx, nil, payload); err != nil {
		p.log.Warn("publish quote", zap.Int64("ts_ns", tsNs), zap.Error(err))
	}
}

func (p *Publisher) Close() error { return p.producer.Close() }
