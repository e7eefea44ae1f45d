// Package taq writes trade-and-quote output: best-of-book quotes sampled on
// a fixed time grid and raw trade prints, as CSV. Timestamps are nanoseconds
// since the UNIX epoch so downstream joins stay deterministic.
package taq

import (
	"bufio"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
)

// Derive computes mid, spread and microprice from a top-of-book tuple.
// Values that are undefined for the given sides come back NaN. Microprice is
// (bid*ask_sz + ask*bid_sz) / (bid_sz + ask_sz) when both sides are present.
func Derive(bidPx, bidSz, askPx, askSz float64) (mid, spread, micro float64) {
	haveBid := bidSz > 0 && !math.IsInf(bidPx, 0) && !math.IsNaN(bidPx)
	haveAsk := askSz > 0 && !math.IsInf(askPx, 0) && !math.IsNaN(askPx)

	mid = math.NaN()
	spread = math.NaN()
	micro = math.NaN()

	switch {
	case haveBid && haveAsk:
		mid = 0.5 * (bidPx + askPx)
		spread = askPx - bidPx
		if denom := bidSz + askSz; denom > 0 {
			micro = (bidPx*askSz + askPx*bidSz) / denom
		} else {
			micro = mid
		}
	case haveBid:
		mid = bidPx
		micro = mid
	case haveAsk:
		mid = askPx
		micro = mid
	}
	return mid, spread, micro
}

// Writer produces two CSVs: quotes on a time grid and trades as they occur.
// Non-monotonic timestamps are logged, not rejected.
type Writer struct {
	qf *os.File
	tf *os.File
	qw *bufio.Writer
	tw *bufio.Writer

	lastQuoteTs int64
	lastTradeTs int64
	hasQuoteTs  bool
	hasTradeTs  bool

	log *zap.Logger
}

// Open creates both files and writes their headers.
func Open(quotesPath, tradesPath string, log *zap.Logger) (*Writer, error) {
	qf, err := os.Create(quotesPath)
	if err != nil {
		return nil, fmt.Errorf("taq: open quotes CSV: %w", err)
	}
	tf, err := os.Create(tradesPath)
	if err != nil {
		qf.Close()
		return nil, fmt.Errorf("taq: open trades CSV: %w", err)
	}

	w := &Writer{qf: qf, tf: tf, qw: bufio.NewWriter(qf), tw: bufio.NewWriter(tf), log: log}
	fmt.Fprintln(w.qw, "ts_ns,bid_px,bid_sz,ask_px,ask_sz,mid,spread,microprice")
	fmt.Fprintln(w.tw, "ts_ns,price,qty,side")
	return w, nil
}

// Close flushes and closes both files.
func (w *Writer) Close() error {
	var first error
	for _, f := range []func() error{w.qw.Flush, w.tw.Flush, w.qf.Close, w.tf.Close} {
		if err := f(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteQuote emits one sampled top-of-book row. A side with zero size or a
// non-finite price is written as empty fields.
func (w *Writer) WriteQuote(tsNs int64, bidPx, bidSz, askPx, askSz float64) {
	if w.hasQuoteTs && tsNs < w.lastQuoteTs {
		w.log.Warn("non-monotonic quote timestamp",
			zap.Int64("ts_ns", tsNs), zap.Int64("prev_ts_ns", w.lastQuoteTs))
	}
	w.lastQuoteTs = tsNs
	w.hasQuoteTs = true

	haveBid := bidSz > 0 && !math.IsInf(bidPx, 0) && !math.IsNaN(bidPx)
	haveAsk := askSz > 0 && !math.IsInf(askPx, 0) && !math.IsNaN(askPx)
	mid, spread, micro := Derive(bidPx, bidSz, askPx, askSz)

	fmt.Fprintf(w.qw, "%d,", tsNs)
	if haveBid {
		fmt.Fprintf(w.qw, "%s,%s,", num(bidPx), num(bidSz))
	} else {
		w.qw.WriteString(",,")
	}
	if haveAsk {
		fmt.Fprintf(w.qw, "%s,%s,", num(askPx), num(askSz))
	} else {
		w.qw.WriteString(",,")
	}
	fmt.Fprintf(w.qw, "%s,%s,%s\n", num(mid), num(spread), num(micro))
}

// WriteTrade emits one trade print. side is 'B' for an aggressing buy, 'A'
// for an aggressing sell, or zero when unknown.
func (w *Writer) WriteTrade(tsNs int64, price, qty float64, side byte) {
	if w.hasTradeTs && tsNs < w.lastTradeTs {
		w.log.Warn("non-monotonic trade timestamp",
			zap.Int64("ts_ns", tsNs), zap.Int64("prev_ts_ns", w.lastTradeTs))
	}
	w.lastTradeTs = tsNs
	w.hasTradeTs = true

	if side == 0 {
		side = ' '
	}
	fmt.Fprintf(w.tw, "%d,%s,%s,%c\n", tsNs, num(price), num(qty), side)
}

// num formats a value the way the quotes file expects: empty for NaN,
// shortest representation otherwise.
func num(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.12g", v)
}
