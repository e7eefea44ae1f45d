// Command replay reconstructs TAQ output from a normalized L2 feed: quotes
// sampled on a fixed time grid and trades as they occurred. Feeds can lock
// or cross momentarily, so book rows drive an aggregate level mirror rather
// than the matching core.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"vidar/domain/book"
	"vidar/feed"
	"vidar/ingest"
	"vidar/taq"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitBadArgs = 2
	exitReplay  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		input  = flag.String("input", "", "normalized feed CSV (ts_ns,type,side,price,qty)")
		quotes = flag.String("quotes", "quotes.csv", "output quotes CSV")
		trades = flag.String("trades", "trades.csv", "output trades CSV")
		gridNs = flag.Int64("grid-ns", 1_000_000_000, "quote sampling grid in nanoseconds")
	)
	flag.Parse()

	if *input == "" || *gridNs <= 0 {
		fmt.Fprintln(os.Stderr, "usage: replay -input feed.csv [-quotes quotes.csv] [-trades trades.csv] [-grid-ns N]")
		return exitBadArgs
	}

	log, err := zap.NewProduction()
	if err != nil {
		return exitRuntime
	}
	defer log.Sync()

	events, err := ingest.LoadCSV(*input, log)
	if err != nil {
		log.Error("load feed", zap.String("path", *input), zap.Error(err))
		return exitReplay
	}
	if len(events) == 0 {
		log.Error("feed has no usable rows", zap.String("path", *input))
		return exitReplay
	}

	out, err := taq.Open(*quotes, *trades, log)
	if err != nil {
		log.Error("open TAQ output", zap.Error(err))
		return exitRuntime
	}

	lb := ingest.NewLevelBook()
	sampler := feed.NewSampler(*gridNs, func(tsNs int64) {
		bidPx, bidSz, _ := lb.Best(book.Bid)
		askPx, askSz, _ := lb.Best(book.Ask)
		out.WriteQuote(tsNs, bidPx, bidSz, askPx, askSz)
	})

	tradeRows := 0
	for _, ev := range events {
		switch ev.Type {
		case ingest.EventBook:
			lb.SetLevel(ev.Side, ev.Price, ev.Qty)
		case ingest.EventTrade:
			side := byte(0)
			if ev.HasSide {
				if ev.Side == book.Bid {
					side = 'B'
				} else {
					side = 'A'
				}
			}
			out.WriteTrade(ev.TsNs, ev.Price, ev.Qty, side)
			tradeRows++
		}
		sampler.Advance(ev.TsNs)
	}

	if err := out.Close(); err != nil {
		log.Error("close TAQ output", zap.Error(err))
		return exitRuntime
	}

	log.Info("replay complete",
		zap.Int("events", len(events)),
		zap.Int("trade_rows", tradeRows),
		zap.String("quotes", *quotes),
		zap.String("trades", *trades))
	return exitOK
}
