package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"vidar/domain/book"
	"vidar/feed"
	"vidar/infra/kafka"
	"vidar/infra/sequence"
	"vidar/infra/wal"
	"vidar/jobs/broadcaster"
	"vidar/outbox"
	"vidar/service"
	"vidar/snapshot"
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
	log, err := zap.NewProduction()
	if err != nil {
		return exitRuntime
	}
	defer log.Sync()

	cfg, err := service.LoadConfig()
	if err != nil {
		log.Error("load config", zap.Error(err))
		return exitBadArgs
	}

	bids, asks, err := cfg.NewLadders()
	if err != nil {
		log.Error("configure ladders", zap.Error(err))
		return exitBadArgs
	}

	// ---------------- Durable state ----------------

	journal, err := wal.Open(wal.Config{Dir: cfg.WALDir})
	if err != nil {
		log.Error("open journal", zap.Error(err))
		return exitRuntime
	}
	defer journal.Close()

	snaps, err := snapshot.OpenStore(cfg.SnapshotDir)
	if err != nil {
		log.Error("open snapshot store", zap.Error(err))
		return exitRuntime
	}
	defer snaps.Close()

	ob, err := outbox.Open(cfg.OutboxDir)
	if err != nil {
		log.Error("open outbox", zap.Error(err))
		return exitRuntime
	}
	defer ob.Close()

	// ---------------- Engine ----------------

	tradeLog := outbox.NewTradeLogger(ob, cfg.EventRingSize, log)
	core := book.New(bids, asks, tradeLog)
	engine := service.NewEngine(core, journal, sequence.New(0), snaps, log)

	if err := engine.Recover(cfg.WALDir); err != nil {
		log.Error("recover engine state", zap.Error(err))
		return exitReplay
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- Publication ----------------

	go tradeLog.Run(ctx)

	bc, err := broadcaster.New(ob, cfg.KafkaBrokers, cfg.TradeTopic, cfg.PublishInterval, log)
	if err != nil {
		log.Error("start broadcaster", zap.Error(err))
		return exitRuntime
	}
	defer bc.Close()
	bc.Start(ctx)

	quotes := feed.NewPublisher(kafka.NewProducer(cfg.KafkaBrokers, cfg.QuoteTopic), log)
	defer quotes.Close()
	// The sink runs inside an engine operation with the engine lock held, so
	// the sampler publishes the quote handed to the sink rather than calling
	// engine.Top().
	var top book.Quote
	sampler := feed.NewSampler(cfg.QuoteGridNs, func(tsNs int64) {
		quotes.PublishQuote(ctx, tsNs, top)
	})
	engine.SetQuoteSink(func(tsNs int64, q book.Quote) {
		top = q
		sampler.Advance(tsNs)
	})

	engine.StartSnapshotJob(ctx, cfg.SnapshotInterval)

	// ---------------- Intake ----------------

	orders := kafka.NewConsumer(cfg.KafkaBrokers, cfg.OrderTopic)
	defer orders.Close()

	log.Info("engine running",
		zap.String("order_topic", cfg.OrderTopic),
		zap.String("trade_topic", cfg.TradeTopic),
		zap.String("quote_topic", cfg.QuoteTopic),
		zap.String("ladder", cfg.Ladder))

	for {
		msg, err := orders.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("shutting down")
				if err := engine.Snapshot(); err != nil {
					log.Error("final snapshot", zap.Error(err))
				}
				_ = engine.Sync()
				return exitOK
			}
			log.Error("read order message", zap.Error(err))
			return exitRuntime
		}

		if _, err := engine.Dispatch(msg.Value); err != nil {
			log.Warn("rejected order message",
				zap.Int64("offset", msg.Offset), zap.Error(err))
		}
	}
}
