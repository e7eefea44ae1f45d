package service

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"vidar/domain/book"
)

// Config is the environment-driven engine configuration. A .env file is
// honoured when present.
type Config struct {
	WALDir      string `envconfig:"WAL_DIR" default:"./data/wal"`
	SnapshotDir string `envconfig:"SNAPSHOT_DIR" default:"./data/snapshots"`
	OutboxDir   string `envconfig:"OUTBOX_DIR" default:"./data/outbox"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	OrderTopic   string   `envconfig:"ORDER_TOPIC" default:"vidar.orders"`
	TradeTopic   string   `envconfig:"TRADE_TOPIC" default:"vidar.trades"`
	QuoteTopic   string   `envconfig:"QUOTE_TOPIC" default:"vidar.quotes"`

	PublishInterval  time.Duration `envconfig:"PUBLISH_INTERVAL" default:"250ms"`
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"30s"`
	EventRingSize    uint64        `envconfig:"EVENT_RING_SIZE" default:"262144"`
	QuoteGridNs      int64         `envconfig:"QUOTE_GRID_NS" default:"1000000000"`

	// Ladder selects the price-ladder variant: "sparse" for unbounded tick
	// ranges, "contig" for a dense array over [BandMin, BandMax].
	Ladder  string `envconfig:"LADDER" default:"sparse"`
	BandMin int64  `envconfig:"BAND_MIN" default:"1"`
	BandMax int64  `envconfig:"BAND_MAX" default:"1000000"`
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("vidar", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLadders builds the configured ladder pair.
func (c Config) NewLadders() (bids, asks book.Ladder, err error) {
	switch c.Ladder {
	case "sparse":
		return book.NewSparseLadder(book.Bid), book.NewSparseLadder(book.Ask), nil
	case "contig":
		band := book.PriceBand{MinTick: book.Tick(c.BandMin), MaxTick: book.Tick(c.BandMax)}
		return book.NewContigLadder(book.Bid, band), book.NewContigLadder(book.Ask, band), nil
	default:
		return nil, nil, fmt.Errorf("service: unknown ladder variant %q", c.Ladder)
	}
}
