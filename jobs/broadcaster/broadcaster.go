package broadcaster

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"vidar/outbox"
)

// Broadcaster publishes pending outbox trade events to Kafka. Publication is
// at-least-once: an entry is marked SENT before the send and ACKED only after
// the broker acknowledges, so a crash in between replays it next round.
type Broadcaster struct {
	ob       *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger
}

func New(ob *outbox.Outbox, brokers []string, topic string, interval time.Duration, log *zap.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		ob:       ob,
		producer: producer,
		topic:    topic,
		interval: interval,
		log:      log,
	}, nil
}

// Start runs the publish loop until ctx is cancelled.
func (b *Broadcaster) Start(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	go func() {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.publishOnce()
			}
		}
	}()
}

func (b *Broadcaster) publishOnce() {
	err := b.ob.ScanPending(func(seq uint64, e outbox.Entry) error {
		if err := b.ob.MarkSent(seq); err != nil {
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: b.topic,
			Value: sarama.ByteEncoder(e.Payload),
		}
		if _, _, err := b.producer.SendMessage(msg); err != nil {
			// Left in SENT; retried next round.
			b.log.Warn("publish trade event", zap.Uint64("outbox_seq", seq), zap.Error(err))
			return nil
		}

		return b.ob.MarkAcked(seq)
	})
	if err != nil {
		b.log.Error("outbox scan", zap.Error(err))
		return
	}

	if err := b.ob.Prune(); err != nil {
		b.log.Error("outbox prune", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
