package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kirillkom/kyc-compliance/internal/core/domain"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/events"
	"github.com/kirillkom/kyc-compliance/internal/infrastructure/resilience"
)

const keyHeader = "kyc-event-id"

// Bus writes each topic to the Kafka topic of the same name. Subscribers join
// one consumer group so each event is handled once per deployment.
type Bus struct {
	brokers  []string
	group    string
	producer *kgo.Client
	executor *resilience.Executor
	logger   *slog.Logger
	now      func() time.Time
}

type Options struct {
	ConsumerGroup      string
	DialTimeout        time.Duration
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(ctx context.Context, brokers []string, options Options) (*Bus, error) {
	if len(brokers) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "connect kafka", errors.New("no brokers configured"))
	}
	if options.ConsumerGroup == "" {
		options.ConsumerGroup = "kyc-workers"
	}
	if options.DialTimeout <= 0 {
		options.DialTimeout = 3 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	producer, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("kyc-compliance"),
		kgo.DialTimeout(options.DialTimeout),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, options.DialTimeout)
	defer cancel()
	if err := producer.Ping(pingCtx); err != nil {
		producer.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return &Bus{
		brokers:  brokers,
		group:    options.ConsumerGroup,
		producer: producer,
		executor: options.ResilienceExecutor,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func (b *Bus) Close() {
	if b.producer != nil {
		b.producer.Close()
	}
}

func (b *Bus) Publish(ctx context.Context, topic, key string, payload map[string]any) error {
	record, err := toRecord(events.NewEvent(topic, key, payload, b.now()))
	if err != nil {
		return err
	}

	call := func(ctx context.Context) error {
		if err := b.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
			return fmt.Errorf("kafka produce: %w", err)
		}
		return nil
	}
	if b.executor != nil {
		err = b.executor.Run(ctx, "kafka.produce", call, classifyKafkaError)
	} else {
		err = call(ctx)
	}
	return resilience.AsTemporary("kafka produce", err, classifyKafkaError)
}

// Subscribe polls until ctx is done. Handler errors are logged and the
// offset still advances.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler func(context.Context, domain.Event) error) error {
	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.brokers...),
		kgo.ClientID("kyc-compliance-worker"),
		kgo.ConsumerGroup(b.group),
		kgo.ConsumeTopics(topic),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return fmt.Errorf("create kafka consumer: %w", err)
	}
	defer consumer.Close()

	for {
		fetches := consumer.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(t string, p int32, err error) {
			b.logger.Warn("kafka_fetch_failed", slog.String("topic", t), slog.Int("partition", int(p)), slog.String("error", err.Error()))
		})
		fetches.EachRecord(func(r *kgo.Record) {
			event, err := events.Decode(r.Value)
			if err != nil {
				b.logger.Warn("kafka_record_dropped", slog.String("topic", r.Topic), slog.Int64("offset", r.Offset), slog.String("error", err.Error()))
				return
			}
			if err := handler(ctx, event); err != nil {
				b.logger.Error("event_handler_failed",
					slog.String("topic", event.Topic),
					slog.String("key", event.Key),
					slog.String("error", err.Error()),
				)
			}
		})
	}
}

func toRecord(event domain.Event) (*kgo.Record, error) {
	raw, err := events.Encode(event)
	if err != nil {
		return nil, err
	}
	return &kgo.Record{
		Topic:     event.Topic,
		Key:       []byte(event.Key),
		Value:     raw,
		Timestamp: event.PublishedAt,
		Headers:   []kgo.RecordHeader{{Key: keyHeader, Value: []byte(event.ID)}},
	}, nil
}

func classifyKafkaError(err error) resilience.Outcome {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.Outcome{}
	}
	if errors.Is(err, kgo.ErrClientClosed) {
		return resilience.Outcome{CountFailure: true}
	}
	return resilience.Outcome{Retry: true, CountFailure: true}
}
