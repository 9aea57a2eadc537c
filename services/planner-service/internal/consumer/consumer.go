package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clevery/dayplanner/libs/kafkax"
	"github.com/clevery/dayplanner/libs/metrics"
	otelx "github.com/clevery/dayplanner/libs/otel"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Handler func(ctx context.Context, msg kafka.Message) error

// ErrPermanent marks a handler error that no redelivery can fix, such as an
// undecodable payload. The message is committed instead of retried.
var ErrPermanent = errors.New("permanent failure")

// Permanent wraps err with ErrPermanent.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Inbox deduplicates deliveries by event id.
type Inbox interface {
	Record(ctx context.Context, eventID, eventType string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Reader is the part of *kafka.Reader the consumer uses. Offsets are committed
// explicitly, only after a message is handled.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  Reader
	logger  *slog.Logger
	inbox   Inbox
	metrics *metrics.Registry
	handler Handler

	retryBackoff time.Duration
	maxBackoff   time.Duration
}

type Config struct {
	Brokers string
	GroupID string
	Topic   string
	// RetryBackoff is the first wait before re-processing a failed message;
	// it doubles up to MaxBackoff.
	RetryBackoff time.Duration
	MaxBackoff   time.Duration
}

func New(logger *slog.Logger, inbox Inbox, reg *metrics.Registry, cfg Config, handler Handler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  kafkax.SplitBrokers(cfg.Brokers),
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, logger, inbox, reg, cfg, handler)
}

func newConsumer(reader Reader, logger *slog.Logger, inbox Inbox, reg *metrics.Registry, cfg Config, handler Handler) *Consumer {
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.RetryBackoff {
		cfg.MaxBackoff = max(30*time.Second, cfg.RetryBackoff)
	}
	return &Consumer{
		reader:       reader,
		logger:       logger,
		inbox:        inbox,
		metrics:      reg,
		handler:      handler,
		retryBackoff: cfg.RetryBackoff,
		maxBackoff:   cfg.MaxBackoff,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka fetch error", "err", err)
			if !sleep(ctx, time.Second) {
				return
			}
			continue
		}
		if !c.handle(ctx, msg) {
			return
		}
	}
}

// handle processes msg until it is processed, a duplicate or rejected, then
// commits its offset. Failed attempts are retried with backoff and never
// committed. It returns false when ctx ends first.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) bool {
	wait := c.retryBackoff
	for attempt := 1; ; attempt++ {
		outcome := c.process(ctx, msg)
		c.count(msg.Topic, outcome)
		if outcome != outcomeFailed {
			break
		}
		c.logger.Warn("retrying kafka message", "topic", msg.Topic, "partition", msg.Partition,
			"offset", msg.Offset, "attempt", attempt, "backoff", wait.String())
		if !sleep(ctx, wait) {
			return false
		}
		wait = min(wait*2, c.maxBackoff)
	}

	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		if ctx.Err() != nil {
			return false
		}
		// The message will be redelivered and caught by the inbox.
		c.logger.Error("kafka commit failed", "err", err, "topic", msg.Topic, "offset", msg.Offset)
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

const (
	outcomeProcessed = "processed"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"
)

func (c *Consumer) process(ctx context.Context, msg kafka.Message) string {
	ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
	ctxSpan, span := otelx.Tracer().Start(ctxMsg, "kafka.consume",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
		),
	)
	defer span.End()

	meta := kafkax.ExtractEventMeta(msg)

	ok, err := c.inbox.Record(ctxSpan, meta.EventID, meta.EventType)
	if err != nil {
		c.logger.Error("inbox record failed", "err", err)
		span.RecordError(err)
		return outcomeFailed
	}
	if !ok {
		c.logger.Info("duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
		return outcomeDuplicate
	}

	if err := c.handler(ctxSpan, msg); err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrPermanent) {
			c.logger.Error("event rejected", "err", err, "event_id", meta.EventID, "event_type", meta.EventType)
			return outcomeRejected
		}
		c.logger.Error("handler error", "err", err, "event_id", meta.EventID)
		if ferr := c.inbox.Forget(ctxSpan, meta.EventID); ferr != nil {
			c.logger.Error("inbox forget failed", "err", ferr, "event_id", meta.EventID)
		}
		return outcomeFailed
	}
	return outcomeProcessed
}

func (c *Consumer) count(topic, outcome string) {
	if c.metrics != nil {
		c.metrics.EventsConsumed.WithLabelValues(topic, outcome).Inc()
	}
}
