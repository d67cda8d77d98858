package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	EventIngestStarted   = "ingest.started"
	EventIngestCompleted = "ingest.completed"
	EventIngestFailed    = "ingest.failed"
)

type Config struct {
	Brokers []string
	Topic   string
}

// ParseConfig splits a comma-separated broker list.
func ParseConfig(brokers string, topic string) Config {
	var brokerList []string
	for _, broker := range strings.Split(brokers, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokerList = append(brokerList, broker)
		}
	}
	return Config{
		Brokers: brokerList,
		Topic:   topic,
	}
}

// RunEvent is a lifecycle event for one ingestion run.
type RunEvent struct {
	Type      string           `json:"type"`
	RunID     string           `json:"run_id"`
	DryRun    bool             `json:"dry_run,omitempty"`
	Tables    map[string]int64 `json:"tables,omitempty"` // rows loaded per table
	Error     string           `json:"error,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

func NewProducer(cfg Config, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		// dev brokers may not have the topic yet
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishRunEvent writes evt keyed by run id, so all events for a run land on
// one partition in order.
func (p *Producer) PublishRunEvent(ctx context.Context, evt *RunEvent) error {
	ctx, span := tracing.StartSpan(ctx, "Kafka.PublishRunEvent")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("messaging.operation", "publish"),
	)

	msg, err := buildMessage(ctx, evt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build message")
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish message")
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish run event to Kafka topic %s", p.topic)
		return err
	}

	span.SetStatus(codes.Ok, "message published")
	p.logger.WithContext(ctx).Debugf("Published %s for run %s", evt.Type, evt.RunID)
	return nil
}

func buildMessage(ctx context.Context, evt *RunEvent) (kafka.Message, error) {
	if evt == nil {
		return kafka.Message{}, fmt.Errorf("run event is nil")
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal run event: %w", err)
	}

	headers := []kafka.Header{
		{Key: "run_id", Value: []byte(evt.RunID)},
		{Key: "type", Value: []byte(evt.Type)},
	}
	if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}

	return kafka.Message{
		Key:     []byte(evt.RunID),
		Value:   data,
		Headers: headers,
	}, nil
}
