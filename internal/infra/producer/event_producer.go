package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/crm/internal/domain/event"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const HeaderEventType = "event_type"

var ErrProducerClosed = errors.New("event producer is closed")

// KafkaError 代表 Kafka 操作錯誤
type KafkaError struct {
	Operation string
	Topic     string
	Err       error
}

func (e *KafkaError) Error() string {
	return fmt.Sprintf("kafka operation %s on topic %s failed: %v", e.Operation, e.Topic, e.Err)
}

func (e *KafkaError) Unwrap() error {
	return e.Err
}

type Config struct {
	Brokers       []string
	Topic         string
	BatchTimeout  time.Duration
	RetryAttempts int
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventProducer 把領域事件寫到 kafka topic, key 為 aggregate id
type EventProducer struct {
	writer  messageWriter
	topic   string
	retries int
	closed  atomic.Bool
}

func NewEventProducer(cfg Config) (*EventProducer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, fmt.Errorf("kafka brokers and topic are required")
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  cfg.RetryAttempts + 1,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka producer error: "+msg, args...)
		}),
		Compression: kafka.Snappy,
	}

	return newEventProducer(writer, cfg.Topic, cfg.RetryAttempts), nil
}

func newEventProducer(w messageWriter, topic string, retries int) *EventProducer {
	return &EventProducer{writer: w, topic: topic, retries: retries}
}

// Publish 同步發送, 會 block 到所有訊息寫入
func (p *EventProducer) Publish(ctx context.Context, evts ...event.Event) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		msg, err := convertToMessage(evt)
		if err != nil {
			return &KafkaError{Operation: "Publish", Topic: p.topic, Err: err}
		}
		msgs = append(msgs, msg)
	}

	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if ctx.Err() != nil {
			return &KafkaError{Operation: "Publish", Topic: p.topic, Err: ctx.Err()}
		}
		if err = p.writer.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if !isTemporary(err) {
			break
		}
	}
	return &KafkaError{Operation: "Publish", Topic: p.topic, Err: err}
}

func (p *EventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func convertToMessage(evt event.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(evt.GetAggregateID()),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(evt.Type())},
		},
	}, nil
}

func isTemporary(err error) bool {
	var kerr kafka.Error
	if errors.As(err, &kerr) {
		return kerr.Temporary()
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Noop 沒有設定 broker 時使用
type Noop struct{}

func (Noop) Publish(context.Context, ...event.Event) error { return nil }

func (Noop) Close() error { return nil }
