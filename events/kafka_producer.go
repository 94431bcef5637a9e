package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/warp/frontdesk/billing"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	AuditAppended     EventType = "audit_appended"
	SettlementChanged EventType = "settlement_changed"
)

// Event is the message value written to Kafka. Exactly one of Audit and
// Settlement is set.
type Event struct {
	Type       EventType          `json:"type"`
	Audit      *AuditPayload      `json:"audit,omitempty"`
	Settlement *SettlementPayload `json:"settlement,omitempty"`
}

type AuditPayload struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

type SettlementPayload struct {
	CompanyID    string   `json:"company_id"`
	TotalDebt    string   `json:"total_debt"`
	TotalPaid    string   `json:"total_paid"`
	Settled      bool     `json:"settled"`
	Reservations []string `json:"reservations"`
}

// key partitions audit events by id and settlements by company, so the
// settlements of one company stay ordered.
func (e Event) key() string {
	if e.Settlement != nil {
		return e.Settlement.CompanyID
	}
	if e.Audit != nil {
		return e.Audit.ID
	}
	return ""
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes front-desk events without blocking the caller. When
// the queue is full events are dropped and logged.
type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
}

const queueSize = 1000

// NewProducer starts a producer over writer.
func NewProducer(writer KafkaWriter, logger *zap.Logger) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, queueSize),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// NewKafkaProducer creates topic on the first broker if needed and
// returns a producer writing to it.
func NewKafkaProducer(brokers []string, topic string, logger *zap.Logger) (*Producer, error) {
	// Brokers started alongside the server may not accept connections yet.
	var conn *kafka.Conn
	err := backoff.Retry(func() error {
		var err error
		conn, err = kafka.Dial("tcp", brokers[0])
		if err != nil {
			logger.Warn("kafka broker not reachable, retrying", zap.String("broker", brokers[0]), zap.Error(err))
		}
		return err
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5))
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka broker %s: %w", brokers[0], err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.String("topic", topic), zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	return NewProducer(writer, logger), nil
}

// PublishAudit queues a committed audit entry.
func (p *Producer) PublishAudit(entry billing.AuditEntry) {
	p.enqueue(Event{
		Type: AuditAppended,
		Audit: &AuditPayload{
			ID:        entry.ID,
			Timestamp: entry.Timestamp,
			UserID:    string(entry.UserID),
			Username:  entry.Username,
			Action:    string(entry.Action),
			Details:   entry.Details,
		},
	})
}

// PublishSettlement queues a company's new settlement position.
func (p *Producer) PublishSettlement(summary billing.DebtSummary) {
	ids := make([]string, len(summary.Reservations))
	for i, id := range summary.Reservations {
		ids[i] = string(id)
	}
	p.enqueue(Event{
		Type: SettlementChanged,
		Settlement: &SettlementPayload{
			CompanyID:    string(summary.CompanyID),
			TotalDebt:    summary.TotalDebt.StringFixed(2),
			TotalPaid:    summary.TotalPaid.StringFixed(2),
			Settled:      summary.Settled,
			Reservations: ids,
		},
	})
}

func (p *Producer) enqueue(event Event) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("key", event.key()),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			p.drain()
			return
		}
	}
}

// drain sends whatever was queued before Close.
func (p *Producer) drain() {
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		default:
			return
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("key", event.key()),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.key()),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("key", event.key()),
		)
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
