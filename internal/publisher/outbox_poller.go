package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	DefaultTopic     = "purchase-completed"
	defaultBatchSize = 100
)

// TicketOutbox is the ticket store seen as an outbox: issued tickets stay
// unpublished until the poller has handed them to Kafka.
type TicketOutbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]*domain.Ticket, error)
	MarkPublished(ctx context.Context, code string, at time.Time) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	eventTick time.Duration
	batchSize int
	outbox    TicketOutbox
	writer    MessageWriter
	breaker   *gobreaker.CircuitBreaker[struct{}]
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*OutboxPoller)

func WithInterval(d time.Duration) Option {
	return func(p *OutboxPoller) { p.eventTick = d }
}

func WithBatchSize(n int) Option {
	return func(p *OutboxPoller) { p.batchSize = n }
}

func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(p *OutboxPoller) { p.breaker = gobreaker.NewCircuitBreaker[struct{}](st) }
}

func NewWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
}

func NewOutboxPoller(outbox TicketOutbox, writer MessageWriter, logger *zap.Logger, opts ...Option) *OutboxPoller {
	p := &OutboxPoller{
		eventTick: time.Second,
		batchSize: defaultBatchSize,
		outbox:    outbox,
		writer:    writer,
		logger:    logger,
		now:       time.Now,
	}
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](p.defaultBreakerSettings())
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *OutboxPoller) defaultBreakerSettings() gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "kafka-publisher",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedTickets(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// processUnpublishedTickets publishes one batch and returns the number of
// tickets marked as published.
func (p *OutboxPoller) processUnpublishedTickets(ctx context.Context) int {
	tickets, err := p.outbox.ListUnpublished(ctx, p.batchSize)
	if err != nil {
		p.logger.Error("failed to fetch unpublished tickets", zap.Error(err))
		return 0
	}

	published := 0
	for _, ticket := range tickets {
		if err := p.publish(ctx, ticket); err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				p.logger.Warn("publisher circuit open, postponing batch", zap.Int("remaining", len(tickets)-published))
				return published
			}
			p.logger.Error("failed to publish ticket", zap.String("ticket_code", ticket.Code), zap.Error(err))
			continue
		}

		if err := p.outbox.MarkPublished(ctx, ticket.Code, p.now().UTC()); err != nil {
			p.logger.Error("failed to mark ticket as published", zap.String("ticket_code", ticket.Code), zap.Error(err))
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, ticket *domain.Ticket) error {
	payload, err := json.Marshal(domain.NewPurchaseCompletedEvent(ticket))
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(ticket.Code),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(domain.EventPurchaseCompleted)},
		},
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, p.writer.WriteMessages(ctx, msg)
	})
	return err
}
