package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	DefaultGroupID = "ledger"
	maxBackoff     = 5 * time.Second
)

type Store interface {
	InsertPurchase(ctx context.Context, rec *domain.PurchaseRecord) error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var errMalformedEvent = errors.New("malformed purchase event")

// Consumer projects purchase-completed events into the ledger. A message is
// committed only after it has been stored, recognised as a duplicate, or
// rejected as malformed.
type Consumer struct {
	store   Store
	reader  MessageReader
	logger  *zap.Logger
	backoff time.Duration
}

func NewReader(topic string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  DefaultGroupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewConsumer(store Store, reader MessageReader, logger *zap.Logger) *Consumer {
	return &Consumer{store: store, reader: reader, logger: logger, backoff: 200 * time.Millisecond}
}

func (c *Consumer) Run(ctx context.Context) {
	for ctx.Err() == nil {
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.logger.Error("error reading message", zap.Error(err))
		c.sleep(ctx, c.backoff)
		return
	}

	if !c.record(ctx, m) {
		return
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.Error("failed to commit message", zap.Int64("offset", m.Offset), zap.Error(err))
	}
}

// record retries transient failures until the record is written or ctx ends.
// It reports whether the message may be committed.
func (c *Consumer) record(ctx context.Context, m kafka.Message) bool {
	delay := c.backoff
	for {
		err := c.handle(ctx, m)
		switch {
		case err == nil:
			return true
		case errors.Is(err, errMalformedEvent):
			c.logger.Error("skipping message", zap.Int64("offset", m.Offset), zap.Error(err))
			return true
		}

		c.logger.Warn("failed to record purchase, retrying",
			zap.String("key", string(m.Key)), zap.Duration("delay", delay), zap.Error(err))
		if !c.sleep(ctx, delay) {
			return false
		}
		delay = min(delay*2, maxBackoff)
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	if eventType := headerValue(m, "event_type"); eventType != "" && eventType != domain.EventPurchaseCompleted {
		c.logger.Debug("ignoring event", zap.String("event_type", eventType))
		return nil
	}

	var event domain.PurchaseCompletedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	if event.TicketCode == "" || event.Purchaser == "" {
		return fmt.Errorf("%w: missing ticket code or purchaser", errMalformedEvent)
	}

	rec := &domain.PurchaseRecord{
		TicketCode:  event.TicketCode,
		Purchaser:   event.Purchaser,
		Amount:      event.Amount,
		Items:       event.Items,
		PurchasedAt: event.PurchasedAt,
	}
	if err := c.store.InsertPurchase(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicatePurchase) {
			c.logger.Info("purchase already recorded, skipping", zap.String("ticket_code", event.TicketCode))
			return nil
		}
		return err
	}

	c.logger.Info("purchase recorded",
		zap.String("ticket_code", rec.TicketCode),
		zap.String("purchaser", rec.Purchaser),
		zap.String("amount", rec.Amount.String()))
	return nil
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
