package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoTicketRepository struct {
	collection *mongo.Collection
}

func NewTicketRepository(db *mongo.Database) *MongoTicketRepository {
	return &MongoTicketRepository{
		collection: db.Collection(ticketsCollection),
	}
}

// InsertTicket stores a new ticket and sets its ID. Tickets are never updated
// afterwards except for the outbox publication mark.
func (m *MongoTicketRepository) InsertTicket(ctx context.Context, ticket *domain.Ticket) error {
	doc, err := newTicketDocument(ticket)
	if err != nil {
		return err
	}

	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateTicketCode
		}
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	ticket.ID = result.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

func (m *MongoTicketRepository) GetTicketByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	var doc ticketDocument
	err := m.collection.FindOne(ctx, bson.M{"code": code}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	return doc.toDomain()
}

// ListByPurchaser returns the purchaser's tickets, newest first.
func (m *MongoTicketRepository) ListByPurchaser(ctx context.Context, purchaser string) ([]*domain.Ticket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "purchase_datetime", Value: -1}})
	return m.find(ctx, bson.M{"purchaser": purchaser}, opts)
}

// ListUnpublished returns up to limit tickets not yet handed to the event
// stream, oldest first.
func (m *MongoTicketRepository) ListUnpublished(ctx context.Context, limit int) ([]*domain.Ticket, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "purchase_datetime", Value: 1}}).
		SetLimit(int64(limit))
	return m.find(ctx, bson.M{"published_at": nil}, opts)
}

func (m *MongoTicketRepository) MarkPublished(ctx context.Context, code string, at time.Time) error {
	result, err := m.collection.UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$set": bson.M{"published_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark ticket published: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (m *MongoTicketRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Ticket, error) {
	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []ticketDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tickets: %w", err)
	}

	tickets := make([]*domain.Ticket, 0, len(docs))
	for i := range docs {
		t, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
