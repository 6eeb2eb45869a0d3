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
)

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		collection: db.Collection(cartsCollection),
	}
}

func (m *MongoCartRepository) CreateCart(ctx context.Context) (*domain.Cart, error) {
	now := time.Now()
	doc := cartDocument{
		Items:     []cartItemDocument{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	doc.ID = result.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (m *MongoCartRepository) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	oid, err := parseID(cartID)
	if err != nil {
		return nil, ErrCartNotFound
	}

	var doc cartDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return doc.toDomain(), nil
}

// AddItem adds quantity to an existing line for the product, or appends a new line.
func (m *MongoCartRepository) AddItem(ctx context.Context, cartID string, item domain.CartItem) error {
	oid, err := parseID(cartID)
	if err != nil {
		return ErrCartNotFound
	}
	productOID, err := parseID(item.ProductID)
	if err != nil {
		return ErrProductNotFound
	}
	now := time.Now()

	// Existing line: bump its quantity in place
	filter := bson.M{"_id": oid, "products.product": productOID}
	update := bson.M{
		"$inc": bson.M{"products.$.quantity": item.Quantity},
		"$set": bson.M{"updated_at": now},
	}
	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update existing item: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// New line
	update = bson.M{
		"$push": bson.M{"products": cartItemDocument{ProductID: productOID, Quantity: item.Quantity}},
		"$set":  bson.M{"updated_at": now},
	}
	result, err = m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to add new item: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoCartRepository) ReplaceItems(ctx context.Context, cartID string, items []domain.CartItem) error {
	oid, err := parseID(cartID)
	if err != nil {
		return ErrCartNotFound
	}
	docs, err := cartItemDocuments(items)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"products": docs, "updated_at": time.Now()}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to replace cart items: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoCartRepository) UpdateItemQuantity(ctx context.Context, cartID, productID string, quantity int) error {
	oid, err := parseID(cartID)
	if err != nil {
		return ErrCartNotFound
	}
	productOID, err := parseID(productID)
	if err != nil {
		return ErrItemNotFound
	}

	filter := bson.M{"_id": oid, "products.product": productOID}
	update := bson.M{
		"$set": bson.M{
			"products.$.quantity": quantity,
			"updated_at":          time.Now(),
		},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		if _, errGet := m.GetCart(ctx, cartID); errors.Is(errGet, ErrCartNotFound) {
			return ErrCartNotFound
		}
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoCartRepository) RemoveItem(ctx context.Context, cartID, productID string) error {
	oid, err := parseID(cartID)
	if err != nil {
		return ErrCartNotFound
	}
	productOID, err := parseID(productID)
	if err != nil {
		return ErrItemNotFound
	}

	update := bson.M{
		"$pull": bson.M{
			"products": bson.M{"product": productOID},
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

// ClearItems empties the cart but keeps the cart document itself.
func (m *MongoCartRepository) ClearItems(ctx context.Context, cartID string) error {
	return m.ReplaceItems(ctx, cartID, []domain.CartItem{})
}
