package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{
		collection: db.Collection(productsCollection),
	}
}

func (m *MongoProductRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	var doc productDocument
	err = m.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return doc.toDomain()
}

func (m *MongoProductRepository) ListProducts(ctx context.Context, query domain.ProductQuery) (*domain.ProductPage, error) {
	limit, page := normalizePaging(query.Limit, query.Page)
	filter := productFilter(query.Query)

	total, err := m.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	switch query.Sort {
	case "asc":
		opts.SetSort(bson.D{{Key: "price", Value: 1}})
	case "desc":
		opts.SetSort(bson.D{{Key: "price", Value: -1}})
	}

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}

	products := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	result := paginate(page, limit, total)
	result.Products = products
	return &result, nil
}

func (m *MongoProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	doc, err := newProductDocument(product)
	if err != nil {
		return err
	}

	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateProductCode
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	product.ID = result.InsertedID.(primitive.ObjectID).Hex()
	product.Image = doc.Image
	product.Thumbnails = doc.Thumbnails
	return nil
}

func (m *MongoProductRepository) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrProductNotFound
	}

	set, err := patchFields(patch)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return m.GetProduct(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return doc.toDomain()
}

func (m *MongoProductRepository) DeleteProduct(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return ErrProductNotFound
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}

// ReplaceAll drops the catalog and inserts products in its place.
func (m *MongoProductRepository) ReplaceAll(ctx context.Context, products []*domain.Product) error {
	if _, err := m.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear products: %w", err)
	}
	for _, p := range products {
		if err := m.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (m *MongoProductRepository) DecrementStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be greater than 0, got %d", quantity)
	}
	oid, err := parseID(id)
	if err != nil {
		return ErrProductNotFound
	}

	// The stock guard and the decrement are one document update.
	filter := bson.M{"_id": oid, "stock": bson.M{"$gte": quantity}}
	update := bson.M{"$inc": bson.M{"stock": -quantity}}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	count, err := m.collection.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return ErrProductNotFound
	}
	return ErrInsufficientStock
}

func (m *MongoProductRepository) IncrementStock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be greater than 0, got %d", quantity)
	}
	oid, err := parseID(id)
	if err != nil {
		return ErrProductNotFound
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"stock": quantity}})
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}

	return nil
}

func normalizePaging(limit, page int) (int, int) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	return limit, page
}

func productFilter(query string) bson.M {
	if query == "" {
		return bson.M{}
	}

	clauses := bson.A{
		bson.M{"category": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}},
	}
	if query == "true" || query == "false" {
		clauses = append(clauses, bson.M{"available": query == "true"})
	}
	return bson.M{"$or": clauses}
}

func paginate(page, limit int, total int64) domain.ProductPage {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages == 0 {
		totalPages = 1
	}

	result := domain.ProductPage{
		Page:        page,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
	if result.HasPrevPage {
		prev := page - 1
		result.PrevPage = &prev
	}
	if result.HasNextPage {
		next := page + 1
		result.NextPage = &next
	}
	return result
}

func patchFields(patch domain.ProductPatch) (bson.M, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Price != nil {
		price, err := toDecimal128(*patch.Price)
		if err != nil {
			return nil, err
		}
		set["price"] = price
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Available != nil {
		set["available"] = *patch.Available
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Thumbnails != nil {
		set["thumbnails"] = patch.Thumbnails
	}
	return set, nil
}
