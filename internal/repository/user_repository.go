package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/purchase-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		collection: db.Collection(usersCollection),
	}
}

func (m *MongoUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	user.Email = normalizeEmail(user.Email)
	doc, err := newUserDocument(user)
	if err != nil {
		return err
	}

	result, err := m.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = result.InsertedID.(primitive.ObjectID).Hex()
	user.Role = domain.Role(doc.Role)
	return nil
}

func (m *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

func (m *MongoUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	return m.findOne(ctx, bson.M{"_id": oid})
}

func (m *MongoUserRepository) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	oid, err := parseID(id)
	if err != nil {
		return ErrUserNotFound
	}

	update := bson.M{"$set": bson.M{
		"reset_password_token":   token,
		"reset_password_expires": expires,
	}}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindByResetToken returns the user holding token if it has not expired at now.
func (m *MongoUserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	if token == "" {
		return nil, ErrUserNotFound
	}
	return m.findOne(ctx, bson.M{
		"reset_password_token":   token,
		"reset_password_expires": bson.M{"$gt": now},
	})
}

// ResetPassword stores the new hash and consumes any pending reset token.
func (m *MongoUserRepository) ResetPassword(ctx context.Context, id, passwordHash string) error {
	oid, err := parseID(id)
	if err != nil {
		return ErrUserNotFound
	}

	update := bson.M{
		"$set":   bson.M{"password": passwordHash},
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires": ""},
	}
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers returns every user ordered by email.
func (m *MongoUserRepository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	cursor, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "email", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}

	users := make([]*domain.User, len(docs))
	for i := range docs {
		users[i] = docs[i].toDomain()
	}
	return users, nil
}

func (m *MongoUserRepository) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, ErrUserNotFound
	}

	set := userPatchFields(patch)
	if len(set) == 0 {
		return m.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = m.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return doc.toDomain(), nil
}

func (m *MongoUserRepository) DeleteUser(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return ErrUserNotFound
	}

	result, err := m.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (m *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toDomain(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func userPatchFields(patch domain.UserPatch) bson.M {
	set := bson.M{}
	if patch.FirstName != nil {
		set["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		set["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		set["email"] = normalizeEmail(*patch.Email)
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}
	if patch.Role != nil {
		set["role"] = string(*patch.Role)
	}
	return set
}
