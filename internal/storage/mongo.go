package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"directchat/backend/internal/apperr"
	"directchat/backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	messagesCollection = "messages"
)

// MongoStore is the document-store implementation of Storage.
type MongoStore struct {
	Client   *mongo.Client
	users    *mongo.Collection
	messages *mongo.Collection
}

// OpenMongo connects, pings and ensures the indexes the queries rely on.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri).SetAppName("directchat"))
	if err != nil {
		return nil, fmt.Errorf("error occurred while connecting to database: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, fmt.Errorf("error occurred while pinging database: %w", err)
	}

	db := client.Database(database)
	store := &MongoStore{
		Client:   client,
		users:    db.Collection(usersCollection),
		messages: db.Collection(messagesCollection),
	}

	_, err = store.users.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("error occurred while creating user indexes: %w", err)
	}
	_, err = store.messages.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "sender_id", Value: 1},
			{Key: "receiver_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("messages_conversation"),
	})
	if err != nil {
		return nil, fmt.Errorf("error occurred while creating message indexes: %w", err)
	}
	return store, nil
}

// now is truncated to what BSON dates can hold so the returned record equals the stored one.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (m *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	user.EnsureIdentity(now())
	_, err := m.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.ErrEmailTaken
	}
	return err
}

func (m *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id})
}

func (m *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email})
}

func (m *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := m.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (m *MongoStore) ListUsersExcept(ctx context.Context, id string) ([]models.User, error) {
	return m.findUsers(ctx, bson.M{"_id": bson.M{"$ne": id}})
}

func (m *MongoStore) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	return m.findUsers(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (m *MongoStore) findUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	cursor, err := m.users.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *MongoStore) SaveMessage(ctx context.Context, msg *models.Message) error {
	msg.EnsureIdentity(now())
	_, err := m.messages.InsertOne(ctx, msg)
	return err
}

func conversationFilter(a, b string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
}

func (m *MongoStore) GetConversation(ctx context.Context, a, b string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := m.messages.Find(ctx, conversationFilter(a, b), opts)
	if err != nil {
		return nil, err
	}
	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
