package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

const messagesCollection = "order_messages"

var _ store.MessageLog = (*MongoMessageLog)(nil)

// MongoMessageLog keeps order threads in MongoDB. Order existence is
// checked by the caller against the relational store.
type MongoMessageLog struct {
	collection *mongo.Collection
}

// messageDoc uses the canonical UUID string as _id; its lexical order
// matches the byte order used by the other stores.
type messageDoc struct {
	ID        string    `bson:"_id"`
	OrderID   int64     `bson:"order_id"`
	SenderID  int64     `bson:"sender_id"`
	Text      string    `bson:"text"`
	ImageURL  string    `bson:"image_url,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongoMessageLog(db *mongo.Database) *MongoMessageLog {
	return &MongoMessageLog{collection: db.Collection(messagesCollection)}
}

// Close disconnects the client the log was opened with.
func (m *MongoMessageLog) Close(ctx context.Context) error {
	if err := m.collection.Database().Client().Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB: %w", err)
	}
	return nil
}

func (m *MongoMessageLog) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "order_id", Value: 1},
			{Key: "created_at", Value: 1},
			{Key: "_id", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create message index: %w", err)
	}
	return nil
}

// AppendMessage truncates created_at to milliseconds, the BSON date precision.
func (m *MongoMessageLog) AppendMessage(ctx context.Context, msg *domain.OrderMessage) error {
	msg.CreatedAt = msg.CreatedAt.UTC().Truncate(time.Millisecond)
	doc := messageDoc{
		ID:        msg.ID.String(),
		OrderID:   msg.OrderID,
		SenderID:  msg.SenderID,
		Text:      msg.Text,
		ImageURL:  msg.ImageURL,
		CreatedAt: msg.CreatedAt,
	}
	if _, err := m.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (m *MongoMessageLog) ListMessages(ctx context.Context, orderID int64, after *domain.MessageCursor, limit int) ([]*domain.OrderMessage, error) {
	filter := bson.M{"order_id": orderID}
	if after != nil {
		at := after.CreatedAt.UTC().Truncate(time.Millisecond)
		filter["$or"] = bson.A{
			bson.M{"created_at": bson.M{"$gt": at}},
			bson.M{"created_at": at, "_id": bson.M{"$gt": after.ID.String()}},
		}
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cur.Close(ctx)

	msgs := make([]*domain.OrderMessage, 0)
	for cur.Next(ctx) {
		var doc messageDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", doc.ID, err)
		}
		msgs = append(msgs, &domain.OrderMessage{
			ID:        id,
			OrderID:   doc.OrderID,
			SenderID:  doc.SenderID,
			Text:      doc.Text,
			ImageURL:  doc.ImageURL,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	if err := cur.Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}
