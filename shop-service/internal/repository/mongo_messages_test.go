package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
)

func setupMongoLog(t *testing.T) (*MongoMessageLog, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, MongoOptions{URI: uri, Database: "testdb", MaxPoolSize: 5})
	require.NoError(t, err)

	log := NewMongoMessageLog(db)
	require.NoError(t, log.CreateIndexes(ctx))

	cleanup := func() {
		_ = log.Close(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return log, cleanup
}

func TestMongoMessageLog_OrderedByTimeThenID(t *testing.T) {
	log, cleanup := setupMongoLog(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	ids := []uuid.UUID{
		uuid.MustParse("ffffffff-0000-4000-8000-000000000000"),
		uuid.MustParse("00000000-0000-4000-8000-000000000000"),
	}
	for _, id := range ids {
		require.NoError(t, log.AppendMessage(ctx, &domain.OrderMessage{
			ID: id, OrderID: 7, SenderID: 1, Text: "hi", CreatedAt: at,
		}))
	}
	require.NoError(t, log.AppendMessage(ctx, &domain.OrderMessage{
		ID: uuid.New(), OrderID: 8, SenderID: 1, Text: "other order", CreatedAt: at,
	}))

	msgs, err := log.ListMessages(ctx, 7, nil, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, ids[1], msgs[0].ID)
	assert.Equal(t, ids[0], msgs[1].ID)
	assert.Equal(t, at.Truncate(time.Millisecond), msgs[0].CreatedAt)
}

func TestMongoMessageLog_CursorResumes(t *testing.T) {
	log, cleanup := setupMongoLog(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Now().UTC()
	for i := range 3 {
		require.NoError(t, log.AppendMessage(ctx, &domain.OrderMessage{
			ID:        uuid.New(),
			OrderID:   1,
			SenderID:  2,
			Text:      "msg",
			CreatedAt: at.Add(time.Duration(i) * time.Second),
		}))
	}

	first, err := log.ListMessages(ctx, 1, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	c := first[1].Cursor()
	rest, err := log.ListMessages(ctx, 1, &c, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.True(t, rest[0].CreatedAt.After(first[1].CreatedAt))
}

func TestMongoMessageLog_Close(t *testing.T) {
	log, cleanup := setupMongoLog(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, log.Close(ctx))

	err := log.AppendMessage(ctx, &domain.OrderMessage{
		ID: uuid.New(), OrderID: 7, SenderID: 1, Text: "late", CreatedAt: time.Now(),
	})
	assert.Error(t, err)
}
