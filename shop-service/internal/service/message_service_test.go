package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcadelacruz/braceurself/shop-service/internal/domain"
	"github.com/mcadelacruz/braceurself/shop-service/internal/store"
)

func setupThread(t *testing.T, pageSize int) (*MessageService, *CountingLog, *domain.Order) {
	t.Helper()
	st := store.NewMemoryStore()
	p := seedProduct(t, st, 5)
	order := &domain.Order{CustomerID: testCustomer.UserID, ProductID: p.ID, Quantity: 1, Status: domain.StatusWaiting}
	require.NoError(t, st.CreateOrder(context.Background(), order))

	log := &CountingLog{MessageLog: st}
	svc := NewMessageService(st, log, testSellerID,
		WithClock(stepClock(testNow, time.Second)),
		WithPageSize(pageSize),
	)
	return svc, log, order
}

func TestMessageService_PostMessage(t *testing.T) {
	svc, _, order := setupThread(t, 10)
	ctx := context.Background()

	msg, err := svc.PostMessage(ctx, testCustomer, order.ID, NewMessage{Text: "Is blue available?"})
	require.NoError(t, err)
	assert.Equal(t, order.ID, msg.OrderID)
	assert.Equal(t, testCustomer.UserID, msg.SenderID)
	assert.Equal(t, testNow, msg.CreatedAt)

	_, err = svc.PostMessage(ctx, testSeller, order.ID, NewMessage{ImageURL: "https://img.example/1.png"})
	require.NoError(t, err)

	// empty messages are allowed
	_, err = svc.PostMessage(ctx, testCustomer, order.ID, NewMessage{})
	require.NoError(t, err)

	_, err = svc.PostMessage(ctx, otherCustomer, order.ID, NewMessage{Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.PostMessage(ctx, testCustomer, 99, NewMessage{Text: "hi"})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestMessageService_Messages_Paged(t *testing.T) {
	svc, log, order := setupThread(t, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.PostMessage(ctx, testCustomer, order.ID, NewMessage{Text: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	seq, err := svc.Messages(ctx, testSeller, order.ID)
	require.NoError(t, err)

	collect := func() []string {
		var texts []string
		for m, err := range seq {
			require.NoError(t, err)
			texts = append(texts, m.Text)
		}
		return texts
	}

	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, collect())
	assert.Equal(t, int32(3), log.Reads.Load())

	// restartable
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4"}, collect())
	assert.Equal(t, int32(6), log.Reads.Load())
}

func TestMessageService_Messages_Lazy(t *testing.T) {
	svc, log, order := setupThread(t, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.PostMessage(ctx, testSeller, order.ID, NewMessage{Text: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	seq, err := svc.Messages(ctx, testCustomer, order.ID)
	require.NoError(t, err)
	assert.Zero(t, log.Reads.Load())

	for m, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "m0", m.Text)
		break
	}
	assert.Equal(t, int32(1), log.Reads.Load())
}

func TestMessageService_Messages_Forbidden(t *testing.T) {
	svc, _, order := setupThread(t, 2)

	_, err := svc.Messages(context.Background(), otherCustomer, order.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
