package cartsync

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/craverscorner/food-ordering-website/internal/cart"
)

type memorySnapshots struct {
	saved map[string]cart.Cart
}

func (m *memorySnapshots) Get(_ context.Context, userID string) (cart.Cart, error) {
	c, ok := m.saved[userID]
	if !ok {
		return cart.Cart{}, cart.ErrNotFound
	}
	return c, nil
}

func (m *memorySnapshots) Save(_ context.Context, userID string, c cart.Cart) error {
	if m.saved == nil {
		m.saved = map[string]cart.Cart{}
	}
	m.saved[userID] = c
	return nil
}

func TestHandleSyncTaskWritesSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := &cart.SessionStore{R: client}
	var c cart.Cart
	require.NoError(t, c.AddItem(cart.Line{ItemID: "margherita", UnitPrice: decimal.RequireFromString("12.99")}))
	require.NoError(t, sessions.Put(context.Background(), "u:user-1", c))

	snapshots := &memorySnapshots{}
	w := Worker{Sessions: sessions, Snapshots: snapshots}

	task, err := NewSyncTask("user-1")
	require.NoError(t, err)
	require.NoError(t, w.HandleSyncTask(context.Background(), task))

	saved, err := snapshots.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, saved.Lines, 1)
	require.Equal(t, "margherita", saved.Lines[0].ItemID)
}

func TestHandleSyncTaskMissingSessionWritesEmptyCart(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	snapshots := &memorySnapshots{saved: map[string]cart.Cart{
		"user-1": {Lines: []cart.Line{{ItemID: "stale", Quantity: 1}}},
	}}
	w := Worker{Sessions: &cart.SessionStore{R: client}, Snapshots: snapshots}

	task, err := NewSyncTask("user-1")
	require.NoError(t, err)
	require.NoError(t, w.HandleSyncTask(context.Background(), task))

	saved, err := snapshots.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, saved.IsEmpty())
}

func TestNewSyncTaskRequiresUser(t *testing.T) {
	_, err := NewSyncTask("")
	require.Error(t, err)
}
