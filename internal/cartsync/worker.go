package cartsync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/craverscorner/food-ordering-website/internal/cart"
	"github.com/craverscorner/food-ordering-website/internal/obs"
)

// Worker handles sync tasks by copying the session cart to the snapshot
// store. Last write wins; an empty or missing session cart is still written
// so that clearing a cart propagates.
type Worker struct {
	Sessions  *cart.SessionStore
	Snapshots cart.SnapshotStore
	Log       zerolog.Logger
}

// HandleSyncTask processes a single cart:sync task.
func (w Worker) HandleSyncTask(ctx context.Context, task *asynq.Task) error {
	var payload syncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("cartsync: decode payload: %w", err)
	}
	identity := cart.Identity{UserID: payload.UserID}
	key, err := identity.Key()
	if err != nil {
		return err
	}
	c, _, err := w.Sessions.Get(ctx, key)
	if err != nil {
		countSync("error")
		return fmt.Errorf("cartsync: load session cart: %w", err)
	}
	if err := w.Snapshots.Save(ctx, payload.UserID, c); err != nil {
		countSync("error")
		return fmt.Errorf("cartsync: save snapshot: %w", err)
	}
	countSync("ok")
	w.Log.Debug().Str("user_id", payload.UserID).Int("lines", len(c.Lines)).Msg("cart synced")
	return nil
}

func countSync(result string) {
	if obs.CartSyncTotal != nil {
		obs.CartSyncTotal.WithLabelValues(result).Inc()
	}
}
