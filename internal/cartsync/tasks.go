// Package cartsync writes session carts back to the durable snapshot store.
// Syncs are debounced: mutations within the quiet period collapse into a
// single write.
package cartsync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const TypeCartSync = "cart:sync"

type syncPayload struct {
	UserID string `json:"userId"`
}

// NewSyncTask builds the write-back task for a user's cart.
func NewSyncTask(userID string) (*asynq.Task, error) {
	if userID == "" {
		return nil, errors.New("cartsync: user id is required")
	}
	payload, err := json.Marshal(syncPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCartSync, payload), nil
}

// Scheduler enqueues debounced sync tasks. It satisfies the cart service's
// SyncScheduler contract.
type Scheduler struct {
	Client   *asynq.Client
	Debounce time.Duration
}

func (s Scheduler) debounce() time.Duration {
	if s.Debounce <= 0 {
		return time.Second
	}
	return s.Debounce
}

// ScheduleSync enqueues a sync for the user. While a sync for the same user
// is already pending, further calls are dropped, which gives the quiet
// period its debounce behaviour.
func (s Scheduler) ScheduleSync(ctx context.Context, userID string) error {
	if s.Client == nil {
		return errors.New("cartsync: asynq client not configured")
	}
	task, err := NewSyncTask(userID)
	if err != nil {
		return err
	}
	_, err = s.Client.EnqueueContext(ctx, task,
		asynq.ProcessIn(s.debounce()),
		asynq.Unique(s.debounce()),
		asynq.MaxRetry(5),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}
