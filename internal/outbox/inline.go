package outbox

import (
	"context"
	"log"
	"sync"

	"github.com/bryceheller922-ship-it/Archaleon/internal/remote"
)

// Inline applies ops directly against the remote client in a goroutine.
// This is the degraded mode used when no task queue is configured: writes
// are fire-and-forget with no retry beyond logging.
type Inline struct {
	client remote.Client
	wg     sync.WaitGroup
}

// NewInline creates an Inline outbox over the given remote client.
func NewInline(client remote.Client) *Inline {
	return &Inline{client: client}
}

func (o *Inline) Enqueue(ctx context.Context, op Op) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		// Detached from the caller's context: the local mutation already
		// committed, so its cancellation must not cancel the mirror write.
		if err := Apply(context.Background(), o.client, op); err != nil {
			log.Printf("[Outbox] Failed to apply %s %s/%s: %v", op.Kind, op.Collection, op.ID, err)
		}
	}()
}

// Wait blocks until all enqueued ops have been attempted. Used on shutdown
// and in tests.
func (o *Inline) Wait() {
	o.wg.Wait()
}

// Discard is an Outbox that drops every op. Used when no remote database is
// configured at all.
type Discard struct{}

func (Discard) Enqueue(ctx context.Context, op Op) {}
