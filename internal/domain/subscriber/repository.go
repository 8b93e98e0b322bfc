package subscriber

import (
	"context"
)

// Repository defines the operations for persisting and enumerating subscribers.
type Repository interface {
	// Register adds id if absent and reports whether it was newly added.
	Register(ctx context.Context, id ID) (bool, error)
	// ListAll returns the deduplicated membership. An absent store is empty.
	ListAll(ctx context.Context) ([]ID, error)
}
