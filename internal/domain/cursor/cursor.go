// internal/domain/cursor/cursor.go
package cursor

import (
	"context"
	"fmt"
	"sync"

	"daily_revelation_bot/internal/domain/catalog"
)

var ErrMalformedState = fmt.Errorf("persisted cursor state is malformed")
var ErrPersist = fmt.Errorf("failed to persist delivery cursor")
var ErrOutOfRange = fmt.Errorf("cursor index out of range")

// Store persists the single delivery cursor value.
type Store interface {
	// Load returns (0, nil) when nothing has been persisted yet.
	Load(ctx context.Context) (int, error)
	// Save must be atomic: a reader never observes a partial value.
	Save(ctx context.Context, index int) error
}

// Next returns the index following current, wrapping at catalogLength.
func Next(current, catalogLength int) (int, error) {
	if catalogLength <= 0 {
		return 0, catalog.ErrInvalidCatalog
	}
	return (current + 1) % catalogLength, nil
}

// Cursor is the in-memory mirror of the persisted delivery position.
// The in-memory value changes only after the store accepted it.
type Cursor struct {
	mu       sync.Mutex
	store    Store
	position int
}

func New(store Store) *Cursor {
	return &Cursor{store: store}
}

// Load reads the persisted position. Missing or malformed state yields 0;
// the returned error is informational and never leaves the cursor unusable.
// Values outside [0, catalogLength) are folded back into range.
func (c *Cursor) Load(ctx context.Context, catalogLength int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	index, err := c.store.Load(ctx)
	if err != nil {
		c.position = 0
		return 0, err
	}
	c.position = normalize(index, catalogLength)
	return c.position, nil
}

func (c *Cursor) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Save persists index and, on success, makes it the current position.
func (c *Cursor) Save(ctx context.Context, index, catalogLength int) error {
	if catalogLength <= 0 {
		return catalog.ErrInvalidCatalog
	}
	if index < 0 || index >= catalogLength {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, catalogLength)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(ctx, index)
}

// Advance moves the cursor to (position+1) mod catalogLength and persists it.
func (c *Cursor) Advance(ctx context.Context, catalogLength int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := Next(c.position, catalogLength)
	if err != nil {
		return c.position, err
	}
	if err := c.saveLocked(ctx, next); err != nil {
		return c.position, err
	}
	return next, nil
}

func (c *Cursor) saveLocked(ctx context.Context, index int) error {
	if err := c.store.Save(ctx, index); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	c.position = index
	return nil
}

func normalize(index, catalogLength int) int {
	if index < 0 || catalogLength <= 0 {
		return 0
	}
	return index % catalogLength
}
