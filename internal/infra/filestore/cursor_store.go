package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"daily_revelation_bot/internal/domain/cursor"
)

type cursorState struct {
	LastIndex *int `json:"last_index"`
}

// CursorStore persists the delivery cursor as {"last_index": N}.
type CursorStore struct {
	path string
}

func NewCursorStore(path string) *CursorStore {
	return &CursorStore{path: path}
}

// Load returns 0 when the file does not exist. Undecodable content, a
// missing key or a negative value wraps cursor.ErrMalformedState.
func (s *CursorStore) Load(_ context.Context) (int, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cursor file %s: %w", s.path, err)
	}

	var state cursorState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, fmt.Errorf("%w: %s: %w", cursor.ErrMalformedState, s.path, err)
	}
	if state.LastIndex == nil {
		return 0, fmt.Errorf("%w: %s has no last_index", cursor.ErrMalformedState, s.path)
	}
	if *state.LastIndex < 0 {
		return 0, fmt.Errorf("%w: %s has negative last_index %d", cursor.ErrMalformedState, s.path, *state.LastIndex)
	}
	return *state.LastIndex, nil
}

func (s *CursorStore) Save(_ context.Context, index int) error {
	data, err := json.Marshal(cursorState{LastIndex: &index})
	if err != nil {
		return fmt.Errorf("failed to encode cursor: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o600)
}
