package filestore

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"daily_revelation_bot/internal/domain/subscriber"

	"github.com/sirupsen/logrus"
)

// SubscriberRepository keeps chat IDs in a plain text file, one per line,
// mirrored in memory. The file is only ever extended: a registration writes
// the previous bytes unchanged plus the new line, then renames into place.
type SubscriberRepository struct {
	path   string
	logger *logrus.Entry

	mu      sync.Mutex
	content []byte
	members map[subscriber.ID]struct{}
	order   []subscriber.ID
}

// OpenSubscriberRepository loads path into memory. A missing file is an
// empty registry; it is created on the first registration.
func OpenSubscriberRepository(path string, logger *logrus.Entry) (*SubscriberRepository, error) {
	r := &SubscriberRepository{
		path:    path,
		logger:  logger.WithField("subscribers_file", path),
		members: make(map[subscriber.ID]struct{}),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Info("Subscriber file does not exist yet, starting with an empty registry")
			return r, nil
		}
		return nil, fmt.Errorf("failed to read subscriber file: %w", err)
	}
	r.content = data

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := subscriber.ParseID(line)
		if err != nil {
			r.logger.WithFields(logrus.Fields{"line": lineNo, "value": line}).Warn("Skipping unparsable subscriber line")
			continue
		}
		if _, dup := r.members[id]; dup {
			r.logger.WithFields(logrus.Fields{"line": lineNo, "chat_id": id}).Warn("Skipping duplicate subscriber line")
			continue
		}
		r.members[id] = struct{}{}
		r.order = append(r.order, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan subscriber file: %w", err)
	}

	r.logger.WithField("subscribers", len(r.order)).Info("Subscriber registry loaded")
	return r, nil
}

func (r *SubscriberRepository) Register(ctx context.Context, id subscriber.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[id]; ok {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	next := make([]byte, 0, len(r.content)+24)
	next = append(next, r.content...)
	if len(next) > 0 && next[len(next)-1] != '\n' {
		next = append(next, '\n')
	}
	next = append(next, id.String()...)
	next = append(next, '\n')

	if err := writeFileAtomic(r.path, next, 0o600); err != nil {
		return false, fmt.Errorf("failed to persist subscriber %s: %w", id, err)
	}

	r.content = next
	r.members[id] = struct{}{}
	r.order = append(r.order, id)
	return true, nil
}

// ListAll returns subscribers in registration order.
func (r *SubscriberRepository) ListAll(_ context.Context) ([]subscriber.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]subscriber.ID, len(r.order))
	copy(ids, r.order)
	return ids, nil
}
