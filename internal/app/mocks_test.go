package app

import (
	"context"
	"errors"
	"sync"

	"daily_revelation_bot/internal/domain/subscriber"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"gopkg.in/telebot.v3"
)

// MockClient is a mock implementation of telegram.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) SendMessage(chatID int64, text string, options *telebot.SendOptions) error {
	args := m.Called(chatID, text)
	return args.Error(0)
}

// MockSubscriberRepository is a mock implementation of subscriber.Repository
type MockSubscriberRepository struct {
	mock.Mock
}

func (m *MockSubscriberRepository) Register(ctx context.Context, id subscriber.ID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriberRepository) ListAll(ctx context.Context) ([]subscriber.ID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]subscriber.ID), args.Error(1)
}

// memoryCursorStore records every saved value.
type memoryCursorStore struct {
	mu      sync.Mutex
	value   int
	saves   []int
	failing bool
}

func (s *memoryCursorStore) Load(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

func (s *memoryCursorStore) Save(_ context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("read-only filesystem")
	}
	s.value = index
	s.saves = append(s.saves, index)
	return nil
}

func nullLogger() *logrus.Entry {
	l, _ := test.NewNullLogger()
	return logrus.NewEntry(l)
}

// contextCursorStore fails on a done context the way database/sql does.
type contextCursorStore struct {
	memoryCursorStore
}

func (s *contextCursorStore) Save(ctx context.Context, index int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.memoryCursorStore.Save(ctx, index)
}
