package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"daily_revelation_bot/internal/domain/catalog"
	"daily_revelation_bot/internal/domain/cursor"
	"daily_revelation_bot/internal/domain/subscriber"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service *DeliveryService
	client  *MockClient
	repo    *MockSubscriberRepository
	store   *memoryCursorStore
	cursor  *cursor.Cursor
}

func newFixture(t *testing.T, messages []string, start int) *fixture {
	t.Helper()
	c, err := catalog.New(messages)
	require.NoError(t, err)

	store := &memoryCursorStore{value: start}
	cur := cursor.New(store)
	_, err = cur.Load(context.Background(), c.Len())
	require.NoError(t, err)

	f := &fixture{
		client: &MockClient{},
		repo:   &MockSubscriberRepository{},
		store:  store,
		cursor: cur,
	}
	f.service = NewDeliveryService(c, f.repo, cur, f.client, 0, nullLogger())
	return f
}

func TestRunCycle_WrapsAroundAcrossCycles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1", "msg2"}, 2)

	f.repo.On("ListAll", ctx).Return([]subscriber.ID{111}, nil)
	f.client.On("SendMessage", int64(111), "msg2").Return(nil).Once()
	f.client.On("SendMessage", int64(111), "msg0").Return(nil).Once()

	report, err := f.service.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Index)
	assert.Equal(t, "msg2", report.Message)
	assert.Equal(t, 0, report.NextIndex)
	assert.True(t, report.Advanced)
	assert.Equal(t, 0, f.store.value)

	report, err = f.service.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "msg0", report.Message)
	assert.Equal(t, 1, report.NextIndex)
	assert.Equal(t, []int{0, 1}, f.store.saves)

	f.client.AssertExpectations(t)
}

func TestRunCycle_RecipientFailureDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1"}, 0)

	f.repo.On("ListAll", ctx).Return([]subscriber.ID{1, 2}, nil)
	f.client.On("SendMessage", int64(1), "msg0").Return(errors.New("telegram: bot was blocked by the user (403)"))
	f.client.On("SendMessage", int64(2), "msg0").Return(nil)

	report, err := f.service.RunCycle(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, []subscriber.ID{1}, report.Failed)
	assert.Equal(t, []int{1}, f.store.saves, "cursor advances exactly once")

	f.client.AssertNumberOfCalls(t, "SendMessage", 2)
}

func TestRunCycle_AllRecipientsFailStillAdvances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1"}, 1)

	f.repo.On("ListAll", ctx).Return([]subscriber.ID{1, 2, 3}, nil)
	f.client.On("SendMessage", mock.Anything, "msg1").Return(errors.New("chat not found"))

	report, err := f.service.RunCycle(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Failed, 3)
	assert.Equal(t, 0, report.NextIndex)
	assert.Equal(t, 0, f.cursor.Position())
}

func TestRunCycle_EmptyRegistryDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1"}, 1)

	f.repo.On("ListAll", ctx).Return([]subscriber.ID{}, nil)

	report, err := f.service.RunCycle(ctx)
	require.NoError(t, err)
	assert.False(t, report.Advanced)
	assert.Equal(t, 0, report.Attempted)
	assert.Equal(t, 1, report.NextIndex)
	assert.Empty(t, f.store.saves)
	f.client.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestRunCycle_ListFailureLeavesCursor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0"}, 0)

	f.repo.On("ListAll", ctx).Return(nil, errors.New("connection refused"))

	report, err := f.service.RunCycle(ctx)
	assert.Error(t, err)
	assert.Nil(t, report)
	assert.Empty(t, f.store.saves)
}

func TestRunCycle_CursorPersistFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1"}, 0)
	f.store.failing = true

	f.repo.On("ListAll", ctx).Return([]subscriber.ID{7}, nil)
	f.client.On("SendMessage", int64(7), "msg0").Return(nil)

	report, err := f.service.RunCycle(ctx)
	assert.ErrorIs(t, err, cursor.ErrPersist)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Delivered)
	assert.False(t, report.Advanced)
	assert.Equal(t, 0, f.cursor.Position(), "same message is resent next cycle")
}

func TestRunCycle_RejectsConcurrentCycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1"}, 0)

	release := make(chan struct{})
	entered := make(chan struct{})
	f.repo.On("ListAll", ctx).Return([]subscriber.ID{1}, nil)
	f.client.On("SendMessage", int64(1), "msg0").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(nil).Once()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := f.service.RunCycle(ctx)
		assert.NoError(t, err)
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first cycle did not start")
	}

	_, err := f.service.RunCycle(ctx)
	assert.ErrorIs(t, err, ErrCycleInProgress)

	close(release)
	wg.Wait()
	assert.Equal(t, []int{1}, f.store.saves)
}

func TestRunCycle_CanceledContextCountsAsFailures(t *testing.T) {
	c, err := catalog.New([]string{"msg0", "msg1"})
	require.NoError(t, err)
	store := &contextCursorStore{}
	cur := cursor.New(store)
	repo := &MockSubscriberRepository{}
	client := &MockClient{}
	service := NewDeliveryService(c, repo, cur, client, 1, nullLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo.On("ListAll", ctx).Return([]subscriber.ID{1, 2}, nil)

	report, err := service.RunCycle(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Failed, 2)
	assert.True(t, report.Advanced)
	assert.Equal(t, []int{1}, store.saves)
	client.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything)
}

func TestRunCycle_DeadlineDuringSendsStillPersistsCursor(t *testing.T) {
	c, err := catalog.New([]string{"msg0", "msg1"})
	require.NoError(t, err)
	store := &contextCursorStore{}
	cur := cursor.New(store)
	repo := &MockSubscriberRepository{}
	client := &MockClient{}
	service := NewDeliveryService(c, repo, cur, client, 0, nullLogger())

	repo.On("ListAll", mock.Anything).Return([]subscriber.ID{111, 222}, nil)
	client.On("SendMessage", mock.Anything, "msg0").
		Run(func(mock.Arguments) { time.Sleep(40 * time.Millisecond) }).
		Return(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := service.RunCycle(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	assert.Equal(t, 2, report.Delivered)
	assert.True(t, report.Advanced)
	assert.Equal(t, 1, report.NextIndex)
	assert.Equal(t, 1, cur.Position())
	assert.Equal(t, []int{1}, store.saves)
}
