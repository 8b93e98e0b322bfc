package app

import (
	"context"
	"testing"

	"daily_revelation_bot/internal/domain/subscriber"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID = int64(42)

func TestAdminService_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0"}, 0)

	admin := NewAdminService(f.service, adminID)
	assert.True(t, admin.IsAdmin(adminID))
	assert.False(t, admin.IsAdmin(7))

	_, err := admin.Status(ctx, 7)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)
	_, err = admin.SendNow(ctx, 7)
	assert.ErrorIs(t, err, ErrAdminNotAuthorized)

	disabled := NewAdminService(f.service, 0)
	assert.False(t, disabled.IsAdmin(0))

	f.repo.AssertNumberOfCalls(t, "ListAll", 0)
}

func TestAdminService_Status(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1", "msg2"}, 1)
	f.repo.On("ListAll", ctx).Return([]subscriber.ID{1, 2}, nil)

	admin := NewAdminService(f.service, adminID)
	st, err := admin.Status(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, &Status{CatalogSize: 3, Position: 1, NextMessage: "msg1", Subscribers: 2}, st)
}

func TestAdminService_SendNowGoesThroughDispatcher(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, []string{"msg0", "msg1"}, 0)
	f.repo.On("ListAll", ctx).Return([]subscriber.ID{9}, nil)
	f.client.On("SendMessage", int64(9), "msg0").Return(nil)

	admin := NewAdminService(f.service, adminID)
	report, err := admin.SendNow(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.NextIndex)
	assert.Equal(t, []int{1}, f.store.saves)
}
