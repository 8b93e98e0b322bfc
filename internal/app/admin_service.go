package app

import (
	"context"
	"fmt"
)

// Custom application-level errors for admin service
var ErrAdminNotAuthorized = fmt.Errorf("performing user is not authorized as an admin")

// Status is a point-in-time view of the delivery state.
type Status struct {
	CatalogSize int
	Position    int
	NextMessage string
	Subscribers int
}

// AdminService backs the admin-only commands. An admin ID of 0 disables them.
type AdminService struct {
	delivery        *DeliveryService
	adminTelegramID int64
}

func NewAdminService(delivery *DeliveryService, adminID int64) *AdminService {
	return &AdminService{
		delivery:        delivery,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) IsAdmin(telegramID int64) bool {
	return s.adminTelegramID != 0 && telegramID == s.adminTelegramID
}

// Status reports catalog size, cursor position, upcoming message and subscriber count.
func (s *AdminService) Status(ctx context.Context, performingAdminID int64) (*Status, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}

	ids, err := s.delivery.subscribers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	st := &Status{
		CatalogSize: s.delivery.Catalog().Len(),
		Position:    s.delivery.Position(),
		Subscribers: len(ids),
	}
	if msg, err := s.delivery.Catalog().At(st.Position); err == nil {
		st.NextMessage = msg
	}
	return st, nil
}

// SendNow runs one delivery cycle outside the schedule.
func (s *AdminService) SendNow(ctx context.Context, performingAdminID int64) (*CycleReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.delivery.RunCycle(ctx)
}
