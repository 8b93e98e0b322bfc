package app

import (
	"context"
	"fmt"

	"daily_revelation_bot/internal/domain/subscriber"

	"github.com/sirupsen/logrus"
)

var ErrRegistryPersist = fmt.Errorf("failed to persist subscriber registration")

type RegistrationService struct {
	subscribers subscriber.Repository
	logger      *logrus.Entry
}

func NewRegistrationService(subscribers subscriber.Repository, logger *logrus.Entry) *RegistrationService {
	return &RegistrationService{
		subscribers: subscribers,
		logger:      logger,
	}
}

// Register enrolls chatID and reports whether it was newly added.
func (s *RegistrationService) Register(ctx context.Context, chatID int64) (bool, error) {
	id := subscriber.ID(chatID)
	added, err := s.subscribers.Register(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("chat_id", id).Error("Failed to register subscriber")
		return false, fmt.Errorf("%w: %w", ErrRegistryPersist, err)
	}
	if added {
		s.logger.WithField("chat_id", id).Info("Added new subscriber")
	} else {
		s.logger.WithField("chat_id", id).Debug("Subscriber already registered")
	}
	return added, nil
}
