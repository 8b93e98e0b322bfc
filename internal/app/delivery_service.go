// internal/app/delivery_service.go
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"daily_revelation_bot/internal/domain/catalog"
	"daily_revelation_bot/internal/domain/cursor"
	"daily_revelation_bot/internal/domain/subscriber"
	domainTelegram "daily_revelation_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

var ErrCycleInProgress = fmt.Errorf("a delivery cycle is already running")

// cursorPersistTimeout bounds the final cursor write. It runs detached from the
// cycle context so a cycle that ran out of time still records its progress.
const cursorPersistTimeout = 10 * time.Second

// CycleReport summarises one delivery cycle.
type CycleReport struct {
	Index     int // catalog position that was delivered
	NextIndex int // cursor position after the cycle
	Message   string
	Attempted int
	Delivered int
	Failed    []subscriber.ID
	Advanced  bool
}

// DeliveryService runs the daily send-and-advance cycle. It owns the cursor:
// nothing else moves it.
type DeliveryService struct {
	catalog     *catalog.Catalog
	subscribers subscriber.Repository
	cursor      *cursor.Cursor
	client      domainTelegram.Client
	limiter     *rate.Limiter
	logger      *logrus.Entry

	running sync.Mutex
}

func NewDeliveryService(
	c *catalog.Catalog,
	subscribers subscriber.Repository,
	cur *cursor.Cursor,
	client domainTelegram.Client,
	sendRatePerSec int,
	logger *logrus.Entry,
) *DeliveryService {
	var limiter *rate.Limiter
	if sendRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(sendRatePerSec), 1)
	}
	return &DeliveryService{
		catalog:     c,
		subscribers: subscribers,
		cursor:      cur,
		client:      client,
		limiter:     limiter,
		logger:      logger,
	}
}

// RunCycle sends the message at the cursor to every subscriber and then
// advances the cursor once, whatever the per-recipient outcomes were.
// With no subscribers nothing is sent and the cursor stays put.
func (s *DeliveryService) RunCycle(ctx context.Context) (*CycleReport, error) {
	if !s.running.TryLock() {
		s.logger.Warn("Delivery cycle requested while another one is running, skipping")
		return nil, ErrCycleInProgress
	}
	defer s.running.Unlock()

	if s.catalog.Len() == 0 {
		return nil, catalog.ErrInvalidCatalog
	}

	recipients, err := s.subscribers.ListAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list subscribers")
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	index := s.cursor.Position()
	report := &CycleReport{Index: index, NextIndex: index}

	if len(recipients) == 0 {
		s.logger.WithField("index", index).Info("No subscribers to send to, cursor not advanced")
		return report, nil
	}

	message, err := s.catalog.At(index)
	if err != nil {
		s.logger.WithError(err).WithField("index", index).Error("Cursor does not resolve to a message")
		return nil, err
	}
	report.Message = message

	cycleLogger := s.logger.WithFields(logrus.Fields{
		"index":      index,
		"recipients": len(recipients),
	})
	cycleLogger.Info("Starting delivery cycle")

	for _, id := range recipients {
		report.Attempted++
		if err := s.sendOne(ctx, id, message); err != nil {
			report.Failed = append(report.Failed, id)
			cycleLogger.WithError(err).WithField("chat_id", id).Warn("Failed to deliver message")
			continue
		}
		report.Delivered++
		cycleLogger.WithField("chat_id", id).Debug("Message delivered")
	}

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cursorPersistTimeout)
	defer cancel()
	next, err := s.cursor.Advance(persistCtx, s.catalog.Len())
	if err != nil {
		cycleLogger.WithError(err).Error("Failed to advance delivery cursor; the same message will be sent next cycle")
		return report, err
	}
	report.NextIndex = next
	report.Advanced = true

	cycleLogger.WithFields(logrus.Fields{
		"delivered":  report.Delivered,
		"failed":     len(report.Failed),
		"next_index": next,
	}).Info("Delivery cycle finished")
	return report, nil
}

func (s *DeliveryService) sendOne(ctx context.Context, id subscriber.ID, message string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("send to %s not attempted: %w", id, err)
		}
	}
	return s.client.SendMessage(int64(id), message, &telebot.SendOptions{ParseMode: telebot.ModeDefault})
}

// Catalog exposes the catalog for read-only status reporting.
func (s *DeliveryService) Catalog() *catalog.Catalog {
	return s.catalog
}

// Position returns the cursor position without mutating it.
func (s *DeliveryService) Position() int {
	return s.cursor.Position()
}
