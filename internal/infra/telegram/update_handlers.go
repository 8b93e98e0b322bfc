package telegram

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterUpdateHandlers logs inbound traffic that is not a known command.
func RegisterUpdateHandlers(b *telebot.Bot, baseLogger *logrus.Entry) {
	log := baseLogger.WithField("handler_group", "updates")

	b.Handle(telebot.OnText, func(c telebot.Context) error {
		req := requestFrom(c)
		log.WithFields(logrus.Fields{
			"chat_id":   req.ChatID,
			"sender_id": req.SenderID,
			"update_id": c.Update().ID,
		}).Debug("Received text update")
		return nil
	})

	b.Handle(telebot.OnMyChatMember, func(c telebot.Context) error {
		upd := c.ChatMember()
		if upd == nil || upd.Chat == nil || upd.NewChatMember == nil {
			return nil
		}
		log.WithFields(logrus.Fields{
			"chat_id": upd.Chat.ID,
			"status":  upd.NewChatMember.Role,
		}).Info("Bot membership changed")
		return nil
	})
}

// ErrorHandler returns a telebot OnError callback that logs through logrus.
func ErrorHandler(baseLogger *logrus.Entry) func(error, telebot.Context) {
	return func(err error, c telebot.Context) {
		entry := baseLogger.WithError(err)
		if c != nil {
			if c.Chat() != nil {
				entry = entry.WithField("chat_id", c.Chat().ID)
			}
			if c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
		}
		entry.Error("Telebot error")
	}
}
