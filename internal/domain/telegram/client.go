package telegram

import "gopkg.in/telebot.v3"

// Client is the narrow send capability used by scheduled deliveries.
// The dispatcher never sees the bot itself.
type Client interface {
	SendMessage(chatID int64, text string, options *telebot.SendOptions) error
}
