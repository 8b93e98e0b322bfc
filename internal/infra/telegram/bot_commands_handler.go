// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	startConfirmation = "Blessed art thou, for you are now bound to the daily revelations of the Young-Girl. At the hour of first light, her scripture shall find you."
	startFailure      = "Your subscription could not be recorded right now. Please send /start again later."
	notAuthorized     = "You are not allowed to use this command."
)

// Request is the transport-independent view of an inbound command.
type Request struct {
	ChatID   int64
	SenderID int64
}

// Command is one entry of the dispatch table: a name and a function from
// request to reply text.
type Command struct {
	Name        string
	Description string
	Hidden      bool // not advertised in the bot menu
	Handle      func(ctx context.Context, req Request, log *logrus.Entry) string
}

// Registrar enrolls a chat in the subscriber registry.
type Registrar interface {
	Register(ctx context.Context, chatID int64) (bool, error)
}

// SubscriberCommands returns the commands available to every chat.
func SubscriberCommands(registrar Registrar, sendTime, timezone string) []Command {
	return []Command{
		{
			Name:        "/start",
			Description: "Subscribe to the daily revelation",
			Handle: func(ctx context.Context, req Request, log *logrus.Entry) string {
				return startReply(ctx, registrar, req.ChatID, log)
			},
		},
		{
			Name:        "/help",
			Description: "What this bot does",
			Handle: func(_ context.Context, _ Request, _ *logrus.Entry) string {
				return helpText(sendTime, timezone)
			},
		},
	}
}

func startReply(ctx context.Context, registrar Registrar, chatID int64, log *logrus.Entry) string {
	added, err := registrar.Register(ctx, chatID)
	if err != nil {
		log.WithError(err).Error("Registration failed")
		return startFailure
	}
	log.WithField("new_subscriber", added).Info("Registration handled")
	return startConfirmation
}

func helpText(sendTime, timezone string) string {
	var b strings.Builder
	b.WriteString("Every day at ")
	b.WriteString(sendTime)
	b.WriteString(" (")
	b.WriteString(timezone)
	b.WriteString(") this chat receives the next passage of the scripture.\n\n")
	b.WriteString("/start - subscribe this chat\n")
	b.WriteString("/help - show this message")
	return b.String()
}

// RegisterCommands installs every command of the table on the bot and
// publishes the visible ones as the bot menu.
func RegisterCommands(ctx context.Context, b *telebot.Bot, commands []Command, baseLogger *logrus.Entry) {
	menu := make([]telebot.Command, 0, len(commands))
	for _, cmd := range commands {
		b.Handle(cmd.Name, handlerFor(ctx, cmd, baseLogger))
		if !cmd.Hidden {
			menu = append(menu, telebot.Command{
				Text:        strings.TrimPrefix(cmd.Name, "/"),
				Description: cmd.Description,
			})
		}
	}

	if err := b.SetCommands(menu); err != nil {
		baseLogger.WithError(err).Warn("Failed to publish bot command menu")
	}
}

func handlerFor(ctx context.Context, cmd Command, baseLogger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		req := requestFrom(c)
		logCtx := baseLogger.WithFields(logrus.Fields{
			"command":   cmd.Name,
			"chat_id":   req.ChatID,
			"sender_id": req.SenderID,
		})
		logCtx.Info("Processing command")

		return c.Send(cmd.Handle(ctx, req, logCtx))
	}
}

func requestFrom(c telebot.Context) Request {
	var req Request
	if chat := c.Chat(); chat != nil {
		req.ChatID = chat.ID
	}
	if sender := c.Sender(); sender != nil {
		req.SenderID = sender.ID
	}
	return req
}
