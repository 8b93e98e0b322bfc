package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"daily_revelation_bot/internal/app"

	"github.com/sirupsen/logrus"
)

const previewRunes = 200

// AdminCommands returns the admin-only commands. They stay out of the menu.
func AdminCommands(adminService *app.AdminService) []Command {
	return []Command{
		{
			Name:   "/status",
			Hidden: true,
			Handle: func(ctx context.Context, req Request, log *logrus.Entry) string {
				st, err := adminService.Status(ctx, req.SenderID)
				if err != nil {
					return adminError(err, log, "Failed to read status")
				}
				return formatStatus(st)
			},
		},
		{
			Name:   "/send_now",
			Hidden: true,
			Handle: func(ctx context.Context, req Request, log *logrus.Entry) string {
				report, err := adminService.SendNow(ctx, req.SenderID)
				if err != nil && report == nil {
					if errors.Is(err, app.ErrCycleInProgress) {
						log.Warn("Manual delivery rejected, cycle in progress")
						return "A delivery is already running."
					}
					return adminError(err, log, "Manual delivery failed")
				}
				log.WithField("advanced", report.Advanced).Info("Manual delivery finished")
				return formatReport(report, err)
			},
		},
	}
}

func adminError(err error, log *logrus.Entry, msg string) string {
	if errors.Is(err, app.ErrAdminNotAuthorized) {
		log.Warn("Unauthorized access attempt")
		return notAuthorized
	}
	log.WithError(err).Error(msg)
	return fmt.Sprintf("Error: %s", err.Error())
}

func formatStatus(st *app.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Messages in catalog: %d\n", st.CatalogSize)
	fmt.Fprintf(&b, "Next message index: %d\n", st.Position)
	fmt.Fprintf(&b, "Subscribers: %d\n", st.Subscribers)
	if st.NextMessage != "" {
		fmt.Fprintf(&b, "Next message: %s", preview(st.NextMessage))
	}
	return b.String()
}

func formatReport(r *app.CycleReport, persistErr error) string {
	if r.Attempted == 0 {
		return "No subscribers, nothing was sent."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Sent message %d to %d of %d subscribers.", r.Index, r.Delivered, r.Attempted)
	if len(r.Failed) > 0 {
		fmt.Fprintf(&b, "\nFailed: %d", len(r.Failed))
	}
	if persistErr != nil {
		fmt.Fprintf(&b, "\nCursor was not saved: %s", persistErr.Error())
	} else {
		fmt.Fprintf(&b, "\nNext message index: %d", r.NextIndex)
	}
	return b.String()
}

func preview(s string) string {
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewRunes]) + "…"
}
