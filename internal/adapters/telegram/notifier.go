package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"oitracker/internal/events"
)

// MessageSender delivers text to a chat
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

var (
	_ MessageSender = (*Bot)(nil)
	_ events.Sink   = (*Notifier)(nil)
)

// Notifier alerts an operator chat about batches that did not fully succeed.
// Clean batches are ignored.
type Notifier struct {
	sender MessageSender
	chatID int64
	app    string
}

// NewNotifier creates a failure notifier for one chat
func NewNotifier(sender MessageSender, chatID int64, app string) *Notifier {
	return &Notifier{sender: sender, chatID: chatID, app: app}
}

// Name identifies the sink in logs
func (n *Notifier) Name() string {
	return "telegram"
}

// PublishBatchCompleted implements events.Sink
func (n *Notifier) PublishBatchCompleted(ctx context.Context, event *events.BatchCompleted) error {
	if !event.Failed() {
		return nil
	}
	return n.sender.SendMessage(ctx, n.chatID, FormatBatchAlert(n.app, event))
}

// FormatBatchAlert renders a failed batch as Telegram HTML
func FormatBatchAlert(app string, event *events.BatchCompleted) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<b>%s</b>: batch %s\n", html.EscapeString(app), html.EscapeString(event.Status))
	fmt.Fprintf(&b, "Processed %d/%d stocks in %s\n",
		event.SuccessCount, event.TotalCount,
		(time.Duration(event.DurationMS) * time.Millisecond).Round(time.Millisecond))
	fmt.Fprintf(&b, "Run <code>%s</code>\n", html.EscapeString(event.RunID))

	if len(event.Errors) > 0 {
		b.WriteString("\n<b>Errors</b>\n")
		for _, e := range event.Errors {
			fmt.Fprintf(&b, "• %s\n", html.EscapeString(e))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
