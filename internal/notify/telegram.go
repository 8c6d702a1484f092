// Package notify is the outbound messaging boundary. Every send is
// best-effort: callers get an error to log, and a failure for one recipient
// never blocks another.
package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends formatted messages to individual users and the shared
// group chat.
type Telegram struct {
	api     *tgbotapi.BotAPI
	groupID int64
	logger  *slog.Logger
}

// NewTelegram creates a notifier over an existing bot API client. groupID
// zero disables group sends.
func NewTelegram(api *tgbotapi.BotAPI, groupID int64, logger *slog.Logger) *Telegram {
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{api: api, groupID: groupID, logger: logger}
}

// SendUser delivers an HTML message to one user's direct chat.
func (t *Telegram) SendUser(userID int64, html string) error {
	return t.send(userID, html)
}

// SendGroup delivers an HTML message to the shared group chat. A no-op when
// no group is configured.
func (t *Telegram) SendGroup(html string) error {
	if t.groupID == 0 {
		return nil
	}
	return t.send(t.groupID, html)
}

// SendDocument delivers an in-memory file with a caption.
func (t *Telegram) SendDocument(chatID int64, name string, data []byte, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if _, err := t.api.Send(doc); err != nil {
		return fmt.Errorf("send document to %d: %w", chatID, err)
	}
	return nil
}

func (t *Telegram) send(chatID int64, html string) error {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}
