package notifier

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// TelegramSender posts to one chat (optionally one forum thread).
type TelegramSender struct {
	bot      *tele.Bot
	chatID   int64
	threadID int
}

// NewTelegramSender builds a send-only bot. It never polls for updates and
// does not contact Telegram until the first send.
func NewTelegramSender(token string, chatID int64, threadID int) (*TelegramSender, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat_id is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: b, chatID: chatID, threadID: threadID}, nil
}

func (t *TelegramSender) SendText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(&tele.Chat{ID: t.chatID}, text, &tele.SendOptions{
		DisableWebPagePreview: true,
		ThreadID:              t.threadID,
	})
	return err
}
