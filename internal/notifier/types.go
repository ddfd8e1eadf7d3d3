package notifier

import (
	"context"
	"time"
)

// Config controls the async notification pipeline.
type Config struct {
	Enabled       bool
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration
}

// Sender delivers one text message. TelegramSender is the production implementation.
type Sender interface {
	SendText(ctx context.Context, text string) error
}

// Notification is one message. Priority >= 7 is prefixed as a warning, >= 9 as an alert.
type Notification struct {
	Priority int
	Text     string
}
