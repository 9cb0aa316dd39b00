package notify

import (
	"context"

	"github.com/theblitlabs/starknet-env/pkg/logger"
)

const (
	ChannelNotification = "notification"
	LevelError          = "error"
	LevelInfo           = "info"
)

// Notifier is the host IDE's one-way notification channel.
type Notifier interface {
	Notify(ctx context.Context, channel, level, message string) error
}

// Message is the payload sent to the host.
type Message struct {
	Channel string `json:"channel"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// LogNotifier writes notifications to the process log only.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, channel, level, message string) error {
	log := logger.WithComponent("notify")
	ev := log.Info()
	if level == LevelError {
		ev = log.Error()
	}
	ev.Str("channel", channel).Msg(message)
	return nil
}
