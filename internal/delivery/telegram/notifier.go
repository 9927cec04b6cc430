package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(token)
}

// Notifier delivers plain alert text to a Telegram chat. It is the only
// component behind the dispatcher's messaging boundary.
type Notifier struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, logger *zap.Logger) *Notifier {
	return &Notifier{api: api, logger: logger}
}

func (n *Notifier) Notify(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Warn("telegram send failed", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}
	n.logger.Debug("telegram message sent", zap.Int64("user_id", userID))
	return nil
}
