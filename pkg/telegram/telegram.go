package telegram

import (
	"fmt"
	"sync"

	"kimchi-arb/config"
	"kimchi-arb/pkg/logger"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier pushes trade alert messages to a single Telegram chat. Sends
// are fire-and-forget: delivery failures are logged and swallowed so
// the caller (the simulation loop) is never blocked or failed by them.
type Notifier struct {
	cfg     *config.TelegramConfig
	log     *logger.Logger
	bot     *telebot.Bot
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger, bot *telebot.Bot) *Notifier {
	return &Notifier{
		cfg: cfg,
		log: log,
		bot: bot,
		// Telegram caps bots around 30 msg/sec, stay well under it
		limiter: rate.NewLimiter(rate.Limit(10), 10),
	}
}

// SendTradeAlert formats and sends a trade alert asynchronously.
func (n *Notifier) SendTradeAlert(action string, amount, price float64, reason string) {
	if n.bot == nil || !n.cfg.EnableAlerts {
		return
	}

	message := fmt.Sprintf("📣 *%s* %.6f @ %.2f\n%s", action, amount, price, reason)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if !n.limiter.Allow() {
			n.log.Debug("Telegram alert dropped by rate limiter")
			return
		}
		recipient := telebot.ChatID(n.cfg.ChatID)
		if _, err := n.bot.Send(recipient, message, telebot.ModeMarkdown); err != nil {
			n.log.Warn("Failed to send telegram alert", logger.ErrorField(err))
		}
	}()
}

// Flush waits for in-flight alert sends, used on shutdown.
func (n *Notifier) Flush() {
	n.wg.Wait()
}
