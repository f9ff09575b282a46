package infrastructure

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/yourusername/echo-fetch-go/internal/bot"
	"github.com/yourusername/echo-fetch-go/internal/domain"
)

// TelegramBot implements bot.Dispatcher on top of telebot long polling
type TelegramBot struct {
	bot     *tele.Bot
	logger  *zap.Logger
	running atomic.Bool
}

// NewTelegramBot creates a Telegram client. With offline set the bot skips
// the getMe handshake, which is only useful in tests.
func NewTelegramBot(config *domain.BotConfig, logger *zap.Logger, offline bool) (*TelegramBot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Token == "" && !offline {
		return nil, domain.ErrMissingToken
	}

	tb := &TelegramBot{logger: logger}

	b, err := tele.NewBot(tele.Settings{
		URL:         config.APIURL,
		Token:       config.Token,
		Poller:      &tele.LongPoller{Timeout: config.PollTimeout},
		Synchronous: true,
		Offline:     offline,
		OnError:     tb.onError,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	tb.bot = b

	return tb, nil
}

// HandleCommand registers h for /name
func (t *TelegramBot) HandleCommand(name string, h bot.HandlerFunc) {
	t.bot.Handle("/"+strings.TrimPrefix(name, "/"), t.wrap(h))
}

// HandleText registers h for text messages
func (t *TelegramBot) HandleText(h bot.HandlerFunc) {
	t.bot.Handle(tele.OnText, t.wrap(h))
}

// Start runs the poller and blocks until Stop is called
func (t *TelegramBot) Start() {
	t.running.Store(true)
	defer t.running.Store(false)

	t.logger.Info("Telegram bot polling started", zap.String("username", t.bot.Me.Username))
	t.bot.Start()
	t.logger.Info("Telegram bot polling stopped")
}

// Stop stops the poller
func (t *TelegramBot) Stop() {
	if t.running.Load() {
		t.bot.Stop()
	}
}

// IsRunning reports whether the poller is active
func (t *TelegramBot) IsRunning() bool {
	return t.running.Load()
}

func (t *TelegramBot) wrap(h bot.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		return h(&telegramConversation{ctx: c})
	}
}

func (t *TelegramBot) onError(err error, c tele.Context) {
	fields := []zap.Field{zap.Error(err)}
	if c != nil && c.Chat() != nil {
		fields = append(fields, zap.Int64("chat_id", c.Chat().ID))
	}
	t.logger.Error("Telegram handler failed", fields...)
}

// telegramConversation adapts a telebot context to bot.Conversation
type telegramConversation struct {
	ctx tele.Context
}

func (c *telegramConversation) Text() string {
	return c.ctx.Text()
}

// IsCommand follows Telegram's rule: a bot_command entity at offset 0.
// A leading slash alone does not make a command.
func (c *telegramConversation) IsCommand() bool {
	msg := c.ctx.Message()
	if msg == nil {
		return false
	}
	for _, e := range msg.Entities {
		if e.Type == tele.EntityCommand && e.Offset == 0 {
			return true
		}
	}
	return false
}

func (c *telegramConversation) ChatID() int64 {
	if chat := c.ctx.Chat(); chat != nil {
		return chat.ID
	}
	return 0
}

func (c *telegramConversation) Reply(text string) error {
	return c.ctx.Send(text)
}
