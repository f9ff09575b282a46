package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"github.com/yourusername/echo-fetch-go/internal/bot"
	"github.com/yourusername/echo-fetch-go/internal/domain"
)

func newOfflineBot(t *testing.T) *TelegramBot {
	t.Helper()
	config := domain.DefaultConfig().Bot
	tb, err := NewTelegramBot(&config, nil, true)
	require.NoError(t, err)
	return tb
}

func textMessage(text string, command bool) *tele.Message {
	msg := &tele.Message{
		Text: text,
		Chat: &tele.Chat{ID: 1001},
	}
	if command {
		length := len(text)
		for i, r := range text {
			if r == ' ' {
				length = i
				break
			}
		}
		msg.Entities = tele.Entities{{Type: tele.EntityCommand, Offset: 0, Length: length}}
	}
	return msg
}

func TestNewTelegramBot_RequiresToken(t *testing.T) {
	config := domain.DefaultConfig().Bot
	_, err := NewTelegramBot(&config, nil, false)
	assert.ErrorIs(t, err, domain.ErrMissingToken)
}

func TestTelegramConversation(t *testing.T) {
	tb := newOfflineBot(t)

	tests := []struct {
		name      string
		msg       *tele.Message
		isCommand bool
	}{
		{name: "plain text", msg: textMessage("hello", false), isCommand: false},
		{name: "command entity", msg: textMessage("/start now", true), isCommand: true},
		{name: "slash without entity", msg: textMessage("/help", false), isCommand: false},
		{name: "slash and space", msg: textMessage("/ hello there", false), isCommand: false},
		{
			name: "command entity not at start",
			msg: &tele.Message{
				Text:     "see /start",
				Chat:     &tele.Chat{ID: 1001},
				Entities: tele.Entities{{Type: tele.EntityCommand, Offset: 4, Length: 6}},
			},
			isCommand: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &telegramConversation{ctx: tb.bot.NewContext(tele.Update{Message: tt.msg})}
			assert.Equal(t, tt.msg.Text, conv.Text())
			assert.Equal(t, tt.isCommand, conv.IsCommand())
			assert.Equal(t, int64(1001), conv.ChatID())
		})
	}
}

func TestTelegramBot_RoutesUpdates(t *testing.T) {
	tb := newOfflineBot(t)

	var commands, texts []string
	tb.HandleCommand(bot.CommandStart, func(c bot.Conversation) error {
		commands = append(commands, c.Text())
		return nil
	})
	tb.HandleText(func(c bot.Conversation) error {
		texts = append(texts, c.Text())
		return nil
	})

	tb.bot.ProcessUpdate(tele.Update{Message: textMessage("/start payload", true)})
	tb.bot.ProcessUpdate(tele.Update{Message: textMessage("just words", false)})

	assert.Equal(t, []string{"/start payload"}, commands)
	assert.Equal(t, []string{"just words"}, texts)
}

func TestTelegramBot_UntaggedSlashTextIsEchoed(t *testing.T) {
	tb := newOfflineBot(t)

	var echoed, ignored int
	tb.HandleText(func(c bot.Conversation) error {
		if c.IsCommand() {
			ignored++
		} else {
			echoed++
		}
		return nil
	})

	tb.bot.ProcessUpdate(tele.Update{Message: textMessage("/ hello there", false)})

	assert.Equal(t, 1, echoed)
	assert.Equal(t, 0, ignored)
}

func TestTelegramBot_NotRunningUntilStarted(t *testing.T) {
	tb := newOfflineBot(t)
	assert.False(t, tb.IsRunning())
	tb.Stop()
	assert.False(t, tb.IsRunning())
}
