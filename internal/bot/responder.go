// Package bot holds the echo responder's handlers. Event delivery and reply
// transport belong to whichever Dispatcher the handlers are registered on.
package bot

import (
	"go.uber.org/zap"
)

// CommandStart is the command answered with the greeting
const CommandStart = "start"

// Conversation is one inbound message and the means to answer it
type Conversation interface {
	// Text returns the message text
	Text() string

	// IsCommand reports whether the message is a bot command
	IsCommand() bool

	// ChatID identifies the originating chat
	ChatID() int64

	// Reply sends text back to the originating chat
	Reply(text string) error
}

// HandlerFunc handles one inbound message
type HandlerFunc func(c Conversation) error

// Dispatcher registers handlers with a messaging client
type Dispatcher interface {
	// HandleCommand registers h for the named command (without the leading slash)
	HandleCommand(name string, h HandlerFunc)

	// HandleText registers h for text messages
	HandleText(h HandlerFunc)
}

// Responder answers /start with a greeting and echoes other text
type Responder struct {
	greeting   string
	echoPrefix string
	logger     *zap.Logger
}

// NewResponder creates a new responder
func NewResponder(greeting, echoPrefix string, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{
		greeting:   greeting,
		echoPrefix: echoPrefix,
		logger:     logger,
	}
}

// Register installs the responder's two handlers on d
func (r *Responder) Register(d Dispatcher) {
	d.HandleCommand(CommandStart, r.Start)
	d.HandleText(r.Echo)
}

// Start replies with the greeting, whatever payload follows the command
func (r *Responder) Start(c Conversation) error {
	r.logger.Info("Start command", zap.Int64("chat_id", c.ChatID()))
	return c.Reply(r.greeting)
}

// Echo replies with the received text after the echo prefix.
// Commands reaching this handler are not echoed.
func (r *Responder) Echo(c Conversation) error {
	if c.IsCommand() {
		r.logger.Debug("Ignoring unhandled command",
			zap.Int64("chat_id", c.ChatID()),
			zap.String("text", c.Text()))
		return nil
	}
	r.logger.Debug("Echoing message", zap.Int64("chat_id", c.ChatID()))
	return c.Reply(r.echoPrefix + c.Text())
}
