package channel

import (
	"context"

	"github.com/appolinair2355/damebot/internal/bus"
)

// Channel is one messaging transport.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(msg bus.OutboundMessage) error
}

// Transport is the outbound surface the prediction flow needs: sends that
// return message identifiers so resolutions can edit them later.
type Transport interface {
	SendText(chatID int64, text string) (int, error)
	SendWithKeyboard(chatID int64, text string, keyboard [][]bus.Button) (int, error)
	EditText(chatID int64, messageID int, text string) error
	AnswerCallback(callbackID string) error
}

// BaseChannel carries the pieces every channel shares.
type BaseChannel struct {
	name string
	bus  *bus.MessageBus
}

func NewBaseChannel(name string, b *bus.MessageBus) BaseChannel {
	return BaseChannel{name: name, bus: b}
}

func (c *BaseChannel) Name() string { return c.name }

func (c *BaseChannel) Bus() *bus.MessageBus { return c.bus }
