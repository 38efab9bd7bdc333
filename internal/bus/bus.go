// Package bus carries inbound transport events and outbound replies
// between the channel layer and the gateway.
package bus

import (
	"context"
	"sync"
	"time"
)

// CallbackEvent is an inline-keyboard button press.
type CallbackEvent struct {
	ID        string
	Data      string
	ChatID    int64
	MessageID int
}

// InboundMessage is one transport event. The engine only needs Text and
// the edited flag; commands and callbacks are routed to the operator
// surface instead.
type InboundMessage struct {
	Channel   string
	ChatID    int64
	SenderID  int64
	MessageID int
	Text      string
	Edited    bool
	IsPrivate bool
	Command   string // command name without the slash, "" otherwise
	Args      string
	Callback  *CallbackEvent
	Timestamp time.Time
}

// Button is one inline-keyboard button; channels translate it to their
// transport's native markup.
type Button struct {
	Text string
	Data string
}

// OutboundMessage is a plain reply on a channel. Prediction sends and
// edits go through the transport directly because they need message IDs;
// this path is for command replies.
type OutboundMessage struct {
	Channel  string
	ChatID   int64
	Text     string
	Keyboard [][]Button
}

// MessageBus fans inbound events into the gateway's processing loop and
// dispatches outbound replies to their channel's subscriber.
type MessageBus struct {
	Inbound  chan InboundMessage
	Outbound chan OutboundMessage

	mu   sync.RWMutex
	subs map[string]func(OutboundMessage)
}

func NewMessageBus(bufSize int) *MessageBus {
	return &MessageBus{
		Inbound:  make(chan InboundMessage, bufSize),
		Outbound: make(chan OutboundMessage, bufSize),
		subs:     make(map[string]func(OutboundMessage)),
	}
}

// SubscribeOutbound registers the handler invoked for outbound messages
// addressed to the named channel.
func (b *MessageBus) SubscribeOutbound(channel string, fn func(OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[channel] = fn
}

// DispatchOutbound delivers outbound messages to their subscriber until
// the context is done.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case msg := <-b.Outbound:
			b.mu.RLock()
			fn := b.subs[msg.Channel]
			b.mu.RUnlock()
			if fn != nil {
				fn(msg)
			}
		case <-ctx.Done():
			return
		}
	}
}
