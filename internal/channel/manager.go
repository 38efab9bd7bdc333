package channel

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/appolinair2355/damebot/internal/bus"
	"github.com/appolinair2355/damebot/internal/config"
)

type Manager struct {
	channels  map[string]Channel
	transport Transport
	bus       *bus.MessageBus
	log       *zap.Logger
}

func NewManager(cfg config.TelegramConfig, b *bus.MessageBus, log *zap.Logger) (*Manager, error) {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		channels: make(map[string]Channel),
		bus:      b,
		log:      log,
	}

	if cfg.Enabled {
		ch, err := NewTelegramChannel(cfg, b, log.Named("telegram"))
		if err != nil {
			return nil, fmt.Errorf("init telegram channel: %w", err)
		}
		m.channels[ch.Name()] = ch
		m.transport = ch
		b.SubscribeOutbound(ch.Name(), func(msg bus.OutboundMessage) {
			if err := ch.Send(msg); err != nil {
				log.Error("send failed", zap.String("channel", ch.Name()), zap.Error(err))
			}
		})
	}

	return m, nil
}

// Transport returns the outbound transport for prediction sends/edits,
// or nil when no channel is enabled.
func (m *Manager) Transport() Transport {
	return m.transport
}

func (m *Manager) StartAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(m.channels))

	for name, ch := range m.channels {
		wg.Add(1)
		go func(name string, ch Channel) {
			defer wg.Done()
			m.log.Info("starting channel", zap.String("channel", name))
			if err := ch.Start(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}(name, ch)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

func (m *Manager) StopAll() error {
	for name, ch := range m.channels {
		m.log.Info("stopping channel", zap.String("channel", name))
		if err := ch.Stop(); err != nil {
			m.log.Error("stop failed", zap.String("channel", name), zap.Error(err))
		}
	}
	return nil
}

func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}
