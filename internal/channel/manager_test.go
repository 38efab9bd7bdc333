package channel

import (
	"testing"

	"github.com/appolinair2355/damebot/internal/bus"
	"github.com/appolinair2355/damebot/internal/config"
)

func TestNewManager_Disabled(t *testing.T) {
	b := bus.NewMessageBus(1)
	m, err := NewManager(config.TelegramConfig{}, b, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Transport() != nil {
		t.Error("disabled config must not produce a transport")
	}
	if len(m.EnabledChannels()) != 0 {
		t.Errorf("channels = %v, want none", m.EnabledChannels())
	}
	if err := m.StopAll(); err != nil {
		t.Errorf("StopAll with no channels: %v", err)
	}
}

func TestNewManager_Enabled(t *testing.T) {
	b := bus.NewMessageBus(1)
	m, err := NewManager(config.TelegramConfig{Enabled: true, Token: "test-token"}, b, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if m.Transport() == nil {
		t.Error("enabled telegram must expose a transport")
	}
	channels := m.EnabledChannels()
	if len(channels) != 1 || channels[0] != "telegram" {
		t.Errorf("channels = %v, want [telegram]", channels)
	}
}

func TestNewManager_EnabledWithoutToken(t *testing.T) {
	b := bus.NewMessageBus(1)
	if _, err := NewManager(config.TelegramConfig{Enabled: true}, b, nil); err == nil {
		t.Error("enabled telegram without a token must fail")
	}
}
