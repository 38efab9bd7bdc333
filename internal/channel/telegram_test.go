package channel

import (
	"context"
	"net/http"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/appolinair2355/damebot/internal/bus"
	"github.com/appolinair2355/damebot/internal/config"
)

type fakeBot struct {
	updates  chan tgbotapi.Update
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
	stopped  bool
}

func newFakeBot() *fakeBot {
	return &fakeBot{updates: make(chan tgbotapi.Update, 10)}
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeBot) StopReceivingUpdates() { f.stopped = true }

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "damebot_test"}
}

func newTestChannel(t *testing.T) (*TelegramChannel, *fakeBot, *bus.MessageBus) {
	t.Helper()
	b := bus.NewMessageBus(10)
	ch, err := NewTelegramChannelWithFactory(
		config.TelegramConfig{Token: "test-token"}, b, nil,
		func(string, string, *http.Client) (TelegramBot, error) {
			return newFakeBot(), nil
		})
	if err != nil {
		t.Fatalf("NewTelegramChannelWithFactory: %v", err)
	}
	bot := newFakeBot()
	ch.SetBot(bot)
	return ch, bot, b
}

func TestNewTelegramChannel_RequiresToken(t *testing.T) {
	b := bus.NewMessageBus(1)
	if _, err := NewTelegramChannel(config.TelegramConfig{}, b, nil); err == nil {
		t.Error("empty token must be rejected")
	}
}

func TestHandleUpdate_Command(t *testing.T) {
	ch, _, b := newTestChannel(t)

	ch.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 7,
		Text:      "/setsource -100123",
		Chat:      &tgbotapi.Chat{ID: 42, Type: "private"},
		From:      &tgbotapi.User{ID: 9},
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 10}},
	}})

	event := <-b.Inbound
	if event.Command != "setsource" || event.Args != "-100123" {
		t.Errorf("command = %q args = %q", event.Command, event.Args)
	}
	if !event.IsPrivate || event.ChatID != 42 || event.SenderID != 9 {
		t.Errorf("event = %+v, want private chat 42 from sender 9", event)
	}
}

func TestHandleUpdate_ChannelPost(t *testing.T) {
	ch, _, b := newTestChannel(t)

	ch.handleUpdate(tgbotapi.Update{ChannelPost: &tgbotapi.Message{
		MessageID: 11,
		Text:      "#N744. ✅(J♠️ 5♦️)",
		Chat:      &tgbotapi.Chat{ID: -100555, Type: "channel"},
	}})

	event := <-b.Inbound
	if event.Edited || event.ChatID != -100555 || event.MessageID != 11 {
		t.Errorf("event = %+v, want unedited post in -100555", event)
	}
	if event.IsPrivate || event.Command != "" {
		t.Errorf("event = %+v, want a non-private non-command event", event)
	}
}

func TestHandleUpdate_EditedChannelPost(t *testing.T) {
	ch, _, b := newTestChannel(t)

	ch.handleUpdate(tgbotapi.Update{EditedChannelPost: &tgbotapi.Message{
		MessageID: 12,
		Text:      "#N744. ✅(J♠️ 5♦️)",
		Chat:      &tgbotapi.Chat{ID: -100555, Type: "channel"},
	}})

	if event := <-b.Inbound; !event.Edited {
		t.Error("edited channel post must carry the edited flag")
	}
}

func TestHandleUpdate_Callback(t *testing.T) {
	ch, _, b := newTestChannel(t)

	ch.handleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    "inter_apply",
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: 42}},
	}})

	event := <-b.Inbound
	if event.Callback == nil {
		t.Fatal("expected a callback event")
	}
	if event.Callback.ID != "cb1" || event.Callback.Data != "inter_apply" {
		t.Errorf("callback = %+v", event.Callback)
	}
	if event.Callback.ChatID != 42 || event.Callback.MessageID != 5 {
		t.Errorf("callback origin = %+v, want chat 42 message 5", event.Callback)
	}
}

func TestHandleUpdate_EmptyTextIgnored(t *testing.T) {
	ch, _, b := newTestChannel(t)

	ch.handleUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 42, Type: "private"},
	}})

	select {
	case event := <-b.Inbound:
		t.Errorf("unexpected event %+v for an empty message", event)
	default:
	}
}

func TestSendText(t *testing.T) {
	ch, bot, _ := newTestChannel(t)

	id, err := ch.SendText(42, "hello")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if id != 1 {
		t.Errorf("message id = %d, want 1", id)
	}

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", bot.sent[0])
	}
	if msg.ChatID != 42 || msg.Text != "hello" {
		t.Errorf("sent %+v", msg)
	}
}

func TestSendWithKeyboard(t *testing.T) {
	ch, bot, _ := newTestChannel(t)

	keyboard := [][]bus.Button{
		{{Text: "Appliquer", Data: "inter_apply"}},
		{{Text: "Défaut", Data: "inter_default"}},
	}
	if _, err := ch.SendWithKeyboard(42, "choisir", keyboard); err != nil {
		t.Fatalf("SendWithKeyboard: %v", err)
	}

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", bot.sent[0])
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("markup %T, want InlineKeyboardMarkup", msg.ReplyMarkup)
	}
	if len(markup.InlineKeyboard) != 2 {
		t.Fatalf("rows = %d, want 2", len(markup.InlineKeyboard))
	}
	btn := markup.InlineKeyboard[0][0]
	if btn.Text != "Appliquer" || btn.CallbackData == nil || *btn.CallbackData != "inter_apply" {
		t.Errorf("button = %+v", btn)
	}
}

func TestEditText(t *testing.T) {
	ch, bot, _ := newTestChannel(t)

	if err := ch.EditText(42, 7, "updated"); err != nil {
		t.Fatalf("EditText: %v", err)
	}
	edit, ok := bot.sent[0].(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("sent %T, want EditMessageTextConfig", bot.sent[0])
	}
	if edit.ChatID != 42 || edit.MessageID != 7 || edit.Text != "updated" {
		t.Errorf("edit = %+v", edit)
	}
}

func TestAnswerCallback(t *testing.T) {
	ch, bot, _ := newTestChannel(t)

	if err := ch.AnswerCallback("cb1"); err != nil {
		t.Fatalf("AnswerCallback: %v", err)
	}
	cb, ok := bot.requests[0].(tgbotapi.CallbackConfig)
	if !ok {
		t.Fatalf("request %T, want CallbackConfig", bot.requests[0])
	}
	if cb.CallbackQueryID != "cb1" {
		t.Errorf("callback id = %q, want cb1", cb.CallbackQueryID)
	}
}

func TestSend_PicksKeyboardPath(t *testing.T) {
	ch, bot, _ := newTestChannel(t)

	if err := ch.Send(bus.OutboundMessage{ChatID: 1, Text: "plain"}); err != nil {
		t.Fatal(err)
	}
	if err := ch.Send(bus.OutboundMessage{
		ChatID:   1,
		Text:     "with buttons",
		Keyboard: [][]bus.Button{{{Text: "ok", Data: "ok"}}},
	}); err != nil {
		t.Fatal(err)
	}

	plain := bot.sent[0].(tgbotapi.MessageConfig)
	if plain.ReplyMarkup != nil {
		t.Error("plain send must not carry markup")
	}
	withKb := bot.sent[1].(tgbotapi.MessageConfig)
	if withKb.ReplyMarkup == nil {
		t.Error("keyboard send must carry markup")
	}
}

func TestStartStop(t *testing.T) {
	b := bus.NewMessageBus(10)
	bot := newFakeBot()
	ch, err := NewTelegramChannelWithFactory(
		config.TelegramConfig{Token: "test-token"}, b, nil,
		func(string, string, *http.Client) (TelegramBot, error) {
			return bot, nil
		})
	if err != nil {
		t.Fatal(err)
	}

	if err := ch.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	bot.updates <- tgbotapi.Update{ChannelPost: &tgbotapi.Message{
		MessageID: 1,
		Text:      "#N744. ✅(J♠️ 5♦️)",
		Chat:      &tgbotapi.Chat{ID: -100555, Type: "channel"},
	}}

	select {
	case event := <-b.Inbound:
		if event.Text == "" {
			t.Error("expected the posted text")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the inbound event")
	}

	if err := ch.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !bot.stopped {
		t.Error("Stop must stop the update stream")
	}
}
