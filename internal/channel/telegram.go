package channel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/appolinair2355/damebot/internal/bus"
	"github.com/appolinair2355/damebot/internal/config"
)

const telegramChannelName = "telegram"

// TelegramBot interface for mocking the telegram bot API.
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetSelf() tgbotapi.User
}

// tgBotWrapper wraps tgbotapi.BotAPI to implement TelegramBot.
type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return w.bot.GetUpdatesChan(config)
}

func (w *tgBotWrapper) StopReceivingUpdates() {
	w.bot.StopReceivingUpdates()
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return w.bot.Request(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

// BotFactory creates TelegramBot instances (allows mocking).
type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramBot, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

type TelegramChannel struct {
	BaseChannel
	token      string
	proxy      string
	bot        TelegramBot
	log        *zap.Logger
	cancel     context.CancelFunc
	botFactory BotFactory
}

func NewTelegramChannel(cfg config.TelegramConfig, b *bus.MessageBus, log *zap.Logger) (*TelegramChannel, error) {
	return NewTelegramChannelWithFactory(cfg, b, log, defaultBotFactory)
}

// NewTelegramChannelWithFactory creates a TelegramChannel with a custom
// bot factory, for testing.
func NewTelegramChannelWithFactory(cfg config.TelegramConfig, b *bus.MessageBus, log *zap.Logger, factory BotFactory) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TelegramChannel{
		BaseChannel: NewBaseChannel(telegramChannelName, b),
		token:       cfg.Token,
		proxy:       cfg.Proxy,
		log:         log,
		botFactory:  factory,
	}, nil
}

func (t *TelegramChannel) initBot() error {
	client := http.DefaultClient
	if t.proxy != "" {
		proxyURL, err := url.Parse(t.proxy)
		if err != nil {
			return fmt.Errorf("parse proxy url: %w", err)
		}
		client = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	bot, err := t.botFactory(t.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = bot
	t.log.Info("telegram authorized", zap.String("username", bot.GetSelf().UserName))
	return nil
}

func (t *TelegramChannel) Start(ctx context.Context) error {
	if err := t.initBot(); err != nil {
		return err
	}

	ctx, t.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	// Channel posts carry the game results; edits matter because source
	// messages flip from pending to finalized in place.
	u.AllowedUpdates = []string{"message", "edited_message", "channel_post", "edited_channel_post", "callback_query"}
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update := <-updates:
				t.handleUpdate(update)
			case <-ctx.Done():
				return
			}
		}
	}()

	t.log.Info("telegram polling started")
	return nil
}

func (t *TelegramChannel) handleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		cb := update.CallbackQuery
		event := bus.InboundMessage{
			Channel:   telegramChannelName,
			Timestamp: time.Now(),
			Callback: &bus.CallbackEvent{
				ID:   cb.ID,
				Data: cb.Data,
			},
		}
		if cb.Message != nil {
			event.Callback.ChatID = cb.Message.Chat.ID
			event.Callback.MessageID = cb.Message.MessageID
		}
		t.Bus().Inbound <- event
		return
	}

	msg := update.Message
	edited := false
	switch {
	case update.Message != nil:
	case update.EditedMessage != nil:
		msg, edited = update.EditedMessage, true
	case update.ChannelPost != nil:
		msg = update.ChannelPost
	case update.EditedChannelPost != nil:
		msg, edited = update.EditedChannelPost, true
	default:
		return
	}

	if msg.Text == "" {
		return
	}

	event := bus.InboundMessage{
		Channel:   telegramChannelName,
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
		Edited:    edited,
		IsPrivate: msg.Chat.IsPrivate(),
		Timestamp: time.Unix(int64(msg.Date), 0),
	}
	if msg.From != nil {
		event.SenderID = msg.From.ID
	}
	if msg.IsCommand() {
		event.Command = msg.Command()
		event.Args = msg.CommandArguments()
	}
	t.Bus().Inbound <- event
}

func (t *TelegramChannel) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	t.log.Info("telegram stopped")
	return nil
}

// SetBot sets the bot, for testing.
func (t *TelegramChannel) SetBot(bot TelegramBot) {
	t.bot = bot
}

// Send delivers a bus reply (command responses, operator summaries).
func (t *TelegramChannel) Send(msg bus.OutboundMessage) error {
	var err error
	if len(msg.Keyboard) > 0 {
		_, err = t.SendWithKeyboard(msg.ChatID, msg.Text, msg.Keyboard)
	} else {
		_, err = t.SendText(msg.ChatID, msg.Text)
	}
	return err
}

// SendText sends a plain message and returns its transport message ID.
func (t *TelegramChannel) SendText(chatID int64, text string) (int, error) {
	if t.bot == nil {
		return 0, fmt.Errorf("telegram bot not initialized")
	}
	sent, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, fmt.Errorf("send telegram message: %w", err)
	}
	return sent.MessageID, nil
}

// SendWithKeyboard sends a message with an inline keyboard.
func (t *TelegramChannel) SendWithKeyboard(chatID int64, text string, keyboard [][]bus.Button) (int, error) {
	if t.bot == nil {
		return 0, fmt.Errorf("telegram bot not initialized")
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send telegram message with keyboard: %w", err)
	}
	return sent.MessageID, nil
}

// EditText rewrites a previously sent message in place.
func (t *TelegramChannel) EditText(chatID int64, messageID int, text string) error {
	if t.bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}
	if _, err := t.bot.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("edit telegram message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges an inline-keyboard button press.
func (t *TelegramChannel) AnswerCallback(callbackID string) error {
	if t.bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}
	if _, err := t.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}
	return nil
}
