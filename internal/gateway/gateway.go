// Package gateway wires the transport, the prediction engine and the
// operator surface together. A single processing goroutine consumes the
// inbound bus and serializes every engine call, which is the only
// mutation path for prediction state.
package gateway

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/appolinair2355/damebot/internal/bus"
	"github.com/appolinair2355/damebot/internal/channel"
	"github.com/appolinair2355/damebot/internal/config"
	"github.com/appolinair2355/damebot/internal/engine"
	"github.com/appolinair2355/damebot/internal/metrics"
	"github.com/appolinair2355/damebot/internal/parser"
	"github.com/appolinair2355/damebot/internal/store"
)

// Options for creating a Gateway.
type Options struct {
	Transport  channel.Transport // overrides the channel manager's, for testing
	SignalChan chan os.Signal    // for testing signal handling
}

type Gateway struct {
	cfg        *config.Config
	log        *zap.Logger
	bus        *bus.MessageBus
	engine     *engine.Engine
	channels   *channel.Manager
	transport  channel.Transport
	metrics    *metrics.Manager
	cron       *cron.Cron
	signalChan chan os.Signal
}

// New creates a Gateway with default options.
func New(cfg *config.Config, log *zap.Logger) (*Gateway, error) {
	return NewWithOptions(cfg, log, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing.
func NewWithOptions(cfg *config.Config, log *zap.Logger, opts Options) (*Gateway, error) {
	if log == nil {
		log = zap.NewNop()
	}
	g := &Gateway{
		cfg:        cfg,
		log:        log,
		metrics:    metrics.New(),
		signalChan: opts.SignalChan,
	}

	g.bus = bus.NewMessageBus(config.DefaultBufSize)

	st, err := store.New(cfg.DataDir, log.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	st.OnFault = g.metrics.PersistenceFaults.Inc

	g.engine = engine.New(engine.Options{
		Cooldown:            time.Duration(cfg.Engine.CooldownSec) * time.Second,
		PointsThreshold:     cfg.Engine.PointsThreshold,
		AbsenceThreshold:    cfg.Engine.AbsenceThreshold,
		HistoryWindow:       cfg.Engine.HistoryWindow,
		VerifyWindow:        cfg.Engine.VerifyWindow,
		SourceChannelID:     cfg.Engine.SourceChannelID,
		PredictionChannelID: cfg.Engine.PredictionChannelID,
	}, st, log.Named("engine"))

	chMgr, err := channel.NewManager(cfg.Telegram, g.bus, log.Named("channel"))
	if err != nil {
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr
	g.transport = chMgr.Transport()
	if opts.Transport != nil {
		g.transport = opts.Transport
	}

	g.cron = cron.New()
	return g, nil
}

// Engine exposes the prediction engine (status CLI, tests).
func (g *Gateway) Engine() *engine.Engine { return g.engine }

// Bus exposes the message bus, for tests.
func (g *Gateway) Bus() *bus.MessageBus { return g.bus }

func (g *Gateway) scheduleJobs() error {
	// Best-effort mirror of in-memory state; individual operations
	// already persist, this catches anything missed.
	if _, err := g.cron.AddFunc("@every 1m", g.engine.Flush); err != nil {
		return fmt.Errorf("schedule flush job: %w", err)
	}
	if g.cfg.Telegram.AdminChatID != 0 {
		if _, err := g.cron.AddFunc("0 9 * * *", g.sendDailySummary); err != nil {
			return fmt.Errorf("schedule summary job: %w", err)
		}
	}
	return nil
}

func (g *Gateway) sendDailySummary() {
	g.bus.Outbound <- bus.OutboundMessage{
		Channel: "telegram",
		ChatID:  g.cfg.Telegram.AdminChatID,
		Text:    g.engine.StatsSnapshot().Summary(),
	}
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	g.log.Info("channels started", zap.Strings("channels", g.channels.EnabledChannels()))

	if err := g.scheduleJobs(); err != nil {
		return err
	}
	g.cron.Start()

	go g.serveHealth(ctx)
	go g.processLoop(ctx)

	g.log.Info("gateway running",
		zap.String("host", g.cfg.Gateway.Host),
		zap.Int("port", g.cfg.Gateway.Port))

	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	g.log.Info("shutting down")
	return g.Shutdown()
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			g.handleInbound(msg)
		case <-ctx.Done():
			return
		}
	}
}

// handleInbound processes one transport event to completion. A panic
// while handling a single event is logged and dropped; the loop goes on
// with the next event.
func (g *Gateway) handleInbound(msg bus.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error("panic while handling inbound event", zap.Any("panic", r))
		}
	}()

	switch {
	case msg.Callback != nil:
		g.handleCallback(msg.Callback)
	case msg.Command != "":
		if msg.IsPrivate || (g.cfg.Telegram.AdminChatID != 0 && msg.ChatID == g.cfg.Telegram.AdminChatID) {
			g.handleCommand(msg)
		}
	case msg.ChatID == g.engine.SourceChannel():
		g.handleSourceMessage(msg)
	}
}

// handleSourceMessage runs the engine over a source-channel message and
// performs the resulting transport calls. Send precedes edit only in the
// sense that each record's own send happened on an earlier message; for
// one inbound message the resolution edit is issued before the fresh
// prediction send.
func (g *Gateway) handleSourceMessage(msg bus.InboundMessage) {
	g.metrics.MessagesSeen.Inc()
	if _, ok := parser.GameNumber(msg.Text); !ok {
		g.metrics.ParseMisses.Inc()
	}

	result := g.engine.Process(msg.Text)
	if result.Resolution == nil && result.Prediction == nil {
		return
	}
	if g.transport == nil {
		g.log.Error("no transport available for outbound call")
		return
	}

	predictionChat := g.engine.PredictionChannel()

	if res := result.Resolution; res != nil {
		outcome := "failed"
		if res.Success {
			outcome = "success"
		}
		g.metrics.Resolutions.WithLabelValues(outcome).Inc()

		if res.MessageID > 0 {
			if err := g.transport.EditText(predictionChat, res.MessageID, res.Text); err != nil {
				g.metrics.TransportFaults.Inc()
				g.log.Error("edit resolution failed",
					zap.Int("target", res.TargetGame), zap.Error(err))
			}
		} else {
			// The original send never completed; fall back to a fresh
			// message so the outcome is still visible.
			if _, err := g.transport.SendText(predictionChat, res.Text); err != nil {
				g.metrics.TransportFaults.Inc()
				g.log.Error("send resolution fallback failed",
					zap.Int("target", res.TargetGame), zap.Error(err))
			}
		}
	}

	if pred := result.Prediction; pred != nil {
		g.metrics.PredictionsEmitted.Inc()
		messageID, err := g.transport.SendText(predictionChat, pred.Text)
		if err != nil {
			g.metrics.TransportFaults.Inc()
			g.log.Error("send prediction failed",
				zap.Int("target", pred.TargetGame), zap.Error(err))
			return
		}
		g.engine.AttachMessageID(pred.TargetGame, messageID)
	}
}

func (g *Gateway) Shutdown() error {
	if g.cron != nil {
		g.cron.Stop()
	}
	g.engine.Flush()
	_ = g.channels.StopAll()
	g.log.Info("shutdown complete")
	return nil
}
