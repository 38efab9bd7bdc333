// Package engine is the prediction core: it owns the sequential history,
// the INTER learner, the rule cascade, the prediction ledger and the
// verifier, all behind a single mutex. Every mutation flows through
// Process or one of the exported operations; persistence is a best-effort
// mirror of the in-memory state.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/appolinair2355/damebot/internal/parser"
	"github.com/appolinair2355/damebot/internal/store"
	"go.uber.org/zap"
)

// Persisted state files, one per entity group.
const (
	filePredictions = "predictions.json"
	fileProcessed   = "processed.json"
	fileCooldown    = "last_prediction.json"
	fileHistory     = "history.json"
	fileInterData   = "inter_data.json"
	fileInterMode   = "inter_mode.json"
	fileSmartRules  = "smart_rules.json"
	fileChannels    = "channels.json"
)

// Defaults for the tunable thresholds. Observed deployments varied on
// several of these, so they are configuration, not constants.
const (
	DefaultCooldown         = 30 * time.Second
	DefaultPointsThreshold  = 40
	DefaultAbsenceThreshold = 3
	DefaultHistoryWindow    = 50
	DefaultVerifyWindow     = 3
)

// Options are the engine thresholds plus the initial channel roles used
// when no persisted role file exists yet.
type Options struct {
	Cooldown         time.Duration
	PointsThreshold  int
	AbsenceThreshold int
	HistoryWindow    int
	VerifyWindow     int

	SourceChannelID     int64
	PredictionChannelID int64
}

func (o *Options) applyDefaults() {
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.PointsThreshold <= 0 {
		o.PointsThreshold = DefaultPointsThreshold
	}
	if o.AbsenceThreshold <= 0 {
		o.AbsenceThreshold = DefaultAbsenceThreshold
	}
	if o.HistoryWindow <= 0 {
		o.HistoryWindow = DefaultHistoryWindow
	}
	if o.VerifyWindow <= 0 || o.VerifyWindow >= len(successGlyphs) {
		o.VerifyWindow = DefaultVerifyWindow
	}
}

// ChannelRoles maps the two channel roles to chat identifiers.
type ChannelRoles struct {
	SourceChannelID     int64 `json:"source_channel_id"`
	PredictionChannelID int64 `json:"prediction_channel_id"`
}

type interModeFile struct {
	Active bool `json:"active"`
}

// Result is the outcome of processing one inbound message: at most one
// resolution to edit and at most one fresh prediction to send.
type Result struct {
	Resolution *Resolution
	Prediction *Prediction
}

// Engine owns all mutable prediction state.
type Engine struct {
	mu    sync.Mutex
	opts  Options
	store *store.Store
	log   *zap.Logger
	now   func() time.Time

	history     map[int]HistoryEntry
	interData   []InterEntry
	interActive bool
	smartRules  []SmartRule
	predictions map[int]*PredictionRecord
	processed   map[string]struct{}
	lastFiredAt time.Time
	roles       ChannelRoles
}

// New loads persisted state (defaulting each group to empty when its file
// is missing or malformed) and returns a ready engine.
func New(opts Options, st *store.Store, log *zap.Logger) *Engine {
	opts.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		opts:        opts,
		store:       st,
		log:         log,
		now:         time.Now,
		history:     make(map[int]HistoryEntry),
		predictions: make(map[int]*PredictionRecord),
		processed:   make(map[string]struct{}),
		roles: ChannelRoles{
			SourceChannelID:     opts.SourceChannelID,
			PredictionChannelID: opts.PredictionChannelID,
		},
	}
	e.load()
	return e
}

// SetClock overrides the time source, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

func (e *Engine) load() {
	e.store.Load(filePredictions, &e.predictions)
	e.store.Load(fileHistory, &e.history)
	e.store.Load(fileInterData, &e.interData)
	e.store.Load(fileSmartRules, &e.smartRules)
	e.store.Load(fileChannels, &e.roles)

	var mode interModeFile
	if e.store.Load(fileInterMode, &mode) {
		e.interActive = mode.Active
	}

	var processed []string
	if e.store.Load(fileProcessed, &processed) {
		for _, id := range processed {
			e.processed[id] = struct{}{}
		}
	}

	var lastMs int64
	if e.store.Load(fileCooldown, &lastMs) && lastMs > 0 {
		e.lastFiredAt = time.UnixMilli(lastMs)
	}

	// An active flag with no derived rules means the process died
	// between collection and recompute; rebuild from the data.
	if e.interActive && len(e.smartRules) == 0 && len(e.interData) > 0 {
		e.recomputeRules()
	}
}

func (e *Engine) save(name string, v any) {
	// Best effort: the store logs and counts faults, in-memory state wins.
	_ = e.store.Save(name, v)
}

func (e *Engine) saveAll() {
	e.save(filePredictions, e.predictions)
	e.save(fileHistory, e.history)
	e.save(fileInterData, e.interData)
	e.save(fileSmartRules, e.smartRules)
	e.save(fileInterMode, interModeFile{Active: e.interActive})
	e.save(fileChannels, e.roles)

	processed := make([]string, 0, len(e.processed))
	for id := range e.processed {
		processed = append(processed, id)
	}
	e.save(fileProcessed, processed)
	e.save(fileCooldown, e.lastFiredAt.UnixMilli())
}

// Flush persists every entity group, best effort.
func (e *Engine) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.saveAll()
}

// Process runs the full per-message sequence under the engine lock:
// parse, record history, collect learner data, verify open predictions,
// then evaluate the rule cascade with cooldown and dedup gating.
func (e *Engine) Process(text string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	msg := parser.Parse(text)
	if !msg.HasGameNumber {
		e.log.Debug("message ignored: no game number")
		return Result{}
	}
	if !msg.Actionable() {
		e.log.Debug("message ignored: not finalized",
			zap.Int("game", msg.GameNumber),
			zap.Bool("pending", msg.Pending))
		return Result{}
	}

	// Record the finalized game, then collect and evict.
	if cards := parser.FirstTwo(msg.Primary); cards != nil {
		e.recordHistory(msg.GameNumber, cards)
	}
	e.collectInter(msg.GameNumber, msg)
	e.evictHistory(msg.GameNumber)

	res := Result{Resolution: e.verify(msg)}

	fired, ruleName, confidence := e.evaluate(text, msg)
	if !fired {
		return res
	}

	// Post-match gating: one prediction per cooldown interval, and never
	// twice for the same message content.
	if !e.lastFiredAt.IsZero() && e.now().Sub(e.lastFiredAt) < e.opts.Cooldown {
		e.log.Debug("prediction suppressed by cooldown", zap.Int("game", msg.GameNumber))
		return res
	}
	fp := Fingerprint(text)
	if _, seen := e.processed[fp]; seen {
		e.log.Debug("prediction suppressed by dedup", zap.Int("game", msg.GameNumber))
		return res
	}

	e.processed[fp] = struct{}{}
	e.lastFiredAt = e.now()
	pred := e.createPrediction(msg.GameNumber, confidence)
	e.saveAll()

	e.log.Info("prediction emitted",
		zap.Int("from_game", msg.GameNumber),
		zap.Int("target_game", pred.TargetGame),
		zap.String("rule", ruleName),
		zap.String("confidence", confidence))

	res.Prediction = &pred
	return res
}

// Fingerprint is the stable dedup identifier for a message: the SHA-256
// digest of its whitespace-normalized text. Reproducible across restarts.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// SetChannelRole assigns a chat to the "source" or "prediction" role and
// persists the assignment.
func (e *Engine) SetChannelRole(role string, chatID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch role {
	case "source":
		e.roles.SourceChannelID = chatID
	case "prediction":
		e.roles.PredictionChannelID = chatID
	default:
		return false
	}
	e.save(fileChannels, e.roles)
	return true
}

// SourceChannel returns the chat currently holding the source role.
// Re-resolved per operation; the role may change at runtime.
func (e *Engine) SourceChannel() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roles.SourceChannelID
}

// PredictionChannel returns the chat currently holding the prediction role.
func (e *Engine) PredictionChannel() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roles.PredictionChannelID
}
