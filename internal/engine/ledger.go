package engine

import (
	"fmt"
	"sort"

	"github.com/appolinair2355/damebot/internal/parser"
	"go.uber.org/zap"
)

// Prediction record statuses. Resolved records are retained and marked
// terminal rather than deleted, so the operator stats stay auditable.
const (
	StatusPending = "pending"
	StatusFailed  = "failed"
)

func statusCorrect(offset int) string {
	return fmt.Sprintf("correct_offset_%d", offset)
}

var successGlyphs = [4]string{"✅0️⃣", "✅1️⃣", "✅2️⃣", "✅3️⃣"}

const (
	pendingGlyph = "⏳"
	failedGlyph  = "❌"
)

// PredictionRecord is one ledger entry, keyed by its target game.
type PredictionRecord struct {
	TargetGame  int    `json:"target_game"`
	Predicted   string `json:"predicted_value"`
	Status      string `json:"status"`
	FromGame    int    `json:"predicted_from"`
	Confidence  string `json:"confidence"`
	MessageText string `json:"message_text"`
	MessageID   int    `json:"message_id,omitempty"`
	Stopped     bool   `json:"verification_stopped"`
}

// Prediction is what the transport must send for a fresh fire.
type Prediction struct {
	TargetGame int
	FromGame   int
	Confidence string
	Text       string
}

// Resolution is what the transport must edit (or send, when no message ID
// was ever attached) for a resolved record.
type Resolution struct {
	TargetGame int
	MessageID  int
	Text       string
	Offset     int
	Success    bool
}

// renderStatus builds the outbound message text for a target game in a
// given state. The confidence suffix is omitted when empty.
func renderStatus(target int, glyph, confidence string) string {
	tag := ""
	if confidence != "" {
		tag = fmt.Sprintf(" (%s)", confidence)
	}
	return fmt.Sprintf("🔵%d🔵:Valeur Q statut :%s%s", target, glyph, tag)
}

// createPrediction inserts a pending record targeting game+2.
func (e *Engine) createPrediction(game int, confidence string) Prediction {
	target := game + 2
	text := renderStatus(target, pendingGlyph, confidence)
	e.predictions[target] = &PredictionRecord{
		TargetGame:  target,
		Predicted:   parser.QueenRank,
		Status:      StatusPending,
		FromGame:    game,
		Confidence:  confidence,
		MessageText: text,
	}
	return Prediction{TargetGame: target, FromGame: game, Confidence: confidence, Text: text}
}

// AttachMessageID stores the transport message identifier on a ledger
// record once the outbound send completed, enabling the later edit.
func (e *Engine) AttachMessageID(target, messageID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.predictions[target]
	if !ok {
		return
	}
	rec.MessageID = messageID
	e.save(filePredictions, e.predictions)
}

// verify matches a finalized message against open ledger records,
// earliest target first, and returns at most one resolution. Records hit
// within offsets 0..VerifyWindow resolve as correct at that offset; a
// miss at or beyond the last offset resolves as failed; earlier misses
// leave the record pending for the next message.
func (e *Engine) verify(msg parser.Message) *Resolution {
	if !msg.Actionable() || len(e.predictions) == 0 {
		return nil
	}

	targets := make([]int, 0, len(e.predictions))
	for t := range e.predictions {
		targets = append(targets, t)
	}
	sort.Ints(targets)

	queenFound := parser.HasRank(msg.Primary, parser.QueenRank)

	for _, target := range targets {
		rec := e.predictions[target]
		if rec.Stopped || rec.Status != StatusPending || rec.Predicted != parser.QueenRank {
			continue
		}

		offset := msg.GameNumber - target
		if offset < 0 {
			continue // not yet due
		}

		if queenFound && offset <= e.opts.VerifyWindow {
			rec.Status = statusCorrect(offset)
			rec.Stopped = true
			rec.MessageText = renderStatus(target, successGlyphs[offset], rec.Confidence)
			e.save(filePredictions, e.predictions)
			e.log.Info("prediction verified",
				zap.Int("target", target),
				zap.Int("offset", offset))
			return &Resolution{
				TargetGame: target,
				MessageID:  rec.MessageID,
				Text:       rec.MessageText,
				Offset:     offset,
				Success:    true,
			}
		}

		if offset >= e.opts.VerifyWindow {
			rec.Status = StatusFailed
			rec.Stopped = true
			rec.MessageText = renderStatus(target, failedGlyph, rec.Confidence)
			e.save(filePredictions, e.predictions)
			e.log.Info("prediction failed",
				zap.Int("target", target),
				zap.Int("offset", offset))
			return &Resolution{
				TargetGame: target,
				MessageID:  rec.MessageID,
				Text:       rec.MessageText,
				Offset:     offset,
				Success:    false,
			}
		}
		// Miss inside the window: stays pending, keep scanning others.
	}
	return nil
}
