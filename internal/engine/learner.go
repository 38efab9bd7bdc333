package engine

import (
	"sort"
	"time"

	"github.com/appolinair2355/damebot/internal/parser"
	"go.uber.org/zap"
)

// InterEntry is one confirmed trigger→outcome association: a Q appeared
// in the primary group at ResultGame and TriggerGame (= ResultGame-2) had
// the recorded Trigger card pair.
type InterEntry struct {
	ResultGame  int       `json:"result_game"`
	Trigger     []string  `json:"trigger"`
	TriggerGame int       `json:"trigger_game"`
	ObservedAt  time.Time `json:"observed_at"`
}

// SmartRule is a learned trigger pair with its occurrence count. Rules
// are derived wholesale by recomputeRules, never authored directly.
type SmartRule struct {
	Cards []string `json:"cards"`
	Count int      `json:"count"`
}

// collectInter runs on every finalized, parseable message, independent of
// whether a prediction is later made. When the primary group contains a Q
// it looks back two games; the association is recorded only if that
// trigger game exists in history (no retroactive backfill) and no entry
// exists yet for this resolved game.
func (e *Engine) collectInter(game int, msg parser.Message) {
	if !parser.HasRank(msg.Primary, parser.QueenRank) {
		return
	}
	trigger, ok := e.lookback(game, 2)
	if !ok {
		return
	}
	for _, entry := range e.interData {
		if entry.ResultGame == game {
			return
		}
	}
	e.interData = append(e.interData, InterEntry{
		ResultGame:  game,
		Trigger:     trigger.Cards,
		TriggerGame: game - 2,
		ObservedAt:  e.now(),
	})
	e.log.Info("inter association collected",
		zap.Int("result_game", game),
		zap.Strings("trigger", trigger.Cards))
	e.save(fileInterData, e.interData)
}

// recomputeRules rebuilds the smart rule list from the collected
// associations: the 3 most frequent trigger pairs, ties broken by
// first-seen order. The learner activates iff the result is non-empty.
func (e *Engine) recomputeRules() {
	counts := make(map[string]int)
	order := make([]string, 0)
	pairs := make(map[string][]string)
	for _, entry := range e.interData {
		if len(entry.Trigger) != 2 {
			continue
		}
		key := entry.Trigger[0] + "|" + entry.Trigger[1]
		if _, seen := counts[key]; !seen {
			order = append(order, key)
			pairs[key] = entry.Trigger
		}
		counts[key]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	rules := make([]SmartRule, 0, 3)
	for _, key := range order {
		if len(rules) == 3 {
			break
		}
		rules = append(rules, SmartRule{Cards: pairs[key], Count: counts[key]})
	}

	e.smartRules = rules
	e.interActive = len(rules) > 0
	e.save(fileInterMode, interModeFile{Active: e.interActive})
	e.save(fileSmartRules, e.smartRules)
}

// SetInterActive enables or disables the learner. Enabling recomputes the
// rule list from the collected data; disabling clears the rules but keeps
// the collected entries for a future recompute.
func (e *Engine) SetInterActive(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if active {
		e.recomputeRules()
		e.log.Info("inter mode recomputed",
			zap.Bool("active", e.interActive),
			zap.Int("rules", len(e.smartRules)))
		return
	}
	e.interActive = false
	e.smartRules = nil
	e.save(fileInterMode, interModeFile{Active: false})
	e.save(fileSmartRules, []SmartRule{})
	e.log.Info("inter mode deactivated")
}

// InterStatus is the operator-facing view of the learner.
type InterStatus struct {
	Active  bool
	Entries int
	Rules   []SmartRule
	Recent  []InterEntry // most recent collected entries, oldest first
}

// InterStatusSnapshot returns the learner state for display, with up to
// the last 10 collected entries.
func (e *Engine) InterStatusSnapshot() InterStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	recent := e.interData
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	st := InterStatus{
		Active:  e.interActive,
		Entries: len(e.interData),
		Rules:   append([]SmartRule(nil), e.smartRules...),
		Recent:  append([]InterEntry(nil), recent...),
	}
	return st
}
