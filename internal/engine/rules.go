package engine

import "github.com/appolinair2355/damebot/internal/parser"

// Confidence labels attached to firing rules. Opaque to verification;
// carried into the rendered message for operator visibility only.
const (
	ConfidenceInter    = "INTER"
	ConfidenceLoneJack = "98%"
	ConfidenceTwoJacks = "57%"
	ConfidencePoints   = "97%"
	ConfidenceAbsence  = "60%"
	ConfidenceCombo    = "70%"
	ConfidenceCompound = "70%"
)

// evalContext carries everything a rule predicate may inspect for one
// message. Built once per evaluation.
type evalContext struct {
	text           string
	msg            parser.Message
	primaryRanks   []string
	secondaryRanks []string
	firstTwo       []string
}

// rule is one step of the cascade: a name for logs, the confidence label
// it fires with, and its predicate.
type rule struct {
	name       string
	confidence string
	match      func(e *Engine, ctx *evalContext) bool
}

// cascade is the strict priority order: the first matching rule wins and
// later rules are not checked. The Q-already-present veto is applied
// separately in evaluate, taking precedence over any match.
var cascade = []rule{
	{
		name:       "inter",
		confidence: ConfidenceInter,
		match: func(e *Engine, ctx *evalContext) bool {
			if !e.interActive || len(e.smartRules) == 0 || len(ctx.firstTwo) != 2 {
				return false
			}
			for _, r := range e.smartRules {
				if len(r.Cards) == 2 && r.Cards[0] == ctx.firstTwo[0] && r.Cards[1] == ctx.firstTwo[1] {
					return true
				}
			}
			return false
		},
	},
	{
		name:       "lone_jack",
		confidence: ConfidenceLoneJack,
		match: func(e *Engine, ctx *evalContext) bool {
			return countRank(ctx.primaryRanks, "J") == 1 &&
				!containsAnyRank(ctx.primaryRanks, "A", "K", "Q")
		},
	},
	{
		name:       "two_jacks",
		confidence: ConfidenceTwoJacks,
		match: func(e *Engine, ctx *evalContext) bool {
			return countRank(ctx.primaryRanks, "J") >= 2
		},
	},
	{
		name:       "high_points",
		confidence: ConfidencePoints,
		match: func(e *Engine, ctx *evalContext) bool {
			return ctx.msg.HasTotalPoints && ctx.msg.TotalPoints > e.opts.PointsThreshold
		},
	},
	{
		name:       "absence_streak",
		confidence: ConfidenceAbsence,
		match: func(e *Engine, ctx *evalContext) bool {
			return e.absenceStreak() >= e.opts.AbsenceThreshold
		},
	},
	{
		name:       "combo_8_9_10",
		confidence: ConfidenceCombo,
		match: func(e *Engine, ctx *evalContext) bool {
			return containsAllRanks(ctx.primaryRanks, "8", "9", "10") ||
				containsAllRanks(ctx.secondaryRanks, "8", "9", "10")
		},
	},
	{
		name:       "compound_fallback",
		confidence: ConfidenceCompound,
		match: func(e *Engine, ctx *evalContext) bool {
			if containsRank(ctx.primaryRanks, "K") && containsRank(ctx.primaryRanks, "J") {
				return true
			}
			if parser.HasStandaloneTag(ctx.text) {
				return true
			}
			// Double weak: neither of this game's groups nor the
			// previous recorded game's cards carry a high rank.
			if containsAnyRank(ctx.primaryRanks, parser.HighRanks...) ||
				containsAnyRank(ctx.secondaryRanks, parser.HighRanks...) {
				return false
			}
			prev, ok := e.lookback(ctx.msg.GameNumber, 1)
			if !ok {
				return false
			}
			for _, token := range prev.Cards {
				switch parser.RankOf(token) {
				case "A", "K", "Q", "J":
					return false
				}
			}
			return true
		},
	},
}

// evaluate walks the cascade for a finalized message with a non-empty
// primary group and returns the firing rule, if any. The "Q already in
// the primary group" veto is unconditional and overrides any match.
// Cooldown and deduplication gating are applied by the caller.
func (e *Engine) evaluate(text string, msg parser.Message) (fired bool, ruleName, confidence string) {
	if !msg.Actionable() || len(msg.Primary) == 0 {
		return false, "", ""
	}

	ctx := &evalContext{
		text:           text,
		msg:            msg,
		primaryRanks:   parser.Ranks(msg.Primary),
		secondaryRanks: parser.Ranks(msg.Secondary),
		firstTwo:       parser.FirstTwo(msg.Primary),
	}

	// Hard veto: the predicted outcome is already on the table.
	if containsRank(ctx.primaryRanks, parser.QueenRank) {
		return false, "", ""
	}

	for _, r := range cascade {
		if r.match(e, ctx) {
			return true, r.name, r.confidence
		}
	}
	return false, "", ""
}

func containsRank(ranks []string, want string) bool {
	for _, r := range ranks {
		if r == want {
			return true
		}
	}
	return false
}

func countRank(ranks []string, want string) int {
	n := 0
	for _, r := range ranks {
		if r == want {
			n++
		}
	}
	return n
}

func containsAnyRank(ranks []string, wants ...string) bool {
	for _, w := range wants {
		if containsRank(ranks, w) {
			return true
		}
	}
	return false
}

func containsAllRanks(ranks []string, wants ...string) bool {
	for _, w := range wants {
		if !containsRank(ranks, w) {
			return false
		}
	}
	return true
}
