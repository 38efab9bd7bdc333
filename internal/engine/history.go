package engine

import (
	"sort"
	"time"

	"github.com/appolinair2355/damebot/internal/parser"
)

// HistoryEntry is one recorded game: the first two cards of its primary
// group, as rank+suit token strings.
type HistoryEntry struct {
	Cards      []string  `json:"cards"`
	ObservedAt time.Time `json:"observed_at"`
}

// recordHistory upserts the entry for game. Edited messages for the same
// game overwrite the previous cards. Only callers that already checked
// the finalized flag reach this.
func (e *Engine) recordHistory(game int, cards []string) {
	if len(cards) != 2 {
		return
	}
	e.history[game] = HistoryEntry{Cards: cards, ObservedAt: e.now()}
}

// lookback returns the entry recorded at game-k.
func (e *Engine) lookback(game, k int) (HistoryEntry, bool) {
	entry, ok := e.history[game-k]
	return entry, ok
}

// evictHistory drops entries older than current-window. Called after
// every record; eviction is opportunistic, not guaranteed immediate.
func (e *Engine) evictHistory(current int) {
	limit := current - e.opts.HistoryWindow
	for game := range e.history {
		if game < limit {
			delete(e.history, game)
		}
	}
}

// absenceStreak counts, scanning recorded games backward from the most
// recent, how many consecutive entries have no Q among their recorded
// cards. The scan stops at the first entry that does contain a Q or when
// the history runs out.
func (e *Engine) absenceStreak() int {
	games := make([]int, 0, len(e.history))
	for game := range e.history {
		games = append(games, game)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(games)))

	streak := 0
	for _, game := range games {
		if hasQueenToken(e.history[game].Cards) {
			break
		}
		streak++
	}
	return streak
}

func hasQueenToken(tokens []string) bool {
	for _, t := range tokens {
		if parser.RankOf(t) == parser.QueenRank {
			return true
		}
	}
	return false
}
