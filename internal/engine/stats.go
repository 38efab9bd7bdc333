package engine

import "fmt"

// Stats aggregates ledger outcomes for the operator surface.
type Stats struct {
	Pending       int
	Failed        int
	WinsByOffset  [4]int
	TotalResolved int
}

// Wins is the total across all offsets.
func (s Stats) Wins() int {
	n := 0
	for _, w := range s.WinsByOffset {
		n += w
	}
	return n
}

// HitRate is wins over resolved, as a percentage. Zero when nothing has
// resolved yet.
func (s Stats) HitRate() float64 {
	if s.TotalResolved == 0 {
		return 0
	}
	return float64(s.Wins()) / float64(s.TotalResolved) * 100
}

// StatsSnapshot derives the aggregate success/failure statistics from the
// retained ledger records.
func (e *Engine) StatsSnapshot() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	var st Stats
	for _, rec := range e.predictions {
		switch rec.Status {
		case StatusPending:
			st.Pending++
		case StatusFailed:
			st.Failed++
			st.TotalResolved++
		default:
			for offset := 0; offset < len(st.WinsByOffset); offset++ {
				if rec.Status == statusCorrect(offset) {
					st.WinsByOffset[offset]++
					st.TotalResolved++
					break
				}
			}
		}
	}
	return st
}

// Summary renders the stats as a short operator message.
func (s Stats) Summary() string {
	return fmt.Sprintf(
		"📊 Bilan prédictions\n"+
			"Réussites: %d (✅0:%d ✅1:%d ✅2:%d ✅3:%d)\n"+
			"Échecs: %d\n"+
			"En attente: %d\n"+
			"Taux de réussite: %.1f%%",
		s.Wins(), s.WinsByOffset[0], s.WinsByOffset[1], s.WinsByOffset[2], s.WinsByOffset[3],
		s.Failed, s.Pending, s.HitRate())
}
