package engine

import (
	"strings"
	"testing"
)

func TestStatsSnapshot(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.predictions[100] = &PredictionRecord{TargetGame: 100, Status: StatusPending}
	e.predictions[102] = &PredictionRecord{TargetGame: 102, Status: statusCorrect(0), Stopped: true}
	e.predictions[104] = &PredictionRecord{TargetGame: 104, Status: statusCorrect(2), Stopped: true}
	e.predictions[106] = &PredictionRecord{TargetGame: 106, Status: StatusFailed, Stopped: true}

	st := e.StatsSnapshot()
	if st.Pending != 1 || st.Failed != 1 {
		t.Errorf("pending=%d failed=%d, want 1/1", st.Pending, st.Failed)
	}
	if st.WinsByOffset[0] != 1 || st.WinsByOffset[2] != 1 {
		t.Errorf("wins by offset = %v, want hits at 0 and 2", st.WinsByOffset)
	}
	if st.Wins() != 2 || st.TotalResolved != 3 {
		t.Errorf("wins=%d resolved=%d, want 2/3", st.Wins(), st.TotalResolved)
	}
}

func TestHitRate(t *testing.T) {
	var zero Stats
	if zero.HitRate() != 0 {
		t.Error("hit rate with nothing resolved must be 0")
	}

	s := Stats{WinsByOffset: [4]int{1, 0, 1, 0}, Failed: 2, TotalResolved: 4}
	if got := s.HitRate(); got != 50 {
		t.Errorf("hit rate = %v, want 50", got)
	}
}

func TestSummary(t *testing.T) {
	s := Stats{WinsByOffset: [4]int{2, 1, 0, 0}, Failed: 1, Pending: 1, TotalResolved: 4}
	out := s.Summary()
	for _, want := range []string{"Réussites: 3", "Échecs: 1", "En attente: 1", "75.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary %q missing %q", out, want)
		}
	}
}
