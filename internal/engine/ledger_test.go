package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/appolinair2355/damebot/internal/parser"
)

func TestRenderStatus(t *testing.T) {
	got := renderStatus(746, pendingGlyph, ConfidenceLoneJack)
	want := "🔵746🔵:Valeur Q statut :⏳ (98%)"
	if got != want {
		t.Errorf("renderStatus = %q, want %q", got, want)
	}

	// No confidence, no suffix.
	got = renderStatus(746, failedGlyph, "")
	want = "🔵746🔵:Valeur Q statut :❌"
	if got != want {
		t.Errorf("renderStatus = %q, want %q", got, want)
	}
}

func TestCreatePrediction(t *testing.T) {
	e := newTestEngine(t, Options{})
	pred := e.createPrediction(744, ConfidenceLoneJack)

	if pred.TargetGame != 746 {
		t.Errorf("target = %d, want 746", pred.TargetGame)
	}
	if pred.FromGame != 744 {
		t.Errorf("from = %d, want 744", pred.FromGame)
	}
	if !strings.Contains(pred.Text, "🔵746🔵") || !strings.Contains(pred.Text, pendingGlyph) {
		t.Errorf("text = %q, want target and pending glyph", pred.Text)
	}

	rec := e.predictions[746]
	if rec == nil {
		t.Fatal("no ledger record for target 746")
	}
	if rec.Status != StatusPending || rec.Predicted != parser.QueenRank || rec.Stopped {
		t.Errorf("record = %+v, want pending unstopped queen prediction", rec)
	}
}

func TestVerify_SuccessOffsets(t *testing.T) {
	for offset := 0; offset <= 3; offset++ {
		t.Run(fmt.Sprintf("offset_%d", offset), func(t *testing.T) {
			e := newTestEngine(t, Options{})
			e.createPrediction(744, "98%")

			text := fmt.Sprintf("#N%d. ✅(Q♥️ 5♦️) - (3♣️ 2♥️)", 746+offset)
			res := e.verify(parser.Parse(text))
			if res == nil {
				t.Fatal("expected a resolution")
			}
			if !res.Success || res.Offset != offset || res.TargetGame != 746 {
				t.Errorf("resolution = %+v, want success at offset %d for 746", res, offset)
			}
			if !strings.Contains(res.Text, successGlyphs[offset]) {
				t.Errorf("text = %q, want glyph %s", res.Text, successGlyphs[offset])
			}

			rec := e.predictions[746]
			if rec.Status != statusCorrect(offset) || !rec.Stopped {
				t.Errorf("record = %+v, want terminal correct_offset_%d", rec, offset)
			}

			// A terminal record never resolves twice.
			if again := e.verify(parser.Parse(text)); again != nil {
				t.Errorf("second verify returned %+v, want nil", again)
			}
		})
	}
}

func TestVerify_PendingThenFailed(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.createPrediction(744, "98%")

	// Offsets 0..2 without a queen keep the record open.
	for game := 746; game <= 748; game++ {
		text := fmt.Sprintf("#N%d. ✅(5♥️ 3♦️) - (2♣️ 4♥️)", game)
		if res := e.verify(parser.Parse(text)); res != nil {
			t.Fatalf("game %d: got %+v, want nil while inside the window", game, res)
		}
		if e.predictions[746].Status != StatusPending {
			t.Fatalf("game %d: record left pending state early", game)
		}
	}

	// Offset 3 without a queen closes it as failed.
	res := e.verify(parser.Parse("#N749. ✅(5♥️ 3♦️) - (2♣️ 4♥️)"))
	if res == nil {
		t.Fatal("expected a failure resolution at the window edge")
	}
	if res.Success || res.TargetGame != 746 {
		t.Errorf("resolution = %+v, want failure for 746", res)
	}
	if !strings.Contains(res.Text, failedGlyph) {
		t.Errorf("text = %q, want %s", res.Text, failedGlyph)
	}
	rec := e.predictions[746]
	if rec.Status != StatusFailed || !rec.Stopped {
		t.Errorf("record = %+v, want terminal failed", rec)
	}
}

func TestVerify_EarliestTargetFirst(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.createPrediction(744, "98%") // target 746
	e.createPrediction(745, "57%") // target 747

	res := e.verify(parser.Parse("#N747. ✅(Q♥️ 5♦️) - (3♣️ 2♥️)"))
	if res == nil {
		t.Fatal("expected a resolution")
	}
	if res.TargetGame != 746 || res.Offset != 1 {
		t.Errorf("resolution = %+v, want target 746 at offset 1", res)
	}
	if e.predictions[747].Status != StatusPending {
		t.Error("later target must stay pending, one resolution per message")
	}
}

func TestVerify_FutureTargetSkipped(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.createPrediction(744, "98%") // target 746

	if res := e.verify(parser.Parse("#N745. ✅(Q♥️ 5♦️) - (3♣️ 2♥️)")); res != nil {
		t.Errorf("got %+v, want nil for a not-yet-due target", res)
	}
	if e.predictions[746].Status != StatusPending {
		t.Error("future target must stay pending")
	}
}

func TestAttachMessageID(t *testing.T) {
	e := newTestEngine(t, Options{})
	e.createPrediction(744, "98%")
	e.AttachMessageID(746, 9001)

	if got := e.predictions[746].MessageID; got != 9001 {
		t.Errorf("message id = %d, want 9001", got)
	}

	res := e.verify(parser.Parse("#N746. ✅(Q♥️ 5♦️) - (3♣️ 2♥️)"))
	if res == nil || res.MessageID != 9001 {
		t.Fatalf("resolution = %+v, want message id 9001 carried through", res)
	}

	// Unknown target is a no-op.
	e.AttachMessageID(999, 1)
}
