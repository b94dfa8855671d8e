package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/contracts"
)

func winnerResult(name, platform string, class contracts.InstrumentClass, score float64) *contracts.RouteResult {
	w := contracts.ScoredCandidate{
		Candidate: contracts.Candidate{Name: name, Platform: platform, Class: class, ThesisBeta: 0.8},
		Rank:      1,
		Score:     score,
	}
	return &contracts.RouteResult{
		RunID:     "run-" + name,
		ThesisID:  "t1",
		Winner:    &w,
		Ranked:    []contracts.ScoredCandidate{w},
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  200 * time.Millisecond,
	}
}

func TestNewRunRecord(t *testing.T) {
	thesis := contracts.Thesis{ID: "t1", Claim: "Fed cuts in March", Direction: contracts.DirectionLong}

	t.Run("winner", func(t *testing.T) {
		res := winnerResult("KXFED YES", "kalshi", contracts.ClassBinary, 3.2)
		res.Override = &contracts.Override{HomeName: "TLT", ChallengerName: "KXFED YES", Replaced: true}
		res.Dropped = []contracts.DroppedCandidate{{Reason: "not_found"}}

		rec := NewRunRecord(thesis, res, "abc123")
		assert.Equal(t, "run-KXFED YES", rec.RunID)
		assert.Equal(t, "t1", rec.ThesisID)
		assert.Equal(t, "Fed cuts in March", rec.Claim)
		assert.Equal(t, "KXFED YES", rec.Winner)
		assert.Equal(t, "kalshi", rec.WinnerPlatform)
		assert.Equal(t, contracts.ClassBinary, rec.WinnerClass)
		assert.InDelta(t, 3.2, rec.WinnerScore, 1e-9)
		assert.True(t, rec.Override)
		assert.Equal(t, 1, rec.Dropped)
		assert.Equal(t, "abc123", rec.ConfigHash)
	})

	t.Run("no winner", func(t *testing.T) {
		res := &contracts.RouteResult{RunID: "r2", Reason: contracts.ReasonAllDisqualified}
		rec := NewRunRecord(thesis, res, "")
		assert.Empty(t, rec.Winner)
		assert.Equal(t, contracts.ReasonAllDisqualified, rec.Reason)
		assert.False(t, rec.Override)
	})

	t.Run("override kept home", func(t *testing.T) {
		res := winnerResult("TLT", "robinhood", contracts.ClassSecurities, 1)
		res.Override = &contracts.Override{Replaced: false}
		assert.False(t, NewRunRecord(thesis, res, "").Override)
	})
}

func TestSummarize(t *testing.T) {
	thesis := contracts.Thesis{ID: "t1", Claim: "c"}

	a := NewRunRecord(thesis, winnerResult("A", "kalshi", contracts.ClassBinary, 2), "")
	b := NewRunRecord(thesis, winnerResult("B", "kalshi", contracts.ClassBinary, 4), "")
	c := NewRunRecord(thesis, winnerResult("C", "hyperliquid", contracts.ClassPerpetual, 3), "")
	c.Override = true
	c.WeakConnection = true
	c.Rediscovered = true
	c.Dropped = 3
	d := NewRunRecord(thesis, &contracts.RouteResult{Reason: contracts.ReasonNoCandidates, Duration: 600 * time.Millisecond}, "")

	s := Summarize([]*RunRecord{a, b, c, d, nil})

	require.Equal(t, 4, s.Runs)
	assert.Equal(t, 3, s.WithWinner)
	assert.Equal(t, 1, s.NoTrade)
	assert.InDelta(t, 3.0, s.AvgWinnerScore, 1e-9)
	assert.InDelta(t, 0.25, s.OverrideRate, 1e-9)
	assert.InDelta(t, 0.25, s.WeakRate, 1e-9)
	assert.InDelta(t, 0.25, s.RediscoveredRate, 1e-9)
	assert.InDelta(t, 0.75, s.AvgDropped, 1e-9)
	assert.Equal(t, 300*time.Millisecond, s.AvgDuration)
	assert.Equal(t, map[string]int{"kalshi": 2, "hyperliquid": 1}, s.WinsByPlatform)
	assert.Equal(t, 2, s.WinsByClass["binary"])
	assert.Equal(t, 1, s.NoTradeReasons[contracts.ReasonNoCandidates])
	assert.Equal(t, "kalshi", s.TopPlatform)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Runs)
	assert.Zero(t, s.AvgDuration)
	assert.Empty(t, s.TopPlatform)
}

func TestTopKey_TieBreaksAlphabetically(t *testing.T) {
	assert.Equal(t, "angel", topKey(map[string]int{"kalshi": 2, "angel": 2}))
	assert.Empty(t, topKey(map[string]int{}))
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2026, 5, 15, 0, 0, 0, 0, time.UTC)
	a := &Analyzer{now: func() time.Time { return now }}

	start, end := a.parsePeriod("1W")
	assert.Equal(t, now, end)
	assert.Equal(t, now.AddDate(0, 0, -7), start)

	start, _ = a.parsePeriod("bogus")
	assert.Equal(t, now.AddDate(0, -1, 0), start)
}
