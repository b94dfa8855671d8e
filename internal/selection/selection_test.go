package selection

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/thesisrouter/internal/contracts"
	"github.com/wonny/thesisrouter/pkg/logger"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultPolicy(), logger.NewNop())
}

func cand(name string, class contracts.InstrumentClass, beta, raw, cost float64) contracts.Candidate {
	return contracts.Candidate{
		Name:         name,
		Class:        class,
		ThesisBeta:   beta,
		RawConvexity: raw,
		TimeCost:     cost,
		LiquidityOK:  true,
	}
}

func TestSelect_HigherBetaWins(t *testing.T) {
	a := cand("A", contracts.ClassSecurities, 0.3, 1.5, 0)
	b := cand("B", contracts.ClassSecurities, 0.8, 1.5, 0)

	sel, err := newTestEngine().Select([]contracts.Candidate{a, b})
	require.NoError(t, err)
	require.NotNil(t, sel.Winner)

	assert.Equal(t, "B", sel.Winner.Name)
	assert.InDelta(t, 1.2, sel.Winner.Score, 1e-9)
	assert.InDelta(t, 0.45, sel.Ranked[1].Score, 1e-9)
	assert.Equal(t, 1, sel.Winner.Rank)
	assert.False(t, sel.WeakConnection)
}

func TestSelect_ConvexityCapBoundsLotteryTickets(t *testing.T) {
	penny := cand("1c", contracts.ClassBinary, 0.95, 100, 0)
	mid := cand("35c", contracts.ClassBinary, 0.95, (100+(100/0.35-100))/100, 0)

	sel, err := newTestEngine().Select([]contracts.Candidate{mid, penny})
	require.NoError(t, err)
	require.NotNil(t, sel.Winner)

	assert.Equal(t, "1c", sel.Winner.Name)
	assert.Equal(t, 20.0, sel.Winner.Convexity)
	assert.InDelta(t, 19.0, sel.Ranked[0].Score, 1e-9)
	assert.InDelta(t, 2.71, sel.Ranked[1].Score, 0.005)
	assert.Less(t, sel.Ranked[0].Score/sel.Ranked[1].Score, 8.0)
}

func TestSelect_ConnectionFloorBoundary(t *testing.T) {
	sel, err := newTestEngine().Select([]contracts.Candidate{cand("at", contracts.ClassSecurities, 0.6, 2, 0)})
	require.NoError(t, err)
	assert.False(t, sel.WeakConnection)

	sel, err = newTestEngine().Select([]contracts.Candidate{cand("below", contracts.ClassSecurities, 0.59, 2, 0)})
	require.NoError(t, err)
	require.NotNil(t, sel.Winner)
	assert.True(t, sel.WeakConnection)
}

func TestSelect_CrossClassOverrideStrict(t *testing.T) {
	home := cand("home", contracts.ClassSecurities, 0.5, 2, 0) // score 1.0

	t.Run("exactly 5x keeps home", func(t *testing.T) {
		challenger := cand("challenger", contracts.ClassBinary, 0.25, 20, 0) // score 5.0
		sel, err := newTestEngine().Select([]contracts.Candidate{challenger, home})
		require.NoError(t, err)

		assert.Equal(t, "home", sel.Winner.Name)
		require.NotNil(t, sel.Override)
		assert.False(t, sel.Override.Replaced)
		assert.Equal(t, 5.0, sel.Override.ChallengerScore)
	})

	t.Run("above 5x replaces home", func(t *testing.T) {
		challenger := cand("challenger", contracts.ClassBinary, 0.3, 20, 0) // score 6.0
		sel, err := newTestEngine().Select([]contracts.Candidate{home, challenger})
		require.NoError(t, err)

		assert.Equal(t, "challenger", sel.Winner.Name)
		assert.True(t, sel.Override.Replaced)
	})

	t.Run("higher score in other class does not silently win", func(t *testing.T) {
		challenger := cand("challenger", contracts.ClassPerpetual, 0.4, 10, 0) // score 4.0
		sel, err := newTestEngine().Select([]contracts.Candidate{challenger, home})
		require.NoError(t, err)

		assert.Equal(t, "challenger", sel.Ranked[0].Name)
		assert.Equal(t, "home", sel.Winner.Name)
	})

	t.Run("single class has no override", func(t *testing.T) {
		sel, err := newTestEngine().Select([]contracts.Candidate{home})
		require.NoError(t, err)
		assert.Nil(t, sel.Override)
	})
}

func TestSelect_StableTies(t *testing.T) {
	first := cand("first", contracts.ClassSecurities, 0.7, 3, 0)
	second := cand("second", contracts.ClassSecurities, 0.7, 3, 0)

	for i := 0; i < 20; i++ {
		sel, err := newTestEngine().Select([]contracts.Candidate{first, second})
		require.NoError(t, err)
		assert.Equal(t, "first", sel.Winner.Name)
	}
}

func TestSelect_NoCandidates(t *testing.T) {
	sel, err := newTestEngine().Select(nil)
	require.NoError(t, err)
	assert.Nil(t, sel.Winner)
	assert.Equal(t, contracts.ReasonNoCandidates, sel.Reason)
}

func TestSelect_AllDisqualified(t *testing.T) {
	a := cand("A", contracts.ClassSecurities, 0.9, 5, 0)
	a.LiquidityOK = false
	b := cand("B", contracts.ClassBinary, 0.9, 5, 0)
	b.AlreadyPricedIn = true

	sel, err := newTestEngine().Select([]contracts.Candidate{a, b})
	require.NoError(t, err)
	assert.Nil(t, sel.Winner)
	assert.Equal(t, contracts.ReasonAllDisqualified, sel.Reason)
	assert.Len(t, sel.Ranked, 2)
}

func TestSelect_ValidationError(t *testing.T) {
	_, err := newTestEngine().Select([]contracts.Candidate{cand("bad", contracts.ClassSecurities, 1.5, 1, 0)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrValidation))
}

func TestScreener_Precedence(t *testing.T) {
	s := NewScreener(logger.NewNop())

	all := contracts.Candidate{ThesisContradiction: true, AlreadyPricedIn: true, TimeMismatch: true}
	reason, out := s.Evaluate(all)
	assert.True(t, out)
	assert.Equal(t, contracts.DisqualifyContradiction, reason)

	c := contracts.Candidate{AlreadyPricedIn: true, TimeMismatch: true}
	reason, _ = s.Evaluate(c)
	assert.Equal(t, contracts.DisqualifyIlliquid, reason)

	c.LiquidityOK = true
	reason, _ = s.Evaluate(c)
	assert.Equal(t, contracts.DisqualifyPricedIn, reason)

	c.AlreadyPricedIn = false
	reason, _ = s.Evaluate(c)
	assert.Equal(t, contracts.DisqualifyTimeMismatch, reason)

	c.TimeMismatch = false
	_, out = s.Evaluate(c)
	assert.False(t, out)
}

func TestRanker_ConvexityNeverExceedsCap(t *testing.T) {
	r := newTestEngine().Ranker()
	for _, raw := range []float64{0, 1, 19.99, 20, 20.01, 100, 1e6} {
		got := r.Convexity(raw)
		assert.LessOrEqual(t, got, 20.0)
		if raw <= 20 {
			assert.Equal(t, raw, got)
		}
	}
}

// disqualified candidates never win, whatever their score
func TestSelect_DisqualifiedNeverWins(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	engine := newTestEngine()
	classes := []contracts.InstrumentClass{contracts.ClassSecurities, contracts.ClassPerpetual, contracts.ClassBinary, contracts.ClassPrivate}

	for run := 0; run < 1000; run++ {
		n := 1 + rng.Intn(8)
		cands := make([]contracts.Candidate, n)
		allOut := true
		for i := range cands {
			c := cand(string(rune('A'+i)), classes[rng.Intn(len(classes))], rng.Float64(), rng.Float64()*200, rng.Float64()*3)
			c.ThesisContradiction = rng.Intn(4) == 0
			c.LiquidityOK = rng.Intn(4) != 0
			c.AlreadyPricedIn = rng.Intn(4) == 0
			c.TimeMismatch = rng.Intn(4) == 0
			if !c.ThesisContradiction && c.LiquidityOK && !c.AlreadyPricedIn && !c.TimeMismatch {
				allOut = false
			}
			cands[i] = c
		}

		sel, err := engine.Select(cands)
		require.NoError(t, err)

		if allOut {
			assert.Nil(t, sel.Winner)
			assert.Equal(t, contracts.ReasonAllDisqualified, sel.Reason)
			continue
		}

		require.NotNil(t, sel.Winner)
		assert.False(t, sel.Winner.Disqualified)
		for _, sc := range sel.Ranked {
			assert.LessOrEqual(t, sc.Convexity, 20.0)
			if sc.Disqualified {
				assert.NotEqual(t, sc.Name, sel.Winner.Name)
			}
		}
	}
}

func TestNewCandidate_Derivation(t *testing.T) {
	catalyst := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	early := catalyst.Add(-24 * time.Hour)
	thesis := contracts.Thesis{ID: "t", Claim: "c", Direction: contracts.DirectionShort, CatalystDate: &catalyst}
	policy := DefaultPolicy()

	t.Run("call contradicts short thesis", func(t *testing.T) {
		inst := contracts.CandidateInstrument{Platform: "robinhood", Ticker: "NVDA", Kind: contracts.KindOption, Strike: 100, OptionRight: contracts.OptionCall}
		c := NewCandidate(thesis, inst, &contracts.ReturnProfile{ReturnIfRightPct: 100, ReturnIfWrongPct: -100}, contracts.Judgment{ThesisBeta: 0.8}, policy)
		assert.True(t, c.ThesisContradiction)
		assert.Equal(t, contracts.ClassSecurities, c.Class)
		assert.InDelta(t, 2.0, c.RawConvexity, 1e-9)
	})

	t.Run("binary at threshold is priced in", func(t *testing.T) {
		p := 0.90
		inst := contracts.CandidateInstrument{Platform: "kalshi", Ticker: "X", Kind: contracts.KindBinaryNo}
		c := NewCandidate(thesis, inst, &contracts.ReturnProfile{ReturnIfWrongPct: -100, MarketImpliedProb: &p}, contracts.Judgment{ThesisBeta: 0.8}, policy)
		assert.False(t, c.ThesisContradiction)
		assert.True(t, c.AlreadyPricedIn)
	})

	t.Run("expiry before catalyst", func(t *testing.T) {
		inst := contracts.CandidateInstrument{Platform: "kalshi", Ticker: "X", Kind: contracts.KindBinaryNo}
		c := NewCandidate(thesis, inst, &contracts.ReturnProfile{ReturnIfWrongPct: -100, Expiry: &early}, contracts.Judgment{ThesisBeta: 0.8}, policy)
		assert.True(t, c.TimeMismatch)
	})

	t.Run("expiry on catalyst is fine", func(t *testing.T) {
		inst := contracts.CandidateInstrument{Platform: "kalshi", Ticker: "X", Kind: contracts.KindBinaryNo}
		c := NewCandidate(thesis, inst, &contracts.ReturnProfile{ReturnIfWrongPct: -100, Expiry: &catalyst}, contracts.Judgment{ThesisBeta: 1.3}, policy)
		assert.False(t, c.TimeMismatch)
		assert.Equal(t, 1.0, c.ThesisBeta)
	})
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.OverrideMultiple = 0.5
	assert.Error(t, p.Validate())
}
