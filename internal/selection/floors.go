package selection

import (
	"github.com/wonny/thesisrouter/internal/contracts"
)

// PassesConnectionFloor reports whether a winner is connected well enough to
// ship without a rediscovery attempt. The floor itself passes.
func (p Policy) PassesConnectionFloor(c *contracts.ScoredCandidate) bool {
	return c != nil && c.ThesisBeta >= p.ConnectionFloor
}

// CrossClass picks the winner from a ranked list under the cross-class override.
// Home class is the class of the highest-beta eligible candidate (ranked order
// breaks ties). A challenger from another class replaces the best home pick
// only when its score is strictly greater than OverrideMultiple × home score.
func (p Policy) CrossClass(ranked []contracts.ScoredCandidate) (*contracts.ScoredCandidate, *contracts.Override) {
	var anchor *contracts.ScoredCandidate
	for i := range ranked {
		if ranked[i].Disqualified {
			continue
		}
		if anchor == nil || ranked[i].ThesisBeta > anchor.ThesisBeta {
			anchor = &ranked[i]
		}
	}
	if anchor == nil {
		return nil, nil
	}

	var home, challenger *contracts.ScoredCandidate
	for i := range ranked {
		c := &ranked[i]
		if c.Disqualified {
			continue
		}
		if c.Class == anchor.Class {
			if home == nil {
				home = c
			}
		} else if challenger == nil {
			challenger = c
		}
	}

	winner := *home
	if challenger == nil {
		return &winner, nil
	}

	override := &contracts.Override{
		HomeName:        home.Name,
		HomeScore:       home.Score,
		ChallengerName:  challenger.Name,
		ChallengerScore: challenger.Score,
	}
	if challenger.Score > home.Score*p.OverrideMultiple {
		override.Replaced = true
		winner = *challenger
	}
	return &winner, override
}
