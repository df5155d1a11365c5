package engine

import (
	"time"

	"planetguard/internal/apperr"
	"planetguard/internal/model"
	"planetguard/internal/reward"
)

// TallyEntry is the number of votes one player received.
type TallyEntry struct {
	UserID string `json:"userId"`
	Votes  int    `json:"votes"`
}

// VoteOutcome is the effect of one accepted vote. Tally, VotedOutID and
// Rewards are only set when the vote completed the game.
type VoteOutcome struct {
	VotesCast        int
	AllVoted         bool
	Tally            []TallyEntry
	VotedOutID       string
	ImposterVotedOut bool
	Rewards          []reward.Reward
	Transition
}

// SubmitVote records voterID's vote against targetID. When every member has
// voted the game is resolved and rewards are written to the players.
func SubmitVote(s *model.Session, voterID, targetID string, now time.Time) (*VoteOutcome, error) {
	if targetID == "" {
		return nil, apperr.Validation(apperr.CodeMissingTarget, "targetId is required")
	}
	_, roundIdx, err := requireActiveRound(s, voterID, model.RoundVote)
	if err != nil {
		return nil, err
	}
	if targetID == voterID {
		return nil, apperr.Validation(apperr.CodeSelfVote, "you cannot vote for yourself")
	}
	if !s.IsMember(targetID) {
		return nil, apperr.NotFound(apperr.CodeTargetNotFound, "vote target is not in this game")
	}
	round := &s.Rounds[roundIdx]
	if _, voted := round.Vote.VoteBy(voterID); voted {
		return nil, apperr.Conflict(apperr.CodeAlreadyVoted, "you have already voted")
	}

	round.Vote.Votes = append(round.Vote.Votes, model.Vote{VoterID: voterID, TargetID: targetID, At: now})

	out := &VoteOutcome{
		VotesCast:  len(round.Vote.Votes),
		Transition: noTransition(),
	}
	if out.VotesCast < len(s.Players) {
		return out, nil
	}

	out.AllVoted = true
	out.Tally = Tally(s, round.Vote)
	out.VotedOutID = votedOut(out.Tally)
	if target, ok := s.Player(out.VotedOutID); ok && target.Role == model.RoleImposter {
		out.ImposterVotedOut = true
		s.Outcome = model.OutcomeTeamWin
		s.PlanetHealth = model.MaxPlanetHealth
	} else {
		s.Outcome = model.OutcomeImposterWin
		s.PlanetHealth = 0
	}

	round.CompletedAt = &now
	s.CompletedAt = &now
	s.Status = model.SessionCompleted
	out.CompletedRound = roundIdx
	out.GameCompleted = true

	rewards, err := reward.Apply(s)
	if err != nil {
		return nil, err
	}
	out.Rewards = rewards
	return out, nil
}

// Tally counts the votes each player received, in player order.
func Tally(s *model.Session, vote *model.VoteRound) []TallyEntry {
	counts := make(map[string]int, len(vote.Votes))
	for _, v := range vote.Votes {
		counts[v.TargetID]++
	}
	tally := make([]TallyEntry, 0, len(s.Players))
	for _, p := range s.Players {
		tally = append(tally, TallyEntry{UserID: p.UserID, Votes: counts[p.UserID]})
	}
	return tally
}

// votedOut returns the player with the most votes. Ties go to the player who
// joined first.
func votedOut(tally []TallyEntry) string {
	best := -1
	id := ""
	for _, e := range tally {
		if e.Votes > best {
			best = e.Votes
			id = e.UserID
		}
	}
	return id
}
