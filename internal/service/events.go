package service

import (
	"time"

	"planetguard/internal/engine"
	"planetguard/internal/model"
	"planetguard/internal/reward"
)

// Server to client event types
const (
	EventGameState       = "game_state"
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventGameStarted     = "game_started"
	EventRoundStarted    = "round_started"
	EventPlayerAnswered  = "player_answered"
	EventMonsterDefeated = "monster_defeated"
	EventVoteSubmitted   = "vote_submitted"
	EventGameEnded       = "game_ended"
	EventPresence        = "player_presence_update"
	EventMonsterSpawned  = "monster_spawned"
	EventChatMessage     = "chat_message"
)

type PlayerJoinedEvent struct {
	SessionID string               `json:"sessionId"`
	Player    model.PlayerSummary  `json:"player"`
	Session   model.SessionSummary `json:"session"`
}

type PlayerLeftEvent struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	CreatorID string `json:"creatorId"`
	Deleted   bool   `json:"deleted"`
}

// GameStartedEvent is sent to each member separately; Session carries only
// the roles the recipient may see.
type GameStartedEvent struct {
	Session model.SessionDetail `json:"session"`
}

type RoundStartedEvent struct {
	SessionID    string           `json:"sessionId"`
	RoundIndex   int              `json:"roundIndex"`
	PlanetHealth int              `json:"planetHealth"`
	Round        *model.RoundView `json:"round"`
}

type PlayerAnsweredEvent struct {
	SessionID     string `json:"sessionId"`
	UserID        string `json:"userId"`
	QuestionIndex int    `json:"questionIndex"`
	PlanetHealth  int    `json:"planetHealth"`
}

type MonsterDefeatedEvent struct {
	SessionID        string `json:"sessionId"`
	UserID           string `json:"userId"`
	MonsterID        string `json:"monsterId"`
	MonstersDefeated int    `json:"monstersDefeated"`
	PlanetHealth     int    `json:"planetHealth"`
}

type VoteSubmittedEvent struct {
	SessionID string `json:"sessionId"`
	VoterID   string `json:"voterId"`
	VotesCast int    `json:"votesCast"`
	AllVoted  bool   `json:"allVoted"`
}

// GameEndedEvent reveals every role.
type GameEndedEvent struct {
	SessionID        string              `json:"sessionId"`
	Outcome          model.Outcome       `json:"outcome"`
	PlanetHealth     int                 `json:"planetHealth"`
	VotedOutID       string              `json:"votedOutId"`
	ImposterVotedOut bool                `json:"imposterVotedOut"`
	Tally            []engine.TallyEntry `json:"tally"`
	Players          []model.PlayerView  `json:"players"`
	Rewards          []reward.Reward     `json:"rewards"`
}

type PresenceEvent struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Present   bool   `json:"present"`
}

type ChatMessageEvent struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}
