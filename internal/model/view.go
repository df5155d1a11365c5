package model

import "time"

// CreateSessionRequest is the request body for creating a session
type CreateSessionRequest struct {
	Mode       Mode `json:"mode"`
	MaxPlayers int  `json:"maxPlayers"`
}

// AnswerInput carries a quiz answer. Pointers distinguish a missing field
// from index zero.
type AnswerInput struct {
	QuestionIndex *int `json:"questionIndex"`
	AnswerIndex   *int `json:"answerIndex"`
}

type MonsterInput struct {
	MonsterID string `json:"monsterId"`
}

type VoteInput struct {
	TargetID string `json:"targetId"`
}

// PlayerSummary is a member as listed in lobby views
type PlayerSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// SessionSummary is the lobby representation of a session
type SessionSummary struct {
	ID          string          `json:"id"`
	Mode        Mode            `json:"mode"`
	MaxPlayers  int             `json:"maxPlayers"`
	Status      SessionStatus   `json:"status"`
	CreatorID   string          `json:"creatorId"`
	CreatorName string          `json:"creatorName"`
	Players     []PlayerSummary `json:"players"`
	PlayerCount int             `json:"playerCount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// PlayerView is a member as seen by one viewer. Role is nil unless the
// viewer may see it.
type PlayerView struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Role         *Role  `json:"role"`
	Score        int    `json:"score"`
	TokensEarned int    `json:"tokensEarned"`
}

// SessionDetail is the full state of a session as seen by one viewer. It is
// what clients reload after missing realtime events.
type SessionDetail struct {
	ID           string        `json:"id"`
	Mode         Mode          `json:"mode"`
	MaxPlayers   int           `json:"maxPlayers"`
	Status       SessionStatus `json:"status"`
	PlanetHealth int           `json:"planetHealth"`
	CreatorID    string        `json:"creatorId"`
	CreatorName  string        `json:"creatorName"`
	Players      []PlayerView  `json:"players"`
	Role         *Role         `json:"role"`
	CurrentRound int           `json:"currentRound"`
	Round        *RoundView    `json:"round,omitempty"`
	Outcome      *Outcome      `json:"outcome"`
	CreatedAt    time.Time     `json:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt"`
	CompletedAt  *time.Time    `json:"completedAt"`
}

// RoundView is the client-safe view of a round. Correct answers are never
// included.
type RoundView struct {
	Index             int            `json:"roundIndex"`
	Type              RoundType      `json:"type"`
	StartedAt         time.Time      `json:"startedAt"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
	Questions         []QuestionView `json:"questions,omitempty"`
	AnsweredQuestions []int          `json:"answeredQuestions,omitempty"`
	MonstersDefeated  int            `json:"monstersDefeated"`
	VotesCast         int            `json:"votesCast"`
	HasVoted          bool           `json:"hasVoted"`
}

type QuestionView struct {
	Index       int      `json:"index"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	AnswerCount int      `json:"answerCount"`
}

// HistoryEntry is one completed session from a player's point of view
type HistoryEntry struct {
	ID           string        `json:"id"`
	Mode         Mode          `json:"mode"`
	Status       SessionStatus `json:"status"`
	Outcome      Outcome       `json:"outcome"`
	Role         Role          `json:"role"`
	Score        int           `json:"score"`
	TokensEarned int           `json:"tokensEarned"`
	CreatedAt    time.Time     `json:"createdAt"`
	CompletedAt  *time.Time    `json:"completedAt"`
}

type StartResult struct {
	SessionSummary
	CurrentRound int              `json:"currentRound"`
	PlanetHealth int              `json:"planetHealth"`
	Round        *RoundView       `json:"round"`
	Roles        []RoleAssignment `json:"roles,omitempty"`
}

// RoleAssignment is one player's role, reported to the session creator.
type RoleAssignment struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

type LeaveResult struct {
	Deleted bool `json:"deleted"`
}

type AnswerResult struct {
	IsCorrect    bool `json:"isCorrect"`
	PlanetHealth int  `json:"planetHealth"`
	CurrentRound int  `json:"currentRound"`
}

type DefeatResult struct {
	MonstersDefeated int `json:"monstersDefeated"`
	PlanetHealth     int `json:"planetHealth"`
}

type EndBattleResult struct {
	CurrentRound int `json:"currentRound"`
}

type VoteResult struct {
	AllVoted  bool     `json:"allVoted"`
	VotesCast int      `json:"votesCast"`
	Outcome   *Outcome `json:"outcome"`
}
