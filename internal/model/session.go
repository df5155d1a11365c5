package model

import "time"

// Mode alters how a session is presented to its players. It is fixed at creation.
type Mode string

const (
	ModeImposter  Mode = "imposter"
	ModeSalvation Mode = "salvation"
	ModeChaos     Mode = "chaos"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeImposter, ModeSalvation, ModeChaos:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionWaiting    SessionStatus = "waiting"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

type Outcome string

const (
	OutcomeNone        Outcome = ""
	OutcomeTeamWin     Outcome = "team_win"
	OutcomeImposterWin Outcome = "imposter_win"
)

const (
	MinPlayers           = 2
	MaxPlayersLimit      = 8
	DefaultMaxPlayers    = 4
	StartingPlanetHealth = 30
	MaxPlanetHealth      = 100
)

// Session is the persisted game document. It exclusively owns its players
// and rounds.
type Session struct {
	ID           string        `json:"id" bson:"_id"`
	Mode         Mode          `json:"mode" bson:"mode"`
	MaxPlayers   int           `json:"maxPlayers" bson:"maxPlayers"`
	Status       SessionStatus `json:"status" bson:"status"`
	CreatorID    string        `json:"creatorId" bson:"creatorId"`
	Players      []Player      `json:"players" bson:"players"`
	Rounds       []Round       `json:"rounds" bson:"rounds"`
	PlanetHealth int           `json:"planetHealth" bson:"planetHealth"`
	Outcome      Outcome       `json:"outcome,omitempty" bson:"outcome,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" bson:"createdAt"`
	StartedAt    *time.Time    `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	Version      int64         `json:"version" bson:"version"`
	// CommitID identifies the write that produced this version.
	CommitID string `json:"commitId,omitempty" bson:"commitId,omitempty"`
}

// PlayerIndex returns the position of userID in Players, or -1.
func (s *Session) PlayerIndex(userID string) int {
	for i := range s.Players {
		if s.Players[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Player returns the member record for userID.
func (s *Session) Player(userID string) (*Player, bool) {
	idx := s.PlayerIndex(userID)
	if idx < 0 {
		return nil, false
	}
	return &s.Players[idx], true
}

// IsMember reports whether userID belongs to the session.
func (s *Session) IsMember(userID string) bool {
	return s.PlayerIndex(userID) >= 0
}
