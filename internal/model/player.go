package model

import "time"

type Role string

const (
	RoleNone     Role = ""
	RoleDefender Role = "defender"
	RoleImposter Role = "imposter"
)

// Player is a value copy of a participant inside a session. It references a
// user identity; it is not the user profile itself.
type Player struct {
	UserID       string    `json:"userId" bson:"userId"`
	Username     string    `json:"username" bson:"username"`
	Role         Role      `json:"role,omitempty" bson:"role,omitempty"`
	Score        int       `json:"score" bson:"score"`
	TokensEarned int       `json:"tokensEarned" bson:"tokensEarned"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
}

// Won reports whether the player's role is on the winning side of outcome.
func (p *Player) Won(outcome Outcome) bool {
	return (p.Role == RoleDefender && outcome == OutcomeTeamWin) ||
		(p.Role == RoleImposter && outcome == OutcomeImposterWin)
}
