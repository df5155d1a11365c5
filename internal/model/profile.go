package model

// Profile is the slice of the external user profile this service reads
// (interests) and updates (stats).
type Profile struct {
	ID        string   `json:"id" bson:"_id"`
	Username  string   `json:"username" bson:"username"`
	Interests []string `json:"interests" bson:"interests"`
	Stats     Stats    `json:"stats" bson:"stats"`
}

// Stats are lifetime counters on a user profile.
type Stats struct {
	GamesPlayed                int `json:"gamesPlayed" bson:"gamesPlayed"`
	GamesWon                   int `json:"gamesWon" bson:"gamesWon"`
	CorrectAnswers             int `json:"correctAnswers" bson:"correctAnswers"`
	MonstersDefeated           int `json:"monstersDefeated" bson:"monstersDefeated"`
	CorrectImpostersIdentified int `json:"correctImpostersIdentified" bson:"correctImpostersIdentified"`
	TokensEarned               int `json:"tokensEarned" bson:"tokensEarned"`
}

// StatsDelta is the increment one completed session contributes to a profile.
type StatsDelta = Stats

// Add returns s incremented by d.
func (s Stats) Add(d StatsDelta) Stats {
	return Stats{
		GamesPlayed:                s.GamesPlayed + d.GamesPlayed,
		GamesWon:                   s.GamesWon + d.GamesWon,
		CorrectAnswers:             s.CorrectAnswers + d.CorrectAnswers,
		MonstersDefeated:           s.MonstersDefeated + d.MonstersDefeated,
		CorrectImpostersIdentified: s.CorrectImpostersIdentified + d.CorrectImpostersIdentified,
		TokensEarned:               s.TokensEarned + d.TokensEarned,
	}
}
