package engine

import (
	"math/rand/v2"

	"planetguard/internal/model"
)

// largeGamePlayers is the player count from which a session gets a second
// imposter.
const largeGamePlayers = 7

// ImposterCount returns how many imposters a session of playerCount players
// gets.
func ImposterCount(playerCount int) int {
	if playerCount >= largeGamePlayers {
		return 2
	}
	return 1
}

// AssignRoles shuffles the players with rng and gives the first
// ImposterCount of the permutation the imposter role; everyone else defends.
func AssignRoles(players []model.Player, rng *rand.Rand) {
	imposters := ImposterCount(len(players))
	for rank, idx := range rng.Perm(len(players)) {
		if rank < imposters {
			players[idx].Role = model.RoleImposter
		} else {
			players[idx].Role = model.RoleDefender
		}
	}
}
