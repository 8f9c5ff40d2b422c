package draft

import (
	"fmt"
	"math/rand"

	"github.com/dom/pkmn-draft-website/internal/domain"
)

// MaxLobbyCapacity is the most players a single lobby admits.
const MaxLobbyCapacity = 6

// RoundsAndPackSize returns the number of rounds and the pack size for a
// draft of numPlayers. A zero result means the player count cannot draft.
func RoundsAndPackSize(numPlayers int) (numRounds, packSize int) {
	switch {
	case numPlayers == 1:
		return 1, 6
	case numPlayers == 2:
		return 3, 4
	case numPlayers == 3 || numPlayers == 4:
		return 3, 6
	case numPlayers == 5 || numPlayers == 6:
		return 2, 8
	default:
		return 0, 0
	}
}

// MakeRandomPacks shuffles items uniformly and deals the first
// numPacks*packSize ids into consecutive packs, so no item appears in more
// than one pack across the draft. The caller's rng makes the result
// reproducible under a fixed seed.
func MakeRandomPacks(rng *rand.Rand, numPacks, packSize int, items []domain.DraftItemID) ([][]domain.DraftItemID, error) {
	required := numPacks * packSize
	if required > len(items) {
		return nil, fmt.Errorf("%w: need %d, have %d", domain.ErrNotEnoughItems, required, len(items))
	}

	shuffled := make([]domain.DraftItemID, len(items))
	copy(shuffled, items)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	packs := make([][]domain.DraftItemID, 0, numPacks)
	for i := 0; i < numPacks; i++ {
		pack := make([]domain.DraftItemID, packSize)
		copy(pack, shuffled[i*packSize:(i+1)*packSize])
		packs = append(packs, pack)
	}
	return packs, nil
}
