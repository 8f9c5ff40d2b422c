package draft_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dom/pkmn-draft-website/internal/domain"
	"github.com/dom/pkmn-draft-website/internal/draft"
)

// sequentialItems returns n distinct item ids.
func sequentialItems(n int) []domain.DraftItemID {
	items := make([]domain.DraftItemID, n)
	for i := range items {
		items[i] = domain.DraftItemID(i)
	}
	return items
}

// fixedPacks builds numPacks packs of packSize sequential ids with no
// overlap, so tests know exactly what is where.
func fixedPacks(numPacks, packSize int) [][]domain.DraftItemID {
	packs := make([][]domain.DraftItemID, numPacks)
	var next domain.DraftItemID
	for i := range packs {
		pack := make([]domain.DraftItemID, packSize)
		for j := range pack {
			pack[j] = next
			next++
		}
		packs[i] = pack
	}
	return packs
}

func TestRoundsAndPackSize(t *testing.T) {
	tests := []struct {
		players  int
		rounds   int
		packSize int
	}{
		{0, 0, 0},
		{1, 1, 6},
		{2, 3, 4},
		{3, 3, 6},
		{4, 3, 6},
		{5, 2, 8},
		{6, 2, 8},
		{7, 0, 0},
	}
	for _, tt := range tests {
		rounds, packSize := draft.RoundsAndPackSize(tt.players)
		assert.Equal(t, tt.rounds, rounds, "rounds for %d players", tt.players)
		assert.Equal(t, tt.packSize, packSize, "pack size for %d players", tt.players)
	}
}

func TestMakeRandomPacks_Deterministic(t *testing.T) {
	items := sequentialItems(50)

	first, err := draft.MakeRandomPacks(rand.New(rand.NewSource(7)), 6, 8, items)
	require.NoError(t, err)
	second, err := draft.MakeRandomPacks(rand.New(rand.NewSource(7)), 6, 8, items)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMakeRandomPacks_NoItemAppearsTwice(t *testing.T) {
	items := sequentialItems(100)
	packs, err := draft.MakeRandomPacks(rand.New(rand.NewSource(1)), 12, 8, items)
	require.NoError(t, err)
	require.Len(t, packs, 12)

	seen := make(map[domain.DraftItemID]bool)
	for _, pack := range packs {
		require.Len(t, pack, 8)
		for _, id := range pack {
			assert.False(t, seen[id], "item %d dealt twice", id)
			seen[id] = true
		}
	}
}

func TestMakeRandomPacks_ItemBudget(t *testing.T) {
	// Exactly enough items succeeds.
	packs, err := draft.MakeRandomPacks(rand.New(rand.NewSource(1)), 4, 6, sequentialItems(24))
	require.NoError(t, err)
	assert.Len(t, packs, 4)

	// One fewer fails.
	_, err = draft.MakeRandomPacks(rand.New(rand.NewSource(1)), 4, 6, sequentialItems(23))
	require.ErrorIs(t, err, domain.ErrNotEnoughItems)
}

func TestNewDraftState_DealsOnePackPerPlayer(t *testing.T) {
	players := []domain.PlayerID{1, 2, 3}
	state := draft.NewDraftState(players, fixedPacks(9, 6), 3)

	assert.Equal(t, 3, state.NumRounds())
	assert.Equal(t, 0, state.CurrentRound())
	assert.True(t, state.Forward())
	for _, id := range players {
		require.Len(t, state.Player(id).Pending, 1, "player %d", id)
		assert.Len(t, state.CurrentPackContents(id), 6, "player %d", id)
	}
}

func TestPick_PassesPackToNextPlayer(t *testing.T) {
	players := []domain.PlayerID{1, 2, 3}
	state := draft.NewDraftState(players, fixedPacks(3, 6), 1)

	pack := state.CurrentPackContents(1)
	require.NoError(t, state.Pick(1, pack[2]))

	assert.Contains(t, state.Player(1).Allocated, pack[2])
	assert.Empty(t, state.Player(1).Pending, "picked pack moves on")

	// Player 2 keeps their own pack at the head and gains the passed pack
	// at the tail, one item lighter.
	require.Len(t, state.Player(2).Pending, 2)
	assert.Len(t, state.CurrentPackContents(2), 6, "own pack still at the head")
}

func TestPick_Errors(t *testing.T) {
	players := []domain.PlayerID{1, 2}
	state := draft.NewDraftState(players, fixedPacks(2, 4), 1)

	t.Run("player not found", func(t *testing.T) {
		err := state.Pick(99, 0)
		require.ErrorIs(t, err, domain.ErrPlayerNotFound)
	})

	t.Run("item not in pack leaves state unchanged", func(t *testing.T) {
		before := state.CurrentPackContents(1)
		err := state.Pick(1, domain.DraftItemID(9999))
		require.ErrorIs(t, err, domain.ErrItemNotInPack)
		assert.Equal(t, before, state.CurrentPackContents(1))
		assert.Empty(t, state.Player(1).Allocated)
	})

	t.Run("no pending packs", func(t *testing.T) {
		pack := state.CurrentPackContents(1)
		require.NoError(t, state.Pick(1, pack[0]))
		err := state.Pick(1, pack[1])
		require.ErrorIs(t, err, domain.ErrNoPacks)
	})
}

func TestSnakeDirection_ReversesEachRound(t *testing.T) {
	players := []domain.PlayerID{10, 20, 30}
	state := draft.NewDraftState(players, fixedPacks(6, 2), 2)

	// Round 0 runs forward: every player picks twice, passing left.
	for i := 0; i < 2; i++ {
		for _, id := range players {
			pack := state.CurrentPackContents(id)
			require.NotEmpty(t, pack)
			require.NoError(t, state.Pick(id, pack[0]))
		}
	}
	require.True(t, state.RoundIsDone())
	require.Equal(t, 1, state.RoundsRemaining())

	state.StartNextRound()
	assert.Equal(t, 1, state.CurrentRound())
	assert.False(t, state.Forward())

	// Backward now: player 20's leftover pack lands on player 10.
	pack := state.CurrentPackContents(20)
	require.NoError(t, state.Pick(20, pack[0]))
	require.Len(t, state.Player(10).Pending, 2)
}

// driveDraft picks the head item for any player holding a pack until the
// draft completes, returning the total number of picks made.
func driveDraft(t *testing.T, state *draft.DraftState, players []domain.PlayerID) int {
	t.Helper()
	picks := 0
	for !state.DraftIsDone() {
		progressed := false
		for _, id := range players {
			pack := state.CurrentPackContents(id)
			if len(pack) == 0 {
				continue
			}
			require.NoError(t, state.Pick(id, pack[0]))
			picks++
			progressed = true
		}
		if state.RoundIsDone() && state.RoundsRemaining() > 0 {
			state.StartNextRound()
			progressed = true
		}
		require.True(t, progressed, "draft stalled after %d picks", picks)
	}
	return picks
}

func TestFullDraft_ConservesItems(t *testing.T) {
	players := []domain.PlayerID{1, 2}
	packs := fixedPacks(6, 4) // two-player draft: 3 rounds of 2 packs
	state := draft.NewDraftState(players, packs, 3)

	picks := driveDraft(t, state, players)
	assert.Equal(t, 24, picks)

	seen := make(map[domain.DraftItemID]bool)
	total := 0
	for _, id := range players {
		allocated := state.Player(id).Allocated
		assert.Len(t, allocated, 12)
		total += len(allocated)
		for _, item := range allocated {
			assert.False(t, seen[item], "item %d allocated twice", item)
			seen[item] = true
		}
	}
	assert.Equal(t, 24, total)
}

func TestFullDraft_SixPlayers(t *testing.T) {
	players := []domain.PlayerID{1, 2, 3, 4, 5, 6}
	state := draft.NewDraftState(players, fixedPacks(12, 8), 2)

	require.True(t, state.Forward(), "round 0 runs forward")
	picks := driveDraft(t, state, players)

	assert.Equal(t, 96, picks)
	assert.False(t, state.Forward(), "round 1 runs backward")
	assert.True(t, state.DraftIsDone())
	for _, id := range players {
		assert.Len(t, state.Player(id).Allocated, 16)
	}
}
