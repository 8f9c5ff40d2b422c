// Package draft implements the snake-draft state machine: packs pass
// around the table, direction reverses each round, and a lobby wraps the
// whole thing with admission, deadlines and update listeners.
//
// Nothing in this package does I/O or touches concurrency primitives; all
// mutation happens inside single method calls on the lobby manager's
// goroutine.
package draft

import (
	"fmt"
	"sort"

	"github.com/dom/pkmn-draft-website/internal/domain"
)

// PlayerState tracks what one player holds mid-draft.
type PlayerState struct {
	Allocated []domain.DraftItemID
	Pending   []domain.PackID // FIFO queue of pack ids
}

// DraftState is the pure in-memory draft state machine.
type DraftState struct {
	players      map[domain.PlayerID]*PlayerState
	turnOrder    []domain.PlayerID
	packsByRound []map[domain.PackID][]domain.DraftItemID
	currentRound int
	forward      bool // pack direction; true in round 0, flips each round
}

// NewDraftState partitions packs into numRounds buckets of len(playerIDs)
// packs each and hands every player their first pack. len(packs) must equal
// numRounds * len(playerIDs); anything else is a programmer error.
func NewDraftState(playerIDs []domain.PlayerID, packs [][]domain.DraftItemID, numRounds int) *DraftState {
	n := len(playerIDs)
	if len(packs) != numRounds*n {
		panic(fmt.Sprintf("draft: %d packs for %d rounds of %d players", len(packs), numRounds, n))
	}

	players := make(map[domain.PlayerID]*PlayerState, n)
	for _, id := range playerIDs {
		players[id] = &PlayerState{}
	}

	packsByRound := make([]map[domain.PackID][]domain.DraftItemID, 0, numRounds)
	var nextPackID domain.PackID
	for r := 0; r < numRounds; r++ {
		roundPacks := make(map[domain.PackID][]domain.DraftItemID, n)
		for i := 0; i < n; i++ {
			roundPacks[nextPackID] = packs[r*n+i]
			nextPackID++
		}
		packsByRound = append(packsByRound, roundPacks)
	}

	d := &DraftState{
		players:      players,
		turnOrder:    playerIDs,
		packsByRound: packsByRound,
		currentRound: 0,
		forward:      true,
	}
	d.dealRoundPacks()
	return d
}

// Pick removes itemID from the head pack of playerID's pending queue,
// allocates it, and passes the remainder of the pack to the next player in
// the current direction. Empty packs are retired but stay in packsByRound
// so round completion can be queried.
func (d *DraftState) Pick(playerID domain.PlayerID, itemID domain.DraftItemID) error {
	player, ok := d.players[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	if len(player.Pending) == 0 {
		return domain.ErrNoPacks
	}
	packID := player.Pending[0]
	pack, ok := d.packsByRound[d.currentRound][packID]
	if !ok {
		panic(fmt.Sprintf("draft: pending pack %d missing from round %d", packID, d.currentRound))
	}

	itemIdx := -1
	for i, id := range pack {
		if id == itemID {
			itemIdx = i
			break
		}
	}
	if itemIdx < 0 {
		return domain.ErrItemNotInPack
	}

	player.Allocated = append(player.Allocated, itemID)
	player.Pending = player.Pending[1:]
	pack = append(pack[:itemIdx], pack[itemIdx+1:]...)
	d.packsByRound[d.currentRound][packID] = pack

	if len(pack) > 0 {
		next := d.nextPlayerFrom(playerID)
		d.players[next].Pending = append(d.players[next].Pending, packID)
	}
	return nil
}

// RoundIsDone reports whether every pack in the current round is empty.
func (d *DraftState) RoundIsDone() bool {
	for _, pack := range d.packsByRound[d.currentRound] {
		if len(pack) > 0 {
			return false
		}
	}
	return true
}

// StartNextRound advances to the next round, flips the pass direction and
// deals one fresh pack to every player.
func (d *DraftState) StartNextRound() {
	d.currentRound++
	d.forward = !d.forward
	d.dealRoundPacks()
}

// DraftIsDone reports whether the final round has been fully picked.
func (d *DraftState) DraftIsDone() bool {
	return d.RoundsRemaining() == 0 && d.RoundIsDone()
}

func (d *DraftState) NumRounds() int { return len(d.packsByRound) }

func (d *DraftState) RoundsRemaining() int {
	return d.NumRounds() - (d.currentRound + 1)
}

func (d *DraftState) CurrentRound() int { return d.currentRound }

func (d *DraftState) Forward() bool { return d.forward }

// TurnOrder returns the seating order. The returned slice must not be
// mutated.
func (d *DraftState) TurnOrder() []domain.PlayerID { return d.turnOrder }

// Player returns the state for playerID, or nil if unknown.
func (d *DraftState) Player(playerID domain.PlayerID) *PlayerState {
	return d.players[playerID]
}

// CurrentPackContents returns a copy of the head pack's contents for
// playerID, or nil if the player is unknown or has no pending packs.
func (d *DraftState) CurrentPackContents(playerID domain.PlayerID) []domain.DraftItemID {
	player, ok := d.players[playerID]
	if !ok || len(player.Pending) == 0 {
		return nil
	}
	pack := d.packsByRound[d.currentRound][player.Pending[0]]
	out := make([]domain.DraftItemID, len(pack))
	copy(out, pack)
	return out
}

// nextPlayerFrom follows turnOrder in the current direction, wrapping at
// the ends of the table.
func (d *DraftState) nextPlayerFrom(playerID domain.PlayerID) domain.PlayerID {
	n := len(d.turnOrder)
	idx := -1
	for i, id := range d.turnOrder {
		if id == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		panic(fmt.Sprintf("draft: player %d not in turn order", playerID))
	}
	if d.forward {
		return d.turnOrder[(idx+1)%n]
	}
	return d.turnOrder[(idx-1+n)%n]
}

// dealRoundPacks gives every player exactly one pack from the current
// round. Pack ids are assigned to seats in ascending order so the deal is
// deterministic.
func (d *DraftState) dealRoundPacks() {
	roundPacks := d.packsByRound[d.currentRound]
	packIDs := make([]domain.PackID, 0, len(roundPacks))
	for id := range roundPacks {
		packIDs = append(packIDs, id)
	}
	sort.Slice(packIDs, func(i, j int) bool { return packIDs[i] < packIDs[j] })

	for i, playerID := range d.turnOrder {
		player := d.players[playerID]
		player.Pending = append(player.Pending, packIDs[i])
	}
}
