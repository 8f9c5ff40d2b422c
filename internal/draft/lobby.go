package draft

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dom/pkmn-draft-website/internal/domain"
)

// Pick timing. Earlier picks in a round get more wall-clock time because
// the pack entering pick i still holds P-i items. Preserved as-is; changing
// the curve is a product decision.
const (
	DefaultItemTime  = 8 * time.Second
	DefaultSlushTime = 2 * time.Second
)

// Deadline is an absolute instant by which the pick at (Round, Pick) must
// be made. Missing it triggers an auto-pick of the head item.
type Deadline struct {
	At    time.Time
	Round int
	Pick  int
}

// listener is a parked long-poll waiter. notify is consumed on first
// flush; delivery failure is the notifier's problem, not the lobby's.
type listener struct {
	fingerprint domain.GameState
	notify      func()
}

// Options configures a Lobby. Zero values pick production defaults.
type Options struct {
	Clock     clockwork.Clock
	Rand      *rand.Rand // pack shuffling; inject a fixed seed in tests
	ItemTime  time.Duration
	SlushTime time.Duration
}

// Lobby wraps a DraftState with admission, per-pick deadlines and update
// listeners. It is not safe for concurrent use: the lobby manager
// serializes all calls.
type Lobby struct {
	setName   string
	capacity  int
	clock     clockwork.Clock
	rng       *rand.Rand
	itemTime  time.Duration
	slushTime time.Duration

	joined    map[domain.PlayerID]string
	joinOrder []domain.PlayerID
	listeners map[domain.PlayerID][]listener

	state     *DraftState
	packSize  int
	deadlines map[int][]time.Time // round -> deadline per pick index
}

// NewLobby creates an empty lobby drafting from the named set.
func NewLobby(setName string, capacity int, opts Options) *Lobby {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.ItemTime == 0 {
		opts.ItemTime = DefaultItemTime
	}
	if opts.SlushTime == 0 {
		opts.SlushTime = DefaultSlushTime
	}
	return &Lobby{
		setName:   setName,
		capacity:  capacity,
		clock:     opts.Clock,
		rng:       opts.Rand,
		itemTime:  opts.ItemTime,
		slushTime: opts.SlushTime,
		joined:    make(map[domain.PlayerID]string),
		listeners: make(map[domain.PlayerID][]listener),
		deadlines: make(map[int][]time.Time),
	}
}

// AddPlayer admits a named player and returns their fresh id. Joining bumps
// every player's fingerprint, so parked listeners flush.
func (l *Lobby) AddPlayer(name string) (domain.PlayerID, error) {
	if l.state != nil {
		return 0, domain.ErrAlreadyStarted
	}
	for _, existing := range l.joined {
		if existing == name {
			return 0, fmt.Errorf("%w: %s", domain.ErrNameTaken, name)
		}
	}
	if len(l.joined) >= l.capacity {
		return 0, domain.ErrLobbyFull
	}

	id := domain.NewPlayerID(func(candidate domain.PlayerID) bool {
		_, taken := l.joined[candidate]
		return taken
	})
	l.joined[id] = name
	l.joinOrder = append(l.joinOrder, id)
	l.listeners[id] = nil

	l.checkListeners()
	return id, nil
}

// Start seeds the draft with random packs built from items and returns the
// (round 0, pick 0) deadline.
func (l *Lobby) Start(items []domain.DraftItemID) (Deadline, error) {
	if l.state != nil {
		return Deadline{}, domain.ErrAlreadyStarted
	}
	if len(l.joined) == 0 {
		return Deadline{}, domain.ErrEmptyLobby
	}

	numRounds, packSize := RoundsAndPackSize(len(l.joined))
	packs, err := MakeRandomPacks(l.rng, numRounds*len(l.joined), packSize, items)
	if err != nil {
		return Deadline{}, err
	}

	turnOrder := make([]domain.PlayerID, len(l.joinOrder))
	copy(turnOrder, l.joinOrder)
	l.state = NewDraftState(turnOrder, packs, numRounds)
	l.packSize = packSize
	l.generateDeadlines(0)

	l.checkListeners()
	return Deadline{At: l.deadlines[0][0], Round: 0, Pick: 0}, nil
}

// MakePick applies a pick for playerID. When the pick completes the round
// and rounds remain, the next round starts and its (round, 0) deadline is
// returned for scheduling.
func (l *Lobby) MakePick(playerID domain.PlayerID, itemID domain.DraftItemID) (*Deadline, error) {
	if l.state == nil {
		return nil, domain.ErrNotStarted
	}
	if err := l.state.Pick(playerID, itemID); err != nil {
		return nil, err
	}
	next := l.advanceRoundIfDone()
	l.checkListeners()
	return next, nil
}

// EnforceDeadline force-picks the head item of the first pending pack for
// every player still below the pick quota for (roundIdx, pickIdx). It is
// idempotent: repeating it with no intervening picks changes nothing. The
// returned deadline, if any, is the next one to schedule.
func (l *Lobby) EnforceDeadline(roundIdx, pickIdx int) (*Deadline, error) {
	if l.state == nil {
		return nil, nil
	}

	minAllocated := l.packSize*roundIdx + pickIdx + 1

	// Snapshot before mutating: picks reinsert packs into other players'
	// pending queues, so deciding and applying must not interleave.
	type forcedPick struct {
		player domain.PlayerID
		item   domain.DraftItemID
	}
	var forced []forcedPick
	ids := make([]domain.PlayerID, 0, len(l.state.players))
	for id := range l.state.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		player := l.state.players[id]
		if len(player.Allocated) >= minAllocated || len(player.Pending) == 0 {
			continue
		}
		pack := l.state.packsByRound[l.state.currentRound][player.Pending[0]]
		forced = append(forced, forcedPick{player: id, item: pack[0]})
	}

	for _, fp := range forced {
		if err := l.state.Pick(fp.player, fp.item); err != nil {
			return nil, fmt.Errorf("forced pick for player %d: %w", fp.player, err)
		}
	}

	next := l.advanceRoundIfDone()
	l.checkListeners()

	if l.state.DraftIsDone() {
		return nil, nil
	}
	if next != nil {
		return next, nil
	}
	if ds, ok := l.deadlines[roundIdx]; ok && pickIdx+1 < len(ds) {
		return &Deadline{At: ds[pickIdx+1], Round: roundIdx, Pick: pickIdx + 1}, nil
	}
	return nil, nil
}

// advanceRoundIfDone rolls the draft into the next round when the current
// one is fully picked, returning the new round's first deadline.
func (l *Lobby) advanceRoundIfDone() *Deadline {
	if !l.state.RoundIsDone() || l.state.RoundsRemaining() == 0 {
		return nil
	}
	l.state.StartNextRound()
	round := l.state.CurrentRound()
	l.generateDeadlines(round)
	return &Deadline{At: l.deadlines[round][0], Round: round, Pick: 0}
}

// generateDeadlines lays out the deadline for every pick index of a round.
// Pick i gets slush plus item-time for each of the P-i items remaining in
// the pack entering that pick.
func (l *Lobby) generateDeadlines(round int) {
	p := l.packSize
	deadlines := make([]time.Time, p)
	prev := l.clock.Now()
	for i := 0; i < p; i++ {
		prev = prev.Add(l.slushTime + time.Duration(p-i)*l.itemTime)
		deadlines[i] = prev
	}
	l.deadlines[round] = deadlines
}

// AddListener parks a long-poll waiter for playerID. If the player is
// unknown, the draft is finished, or the caller's fingerprint is already
// stale, the listener fires immediately instead of parking.
func (l *Lobby) AddListener(playerID domain.PlayerID, fingerprint domain.GameState, notify func()) {
	if _, ok := l.joined[playerID]; !ok {
		notify()
		return
	}
	if l.DraftIsFinished() || l.Fingerprint(playerID) != fingerprint {
		notify()
		return
	}
	l.listeners[playerID] = append(l.listeners[playerID], listener{fingerprint: fingerprint, notify: notify})
}

// checkListeners flushes every parked listener whose stored fingerprint no
// longer matches, or all of them once the draft finishes. Flush order
// within a player's list is insertion order. Called after every mutation.
func (l *Lobby) checkListeners() {
	finished := l.DraftIsFinished()
	for playerID, parked := range l.listeners {
		if len(parked) == 0 {
			continue
		}
		current := l.Fingerprint(playerID)
		retained := parked[:0]
		for _, lst := range parked {
			if finished || lst.fingerprint != current {
				lst.notify()
				continue
			}
			retained = append(retained, lst)
		}
		l.listeners[playerID] = retained
	}
}

// Fingerprint computes the game-state fingerprint visible to playerID. The
// bit fields never collide while allocated counts stay below 1024: a pick
// bumps the low field, pack arrival toggles bit 10, and a join bumps the
// player count above bit 20.
func (l *Lobby) Fingerprint(playerID domain.PlayerID) domain.GameState {
	numPlayers := domain.GameState(len(l.joined))
	if l.state == nil {
		return numPlayers << 20
	}
	player := l.state.Player(playerID)
	if player == nil {
		return 0
	}
	fp := domain.GameState(len(player.Allocated))
	if len(player.Pending) > 0 {
		fp += 1 << 10
	}
	fp += numPlayers << 20
	return fp
}

func (l *Lobby) SetName() string { return l.setName }

func (l *Lobby) HasStarted() bool { return l.state != nil }

func (l *Lobby) DraftIsFinished() bool {
	return l.state != nil && l.state.DraftIsDone()
}

func (l *Lobby) NumJoined() int { return len(l.joined) }

func (l *Lobby) Capacity() int { return l.capacity }

// PlayerNames lists joined player names in join order.
func (l *Lobby) PlayerNames() []string {
	names := make([]string, 0, len(l.joinOrder))
	for _, id := range l.joinOrder {
		names = append(names, l.joined[id])
	}
	return names
}

// DraftOrder lists player names in the direction packs currently travel.
// Empty before the draft starts and after it finishes.
func (l *Lobby) DraftOrder() []string {
	if l.state == nil || l.state.DraftIsDone() {
		return nil
	}
	order := l.state.TurnOrder()
	names := make([]string, 0, len(order))
	if l.state.Forward() {
		for _, id := range order {
			names = append(names, l.joined[id])
		}
	} else {
		for i := len(order) - 1; i >= 0; i-- {
			names = append(names, l.joined[order[i]])
		}
	}
	return names
}

// AllocatedItems returns a copy of playerID's picks so far, in pick order.
func (l *Lobby) AllocatedItems(playerID domain.PlayerID) []domain.DraftItemID {
	if l.state == nil {
		return nil
	}
	player := l.state.Player(playerID)
	if player == nil {
		return nil
	}
	out := make([]domain.DraftItemID, len(player.Allocated))
	copy(out, player.Allocated)
	return out
}

// CurrentPackContents returns the head pack playerID can pick from, or nil.
func (l *Lobby) CurrentPackContents(playerID domain.PlayerID) []domain.DraftItemID {
	if l.state == nil {
		return nil
	}
	return l.state.CurrentPackContents(playerID)
}

// NextDeadlineFor looks up the deadline the player is nominally drafting
// against: (current round, allocated mod pack size). Advisory only: a
// player behind the round's pick index after auto-picks may see a stale
// value.
func (l *Lobby) NextDeadlineFor(playerID domain.PlayerID) *time.Time {
	if l.state == nil || l.state.DraftIsDone() {
		return nil
	}
	player := l.state.Player(playerID)
	if player == nil {
		return nil
	}
	ds, ok := l.deadlines[l.state.CurrentRound()]
	if !ok {
		return nil
	}
	idx := len(player.Allocated) % l.packSize
	if idx >= len(ds) {
		return nil
	}
	at := ds[idx]
	return &at
}

// Progress reports (current round, total rounds, current pick, pack size),
// 1-based for display. ok is false before the draft starts or for unknown
// players.
func (l *Lobby) Progress(playerID domain.PlayerID) (currentRound, totalRounds, currentPick, packSize int, ok bool) {
	if l.state == nil {
		return 0, 0, 0, 0, false
	}
	player := l.state.Player(playerID)
	if player == nil {
		return 0, 0, 0, 0, false
	}
	currentRound = l.state.CurrentRound() + 1
	totalRounds = l.state.NumRounds()
	currentPick = len(player.Allocated)%l.packSize + 1
	return currentRound, totalRounds, currentPick, l.packSize, true
}
