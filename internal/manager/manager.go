// Package manager runs the single-writer lobby actor. One goroutine owns
// every lobby and drains a request queue; HTTP handlers and the deadline
// scheduler are producers on that queue and never touch lobby state
// directly, so no lock guards it.
package manager

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/dom/pkmn-draft-website/internal/domain"
	"github.com/dom/pkmn-draft-website/internal/draft"
	"github.com/dom/pkmn-draft-website/internal/draftdb"
)

const defaultQueueSize = 64

// ErrManagerStopped is returned by Do when the manager is no longer
// draining its queue.
var ErrManagerStopped = errors.New("lobby manager stopped")

// Config tunes the manager. Zero values pick production defaults.
type Config struct {
	QueueSize int
	ItemTime  time.Duration
	SlushTime time.Duration
}

// LobbyManager owns all active lobbies and the shared item database.
type LobbyManager struct {
	db      *draftdb.Database
	clock   clockwork.Clock
	lobbies map[domain.LobbyID]*draft.Lobby

	tasks chan Task
	stop  chan struct{}
	sched *DeadlineScheduler

	itemTime  time.Duration
	slushTime time.Duration
}

// New creates a manager; nothing processes requests until Run is called.
func New(db *draftdb.Database, clock clockwork.Clock, cfg Config) *LobbyManager {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	tasks := make(chan Task, cfg.QueueSize)
	stop := make(chan struct{})
	return &LobbyManager{
		db:        db,
		clock:     clock,
		lobbies:   make(map[domain.LobbyID]*draft.Lobby),
		tasks:     tasks,
		stop:      stop,
		sched:     newDeadlineScheduler(clock, tasks, stop),
		itemTime:  cfg.ItemTime,
		slushTime: cfg.SlushTime,
	}
}

// Run drains the request queue until ctx is cancelled. All lobby mutation
// happens on this goroutine.
func (m *LobbyManager) Run(ctx context.Context) {
	defer close(m.stop)
	log.Info().Msg("lobby manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("lobby manager stopped")
			return
		case task := <-m.tasks:
			m.dispatch(task)
		}
	}
}

// Do submits a request and waits for its reply. It is the producer-side
// API used by HTTP handlers; ctx abandons both the enqueue and the wait.
// For BlockForUpdate the reply arrives only when the player's view
// changes.
func (m *LobbyManager) Do(ctx context.Context, req Request) (Response, error) {
	task := Task{
		Request: req,
		Reply:   make(chan Response, 1),
		Done:    ctx.Done(),
	}
	select {
	case m.tasks <- task:
	case <-m.stop:
		return nil, ErrManagerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case resp := <-task.Reply:
		return resp, nil
	case <-m.stop:
		return nil, ErrManagerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *LobbyManager) dispatch(task Task) {
	switch req := task.Request.(type) {
	case BlockForUpdate:
		// Park the reply channel as a listener and keep draining the
		// queue; the eventual flush happens from a later mutation's
		// listener check on this same goroutine.
		m.blockForUpdate(req, task)
	case EnforceDeadline:
		if err := m.enforceDeadline(req); err != nil {
			log.Error().Err(err).Uint64("lobby_id", uint64(req.LobbyID)).Msg("failed to enforce a lobby deadline")
		}
	default:
		task.Reply <- m.process(task.Request)
	}
}

func (m *LobbyManager) process(req Request) Response {
	switch req := req.(type) {
	case CreateLobby:
		return m.createLobby(req.SetName)
	case JoinLobby:
		return m.joinLobby(req.LobbyID, req.PlayerName)
	case StartLobby:
		return m.startLobby(req.LobbyID)
	case GetLobbyState:
		state, err := m.lobbyState(req.LobbyID, req.PlayerID)
		if err != nil {
			log.Error().Err(err).Uint64("lobby_id", uint64(req.LobbyID)).Msg("error retrieving state")
			return LobbyError{Msg: "error fetching state"}
		}
		return LobbyState{State: state}
	case MakePick:
		return m.makePick(req.LobbyID, req.PlayerID, req.Pick)
	default:
		log.Error().Str("request", req.requestName()).Msg("unhandled request type")
		return LobbyError{Msg: "not implemented"}
	}
}

func (m *LobbyManager) createLobby(setName string) Response {
	if m.db.Set(setName) == nil {
		log.Error().Str("set", setName).Msg("got a request for unknown draft set")
		return LobbyError{Msg: domain.ErrUnknownSet.Error()}
	}
	lobbyID := domain.NewLobbyID(func(candidate domain.LobbyID) bool {
		_, taken := m.lobbies[candidate]
		return taken
	})
	m.lobbies[lobbyID] = draft.NewLobby(setName, draft.MaxLobbyCapacity, draft.Options{
		Clock:     m.clock,
		ItemTime:  m.itemTime,
		SlushTime: m.slushTime,
	})
	log.Info().Uint64("lobby_id", uint64(lobbyID)).Str("set", setName).Msg("creating lobby")
	return LobbyCreated{LobbyID: lobbyID}
}

func (m *LobbyManager) joinLobby(lobbyID domain.LobbyID, playerName string) Response {
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		log.Warn().Str("player", playerName).Uint64("lobby_id", uint64(lobbyID)).Msg("player name submitted to unknown lobby")
		return LobbyError{Msg: domain.ErrLobbyNotFound.Error()}
	}
	playerID, err := lobby.AddPlayer(playerName)
	if err != nil {
		log.Warn().Err(err).Str("player", playerName).Uint64("lobby_id", uint64(lobbyID)).Msg("failed to add player")
		return LobbyError{Msg: err.Error()}
	}
	log.Info().
		Str("player", playerName).
		Uint64("lobby_id", uint64(lobbyID)).
		Uint32("player_id", uint32(playerID)).
		Msg("added player to lobby")
	return LobbyJoined{LobbyID: lobbyID, PlayerID: playerID}
}

func (m *LobbyManager) startLobby(lobbyID domain.LobbyID) Response {
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return LobbyError{Msg: domain.ErrLobbyNotFound.Error()}
	}
	set := m.db.Set(lobby.SetName())
	deadline, err := lobby.Start(set.DraftPool())
	if err != nil {
		log.Warn().Err(err).Uint64("lobby_id", uint64(lobbyID)).Msg("failed to start lobby")
		return LobbyError{Msg: "lobby did not start"}
	}
	log.Info().Uint64("lobby_id", uint64(lobbyID)).Msg("started draft in lobby")
	m.sched.Schedule(lobbyID, deadline)
	return LobbyStarted{}
}

func (m *LobbyManager) makePick(lobbyID domain.LobbyID, playerID domain.PlayerID, pick domain.DraftItemID) Response {
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return LobbyError{Msg: domain.ErrLobbyNotFound.Error()}
	}
	deadline, err := lobby.MakePick(playerID, pick)
	if err != nil {
		log.Warn().
			Err(err).
			Uint64("lobby_id", uint64(lobbyID)).
			Uint32("player_id", uint32(playerID)).
			Uint64("pick", uint64(pick)).
			Msg("pick error")
		return LobbyError{Msg: "error making pick"}
	}
	if deadline != nil {
		m.sched.Schedule(lobbyID, *deadline)
	}
	return PickMade{}
}

func (m *LobbyManager) blockForUpdate(req BlockForUpdate, task Task) {
	lobby, ok := m.lobbies[req.LobbyID]
	if !ok {
		log.Warn().Uint64("lobby_id", uint64(req.LobbyID)).Msg("tried to poll a lobby that doesn't exist, returning immediately")
		task.Reply <- LobbyError{Msg: "polled a lobby that doesn't exist"}
		return
	}
	done := task.Done
	reply := task.Reply
	lobby.AddListener(req.PlayerID, req.State, func() {
		// The reply channel is buffered, so a live receiver never blocks
		// this; a departed one is just dropped.
		select {
		case <-done:
			log.Debug().Uint64("lobby_id", uint64(req.LobbyID)).Uint32("player_id", uint32(req.PlayerID)).Msg("listener receiver gone")
		case reply <- UpdateReady{}:
		}
	})
}

func (m *LobbyManager) enforceDeadline(req EnforceDeadline) error {
	lobby, ok := m.lobbies[req.LobbyID]
	if !ok {
		return domain.ErrLobbyNotFound
	}
	next, err := lobby.EnforceDeadline(req.Round, req.Pick)
	if err != nil {
		return err
	}
	if next != nil {
		m.sched.Schedule(req.LobbyID, *next)
	}
	return nil
}

// lobbyState projects the full per-player snapshot, resolving item ids to
// their rendered templates via the shared database.
func (m *LobbyManager) lobbyState(lobbyID domain.LobbyID, playerID domain.PlayerID) (*LobbyStateForPlayer, error) {
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, domain.ErrLobbyNotFound
	}
	set := m.db.Set(lobby.SetName())

	state := &LobbyStateForPlayer{
		LobbyID:         strconv.FormatUint(uint64(lobbyID), 10),
		PlayerID:        playerID,
		JoiningPlayers:  []string{},
		OpenSlots:       []string{},
		PendingPicks:    []PendingPick{},
		AllocatedPicks:  []AllocatedPick{},
		RawPicks:        []string{},
		DraftOrder:      lobby.DraftOrder(),
		GameState:       lobby.Fingerprint(playerID),
		DraftIsFinished: lobby.DraftIsFinished(),
	}
	if state.DraftOrder == nil {
		state.DraftOrder = []string{}
	}

	// Before the draft starts the page shows who has joined and how many
	// seats remain.
	if !lobby.HasStarted() {
		state.JoiningPlayers = lobby.PlayerNames()
		for i := lobby.NumJoined(); i < lobby.Capacity(); i++ {
			state.OpenSlots = append(state.OpenSlots, "Open Slot")
		}
	}

	for _, itemID := range lobby.AllocatedItems(playerID) {
		item := set.Item(itemID)
		if item == nil {
			return nil, errors.New("allocated item missing from set")
		}
		state.AllocatedPicks = append(state.AllocatedPicks, AllocatedPick{Pokepaste: item.Template, Pokestats: item.Stats})
		state.RawPicks = append(state.RawPicks, item.Plain)
	}
	for _, itemID := range lobby.CurrentPackContents(playerID) {
		item := set.Item(itemID)
		if item == nil {
			return nil, errors.New("pack item missing from set")
		}
		state.PendingPicks = append(state.PendingPicks, PendingPick{DraftID: itemID, Pokepaste: item.Template, Pokestats: item.Stats})
	}

	state.WaitingForPack = !state.DraftIsFinished &&
		len(state.PendingPicks) == 0 &&
		len(state.AllocatedPicks) > 0

	if deadline := lobby.NextDeadlineFor(playerID); deadline != nil {
		if remaining := deadline.Sub(m.clock.Now()); remaining > 0 {
			secs := uint64(remaining / time.Second)
			state.TimeToPickS = &secs
		}
	}

	if round, total, pick, packSize, ok := lobby.Progress(playerID); ok {
		state.CurrentRound = round
		state.TotalRounds = total
		state.CurrentPick = pick
		state.PackSize = packSize
	}

	return state, nil
}
