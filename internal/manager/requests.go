package manager

import "github.com/dom/pkmn-draft-website/internal/domain"

// Request is a message on the lobby manager's queue. Every mutation of
// lobby state travels through one of these; the queue is the serialization
// point for the whole game.
type Request interface {
	requestName() string
}

type CreateLobby struct {
	SetName string
}

type JoinLobby struct {
	LobbyID    domain.LobbyID
	PlayerName string
}

type StartLobby struct {
	LobbyID domain.LobbyID
}

type GetLobbyState struct {
	LobbyID  domain.LobbyID
	PlayerID domain.PlayerID
}

type MakePick struct {
	LobbyID  domain.LobbyID
	PlayerID domain.PlayerID
	Pick     domain.DraftItemID
}

// BlockForUpdate parks the request's reply channel as an update listener;
// the reply arrives whenever the player's view of the game changes.
type BlockForUpdate struct {
	LobbyID  domain.LobbyID
	PlayerID domain.PlayerID
	State    domain.GameState
}

// EnforceDeadline is internal: the deadline scheduler feeds these back into
// the queue. Its reply channel is discarded.
type EnforceDeadline struct {
	LobbyID domain.LobbyID
	Round   int
	Pick    int
}

func (CreateLobby) requestName() string     { return "create_lobby" }
func (JoinLobby) requestName() string       { return "join_lobby" }
func (StartLobby) requestName() string      { return "start_lobby" }
func (GetLobbyState) requestName() string   { return "get_lobby_state" }
func (MakePick) requestName() string        { return "make_pick" }
func (BlockForUpdate) requestName() string  { return "block_for_update" }
func (EnforceDeadline) requestName() string { return "enforce_deadline" }

// Response is the manager's reply to a single request.
type Response interface {
	isResponse()
}

type LobbyCreated struct {
	LobbyID domain.LobbyID
}

type LobbyJoined struct {
	LobbyID  domain.LobbyID
	PlayerID domain.PlayerID
}

type LobbyStarted struct{}

type PickMade struct{}

type UpdateReady struct{}

type LobbyState struct {
	State *LobbyStateForPlayer
}

type LobbyError struct {
	Msg string
}

func (LobbyCreated) isResponse() {}
func (LobbyJoined) isResponse()  {}
func (LobbyStarted) isResponse() {}
func (PickMade) isResponse()     {}
func (UpdateReady) isResponse()  {}
func (LobbyState) isResponse()   {}
func (LobbyError) isResponse()   {}

// Task pairs a request with its one-shot reply channel. Reply must be
// buffered so the manager never blocks on a slow or departed client; Done
// signals that the requester has gone away.
type Task struct {
	Request Request
	Reply   chan Response
	Done    <-chan struct{}
}

// PendingPick is one pickable item in the player's current pack.
type PendingPick struct {
	DraftID   domain.DraftItemID `json:"draft_id"`
	Pokepaste string             `json:"pokepaste"`
	Pokestats string             `json:"pokestats"`
}

// AllocatedPick is an item the player has already drafted.
type AllocatedPick struct {
	Pokepaste string `json:"pokepaste"`
	Pokestats string `json:"pokestats"`
}

// LobbyStateForPlayer is the full state snapshot one player sees. Lobby ids
// are serialized as strings: they are 64-bit and would lose precision as
// JSON numbers.
type LobbyStateForPlayer struct {
	LobbyID         string           `json:"lobby_id"`
	PlayerID        domain.PlayerID  `json:"player_id"`
	JoiningPlayers  []string         `json:"joining_players"`
	OpenSlots       []string         `json:"open_slots"`
	PendingPicks    []PendingPick    `json:"pending_picks"`
	AllocatedPicks  []AllocatedPick  `json:"allocated_picks"`
	GameState       domain.GameState `json:"game_state"`
	DraftIsFinished bool             `json:"draft_is_finished"`
	WaitingForPack  bool             `json:"waiting_for_pack"`
	TimeToPickS     *uint64          `json:"time_left_s"`
	DraftOrder      []string         `json:"draft_order"`
	CurrentRound    int              `json:"current_round"`
	TotalRounds     int              `json:"total_rounds"`
	CurrentPick     int              `json:"current_pick"`
	PackSize        int              `json:"pack_size"`
	RawPicks        []string         `json:"raw_allocated_picks"`
}
