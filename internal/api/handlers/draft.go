package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dom/pkmn-draft-website/internal/domain"
	"github.com/dom/pkmn-draft-website/internal/manager"
)

const maxBodyBytes = 16 * 1024

// DraftHandler translates the HTTP surface into lobby manager requests.
// Handlers block on the manager's reply; for poll commands that block
// lasts until the player's view of the game changes.
type DraftHandler struct {
	mgr *manager.LobbyManager
}

func NewDraftHandler(mgr *manager.LobbyManager) *DraftHandler {
	return &DraftHandler{mgr: mgr}
}

type NewDraftResponse struct {
	LobbyID string `json:"lobby_id"`
	JoinURL string `json:"join_url"`
}

type JoinDraftResponse struct {
	LobbyID  string          `json:"lobby_id"`
	PlayerID domain.PlayerID `json:"player_id"`
	DraftURL string          `json:"draft_url"`
}

// DraftCommandRequest is the POST body for the draft page. The lobby and
// player ids in the body are informational; the path is authoritative.
type DraftCommandRequest struct {
	Command   string             `json:"command"`
	LobbyID   string             `json:"lobby_id"`
	PlayerID  domain.PlayerID    `json:"player_id"`
	PickID    domain.DraftItemID `json:"pick_id"`
	GameState domain.GameState   `json:"game_state"`
}

// NewDraft handles GET /new_draft/{set}.
func (h *DraftHandler) NewDraft(w http.ResponseWriter, r *http.Request) {
	setName := chi.URLParam(r, "set")

	resp, err := h.mgr.Do(r.Context(), manager.CreateLobby{SetName: setName})
	if err != nil {
		writeManagerUnavailable(w, err)
		return
	}
	switch resp := resp.(type) {
	case manager.LobbyCreated:
		lobbyID := strconv.FormatUint(uint64(resp.LobbyID), 10)
		writeJSON(w, http.StatusCreated, NewDraftResponse{
			LobbyID: lobbyID,
			JoinURL: "/join_draft/" + lobbyID,
		})
	case manager.LobbyError:
		writeLobbyError(w, resp)
	default:
		writeUnexpected(w, "CreateLobby")
	}
}

// JoinDraft handles POST /join_draft/{lobby} with a player_name form
// field.
func (h *DraftHandler) JoinDraft(w http.ResponseWriter, r *http.Request) {
	lobbyID, ok := parseLobbyID(w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}
	playerName := r.PostFormValue("player_name")
	if !validPlayerName(playerName) {
		http.Error(w, "Player name must be non-empty ASCII of at most 20 characters", http.StatusBadRequest)
		return
	}

	resp, err := h.mgr.Do(r.Context(), manager.JoinLobby{LobbyID: lobbyID, PlayerName: playerName})
	if err != nil {
		writeManagerUnavailable(w, err)
		return
	}
	switch resp := resp.(type) {
	case manager.LobbyJoined:
		lobby := strconv.FormatUint(uint64(resp.LobbyID), 10)
		player := strconv.FormatUint(uint64(resp.PlayerID), 10)
		writeJSON(w, http.StatusOK, JoinDraftResponse{
			LobbyID:  lobby,
			PlayerID: resp.PlayerID,
			DraftURL: "/draft/" + lobby + "/" + player,
		})
	case manager.LobbyError:
		writeLobbyError(w, resp)
	default:
		writeUnexpected(w, "JoinLobby")
	}
}

// GetDraftState handles GET /draft/{lobby}/{player}.
func (h *DraftHandler) GetDraftState(w http.ResponseWriter, r *http.Request) {
	lobbyID, playerID, ok := parseDraftPath(w, r)
	if !ok {
		return
	}

	resp, err := h.mgr.Do(r.Context(), manager.GetLobbyState{LobbyID: lobbyID, PlayerID: playerID})
	if err != nil {
		writeManagerUnavailable(w, err)
		return
	}
	switch resp := resp.(type) {
	case manager.LobbyState:
		writeJSON(w, http.StatusOK, resp.State)
	case manager.LobbyError:
		writeLobbyError(w, resp)
	default:
		writeUnexpected(w, "GetLobbyState")
	}
}

// DraftCommand handles POST /draft/{lobby}/{player}: start_game, pick and
// poll commands.
func (h *DraftHandler) DraftCommand(w http.ResponseWriter, r *http.Request) {
	lobbyID, playerID, ok := parseDraftPath(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body DraftCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var req manager.Request
	switch body.Command {
	case "start_game":
		req = manager.StartLobby{LobbyID: lobbyID}
	case "pick":
		req = manager.MakePick{LobbyID: lobbyID, PlayerID: playerID, Pick: body.PickID}
	case "poll":
		req = manager.BlockForUpdate{LobbyID: lobbyID, PlayerID: playerID, State: body.GameState}
	default:
		http.Error(w, "Unknown command", http.StatusBadRequest)
		return
	}

	resp, err := h.mgr.Do(r.Context(), req)
	if err != nil {
		writeManagerUnavailable(w, err)
		return
	}
	switch resp := resp.(type) {
	case manager.LobbyStarted, manager.PickMade, manager.UpdateReady:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case manager.LobbyError:
		writeLobbyError(w, resp)
	default:
		writeUnexpected(w, body.Command)
	}
}

func parseLobbyID(w http.ResponseWriter, r *http.Request) (domain.LobbyID, bool) {
	raw := chi.URLParam(r, "lobby")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "Invalid lobby id", http.StatusBadRequest)
		return 0, false
	}
	return domain.LobbyID(id), true
}

func parseDraftPath(w http.ResponseWriter, r *http.Request) (domain.LobbyID, domain.PlayerID, bool) {
	lobbyID, ok := parseLobbyID(w, r)
	if !ok {
		return 0, 0, false
	}
	raw := chi.URLParam(r, "player")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return 0, 0, false
	}
	return lobbyID, domain.PlayerID(id), true
}

func validPlayerName(name string) bool {
	if name == "" || len(name) > 20 {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] > 127 {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}

// writeLobbyError maps the manager's error strings onto HTTP statuses.
func writeLobbyError(w http.ResponseWriter, resp manager.LobbyError) {
	log.Warn().Str("msg", resp.Msg).Msg("returning lobby error to end-client")
	status := http.StatusBadRequest
	switch resp.Msg {
	case domain.ErrLobbyNotFound.Error(), domain.ErrUnknownSet.Error():
		status = http.StatusNotFound
	case domain.ErrLobbyFull.Error(), domain.ErrAlreadyStarted.Error():
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": resp.Msg})
}

func writeManagerUnavailable(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("request did not reach the lobby manager")
	http.Error(w, "Server shutting down", http.StatusInternalServerError)
}

func writeUnexpected(w http.ResponseWriter, context string) {
	log.Error().Str("request", context).Msg("unexpected task response")
	http.Error(w, "Internal error", http.StatusInternalServerError)
}
