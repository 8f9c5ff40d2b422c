package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// APIClient handles HTTP communication with the draft server
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Poll requests stay open until the server has news.
			Timeout: 5 * time.Minute,
		},
	}
}

// Response types matching the server

type NewDraftResponse struct {
	LobbyID string `json:"lobby_id"`
	JoinURL string `json:"join_url"`
}

type JoinDraftResponse struct {
	LobbyID  string `json:"lobby_id"`
	PlayerID uint32 `json:"player_id"`
	DraftURL string `json:"draft_url"`
}

type PendingPick struct {
	DraftID   uint64 `json:"draft_id"`
	Pokepaste string `json:"pokepaste"`
}

type DraftState struct {
	JoiningPlayers  []string      `json:"joining_players"`
	PendingPicks    []PendingPick `json:"pending_picks"`
	GameState       uint64        `json:"game_state"`
	DraftIsFinished bool          `json:"draft_is_finished"`
	WaitingForPack  bool          `json:"waiting_for_pack"`
	RawPicks        []string      `json:"raw_allocated_picks"`
}

// Bot is one simulated player's credentials.
type Bot struct {
	Name     string
	DraftURL string
}

// NewDraft creates a lobby drafting the named set
func (c *APIClient) NewDraft(setName string) (*NewDraftResponse, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/new_draft/" + url.PathEscape(setName))
	if err != nil {
		return nil, fmt.Errorf("new draft request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, httpError("new draft", resp)
	}

	var created NewDraftResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &created, nil
}

// JoinDraft joins a named bot to a lobby
func (c *APIClient) JoinDraft(lobbyID, name string) (Bot, error) {
	form := url.Values{"player_name": {name}}
	resp, err := c.httpClient.PostForm(c.baseURL+"/join_draft/"+lobbyID, form)
	if err != nil {
		return Bot{}, fmt.Errorf("join request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Bot{}, httpError("join", resp)
	}

	var joined JoinDraftResponse
	if err := json.NewDecoder(resp.Body).Decode(&joined); err != nil {
		return Bot{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return Bot{Name: name, DraftURL: joined.DraftURL}, nil
}

// GetState fetches the bot's view of the draft
func (c *APIClient) GetState(bot Bot) (*DraftState, error) {
	resp, err := c.httpClient.Get(c.baseURL + bot.DraftURL)
	if err != nil {
		return nil, fmt.Errorf("state request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpError("state", resp)
	}

	var state DraftState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &state, nil
}

// StartGame starts the draft from the bot's seat
func (c *APIClient) StartGame(bot Bot) error {
	return c.command(bot, map[string]any{"command": "start_game"})
}

// Pick drafts one item for the bot
func (c *APIClient) Pick(bot Bot, draftID uint64) error {
	return c.command(bot, map[string]any{"command": "pick", "pick_id": draftID})
}

// Poll blocks until the bot's view of the game changes
func (c *APIClient) Poll(bot Bot) error {
	state, err := c.GetState(bot)
	if err != nil {
		return err
	}
	return c.command(bot, map[string]any{"command": "poll", "game_state": state.GameState})
}

func (c *APIClient) command(bot Bot, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Post(c.baseURL+bot.DraftURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s request failed: %w", body["command"], err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpError(fmt.Sprint(body["command"]), resp)
	}
	return nil
}

func httpError(op string, resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed (status %d): %s", op, resp.StatusCode, string(bodyBytes))
}
