package domain

import "errors"

// Lobby errors
var (
	ErrLobbyNotFound  = errors.New("lobby not found")
	ErrUnknownSet     = errors.New("unknown draft set")
	ErrAlreadyStarted = errors.New("game has already started")
	ErrNotStarted     = errors.New("game has not started")
	ErrLobbyFull      = errors.New("lobby is full")
	ErrNameTaken      = errors.New("player name has already joined")
	ErrEmptyLobby     = errors.New("lobby has no players")
)

// Draft errors
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoPacks        = errors.New("player has no pending packs")
	ErrItemNotInPack  = errors.New("item is not in the current pack")
	ErrNotEnoughItems = errors.New("not enough unique items for the requested packs")
)
