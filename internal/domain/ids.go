package domain

import (
	"crypto/rand"
	"encoding/binary"
)

// DraftItemID identifies a single draftable item within a set.
type DraftItemID uint64

// PackID identifies a pack within a running draft.
type PackID uint64

// PlayerID identifies a player within a lobby.
type PlayerID uint32

// LobbyID identifies an active lobby.
type LobbyID uint64

// GameState is the per-player fingerprint of everything visible to that
// player. Clients poll with the last fingerprint they saw and are woken
// when it changes.
type GameState uint64

// NewPlayerID returns a fresh random player id not present in taken.
// Uses crypto/rand so opponents cannot guess each other's ids.
func NewPlayerID(taken func(PlayerID) bool) PlayerID {
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("domain: crypto/rand unavailable: " + err.Error())
		}
		id := PlayerID(binary.BigEndian.Uint32(buf[:]))
		if !taken(id) {
			return id
		}
	}
}

// NewLobbyID returns a fresh random lobby id not present in taken. The
// 64-bit space keeps the number of active lobbies unguessable from an id.
func NewLobbyID(taken func(LobbyID) bool) LobbyID {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			panic("domain: crypto/rand unavailable: " + err.Error())
		}
		id := LobbyID(binary.BigEndian.Uint64(buf[:]))
		if !taken(id) {
			return id
		}
	}
}
