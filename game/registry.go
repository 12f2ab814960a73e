package game

import (
	"context"
	"time"
)

type RoomPhase string

const (
	PhaseWaiting  RoomPhase = "waiting"
	PhaseActive   RoomPhase = "active"
	PhaseFinished RoomPhase = "finished"
)

// RoomPlayer is a seat in a room. PlayerNumber (1 or 2) is fixed at join
// time and only used for client-side placement; turn order is always
// players[0] first.
type RoomPlayer struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	PlayerNumber int    `json:"playerNumber"`
}

// RoomRecord is the persisted form of a room: one or two seats plus the
// match state once the second player has joined.
type RoomRecord struct {
	ID        string       `json:"id"`
	Phase     RoomPhase    `json:"phase"`
	Players   []RoomPlayer `json:"players"`
	Match     *MatchState  `json:"match,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// RoomRegistry is the persistent room store. Implementations keep a
// participant-id index in sync with the stored record's seats, so finding
// the room a player sits in is a direct lookup rather than a scan.
type RoomRegistry interface {
	CreateRoom(ctx context.Context, rec RoomRecord) error
	GetRoom(ctx context.Context, id string) (RoomRecord, error)
	UpdateRoom(ctx context.Context, rec RoomRecord) error
	DeleteRoom(ctx context.Context, id string) error
	RoomIDByParticipant(ctx context.Context, playerID string) (string, error)
}
