package game

import "errors"

var (
	ErrRoomNotFound = errors.New("room-not-found")
	ErrRoomExists   = errors.New("room-already-exists")
)
