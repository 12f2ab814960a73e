package game

// Wire protocol: JSON envelopes over the websocket, one event per message.

type ClientEventType string

const (
	EventCreateRoom ClientEventType = "createRoom"
	EventJoinRoom   ClientEventType = "joinRoom"
	EventRollDice   ClientEventType = "rollDice"
)

type ClientEvent struct {
	Type       ClientEventType `json:"type"`
	RoomID     string          `json:"roomId,omitempty"`
	PlayerName string          `json:"playerName,omitempty"`
	Target     Target          `json:"target,omitempty"`
}

type ServerEventType string

const (
	EventRoomCreated  ServerEventType = "roomCreated"
	EventGameStart    ServerEventType = "gameStart"
	EventUpdateState  ServerEventType = "updateState"
	EventGameOver     ServerEventType = "gameOver"
	EventErrorMsg     ServerEventType = "errorMsg"
	EventOpponentLeft ServerEventType = "opponentLeft"
)

type ServerEvent struct {
	Type     ServerEventType `json:"type"`
	RoomID   string          `json:"roomId,omitempty"`
	PlayerID string          `json:"playerId,omitempty"`
	Text     string          `json:"text,omitempty"`
	State    *MatchState     `json:"state,omitempty"`
	Winner   *PlayerState    `json:"winner,omitempty"`
}

// User-facing validation failures. Illegal moves (rolling out of turn,
// after game over, with no rolls left) are never surfaced: they are stale
// or duplicate client events and get dropped silently.
const (
	errTextMissingRoomName   = "Please enter a room name."
	errTextMissingPlayerName = "Please enter a player name."
	errTextRoomExists        = "Error: that room name is already taken."
	errTextRoomNotFound      = "Error: that room does not exist."
	errTextRoomFull          = "Error: that room is full."
	errTextAlreadyInRoom     = "Error: you are already in a room."
	errTextUnknownTarget     = "Error: unknown target."
	errTextServer            = "Server error. Please try again."
)

func NewRoomCreatedEvent(roomID, playerID string) ServerEvent {
	return ServerEvent{Type: EventRoomCreated, RoomID: roomID, PlayerID: playerID}
}

func NewGameStartEvent(state *MatchState) ServerEvent {
	return ServerEvent{Type: EventGameStart, State: state}
}

func NewUpdateStateEvent(state *MatchState) ServerEvent {
	return ServerEvent{Type: EventUpdateState, State: state}
}

// NewGameOverEvent carries the winner (nil on a draw) together with the
// final snapshot.
func NewGameOverEvent(winner *PlayerState, state *MatchState) ServerEvent {
	return ServerEvent{Type: EventGameOver, Winner: winner, State: state}
}

func NewErrorEvent(text string) ServerEvent {
	return ServerEvent{Type: EventErrorMsg, Text: text}
}

func NewOpponentLeftEvent() ServerEvent {
	return ServerEvent{Type: EventOpponentLeft}
}
