package game

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Player binds one live websocket connection to the lobby. Its id is the
// per-connection identity used as the participant id in rooms; userID is
// the authenticated account behind it.
type Player struct {
	id       string
	userID   string
	username string
	conn     Conn
	lobby    *Lobby
	limiter  *rate.Limiter
	outbox   chan []byte
	pingChan chan struct{}

	mu     sync.Mutex
	room   *room
	closed bool
}

func NewPlayer(userID, username string, conn Conn, lobby *Lobby) *Player {
	return &Player{
		id:       uuid.NewString(),
		userID:   userID,
		username: username,
		conn:     conn,
		lobby:    lobby,
		limiter:  rate.NewLimiter(5, 10),
		outbox:   make(chan []byte, 256),
		pingChan: make(chan struct{}, 1),
	}
}

func (p *Player) ID() string {
	return p.id
}

func (p *Player) Username() string {
	return p.username
}

func (p *Player) setRoom(r *room) {
	p.mu.Lock()
	p.room = r
	p.mu.Unlock()
}

func (p *Player) currentRoom() *room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

// Send enqueues data for the write pump. A client that cannot keep up has
// its packets dropped rather than stalling the room actor.
func (p *Player) Send(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.outbox <- data:
	default:
		log.Warn().Str("player_id", p.id).Str("user_id", p.userID).Msg("outbox full, dropping packet")
	}
}

func (p *Player) SendEvent(ev ServerEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("player_id", p.id).Str("event", string(ev.Type)).Msg("failed to marshal server event")
		return
	}
	p.Send(data)
}

// Ping signals the write pump to emit a websocket ping.
func (p *Player) Ping() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.pingChan <- struct{}{}:
	default:
	}
}

// ReadPump decodes inbound events and routes them: room management goes to
// the lobby, rolls go straight to the player's room. It exits on the first
// read error, which is the disconnect signal.
func (p *Player) ReadPump(ctx context.Context) {
	defer p.lobby.HandleDisconnect(ctx, p)

	for {
		data, err := p.conn.Read()
		if err != nil {
			return
		}

		if !p.limiter.Allow() {
			continue
		}

		var event ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}

		switch event.Type {
		case EventCreateRoom:
			p.lobby.HandleCreateRoom(ctx, p, event.RoomID, event.PlayerName)
		case EventJoinRoom:
			p.lobby.HandleJoinRoom(ctx, p, event.RoomID, event.PlayerName)
		case EventRollDice:
			if r := p.currentRoom(); r != nil {
				r.Send(clientEnvelope{event: event, from: p})
			}
		}
	}
}

func (p *Player) WritePump() {
loop:
	for {
		select {
		case data, ok := <-p.outbox:
			if !ok {
				break loop
			}
			if err := p.conn.Write(data); err != nil {
				break loop
			}
		case _, ok := <-p.pingChan:
			if !ok {
				break loop
			}
			if err := p.conn.Ping(); err != nil {
				break loop
			}
		}
	}
}

// CancelAndRelease shuts the connection down. Safe to call more than once.
func (p *Player) CancelAndRelease() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.outbox)
	close(p.pingChan)
	p.mu.Unlock()

	p.conn.Close("")
}
