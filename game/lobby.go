package game

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

type createRequest struct {
	player participant
	roomID string
	name   string
}

type joinRequest struct {
	player participant
	roomID string
	name   string
}

// Lobby is the single actor owning the live room table. Room creation,
// join routing and disconnect handling funnel through its loop; each live
// room then runs its own actor for match events.
type Lobby struct {
	rules         Rules
	roller        Roller
	registry      RoomRegistry
	tickerCreator PeriodicTickerChannelCreator
	logger        zerolog.Logger

	rooms map[string]*room

	createReqs     chan createRequest
	joinReqs       chan joinRequest
	leaveReqs      chan participant
	removeRoomChan chan string
}

func NewLobby(rules Rules, roller Roller, registry RoomRegistry, tickerCreator PeriodicTickerChannelCreator, logger zerolog.Logger) *Lobby {
	return &Lobby{
		rules:          rules,
		roller:         roller,
		registry:       registry,
		tickerCreator:  tickerCreator,
		logger:         logger,
		rooms:          map[string]*room{},
		createReqs:     make(chan createRequest, 256),
		joinReqs:       make(chan joinRequest, 256),
		leaveReqs:      make(chan participant, 256),
		removeRoomChan: make(chan string, 32),
	}
}

func (l *Lobby) HandleCreateRoom(ctx context.Context, p participant, roomID, name string) {
	select {
	case l.createReqs <- createRequest{player: p, roomID: roomID, name: name}:
	case <-ctx.Done():
	}
}

func (l *Lobby) HandleJoinRoom(ctx context.Context, p participant, roomID, name string) {
	select {
	case l.joinReqs <- joinRequest{player: p, roomID: roomID, name: name}:
	case <-ctx.Done():
	}
}

func (l *Lobby) HandleDisconnect(ctx context.Context, p participant) {
	select {
	case l.leaveReqs <- p:
	case <-ctx.Done():
	}
}

func (l *Lobby) RemoveRoom(roomID string) {
	l.removeRoomChan <- roomID
}

func (l *Lobby) Run(ctx context.Context, started chan struct{}) {
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case <-ctx.Done():
			return

		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case req := <-l.createReqs:
			l.handleCreate(ctx, req)

		case req := <-l.joinReqs:
			l.handleJoin(ctx, req)

		case p := <-l.leaveReqs:
			l.handleLeave(ctx, p)

		case roomID := <-l.removeRoomChan:
			delete(l.rooms, roomID)
		}
	}
}

func (l *Lobby) handleCreate(ctx context.Context, req createRequest) {
	switch {
	case req.roomID == "":
		req.player.SendEvent(NewErrorEvent(errTextMissingRoomName))
		return
	case req.name == "":
		req.player.SendEvent(NewErrorEvent(errTextMissingPlayerName))
		return
	case req.player.currentRoom() != nil:
		req.player.SendEvent(NewErrorEvent(errTextAlreadyInRoom))
		return
	}

	if _, live := l.rooms[req.roomID]; live {
		req.player.SendEvent(NewErrorEvent(errTextRoomExists))
		return
	}
	if _, err := l.registry.GetRoom(ctx, req.roomID); err == nil {
		req.player.SendEvent(NewErrorEvent(errTextRoomExists))
		return
	} else if !errors.Is(err, ErrRoomNotFound) {
		l.logger.Error().Err(err).Str("room_id", req.roomID).Msg("registry lookup failed")
		req.player.SendEvent(NewErrorEvent(errTextServer))
		return
	}

	r := newRoom(req.roomID, l.rules, l.roller, l.registry, l, l.logger, req.player, req.name)

	if err := l.registry.CreateRoom(ctx, r.record); err != nil {
		req.player.setRoom(nil)
		if errors.Is(err, ErrRoomExists) {
			req.player.SendEvent(NewErrorEvent(errTextRoomExists))
			return
		}
		l.logger.Error().Err(err).Str("room_id", req.roomID).Msg("failed to persist new room")
		req.player.SendEvent(NewErrorEvent(errTextServer))
		return
	}

	l.rooms[req.roomID] = r
	go r.run(ctx)
	req.player.SendEvent(NewRoomCreatedEvent(req.roomID, req.player.ID()))
	l.logger.Info().Str("room_id", req.roomID).Str("player", req.name).Msg("room created")
}

func (l *Lobby) handleJoin(ctx context.Context, req joinRequest) {
	switch {
	case req.roomID == "":
		req.player.SendEvent(NewErrorEvent(errTextMissingRoomName))
		return
	case req.name == "":
		req.player.SendEvent(NewErrorEvent(errTextMissingPlayerName))
		return
	case req.player.currentRoom() != nil:
		req.player.SendEvent(NewErrorEvent(errTextAlreadyInRoom))
		return
	}

	r, live := l.rooms[req.roomID]
	if !live {
		req.player.SendEvent(NewErrorEvent(errTextRoomNotFound))
		return
	}

	if !r.RequestJoin(roomJoinRequest{player: req.player, name: req.name}) {
		// The actor is gone or wedged; to the client the room is unusable.
		req.player.SendEvent(NewErrorEvent(errTextRoomNotFound))
	}
}

func (l *Lobby) handleLeave(ctx context.Context, p participant) {
	roomID, err := l.registry.RoomIDByParticipant(ctx, p.ID())
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			l.logger.Error().Err(err).Str("player_id", p.ID()).Msg("participant lookup failed")
		}
		p.CancelAndRelease()
		return
	}

	if r, live := l.rooms[roomID]; live {
		if r.RequestRemoval(p) {
			return
		}
	}

	// Indexed record without a responsive actor: leftover from an earlier
	// process. Clean it up directly.
	if err := l.registry.DeleteRoom(ctx, roomID); err != nil {
		l.logger.Error().Err(err).Str("room_id", roomID).Msg("failed to delete stale room")
	}
	p.CancelAndRelease()
}
