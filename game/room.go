package game

import (
	"context"
	"slices"
	"time"

	"github.com/rs/zerolog"
)

// participant is the room's view of a connected player.
type participant interface {
	ID() string
	Username() string
	SendEvent(ev ServerEvent)
	Ping()
	CancelAndRelease()
	setRoom(r *room)
	currentRoom() *room
}

type clientEnvelope struct {
	event ClientEvent
	from  participant
}

type roomJoinRequest struct {
	player participant
	name   string
}

type roomParent interface {
	RemoveRoom(roomID string)
}

// room is the actor that owns one match. Every mutation of its record goes
// through the run loop, one event at a time, so two rolls for the same
// room can never interleave and both clients observe broadcasts in
// application order.
type room struct {
	id       string
	rules    Rules
	roller   Roller
	registry RoomRegistry
	parent   roomParent
	logger   zerolog.Logger

	record  RoomRecord
	players []participant

	inbox    chan clientEnvelope
	joinReqs chan roomJoinRequest
	removals chan participant
	pings    chan struct{}
}

func newRoom(id string, rules Rules, roller Roller, registry RoomRegistry, parent roomParent, logger zerolog.Logger, host participant, hostName string) *room {
	r := &room{
		id:       id,
		rules:    rules,
		roller:   roller,
		registry: registry,
		parent:   parent,
		logger:   logger.With().Str("room_id", id).Logger(),
		record: RoomRecord{
			ID:        id,
			Phase:     PhaseWaiting,
			Players:   []RoomPlayer{{ID: host.ID(), Name: hostName, PlayerNumber: 1}},
			CreatedAt: time.Now(),
		},
		players:  []participant{host},
		inbox:    make(chan clientEnvelope, 64),
		joinReqs: make(chan roomJoinRequest, 8),
		removals: make(chan participant, 8),
		pings:    make(chan struct{}, 1),
	}
	host.setRoom(r)
	return r
}

// Send forwards a client event to the room actor. Dropping on a full inbox
// is safe: rolls are retried by the human, not the protocol.
func (r *room) Send(env clientEnvelope) {
	select {
	case r.inbox <- env:
	default:
		r.logger.Warn().Str("player_id", env.from.ID()).Msg("room inbox full, dropping event")
	}
}

func (r *room) RequestJoin(req roomJoinRequest) bool {
	select {
	case r.joinReqs <- req:
		return true
	default:
		return false
	}
}

func (r *room) RequestRemoval(p participant) bool {
	select {
	case r.removals <- p:
		return true
	default:
		return false
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pings <- struct{}{}:
	default:
	}
}

func (r *room) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-r.inbox:
			if done := r.handleRoll(ctx, env); done {
				return
			}
		case req := <-r.joinReqs:
			r.handleJoin(ctx, req)
		case p := <-r.removals:
			r.handleLeave(ctx, p)
			return
		case <-r.pings:
			for _, p := range r.players {
				p.Ping()
			}
		}
	}
}

func (r *room) broadcast(ev ServerEvent) {
	for _, p := range r.players {
		p.SendEvent(ev)
	}
}

func (r *room) handleJoin(ctx context.Context, req roomJoinRequest) {
	if r.record.Phase != PhaseWaiting || len(r.record.Players) >= 2 {
		req.player.SendEvent(NewErrorEvent(errTextRoomFull))
		return
	}

	seat := RoomPlayer{ID: req.player.ID(), Name: req.name, PlayerNumber: 2}
	rec := r.record
	rec.Players = append(slices.Clone(rec.Players), seat)
	rec.Phase = PhaseActive
	rec.Match = NewMatchState(r.rules, rec.Players[0], seat)

	if err := r.registry.UpdateRoom(ctx, rec); err != nil {
		r.logger.Error().Err(err).Msg("failed to persist joined room")
		req.player.SendEvent(NewErrorEvent(errTextServer))
		return
	}

	r.record = rec
	r.players = append(r.players, req.player)
	req.player.setRoom(r)
	r.logger.Info().Str("player_id", seat.ID).Str("player", req.name).Msg("second player joined, match started")
	r.broadcast(NewGameStartEvent(rec.Match))
}

// handleRoll resolves one rollDice event. Out-of-turn, post-game and
// exhausted-turn rolls are stale or duplicate client events and are
// dropped without a reply. The roll is staged on a clone and committed
// only after the registry write succeeds, so a persistence failure never
// leaves a half-applied roll observable. Returns true once the match has
// ended and the actor should stop.
func (r *room) handleRoll(ctx context.Context, env clientEnvelope) bool {
	match := r.record.Match
	if match == nil || match.IsGameOver || match.RollsLeft == 0 {
		return false
	}
	if env.from.ID() != match.Players[match.CurrentPlayerIndex].ID {
		r.logger.Debug().Str("player_id", env.from.ID()).Msg("ignoring out-of-turn roll")
		return false
	}

	target := env.event.Target
	if !r.rules.ValidTarget(target) {
		env.from.SendEvent(NewErrorEvent(errTextUnknownTarget))
		return false
	}

	next := match.Clone()
	next.ApplyRoll(r.rules, r.roller, target)
	next.AdvanceTurn(r.rules)

	rec := r.record
	rec.Match = next
	if next.IsGameOver {
		rec.Phase = PhaseFinished
	}

	if err := r.registry.UpdateRoom(ctx, rec); err != nil {
		r.logger.Error().Err(err).Str("player_id", env.from.ID()).Msg("failed to persist roll")
		env.from.SendEvent(NewErrorEvent(errTextServer))
		return false
	}

	r.record = rec
	r.broadcast(NewUpdateStateEvent(next))

	if !next.IsGameOver {
		return false
	}

	r.broadcast(NewGameOverEvent(next.Winner(), next))
	if err := r.registry.DeleteRoom(ctx, r.id); err != nil {
		r.logger.Error().Err(err).Msg("failed to delete finished room")
	}
	for _, p := range r.players {
		p.setRoom(nil)
	}
	r.logger.Info().Int("round", next.Round).Msg("match over")
	r.parent.RemoveRoom(r.id)
	return true
}

// handleLeave tears the room down entirely: any disconnect ends the match,
// including a lone waiting host leaving their own room.
func (r *room) handleLeave(ctx context.Context, leaver participant) {
	if err := r.registry.DeleteRoom(ctx, r.id); err != nil {
		r.logger.Error().Err(err).Msg("failed to delete abandoned room")
	}
	for _, p := range r.players {
		p.setRoom(nil)
		if p == leaver {
			continue
		}
		p.SendEvent(NewOpponentLeftEvent())
	}
	leaver.CancelAndRelease()
	r.logger.Info().Str("player_id", leaver.ID()).Msg("participant left, room torn down")
	r.parent.RemoveRoom(r.id)
}
