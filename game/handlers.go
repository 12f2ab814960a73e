package game

import (
	"api/domain"
	"context"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type UserGetter interface {
	GetUserById(ctx context.Context, id string) (domain.User, error)
}

type GameHandler struct {
	lobby      *Lobby
	userGetter UserGetter
	upgrader   websocket.Upgrader
}

func NewGameHandler(lobby *Lobby, userGetter UserGetter, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		lobby:      lobby,
		userGetter: userGetter,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Non-browser clients send no Origin header at all.
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// WSHandler upgrades an authenticated request to a websocket and starts
// the player's pumps. Everything after the upgrade speaks the JSON event
// protocol.
func (h *GameHandler) WSHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		log.Error().
			Str("ip", ctx.ClientIP()).
			Str("user_agent", ctx.Request.UserAgent()).
			Msg("missing id on authenticated route, middleware misconfigured?")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	user, err := h.userGetter.GetUserById(ctx.Request.Context(), id)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown-user"})
		return
	}

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	player := NewPlayer(user.Id, user.Username, NewWebsocketConnection(conn), h.lobby)
	go player.WritePump()
	// The request context dies with the handler; the pumps outlive it.
	go player.ReadPump(context.Background())
}
