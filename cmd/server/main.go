package main

import (
	"api/auth"
	"api/config"
	"api/crypto"
	"api/game"
	"api/migrations"
	"api/storage"
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func randomSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := migrations.Migrate(cfg.PostgresURL); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	pgRepo, err := storage.NewPostgresRepo(context.Background(), cfg.PostgresURL)
	if err != nil {
		log.Fatal().Err(err).Msg("couldn't connect to postgres")
	}
	defer pgRepo.Close()

	tokenAge := time.Hour * 24 * 7 // 7 days
	passwordHasher := crypto.NewArgon2idHasher(3, 1024*64, 32, 16, 1)
	tokenManager := crypto.NewJWTManager(cfg.JWTKey, tokenAge)

	authService := auth.NewService(pgRepo, passwordHasher, tokenManager)
	authHandler := auth.NewAuthHandler(authService, tokenAge)

	r := CreateServer(cfg.AllowedOrigins)

	{
		authGroup := r.Group("/auth")
		authGroup.POST("/signup", authHandler.SignupHandler)
		authGroup.POST("/login", authHandler.LoginHandler)
		authGroup.POST("/logout", authHandler.LogoutHandler)
		authGroup.GET("/refresh", authHandler.RefreshSessionHandler)
	}

	tickerGen := game.NewTickerGen()
	roller := game.NewDiceRoller(game.NewLockedSource(randomSeed()))
	lobby := game.NewLobby(game.DefaultRules(), roller, pgRepo, &tickerGen, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	lobbyStarted := make(chan struct{})
	go lobby.Run(ctx, lobbyStarted)
	<-lobbyStarted

	gameHandler := game.NewGameHandler(lobby, pgRepo, cfg.AllowedOrigins)
	{
		gameGroup := r.Group("/game")
		gameGroup.Use(authHandler.RequireAuthMiddleware(time.Second * 2))
		gameGroup.GET("/ws", gameHandler.WSHandler)
	}

	go func() {
		if err := r.Run(cfg.ListenAddr); err != nil {
			log.Fatal().Err(err).Msg("couldn't start server")
		}
	}()
	log.Info().Str("addr", cfg.ListenAddr).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("SIGTERM or SIGINT received, shutting down")
}
