package storage_test

import (
	"api/domain"
	"api/game"
	"api/migrations"
	"api/storage"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var repo *storage.PostgresRepo

func TestMain(m *testing.M) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine3.22",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testusername"),
		postgres.WithPassword("testpassword"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		panic(err)
	}

	connString, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	if err := migrations.Migrate(connString); err != nil {
		panic(err)
	}

	repo, err = storage.NewPostgresRepo(ctx, connString)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	postgresContainer.Terminate(ctx)
	os.Exit(code)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateUser", func(t *testing.T) {
		id, err := repo.CreateUser(ctx, "alice", "hashed_secret")
		assert.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("CreateUser_Duplicate", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, "alice", "new_hash")
		assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
	})

	t.Run("GetUserByUsername", func(t *testing.T) {
		user, err := repo.GetUserByUsername(ctx, "alice")
		assert.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "hashed_secret", user.PasswordHash)
		assert.NotEmpty(t, user.Id)
	})

	t.Run("GetUserByUsername_NotFound", func(t *testing.T) {
		_, err := repo.GetUserByUsername(ctx, "ghost_user")
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("GetUserById", func(t *testing.T) {
		id, err := repo.CreateUser(ctx, "bob", "hash2")
		require.NoError(t, err)

		user, err := repo.GetUserById(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, "bob", user.Username)
		assert.Equal(t, "hash2", user.PasswordHash)
	})
}

func waitingRecord(id string, playerIDs ...string) game.RoomRecord {
	rec := game.RoomRecord{
		ID:        id,
		Phase:     game.PhaseWaiting,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	for i, pid := range playerIDs {
		rec.Players = append(rec.Players, game.RoomPlayer{ID: pid, Name: "player-" + pid, PlayerNumber: i + 1})
	}
	return rec
}

func TestRoomRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateRoom and GetRoom round-trip", func(t *testing.T) {
		rec := waitingRecord("room-1", "c1")

		require.NoError(t, repo.CreateRoom(ctx, rec))

		got, err := repo.GetRoom(ctx, "room-1")
		require.NoError(t, err)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, game.PhaseWaiting, got.Phase)
		assert.Equal(t, rec.Players, got.Players)
		assert.Nil(t, got.Match)
	})

	t.Run("CreateRoom_Duplicate", func(t *testing.T) {
		err := repo.CreateRoom(ctx, waitingRecord("room-1", "c9"))
		assert.ErrorIs(t, err, game.ErrRoomExists)
	})

	t.Run("GetRoom_NotFound", func(t *testing.T) {
		_, err := repo.GetRoom(ctx, "no-such-room")
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
	})

	t.Run("UpdateRoom stores the match and indexes the joiner", func(t *testing.T) {
		rec := waitingRecord("room-2", "c2")
		require.NoError(t, repo.CreateRoom(ctx, rec))

		rec.Players = append(rec.Players, game.RoomPlayer{ID: "c3", Name: "player-c3", PlayerNumber: 2})
		rec.Phase = game.PhaseActive
		rec.Match = game.NewMatchState(game.DefaultRules(), rec.Players[0], rec.Players[1])
		require.NoError(t, repo.UpdateRoom(ctx, rec))

		got, err := repo.GetRoom(ctx, "room-2")
		require.NoError(t, err)
		assert.Equal(t, game.PhaseActive, got.Phase)
		require.NotNil(t, got.Match)
		assert.Equal(t, 3, got.Match.RollsLeft)
		assert.Equal(t, "player-c2", got.Match.Players[0].Name)

		roomID, err := repo.RoomIDByParticipant(ctx, "c3")
		require.NoError(t, err)
		assert.Equal(t, "room-2", roomID)
	})

	t.Run("UpdateRoom_NotFound", func(t *testing.T) {
		err := repo.UpdateRoom(ctx, waitingRecord("no-such-room", "c4"))
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
	})

	t.Run("RoomIDByParticipant", func(t *testing.T) {
		require.NoError(t, repo.CreateRoom(ctx, waitingRecord("room-3", "c5")))

		roomID, err := repo.RoomIDByParticipant(ctx, "c5")
		require.NoError(t, err)
		assert.Equal(t, "room-3", roomID)
	})

	t.Run("RoomIDByParticipant_NotFound", func(t *testing.T) {
		_, err := repo.RoomIDByParticipant(ctx, "nobody")
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
	})

	t.Run("DeleteRoom drops the participant index too", func(t *testing.T) {
		require.NoError(t, repo.CreateRoom(ctx, waitingRecord("room-4", "c6")))

		require.NoError(t, repo.DeleteRoom(ctx, "room-4"))

		_, err := repo.GetRoom(ctx, "room-4")
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
		_, err = repo.RoomIDByParticipant(ctx, "c6")
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
	})

	t.Run("DeleteRoom is idempotent", func(t *testing.T) {
		assert.NoError(t, repo.DeleteRoom(ctx, "room-4"))
	})
}
