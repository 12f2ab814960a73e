package storage

import (
	"api/domain"
	"api/game"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// "23505" is the PostgreSQL error code for unique_violation
const uniqueViolation = "23505"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresRepo(ctx context.Context, connString string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresRepo{pool: pool}, nil
}

func (pgr *PostgresRepo) Close() {
	pgr.pool.Close()
}

func wrapDatabaseError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
}

// --- users ---

func (pgr *PostgresRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user := domain.User{Username: username}

	row := pgr.pool.QueryRow(ctx, "SELECT id, password_hash FROM users WHERE username = $1", username)

	err := row.Scan(&user.Id, &user.PasswordHash)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, wrapDatabaseError(err)
	}

	return user, nil
}

func (pgr *PostgresRepo) GetUserById(ctx context.Context, id string) (domain.User, error) {
	user := domain.User{Id: id}

	row := pgr.pool.QueryRow(ctx, "SELECT username, password_hash FROM users WHERE id = $1", id)

	err := row.Scan(&user.Username, &user.PasswordHash)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, wrapDatabaseError(err)
	}

	return user, nil
}

func (pgr *PostgresRepo) CreateUser(ctx context.Context, username string, passwordHash string) (string, error) {
	row := pgr.pool.QueryRow(ctx, "INSERT INTO users(username, password_hash) VALUES($1, $2) RETURNING id", username, passwordHash)

	var id string
	err := row.Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", domain.ErrDuplicateUsername
		}
		return "", wrapDatabaseError(err)
	}

	return id, nil
}

// --- room registry ---
//
// Rooms are stored as one JSONB document per room, keyed by the
// user-chosen room id, plus a player_id → room_id index kept in sync with
// the record's seats inside the same transaction. Finding a leaver's room
// is a direct index lookup, never a scan over all rooms.

func (pgr *PostgresRepo) syncParticipants(ctx context.Context, tx pgx.Tx, rec game.RoomRecord) error {
	for _, p := range rec.Players {
		_, err := tx.Exec(ctx,
			`INSERT INTO room_participants(player_id, room_id) VALUES($1, $2)
			 ON CONFLICT (player_id) DO UPDATE SET room_id = EXCLUDED.room_id`,
			p.ID, rec.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (pgr *PostgresRepo) CreateRoom(ctx context.Context, rec game.RoomRecord) error {
	record, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	tx, err := pgr.pool.Begin(ctx)
	if err != nil {
		return wrapDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "INSERT INTO rooms(id, record, created_at) VALUES($1, $2, $3)", rec.ID, record, rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return game.ErrRoomExists
		}
		return wrapDatabaseError(err)
	}

	if err := pgr.syncParticipants(ctx, tx, rec); err != nil {
		return wrapDatabaseError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDatabaseError(err)
	}
	return nil
}

func (pgr *PostgresRepo) GetRoom(ctx context.Context, id string) (game.RoomRecord, error) {
	var record []byte
	err := pgr.pool.QueryRow(ctx, "SELECT record FROM rooms WHERE id = $1", id).Scan(&record)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return game.RoomRecord{}, game.ErrRoomNotFound
		}
		return game.RoomRecord{}, wrapDatabaseError(err)
	}

	var rec game.RoomRecord
	if err := json.Unmarshal(record, &rec); err != nil {
		return game.RoomRecord{}, fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}
	return rec, nil
}

func (pgr *PostgresRepo) UpdateRoom(ctx context.Context, rec game.RoomRecord) error {
	record, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.UnexpectedDatabaseError, err)
	}

	tx, err := pgr.pool.Begin(ctx)
	if err != nil {
		return wrapDatabaseError(err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "UPDATE rooms SET record = $2 WHERE id = $1", rec.ID, record)
	if err != nil {
		return wrapDatabaseError(err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrRoomNotFound
	}

	if err := pgr.syncParticipants(ctx, tx, rec); err != nil {
		return wrapDatabaseError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return wrapDatabaseError(err)
	}
	return nil
}

func (pgr *PostgresRepo) DeleteRoom(ctx context.Context, id string) error {
	// room_participants rows go with the room via ON DELETE CASCADE
	_, err := pgr.pool.Exec(ctx, "DELETE FROM rooms WHERE id = $1", id)
	if err != nil {
		return wrapDatabaseError(err)
	}
	return nil
}

func (pgr *PostgresRepo) RoomIDByParticipant(ctx context.Context, playerID string) (string, error) {
	var roomID string
	err := pgr.pool.QueryRow(ctx, "SELECT room_id FROM room_participants WHERE player_id = $1", playerID).Scan(&roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", game.ErrRoomNotFound
		}
		return "", wrapDatabaseError(err)
	}
	return roomID, nil
}
