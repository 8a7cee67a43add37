package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL. Identifiers
// come from the BIGSERIAL sequence of each table.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ExerciseStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

type userRow struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toDomain() user.User {
	return user.User{ID: strconv.FormatInt(r.ID, 10), Username: r.Username, CreatedAt: r.CreatedAt.UTC()}
}

type exerciseRow struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Description string    `db:"description"`
	Duration    int       `db:"duration"`
	PerformedAt time.Time `db:"performed_at"`
}

func (r exerciseRow) toDomain() exercise.Record {
	return exercise.Record{
		ID:          strconv.FormatInt(r.ID, 10),
		UserID:      strconv.FormatInt(r.UserID, 10),
		Description: r.Description,
		Duration:    r.Duration,
		Date:        r.PerformedAt.UTC(),
	}
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateOrGetUser(ctx context.Context, username string) (user.User, bool, error) {
	existing, err := s.userByName(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return user.User{}, false, err
	}

	var row userRow
	err = s.db.GetContext(ctx, &row, `
		INSERT INTO exercise_users (username)
		VALUES ($1)
		ON CONFLICT (username) DO NOTHING
		RETURNING id, username, created_at
	`, username)
	switch {
	case err == nil:
		return row.toDomain(), true, nil
	case errors.Is(err, sql.ErrNoRows):
		// Lost the race to a concurrent registration; the winner is authoritative.
		winner, err := s.userByName(ctx, username)
		if err != nil {
			return user.User{}, false, err
		}
		return winner, false, nil
	default:
		return user.User{}, false, err
	}
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	numeric, ok := parseID(id)
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}

	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, created_at
		FROM exercise_users
		WHERE id = $1
	`, numeric)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return user.User{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, created_at
		FROM exercise_users
		ORDER BY id
	`); err != nil {
		return nil, err
	}

	result := make([]user.User, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func (s *Store) userByName(ctx context.Context, username string) (user.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, `
		SELECT id, username, created_at
		FROM exercise_users
		WHERE username = $1
	`, username); err != nil {
		return user.User{}, err
	}
	return row.toDomain(), nil
}

// --- ExerciseStore ----------------------------------------------------------

func (s *Store) AppendExercise(ctx context.Context, rec exercise.Record) (exercise.Record, error) {
	owner, ok := parseID(rec.UserID)
	if !ok {
		return exercise.Record{}, fmt.Errorf("user %s: %w", rec.UserID, storage.ErrNotFound)
	}

	var id int64
	if err := s.db.GetContext(ctx, &id, `
		INSERT INTO exercise_records (user_id, description, duration, performed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, owner, rec.Description, rec.Duration, rec.Date.UTC()); err != nil {
		return exercise.Record{}, err
	}

	rec.ID = strconv.FormatInt(id, 10)
	return rec, nil
}

func (s *Store) ListExercises(ctx context.Context, userID string) ([]exercise.Record, error) {
	owner, ok := parseID(userID)
	if !ok {
		return []exercise.Record{}, nil
	}

	var rows []exerciseRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, description, duration, performed_at
		FROM exercise_records
		WHERE user_id = $1
		ORDER BY id
	`, owner); err != nil {
		return nil, err
	}

	result := make([]exercise.Record, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toDomain())
	}
	return result, nil
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
