package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
	"github.com/R3E-Network/exercise_tracker/internal/platform/migrations"
)

var userColumns = []string{"id", "username", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestCreateOrGetUserReturnsExisting(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM exercise_users")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(7), "alice", created))

	u, isNew, err := store.CreateOrGetUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "7", u.ID)
	assert.Equal(t, "alice", u.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetUserInserts(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM exercise_users")).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO exercise_users")).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "bob", now))

	u, isNew, err := store.CreateOrGetUser(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, "1", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetUserConflictRereads(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM exercise_users")).
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO exercise_users")).
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectQuery(regexp.QuoteMeta("FROM exercise_users")).
		WithArgs("carol").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(3), "carol", now))

	u, isNew, err := store.CreateOrGetUser(context.Background(), "carol")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, "3", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := store.GetUser(context.Background(), "999")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = store.GetUser(context.Background(), "not-a-number")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserDriverFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnError(sql.ErrConnDone)

	_, err := store.GetUser(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, storage.ErrNotFound))
}

func TestListUsersOrdersByID(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id")).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(int64(1), "bob", now).
			AddRow(int64(2), "carol", now))

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].Username)
	assert.Equal(t, "2", users[1].ID)
}

func TestAppendAndListExercises(t *testing.T) {
	store, mock := newMockStore(t)
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO exercise_records")).
		WithArgs(int64(1), "run", 30, date).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	rec, err := store.AppendExercise(context.Background(), exercise.Record{
		UserID: "1", Description: "run", Duration: 30, Date: date,
	})
	require.NoError(t, err)
	assert.Equal(t, "11", rec.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM exercise_records")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "description", "duration", "performed_at"}).
			AddRow(int64(11), int64(1), "run", 30, date).
			AddRow(int64(12), int64(1), "swim", 45, date.AddDate(0, 0, 1)))

	recs, err := store.ListExercises(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "swim", recs[1].Description)
	assert.Equal(t, "1", recs[1].UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	store := New(db)
	name := "pg-integration-" + time.Now().UTC().Format("150405.000000")
	u, _, err := store.CreateOrGetUser(ctx, name)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	again, isNew, err := store.CreateOrGetUser(ctx, name)
	if err != nil || isNew || again.ID != u.ID {
		t.Fatalf("expected idempotent registration, got %+v new=%v err=%v", again, isNew, err)
	}

	if _, err := store.AppendExercise(ctx, exercise.Record{UserID: u.ID, Description: "row", Duration: 20, Date: time.Now().UTC()}); err != nil {
		t.Fatalf("append exercise: %v", err)
	}
	recs, err := store.ListExercises(ctx, u.ID)
	if err != nil || len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d err=%v", len(recs), err)
	}
}
