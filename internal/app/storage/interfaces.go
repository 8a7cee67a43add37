package storage

import (
	"context"
	"errors"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// UserStore persists registered users.
type UserStore interface {
	// CreateOrGetUser returns the existing user with username, or registers
	// a new one. The boolean reports whether a user was created.
	CreateOrGetUser(ctx context.Context, username string) (user.User, bool, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	// ListUsers returns users in creation order.
	ListUsers(ctx context.Context) ([]user.User, error)
}

// ExerciseStore persists exercise records.
type ExerciseStore interface {
	// AppendExercise assigns rec a fresh id and stores it after every
	// previously appended record.
	AppendExercise(ctx context.Context, rec exercise.Record) (exercise.Record, error)
	// ListExercises returns the user's records in append order.
	ListExercises(ctx context.Context, userID string) ([]exercise.Record, error)
}
