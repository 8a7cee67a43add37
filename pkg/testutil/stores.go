// Package testutil provides store doubles for exercising failure paths.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
)

// ErrInjected is returned by FaultyStore for operations marked to fail.
var ErrInjected = errors.New("injected store failure")

// Operation names accepted by FaultyStore.Fail.
const (
	OpCreateOrGetUser = "CreateOrGetUser"
	OpGetUser         = "GetUser"
	OpListUsers       = "ListUsers"
	OpAppendExercise  = "AppendExercise"
	OpListExercises   = "ListExercises"
)

// Backend is the combined store surface FaultyStore wraps.
type Backend interface {
	storage.UserStore
	storage.ExerciseStore
}

// FaultyStore delegates to a backend but fails the operations it is told to.
type FaultyStore struct {
	mu      sync.RWMutex
	backend Backend
	failing map[string]bool
}

var _ Backend = (*FaultyStore)(nil)

// NewFaultyStore wraps backend. Nothing fails until Fail is called.
func NewFaultyStore(backend Backend) *FaultyStore {
	return &FaultyStore{backend: backend, failing: make(map[string]bool)}
}

// Fail makes the named operations return ErrInjected.
func (s *FaultyStore) Fail(ops ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		s.failing[op] = true
	}
}

// Heal clears all injected failures.
func (s *FaultyStore) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = make(map[string]bool)
}

func (s *FaultyStore) fails(op string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failing[op]
}

func (s *FaultyStore) CreateOrGetUser(ctx context.Context, username string) (user.User, bool, error) {
	if s.fails(OpCreateOrGetUser) {
		return user.User{}, false, ErrInjected
	}
	return s.backend.CreateOrGetUser(ctx, username)
}

func (s *FaultyStore) GetUser(ctx context.Context, id string) (user.User, error) {
	if s.fails(OpGetUser) {
		return user.User{}, ErrInjected
	}
	return s.backend.GetUser(ctx, id)
}

func (s *FaultyStore) ListUsers(ctx context.Context) ([]user.User, error) {
	if s.fails(OpListUsers) {
		return nil, ErrInjected
	}
	return s.backend.ListUsers(ctx)
}

func (s *FaultyStore) AppendExercise(ctx context.Context, rec exercise.Record) (exercise.Record, error) {
	if s.fails(OpAppendExercise) {
		return exercise.Record{}, ErrInjected
	}
	return s.backend.AppendExercise(ctx, rec)
}

func (s *FaultyStore) ListExercises(ctx context.Context, userID string) ([]exercise.Record, error) {
	if s.fails(OpListExercises) {
		return nil, ErrInjected
	}
	return s.backend.ListExercises(ctx, userID)
}
