package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
	"github.com/R3E-Network/exercise_tracker/internal/app/idgen"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and keeps everything for the lifetime of the process.
type Store struct {
	mu  sync.RWMutex
	ids *idgen.Sequence

	users          []user.User
	userIndex      map[string]int
	usernameIndex  map[string]int
	exercises      []exercise.Record
	exercisesByOwn map[string][]int
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.ExerciseStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		ids:            idgen.NewSequence(),
		userIndex:      make(map[string]int),
		usernameIndex:  make(map[string]int),
		exercisesByOwn: make(map[string][]int),
	}
}

// UserStore implementation -----------------------------------------------------

func (s *Store) CreateOrGetUser(ctx context.Context, username string) (user.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.usernameIndex[username]; ok {
		return s.users[idx], false, nil
	}

	id, err := s.ids.Next(ctx, idgen.KindUser)
	if err != nil {
		return user.User{}, false, fmt.Errorf("allocate user id: %w", err)
	}
	u := user.User{ID: id, Username: username, CreatedAt: time.Now().UTC()}

	s.users = append(s.users, u)
	s.userIndex[u.ID] = len(s.users) - 1
	s.usernameIndex[u.Username] = len(s.users) - 1
	return u, true, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.userIndex[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return s.users[idx], nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, len(s.users))
	copy(result, s.users)
	return result, nil
}

// ExerciseStore implementation -------------------------------------------------

func (s *Store) AppendExercise(ctx context.Context, rec exercise.Record) (exercise.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.ids.Next(ctx, idgen.KindExercise)
	if err != nil {
		return exercise.Record{}, fmt.Errorf("allocate exercise id: %w", err)
	}
	rec.ID = id

	s.exercises = append(s.exercises, rec)
	s.exercisesByOwn[rec.UserID] = append(s.exercisesByOwn[rec.UserID], len(s.exercises)-1)
	return rec, nil
}

func (s *Store) ListExercises(_ context.Context, userID string) ([]exercise.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.exercisesByOwn[userID]
	result := make([]exercise.Record, 0, len(positions))
	for _, pos := range positions {
		result = append(result, s.exercises[pos])
	}
	return result, nil
}
