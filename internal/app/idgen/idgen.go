// Package idgen issues monotonically increasing decimal identifiers, one
// independent sequence per entity kind.
package idgen

import (
	"context"
	"strconv"
	"sync"
)

// Kind names an identifier sequence.
type Kind string

const (
	KindUser     Kind = "user"
	KindExercise Kind = "exercise"
)

// Allocator hands out identifiers. Identifiers of one kind are never reused
// and never compared with those of another kind.
type Allocator interface {
	Next(ctx context.Context, kind Kind) (string, error)
}

// Sequence is an in-process Allocator starting every kind at 1.
type Sequence struct {
	mu   sync.Mutex
	next map[Kind]int64
}

var _ Allocator = (*Sequence)(nil)

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{next: make(map[Kind]int64)}
}

// Next returns the next identifier for kind.
func (s *Sequence) Next(_ context.Context, kind Kind) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[kind]++
	return strconv.FormatInt(s.next[kind], 10), nil
}
