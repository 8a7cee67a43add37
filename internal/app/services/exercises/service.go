package exercises

import (
	"context"
	"errors"
	"strings"
	"time"

	core "github.com/R3E-Network/exercise_tracker/internal/app/core/service"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
	"github.com/R3E-Network/exercise_tracker/internal/app/metrics"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
	svcerrors "github.com/R3E-Network/exercise_tracker/internal/errors"
	"github.com/R3E-Network/exercise_tracker/pkg/logger"
)

// Input is an exercise submission as received from a client. Duration holds
// the textual form of a number; Date may be empty.
type Input struct {
	Description string
	Duration    string
	Date        string
}

// Entry is a stored record together with its owner.
type Entry struct {
	User   user.User
	Record exercise.Record
}

// Option customises a Service.
type Option func(*Service)

// WithOrder selects the ordering log queries start from.
func WithOrder(order exercise.Order) Option {
	return func(s *Service) {
		if order.Valid() {
			s.order = order
		}
	}
}

// WithClock overrides the source of default exercise dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Service records exercises and answers log queries.
type Service struct {
	users storage.UserStore
	store storage.ExerciseStore
	log   *logger.Logger
	order exercise.Order
	now   func() time.Time
}

// New constructs an exercise service.
func New(users storage.UserStore, store storage.ExerciseStore, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDefault("exercises")
	}
	s := &Service{
		users: users,
		store: store,
		log:   log,
		order: exercise.OrderInsertion,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Descriptor advertises the service placement.
func (s *Service) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:         "exercises",
		Domain:       "exercises",
		Layer:        core.LayerCore,
		Capabilities: []string{"add", "log:" + string(s.order)},
	}
}

// Order reports the configured log ordering.
func (s *Service) Order() exercise.Order {
	return s.order
}

// Add validates in and appends it to the log of userID.
func (s *Service) Add(ctx context.Context, userID string, in Input) (Entry, error) {
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return Entry{}, svcerrors.Validation("Description is required")
	}
	if strings.TrimSpace(in.Duration) == "" {
		return Entry{}, svcerrors.Validation("Duration is required")
	}
	duration, err := ParseDuration(in.Duration)
	if err != nil {
		return Entry{}, svcerrors.Validation("Duration must be a non-negative number")
	}

	date := s.now().UTC()
	if strings.TrimSpace(in.Date) != "" {
		date, err = ParseDate(in.Date)
		if err != nil {
			return Entry{}, svcerrors.Validation("Invalid date")
		}
	}

	owner, err := s.lookupUser(ctx, userID)
	if err != nil {
		return Entry{}, err
	}

	rec, err := s.store.AppendExercise(ctx, exercise.Record{
		UserID:      owner.ID,
		Description: description,
		Duration:    duration,
		Date:        date,
	})
	if err != nil {
		return Entry{}, svcerrors.Internal(err)
	}

	metrics.RecordExerciseLogged()
	s.log.WithContext(ctx).WithField("user_id", owner.ID).WithField("exercise_id", rec.ID).Debug("exercise logged")
	return Entry{User: owner, Record: rec}, nil
}

// Log returns the filtered log of userID. from and to are date strings and
// limit an integer string; each may be empty.
func (s *Service) Log(ctx context.Context, userID, from, to, limit string) (exercise.Log, error) {
	q, err := ParseQuery(from, to, limit)
	if err != nil {
		return exercise.Log{}, svcerrors.Validation("Invalid date range: %v", err)
	}

	owner, err := s.lookupUser(ctx, userID)
	if err != nil {
		return exercise.Log{}, err
	}

	records, err := s.store.ListExercises(ctx, owner.ID)
	if err != nil {
		return exercise.Log{}, svcerrors.Internal(err)
	}

	entries := Project(Run(records, q, s.order))
	metrics.RecordLogQuery(len(entries))
	return exercise.Log{
		UserID:   owner.ID,
		Username: owner.Username,
		From:     q.From,
		To:       q.To,
		Count:    len(entries),
		Entries:  entries,
	}, nil
}

func (s *Service) lookupUser(ctx context.Context, id string) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, svcerrors.NotFound("User not found")
	}
	if err != nil {
		return user.User{}, svcerrors.Internal(err)
	}
	return u, nil
}
