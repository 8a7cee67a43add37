package users

import (
	"context"
	"errors"
	"strings"

	core "github.com/R3E-Network/exercise_tracker/internal/app/core/service"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/user"
	"github.com/R3E-Network/exercise_tracker/internal/app/metrics"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
	svcerrors "github.com/R3E-Network/exercise_tracker/internal/errors"
	"github.com/R3E-Network/exercise_tracker/pkg/logger"
)

// Service registers and looks up users.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// Descriptor advertises the service placement.
func (s *Service) Descriptor() core.Descriptor {
	return core.Descriptor{
		Name:         "users",
		Domain:       "users",
		Layer:        core.LayerCore,
		Capabilities: []string{"register", "get", "list"},
	}
}

// Register returns the user owning username, creating it on first use.
// Usernames are stored and matched exactly as given; blank ones are rejected.
func (s *Service) Register(ctx context.Context, username string) (user.User, error) {
	if strings.TrimSpace(username) == "" {
		return user.User{}, svcerrors.Validation("Username is required")
	}

	u, created, err := s.store.CreateOrGetUser(ctx, username)
	if err != nil {
		return user.User{}, svcerrors.Internal(err)
	}
	metrics.RecordUserRegistration(created)
	if created {
		s.log.WithContext(ctx).WithField("user_id", u.ID).Info("user registered")
	}
	return u, nil
}

// Get returns the user with id.
func (s *Service) Get(ctx context.Context, id string) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, svcerrors.NotFound("User not found")
	}
	if err != nil {
		return user.User{}, svcerrors.Internal(err)
	}
	return u, nil
}

// List returns every user in creation order.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, svcerrors.Internal(err)
	}
	return users, nil
}
