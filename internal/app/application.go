package app

import (
	"context"
	"fmt"

	core "github.com/R3E-Network/exercise_tracker/internal/app/core/service"
	"github.com/R3E-Network/exercise_tracker/internal/app/domain/exercise"
	"github.com/R3E-Network/exercise_tracker/internal/app/services/exercises"
	"github.com/R3E-Network/exercise_tracker/internal/app/services/users"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage"
	"github.com/R3E-Network/exercise_tracker/internal/app/storage/memory"
	"github.com/R3E-Network/exercise_tracker/internal/app/system"
	"github.com/R3E-Network/exercise_tracker/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users     storage.UserStore
	Exercises storage.ExerciseStore
}

// Options tunes domain behavior.
type Options struct {
	LogOrder exercise.Order
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Users     *users.Service
	Exercises *exercises.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	if stores.Users == nil || stores.Exercises == nil {
		mem := memory.New()
		if stores.Users == nil {
			stores.Users = mem
		}
		if stores.Exercises == nil {
			stores.Exercises = mem
		}
	}

	order := opts.LogOrder
	if order == "" {
		order = exercise.OrderInsertion
	}
	if !order.Valid() {
		return nil, fmt.Errorf("unknown log order %q", order)
	}

	return &Application{
		manager:   system.NewManager(),
		log:       log,
		Users:     users.New(stores.Users, log.Named("users")),
		Exercises: exercises.New(stores.Users, stores.Exercises, log.Named("exercises"), exercises.WithOrder(order)),
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Services lists the attached lifecycle services in start order.
func (a *Application) Services() []string {
	return a.manager.Names()
}

// Descriptors lists the domain services with their capabilities.
func (a *Application) Descriptors() []core.Descriptor {
	return []core.Descriptor{a.Users.Descriptor(), a.Exercises.Descriptor()}
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
