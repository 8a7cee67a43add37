// Package app provides the Application Composition Layer for the exercise
// tracker.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── user/           # Registered users
//	│   └── exercise/       # Exercise records, log queries and entries
//	├── idgen/              # Per-kind identifier sequences (memory, redis)
//	├── storage/            # Store interfaces and implementations
//	│   ├── interfaces.go   # UserStore, ExerciseStore
//	│   ├── memory/         # In-memory implementation (default)
//	│   ├── postgres/       # PostgreSQL implementation
//	│   └── mongostore/     # MongoDB implementation
//	├── services/           # Business rules
//	│   ├── users/          # Registration and lookup
//	│   └── exercises/      # Exercise submission and the log query engine
//	├── httpapi/            # HTTP handlers and routing
//	├── runtime/            # Config-driven process wiring and HTTP server
//	├── system/             # Lifecycle manager
//	├── core/service/       # Service descriptors
//	└── metrics/            # Prometheus collectors
//
// # Dependency Direction
//
//	cmd/exerciselog/
//	      │
//	      ▼
//	internal/app/runtime ──► internal/config, pkg/logger
//	      │
//	      ▼
//	internal/app/httpapi ──► internal/middleware
//	      │
//	      ▼
//	internal/app (composition)
//	      │
//	      ├──► internal/app/services/* ──► internal/app/storage (interfaces)
//	      │
//	      └──► internal/app/storage/memory (default stores)
//
// # Adding a New Domain
//
//  1. Create domain models in internal/app/domain/<name>/
//  2. Add a store interface to internal/app/storage/interfaces.go
//  3. Implement it in storage/memory, storage/postgres and storage/mongostore
//  4. Create the service in internal/app/services/<name>/service.go
//  5. Wire the service in internal/app/application.go
//  6. Add HTTP handlers in internal/app/httpapi/
package app
