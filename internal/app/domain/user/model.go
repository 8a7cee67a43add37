package user

import "time"

// User is a registered username. Users are never mutated or deleted.
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}
