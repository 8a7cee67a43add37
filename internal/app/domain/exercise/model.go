package exercise

import "time"

// Record is a single timed exercise entry owned by a user.
type Record struct {
	ID          string
	UserID      string
	Description string
	Duration    int
	Date        time.Time
}

// Order selects the sequence the log query starts from.
type Order string

const (
	// OrderInsertion keeps records in the order they were appended.
	OrderInsertion Order = "insertion"
	// OrderDateDesc sorts records newest first before filtering.
	OrderDateDesc Order = "date_desc"
)

// Valid reports whether o is a known ordering.
func (o Order) Valid() bool {
	return o == OrderInsertion || o == OrderDateDesc
}

// Query narrows a user's log. Nil bounds and a nil Limit mean "unbounded";
// a Limit of zero yields an empty log.
type Query struct {
	From  *time.Time
	To    *time.Time
	Limit *int
}

// LogEntry is the projection of a record returned in a log.
type LogEntry struct {
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Date        string `json:"date"`
}

// Log is the result of a log query for one user.
type Log struct {
	UserID   string
	Username string
	From     *time.Time
	To       *time.Time
	Count    int
	Entries  []LogEntry
}
