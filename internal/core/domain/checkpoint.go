package domain

import "time"

// Checkpoint records how far a named list query has been consumed.
// Cursor always points at the first page that has not been fully consumed.
type Checkpoint struct {
	Name      string    `json:"name"       db:"name"`
	Action    string    `json:"action"     db:"action"`
	Cursor    string    `json:"cursor"     db:"page_cursor"`
	Pages     int64     `json:"pages"      db:"pages"`
	Items     int64     `json:"items"      db:"items"`
	Done      bool      `json:"done"       db:"done"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
