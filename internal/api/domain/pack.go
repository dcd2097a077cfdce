package domain

import "time"

// Pack is a named grouping of sounds owned by one user. (user, name) is
// unique; creation is get-or-create at upload time.
type Pack struct {
	ID        string
	UserID    string
	Name      string
	CreatedAt time.Time
}
