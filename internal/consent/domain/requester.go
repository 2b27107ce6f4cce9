package domain

import "time"

// Requester is a party that asks to link to subjects.
type Requester struct {
	ID        string
	Role      Role
	AccountID string // top-level account, compared against Subject.OwnerAccountID
	CreatedAt time.Time
}
