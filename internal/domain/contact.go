package domain

import "time"

// Contact is a phone-book entry owned by exactly one user.
type Contact struct {
	ID        string
	OwnerID   string
	Name      string
	Email     string
	Phone     string
	Favorite  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactFilter narrows a contact listing. Page is 1-based.
type ContactFilter struct {
	Favorite *bool
	Page     int
	Limit    int
}
