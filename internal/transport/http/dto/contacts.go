package dto

import (
	"time"

	"github.com/baechuer/contacts-api/internal/application/contacts"
	"github.com/baechuer/contacts-api/internal/domain"
)

// ContactRequest is used for create (POST) and partial update (PUT).
// Required-ness of fields is enforced by the contacts service.
type ContactRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=254"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	Favorite *bool   `json:"favorite"`
}

func (r *ContactRequest) Validate() error {
	return validateStruct(r)
}

func (r ContactRequest) Input() contacts.Input {
	return contacts.Input{Name: r.Name, Email: r.Email, Phone: r.Phone, Favorite: r.Favorite}
}

type FavoriteRequest struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

func (r *FavoriteRequest) Validate() error {
	return validateStruct(r)
}

type ContactView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Favorite  bool      `json:"favorite"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewContactView(c domain.Contact) ContactView {
	return ContactView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Favorite:  c.Favorite,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

type ContactList struct {
	Items []ContactView `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}
