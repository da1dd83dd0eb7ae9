package dto

import (
	"strings"

	"github.com/baechuer/contacts-api/internal/domain"
)

// -------- Requests --------

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes=72"` // bcrypt input limit
}

func (r *CredentialsRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (r *ResendVerificationRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return validateStruct(r)
}

// The tier itself is checked by the account core so the error code stays stable.
type SubscriptionRequest struct {
	Subscription string `json:"subscription" validate:"required"`
}

func (r *SubscriptionRequest) Validate() error {
	return validateStruct(r)
}

// -------- Responses --------

type UserView struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL,omitempty"`
}

func NewUserView(u domain.User) UserView {
	return UserView{
		Email:        u.Email,
		Subscription: string(u.Subscription),
		AvatarURL:    u.AvatarURL,
	}
}

type RegisterData struct {
	User UserView `json:"user"`
}

type LoginData struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

type AvatarData struct {
	AvatarURL string `json:"avatarURL"`
}

type MessageData struct {
	Message string `json:"message"`
}
