package http_handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/contacts-api/internal/application/auth"
	"github.com/baechuer/contacts-api/internal/domain"
	"github.com/baechuer/contacts-api/internal/logger"
	"github.com/baechuer/contacts-api/internal/transport/http/dto"
	"github.com/baechuer/contacts-api/internal/transport/http/middleware"
	"github.com/baechuer/contacts-api/internal/transport/http/response"
)

type UsersHandler struct {
	svc     *auth.Service
	avatars AvatarStore
	maxSize int64
}

func NewUsersHandler(svc *auth.Service, avatars AvatarStore, maxAvatarBytes int64) *UsersHandler {
	if maxAvatarBytes <= 0 {
		maxAvatarBytes = 5 << 20
	}
	return &UsersHandler{svc: svc, avatars: avatars, maxSize: maxAvatarBytes}
}

func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", res.User.ID).
		Msg("user_registered")

	response.Created(w, dto.RegisterData{User: dto.NewUserView(res.User)})
}

func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.LoginAttemptsTotal.WithLabelValues(loginStatus(err)).Inc()
		response.WriteError(w, r, err)
		return
	}
	middleware.LoginAttemptsTotal.WithLabelValues("success").Inc()

	response.OK(w, dto.LoginData{Token: res.Token, User: dto.NewUserView(res.User)})
}

func loginStatus(err error) string {
	switch code := domain.CodeOf(err); code {
	case domain.CodeInvalidCredentials, domain.CodeEmailNotVerified:
		return code
	default:
		return "error"
	}
}

func (h *UsersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrNotAuthorized())
		return
	}
	if err := h.svc.Logout(r.Context(), uid); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *UsersHandler) Current(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrNotAuthorized())
		return
	}
	u, err := h.svc.Current(r.Context(), uid)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(u))
}

func (h *UsersHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrNotAuthorized())
		return
	}

	var req dto.SubscriptionRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	u, err := h.svc.UpdateSubscription(r.Context(), uid, req.Subscription)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewUserView(u))
}

// VerifyEmail handles GET /api/users/verify/{verificationToken}.
func (h *UsersHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "verificationToken")
	if err := h.svc.RedeemVerification(r.Context(), token); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageData{Message: "Verification successful"})
}

// ResendVerification handles POST /api/users/verify.
func (h *UsersHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req dto.ResendVerificationRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	if err := h.svc.RequestVerification(r.Context(), req.Email); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.MessageData{Message: "Verification email sent"})
}
