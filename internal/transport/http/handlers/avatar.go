package http_handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/baechuer/contacts-api/internal/domain"
	"github.com/baechuer/contacts-api/internal/infrastructure/storage"
	"github.com/baechuer/contacts-api/internal/transport/http/dto"
	"github.com/baechuer/contacts-api/internal/transport/http/middleware"
	"github.com/baechuer/contacts-api/internal/transport/http/response"
)

// AvatarStore persists an uploaded image and returns the URL it is served from.
type AvatarStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

const avatarField = "avatar"

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UpdateAvatar handles PATCH /api/users/avatars (multipart, field "avatar").
func (h *UsersHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrNotAuthorized())
		return
	}
	if h.avatars == nil {
		response.WriteError(w, r, domain.ErrStorageFailed(errors.New("avatar storage not configured")))
		return
	}

	// multipart overhead on top of the file itself
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+64<<10)
	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.WriteError(w, r, domain.ErrInvalidField(avatarField, "file too large"))
			return
		}
		response.WriteError(w, r, domain.ErrInvalidField(avatarField, "invalid multipart body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(avatarField)
	if err != nil {
		response.WriteError(w, r, domain.ErrMissingField(avatarField))
		return
	}
	defer file.Close()

	if header.Size > h.maxSize {
		response.WriteError(w, r, domain.ErrInvalidField(avatarField, "file too large"))
		return
	}

	sniff := make([]byte, 512)
	n, _ := io.ReadFull(file, sniff)
	ctype := http.DetectContentType(sniff[:n])
	if !allowedAvatarTypes[ctype] {
		response.WriteError(w, r, domain.ErrInvalidField(avatarField, "unsupported image type"))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		response.WriteError(w, r, domain.ErrInternal(err))
		return
	}

	name := storage.AvatarName(uid, header.Filename, time.Now())
	url, err := h.avatars.Save(r.Context(), name, file, header.Size, ctype)
	if err != nil {
		response.WriteError(w, r, domain.ErrStorageFailed(err))
		return
	}

	u, err := h.svc.UpdateAvatar(r.Context(), uid, url)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.AvatarData{AvatarURL: u.AvatarURL})
}
