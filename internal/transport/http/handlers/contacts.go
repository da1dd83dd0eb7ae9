package http_handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/contacts-api/internal/application/contacts"
	"github.com/baechuer/contacts-api/internal/domain"
	"github.com/baechuer/contacts-api/internal/transport/http/dto"
	"github.com/baechuer/contacts-api/internal/transport/http/middleware"
	"github.com/baechuer/contacts-api/internal/transport/http/response"
)

type ContactsHandler struct {
	svc *contacts.Service
}

func NewContactsHandler(svc *contacts.Service) *ContactsHandler {
	return &ContactsHandler{svc: svc}
}

func owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, domain.ErrNotAuthorized())
	}
	return uid, ok
}

// List handles GET /api/contacts?page=&limit=&favorite=
func (h *ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}

	f, err := parseFilter(r)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	items, err := h.svc.List(r.Context(), uid, f)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	out := dto.ContactList{Items: make([]dto.ContactView, 0, len(items)), Page: f.Page, Limit: f.Limit}
	for _, c := range items {
		out.Items = append(out.Items, dto.NewContactView(c))
	}
	response.OK(w, out)
}

func parseFilter(r *http.Request) (domain.ContactFilter, error) {
	q := r.URL.Query()
	var f domain.ContactFilter

	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, domain.ErrInvalidField("page", "must be a positive integer")
		}
		f.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, domain.ErrInvalidField("limit", "must be a positive integer")
		}
		f.Limit = n
	}
	if v := q.Get("favorite"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, domain.ErrInvalidField("favorite", "must be true or false")
		}
		f.Favorite = &b
	}

	// echo the effective paging back to the client
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit == 0 {
		f.Limit = contacts.DefaultLimit
	}
	if f.Limit > contacts.MaxLimit {
		f.Limit = contacts.MaxLimit
	}
	return f, nil
}

func (h *ContactsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Get(r.Context(), uid, chi.URLParam(r, "contactId"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewContactView(c))
}

func (h *ContactsHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}

	var req dto.ContactRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	c, err := h.svc.Create(r.Context(), uid, req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, dto.NewContactView(c))
}

func (h *ContactsHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}

	var req dto.ContactRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	c, err := h.svc.Update(r.Context(), uid, chi.URLParam(r, "contactId"), req.Input())
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewContactView(c))
}

func (h *ContactsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Delete(r.Context(), uid, chi.URLParam(r, "contactId"))
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewContactView(c))
}

func (h *ContactsHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	uid, ok := owner(w, r)
	if !ok {
		return
	}

	var req dto.FavoriteRequest
	if err := response.DecodeJSON(w, r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	c, err := h.svc.SetFavorite(r.Context(), uid, chi.URLParam(r, "contactId"), req.Favorite)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.NewContactView(c))
}
