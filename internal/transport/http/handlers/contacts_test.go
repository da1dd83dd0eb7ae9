package http_handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactOut struct {
	Data struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Favorite bool   `json:"favorite"`
	} `json:"data"`
}

func createContact(t *testing.T, e *testEnv, tok, name string, fav bool) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/api/contacts", tok, map[string]any{
		"name": name, "email": name + "@x.com", "phone": "+100", "favorite": fav,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out contactOut
	decodeBody(t, rr, &out)
	return out.Data.ID
}

func TestContacts_CRUD(t *testing.T) {
	e := newTestEnv(t)
	tok := e.registerVerifiedAndLogin(t, "a@x.com", "pw1")

	id := createContact(t, e, tok, "ann", false)
	createContact(t, e, tok, "bob", true)

	rr := e.do(t, http.MethodGet, "/api/contacts/"+id, tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"ann"`)

	rr = e.do(t, http.MethodPut, "/api/contacts/"+id, tok, map[string]string{"name": "anna"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"name":"anna"`)

	rr = e.do(t, http.MethodPatch, "/api/contacts/"+id+"/favorite", tok, map[string]bool{"favorite": true})
	require.Equal(t, http.StatusOK, rr.Code)
	var fav contactOut
	decodeBody(t, rr, &fav)
	assert.True(t, fav.Data.Favorite)

	rr = e.do(t, http.MethodGet, "/api/contacts?favorite=true&page=1&limit=10", tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list struct {
		Data struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
			Limit int `json:"limit"`
		} `json:"data"`
	}
	decodeBody(t, rr, &list)
	assert.Len(t, list.Data.Items, 2)
	assert.Equal(t, 10, list.Data.Limit)

	require.Equal(t, http.StatusOK, e.do(t, http.MethodDelete, "/api/contacts/"+id, tok, nil).Code)
	expectError(t, e.do(t, http.MethodGet, "/api/contacts/"+id, tok, nil), http.StatusNotFound, "contact_not_found")
}

func TestContacts_OwnerScoped(t *testing.T) {
	e := newTestEnv(t)
	alice := e.registerVerifiedAndLogin(t, "alice@x.com", "pw1")
	bob := e.registerVerifiedAndLogin(t, "bob@x.com", "pw2")

	id := createContact(t, e, alice, "ann", false)

	expectError(t, e.do(t, http.MethodGet, "/api/contacts/"+id, bob, nil), http.StatusNotFound, "contact_not_found")
	expectError(t, e.do(t, http.MethodPut, "/api/contacts/"+id, bob, map[string]string{"name": "x"}), http.StatusNotFound, "contact_not_found")
	expectError(t, e.do(t, http.MethodDelete, "/api/contacts/"+id, bob, nil), http.StatusNotFound, "contact_not_found")

	rr := e.do(t, http.MethodGet, "/api/contacts", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"items":[]`)
}

func TestContacts_Validation(t *testing.T) {
	e := newTestEnv(t)
	tok := e.registerVerifiedAndLogin(t, "a@x.com", "pw1")

	expectError(t, e.do(t, http.MethodPost, "/api/contacts", tok, map[string]string{"email": "a@x.com", "phone": "1"}),
		http.StatusBadRequest, "missing_field")
	expectError(t, e.do(t, http.MethodPost, "/api/contacts", tok, map[string]string{"name": "n", "email": "bad", "phone": "1"}),
		http.StatusBadRequest, "invalid_field")
	expectError(t, e.do(t, http.MethodGet, "/api/contacts?page=0", tok, nil), http.StatusBadRequest, "invalid_field")
	expectError(t, e.do(t, http.MethodGet, "/api/contacts?favorite=maybe", tok, nil), http.StatusBadRequest, "invalid_field")

	id := createContact(t, e, tok, "ann", false)
	expectError(t, e.do(t, http.MethodPatch, "/api/contacts/"+id+"/favorite", tok, map[string]string{}),
		http.StatusBadRequest, "missing_field")
}

func TestContacts_RequireAuth(t *testing.T) {
	e := newTestEnv(t)
	expectError(t, e.do(t, http.MethodGet, "/api/contacts", "", nil), http.StatusUnauthorized, "not_authorized")
}
