package contacts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/contacts-api/internal/domain"
)

type fakeContactStore struct {
	mu   sync.Mutex
	byID map[string]domain.Contact
	err  error

	lastFilter domain.ContactFilter
}

func newFakeStore() *fakeContactStore {
	return &fakeContactStore{byID: map[string]domain.Contact{}}
}

func (f *fakeContactStore) owned(ownerID, id string) (domain.Contact, error) {
	c, ok := f.byID[id]
	if !ok || c.OwnerID != ownerID {
		return domain.Contact{}, domain.ErrContactNotFound()
	}
	return c, nil
}

func (f *fakeContactStore) List(ctx context.Context, ownerID string, flt domain.ContactFilter) ([]domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastFilter = flt
	var out []domain.Contact
	for _, c := range f.byID {
		if c.OwnerID != ownerID {
			continue
		}
		if flt.Favorite != nil && c.Favorite != *flt.Favorite {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeContactStore) Get(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Contact{}, f.err
	}
	return f.owned(ownerID, id)
}

func (f *fakeContactStore) Create(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Contact{}, f.err
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeContactStore) Update(ctx context.Context, c domain.Contact) (domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.owned(c.OwnerID, c.ID); err != nil {
		return domain.Contact{}, err
	}
	f.byID[c.ID] = c
	return c, nil
}

func (f *fakeContactStore) Delete(ctx context.Context, ownerID, id string) (domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(ownerID, id)
	if err != nil {
		return domain.Contact{}, err
	}
	delete(f.byID, id)
	return c, nil
}

func (f *fakeContactStore) SetFavorite(ctx context.Context, ownerID, id string, fav bool) (domain.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, err := f.owned(ownerID, id)
	if err != nil {
		return domain.Contact{}, err
	}
	c.Favorite = fav
	f.byID[id] = c
	return c, nil
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func requireErrCode(t *testing.T, err error, code string) {
	t.Helper()
	if !domain.Is(err, code) {
		t.Fatalf("expected code=%q, got err=%v", code, err)
	}
}

func newSvcForTest() (*Service, *fakeContactStore) {
	st := newFakeStore()
	svc := NewService(st)
	svc.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, st
}

func TestCreate_RequiresFields(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", Input{Email: strp("a@x.com"), Phone: strp("1")})
	requireErrCode(t, err, "missing_field")
	_, err = svc.Create(ctx, "u1", Input{Name: strp("A"), Phone: strp("1")})
	requireErrCode(t, err, "missing_field")
	_, err = svc.Create(ctx, "u1", Input{Name: strp("A"), Email: strp("a@x.com"), Phone: strp("  ")})
	requireErrCode(t, err, "missing_field")
}

func TestCreate_SetsOwnerAndDefaults(t *testing.T) {
	t.Parallel()

	svc, st := newSvcForTest()

	c, err := svc.Create(context.Background(), "u1", Input{Name: strp(" Ann "), Email: strp("ann@x.com"), Phone: strp("555")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" || c.OwnerID != "u1" || c.Name != "Ann" || c.Favorite {
		t.Fatalf("unexpected contact: %+v", c)
	}
	if c.CreatedAt.IsZero() || !c.CreatedAt.Equal(c.UpdatedAt) {
		t.Fatalf("unexpected timestamps: %+v", c)
	}
	if _, ok := st.byID[c.ID]; !ok {
		t.Fatalf("expected stored")
	}
}

func TestGet_OtherOwner_NotFound(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest()
	ctx := context.Background()

	c, err := svc.Create(ctx, "owner", Input{Name: strp("A"), Email: strp("a@x.com"), Phone: strp("1")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.Get(ctx, "intruder", c.ID)
	requireErrCode(t, err, domain.CodeContactNotFound)

	_, err = svc.Delete(ctx, "intruder", c.ID)
	requireErrCode(t, err, domain.CodeContactNotFound)

	_, err = svc.Update(ctx, "intruder", c.ID, Input{Name: strp("B")})
	requireErrCode(t, err, domain.CodeContactNotFound)

	_, err = svc.SetFavorite(ctx, "intruder", c.ID, boolp(true))
	requireErrCode(t, err, domain.CodeContactNotFound)

	got, err := svc.Get(ctx, "owner", c.ID)
	if err != nil || got.Name != "A" || got.Favorite {
		t.Fatalf("owner's contact changed: %+v %v", got, err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest()
	ctx := context.Background()
	c, _ := svc.Create(ctx, "u1", Input{Name: strp("A"), Email: strp("a@x.com"), Phone: strp("1")})

	_, err := svc.Update(ctx, "u1", c.ID, Input{})
	requireErrCode(t, err, "missing_field")

	_, err = svc.Update(ctx, "u1", c.ID, Input{Name: strp("")})
	requireErrCode(t, err, "invalid_field")

	got, err := svc.Update(ctx, "u1", c.ID, Input{Phone: strp("2"), Favorite: boolp(true)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "A" || got.Phone != "2" || !got.Favorite {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestSetFavorite_RequiresValue(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest()
	ctx := context.Background()
	c, _ := svc.Create(ctx, "u1", Input{Name: strp("A"), Email: strp("a@x.com"), Phone: strp("1")})

	_, err := svc.SetFavorite(ctx, "u1", c.ID, nil)
	requireErrCode(t, err, "missing_field")

	got, err := svc.SetFavorite(ctx, "u1", c.ID, boolp(true))
	if err != nil || !got.Favorite {
		t.Fatalf("unexpected: %+v %v", got, err)
	}
}

func TestDelete_RemovesOwned(t *testing.T) {
	t.Parallel()

	svc, st := newSvcForTest()
	ctx := context.Background()
	c, _ := svc.Create(ctx, "u1", Input{Name: strp("A"), Email: strp("a@x.com"), Phone: strp("1")})

	if _, err := svc.Delete(ctx, "u1", c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := st.byID[c.ID]; ok {
		t.Fatalf("expected removed")
	}
	_, err := svc.Delete(ctx, "u1", c.ID)
	requireErrCode(t, err, domain.CodeContactNotFound)
}

func TestList_NormalizesPaging_AndScopesOwner(t *testing.T) {
	t.Parallel()

	svc, st := newSvcForTest()
	ctx := context.Background()
	_, _ = svc.Create(ctx, "u1", Input{Name: strp("A"), Email: strp("a@x.com"), Phone: strp("1"), Favorite: boolp(true)})
	_, _ = svc.Create(ctx, "u1", Input{Name: strp("B"), Email: strp("b@x.com"), Phone: strp("2")})
	_, _ = svc.Create(ctx, "u2", Input{Name: strp("C"), Email: strp("c@x.com"), Phone: strp("3")})

	all, err := svc.List(ctx, "u1", domain.ContactFilter{Limit: 1000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2, got %d", len(all))
	}
	if st.lastFilter.Page != 1 || st.lastFilter.Limit != MaxLimit {
		t.Fatalf("unexpected filter: %+v", st.lastFilter)
	}

	favs, _ := svc.List(ctx, "u1", domain.ContactFilter{Favorite: boolp(true)})
	if len(favs) != 1 || favs[0].Name != "A" {
		t.Fatalf("unexpected favorites: %+v", favs)
	}
	if st.lastFilter.Limit != DefaultLimit {
		t.Fatalf("expected default limit, got %d", st.lastFilter.Limit)
	}
}

func TestStoreFailure_StoreUnavailable(t *testing.T) {
	t.Parallel()

	svc, st := newSvcForTest()
	st.err = errors.New("db down")

	_, err := svc.List(context.Background(), "u1", domain.ContactFilter{})
	requireErrCode(t, err, domain.CodeStoreUnavailable)
}
