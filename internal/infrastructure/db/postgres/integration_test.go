//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/baechuer/contacts-api/internal/domain"
)

// setupTestDatabase starts a throwaway postgres and applies the embedded migrations.
func setupTestDatabase(t *testing.T) *sql.DB {
	ctx := context.Background()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if _, err := testcontainers.NewDockerClientWithOpts(ctx); err != nil {
		t.Skipf("Skipping integration test because Docker is unavailable: %v", err)
	}

	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:17"),
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(ctx, db, "up"))
	return db
}

func TestIntegration_UserLifecycle(t *testing.T) {
	db := setupTestDatabase(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	u, err := repo.Create(ctx, domain.User{
		ID: uuid.NewString(), Email: "a@x.com", PasswordHash: "h", VerificationToken: "vt-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStarter, u.Subscription)

	_, err = repo.Create(ctx, domain.User{
		ID: uuid.NewString(), Email: "a@x.com", PasswordHash: "h", VerificationToken: "vt-2",
	})
	assert.True(t, domain.Is(err, domain.CodeEmailInUse), "got %v", err)

	// emails are case-sensitive as stored
	_, err = repo.FindByEmail(ctx, "A@x.com")
	assert.True(t, domain.Is(err, domain.CodeAccountNotFound))

	got, err := repo.FindByVerificationToken(ctx, "vt-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	v, err := repo.MarkVerified(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, v.Verified)
	assert.Empty(t, v.VerificationToken)

	_, err = repo.FindByVerificationToken(ctx, "vt-1")
	assert.True(t, domain.Is(err, domain.CodeAccountNotFound))

	s, err := repo.UpdateSessionToken(ctx, u.ID, "tok")
	require.NoError(t, err)
	assert.Equal(t, "tok", s.SessionToken)

	s, err = repo.UpdateSessionToken(ctx, u.ID, "")
	require.NoError(t, err)
	assert.False(t, s.HasSession())
}

func TestIntegration_ContactsScopedByOwner(t *testing.T) {
	db := setupTestDatabase(t)
	users := NewUserRepo(db)
	contacts := NewContactRepo(db)
	ctx := context.Background()

	owner, err := users.Create(ctx, domain.User{ID: uuid.NewString(), Email: "o@x.com", PasswordHash: "h", VerificationToken: "vo"})
	require.NoError(t, err)
	other, err := users.Create(ctx, domain.User{ID: uuid.NewString(), Email: "p@x.com", PasswordHash: "h", VerificationToken: "vp"})
	require.NoError(t, err)

	now := time.Now().UTC()
	c, err := contacts.Create(ctx, domain.Contact{
		ID: uuid.NewString(), OwnerID: owner.ID, Name: "Ann", Email: "ann@x.com", Phone: "555",
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	_, err = contacts.Get(ctx, other.ID, c.ID)
	assert.True(t, domain.Is(err, domain.CodeContactNotFound))

	list, err := contacts.List(ctx, owner.ID, domain.ContactFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	fav, err := contacts.SetFavorite(ctx, owner.ID, c.ID, true)
	require.NoError(t, err)
	assert.True(t, fav.Favorite)

	_, err = contacts.Delete(ctx, owner.ID, c.ID)
	require.NoError(t, err)
}
