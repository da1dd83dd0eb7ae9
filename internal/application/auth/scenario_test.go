package auth

import (
	"context"
	"testing"

	"github.com/baechuer/contacts-api/internal/domain"
)

// Register -> blocked login -> verify -> login T1 -> login T2 -> logout.
func TestScenario_FullSessionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, d := newSvcForTest(t)

	reg, err := svc.Register(ctx, "a@x.com", "secret123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if d.users.get(reg.User.ID).Verified {
		t.Fatalf("expected unverified")
	}

	_, err = svc.Login(ctx, "a@x.com", "secret123")
	requireErrCode(t, err, domain.CodeEmailNotVerified)

	if err := svc.RedeemVerification(ctx, d.users.get(reg.User.ID).VerificationToken); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	t1 := loginForTest(t, svc, "a@x.com", "secret123")
	id, err := svc.Authorize(ctx, "Bearer "+t1)
	if err != nil || id.User.ID != reg.User.ID {
		t.Fatalf("authorize t1: %+v %v", id, err)
	}

	t2 := loginForTest(t, svc, "a@x.com", "secret123")
	if t2 == t1 {
		t.Fatalf("expected T2 != T1")
	}
	_, err = svc.Authorize(ctx, "Bearer "+t1)
	requireErrCode(t, err, domain.CodeNotAuthorized)

	id, err = svc.Authorize(ctx, "Bearer "+t2)
	if err != nil {
		t.Fatalf("authorize t2: %v", err)
	}

	if err := svc.Logout(ctx, id.User.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = svc.Authorize(ctx, "Bearer "+t2)
	requireErrCode(t, err, domain.CodeNotAuthorized)
}
