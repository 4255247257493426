package auth

import (
	"context"
	"testing"
	"time"

	pkgauth "github.com/ashasetu/ashasetu-backend/pkg/auth"
	"github.com/ashasetu/ashasetu-backend/pkg/config"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/google/uuid"
)

func TestGateResolvesLiveAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	account, err := env.gate.Resolve(ctx, res.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if account.ID != res.User.ID {
		t.Fatalf("expected account %s, got %s", res.User.ID, account.ID)
	}
}

func TestGateIgnoresDeactivation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := env.repo.SetActive(ctx, res.User.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := env.gate.Resolve(ctx, res.Token); err != nil {
		t.Fatalf("deactivated account should still resolve: %v", err)
	}
}

func TestGateExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	*env.clock = env.clock.Add(2 * time.Hour)
	_, err = env.gate.Resolve(ctx, res.Token)
	expectCode(t, err, pkgerrors.CodeTokenExpired)
	if meta := pkgerrors.MetadataFor(pkgerrors.CodeOf(err)); meta.PublicCode != pkgerrors.CodeUnauthorized {
		t.Fatalf("expired token must collapse to UNAUTHORIZED, got %s", meta.PublicCode)
	}
}

func TestGateForeignToken(t *testing.T) {
	env := newTestEnv(t)
	foreign, err := pkgauth.NewIssuer(config.JWTConfig{Secret: "other", Issuer: "ashasetu", ExpirationMinutes: 60}, nil)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	token, err := foreign.Issue(uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = env.gate.Resolve(context.Background(), token)
	expectCode(t, err, pkgerrors.CodeInvalidToken)
}

func TestGateVanishedAccount(t *testing.T) {
	env := newTestEnv(t)
	token, err := env.issuer.Issue(uuid.New())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = env.gate.Resolve(context.Background(), token)
	expectCode(t, err, pkgerrors.CodeAccountNotFound)
}

func TestGateMissingToken(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.gate.Resolve(context.Background(), "  ")
	expectCode(t, err, pkgerrors.CodeUnauthorized)
}
