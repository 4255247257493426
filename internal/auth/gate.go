package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgauth "github.com/ashasetu/ashasetu-backend/pkg/auth"
	"github.com/ashasetu/ashasetu-backend/pkg/db"
	"github.com/ashasetu/ashasetu-backend/pkg/db/models"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/google/uuid"
)

type tokenAuthenticator interface {
	Authenticate(token string) (uuid.UUID, error)
}

type accountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Gate resolves a bearer token to the live account row. It re-reads the store on
// every call and does not consult is_active.
type Gate struct {
	tokens   tokenAuthenticator
	accounts accountFinder
}

// NewGate builds a session gate.
func NewGate(tokens tokenAuthenticator, accounts accountFinder) (*Gate, error) {
	if tokens == nil {
		return nil, fmt.Errorf("token authenticator is required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	return &Gate{tokens: tokens, accounts: accounts}, nil
}

// Resolve authenticates token and loads its account.
func (g *Gate) Resolve(ctx context.Context, token string) (*models.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized")
	}

	accountID, err := g.tokens.Authenticate(token)
	if err != nil {
		if errors.Is(err, pkgauth.ErrTokenExpired) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTokenExpired, err, "token expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidToken, err, "invalid token")
	}

	account, err := g.accounts.FindByID(ctx, accountID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAccountNotFound, err, "User not found")
		}
		return nil, storeError(err, "resolve session account")
	}
	return account, nil
}
