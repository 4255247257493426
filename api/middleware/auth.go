package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ashasetu/ashasetu-backend/api/responses"
	"github.com/ashasetu/ashasetu-backend/pkg/db/models"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
)

// SessionResolver turns a bearer token into the live account row.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.Account, error)
}

// Auth validates the bearer token, re-reads the account and seeds the request
// context with its identity.
func Auth(gate SessionResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
				return
			}

			account, err := gate.Resolve(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAccount(r.Context(), account.ID)
			if logg != nil {
				ctx = logg.WithAccountID(ctx, account.ID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	raw := strings.TrimSpace(header)
	if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(raw[7:])
	return token, token != ""
}
