package controllers

import (
	"net/http"

	"github.com/ashasetu/ashasetu-backend/api/responses"
	"github.com/ashasetu/ashasetu-backend/api/validators"
	"github.com/ashasetu/ashasetu-backend/internal/auth"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
)

const (
	msgRegistered = "User registered successfully"
	msgLoggedIn   = "Login successful"
)

// AuthRegister wires self-service sign-up into the HTTP layer.
func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteUser(w, http.StatusCreated, msgRegistered, result.User, result.Token)
	}
}

// AuthLogin exchanges credentials for a token.
func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteUser(w, http.StatusOK, msgLoggedIn, result.User, result.Token)
	}
}
