package controllers

import (
	"net/http"

	"github.com/ashasetu/ashasetu-backend/api/middleware"
	"github.com/ashasetu/ashasetu-backend/api/responses"
	"github.com/ashasetu/ashasetu-backend/api/validators"
	"github.com/ashasetu/ashasetu-backend/internal/auth"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	msgProfileRetrieved = "Profile retrieved successfully"
	msgProfileUpdated   = "Profile updated successfully"
	msgPasswordChanged  = "Password changed successfully"
)

// ProfileMe returns the caller's projection.
func ProfileMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := callerID(w, r, svc, logg)
		if !ok {
			return
		}

		user, err := svc.GetProfile(r.Context(), accountID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteUser(w, http.StatusOK, msgProfileRetrieved, user, "")
	}
}

// ProfileUpdate applies a partial profile update.
func ProfileUpdate(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := callerID(w, r, svc, logg)
		if !ok {
			return
		}

		var body auth.UpdateProfileRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.UpdateProfile(r.Context(), accountID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteUser(w, http.StatusOK, msgProfileUpdated, user, "")
	}
}

// ProfileChangePassword rotates the caller's password.
func ProfileChangePassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accountID, ok := callerID(w, r, svc, logg)
		if !ok {
			return
		}

		var body auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ChangePassword(r.Context(), accountID, body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteMessage(w, http.StatusOK, msgPasswordChanged)
	}
}

func callerID(w http.ResponseWriter, r *http.Request, svc auth.Service, logg *logger.Logger) (uuid.UUID, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
		return uuid.Nil, false
	}
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == uuid.Nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "unauthorized"))
		return uuid.Nil, false
	}
	return accountID, true
}
