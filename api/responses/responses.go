package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/ashasetu/ashasetu-backend/pkg/logger"
	"github.com/ashasetu/ashasetu-backend/pkg/types"
)

// WriteMessage writes a bare success envelope.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, types.Envelope{Success: true, Message: message})
}

// WriteUser writes a success envelope carrying the account projection and,
// when non-empty, a token.
func WriteUser(w http.ResponseWriter, status int, message string, user any, token string) {
	writeJSON(w, status, types.Envelope{
		Success: true,
		Message: message,
		User:    user,
		Token:   token,
	})
}

// WriteError is the only place errors become HTTP statuses. Client-fixable errors
// are logged at info; everything else is logged with the full error dump and
// answered with a generic body.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	// Collapsed codes (token errors, store failures) always use the public message.
	if meta.ClientFault && meta.PublicCode == typed.Code() {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Success: false,
		Message: msg,
		Code:    string(meta.PublicCode),
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Details = details
		}
	}

	if logg != nil {
		if meta.ClientFault {
			ctx = logg.WithFields(ctx, map[string]any{
				"error_code": string(typed.Code()),
				"status":     meta.HTTPStatus,
			})
			logg.Info(ctx, "request.rejected")
		} else {
			fields := pkgerrors.Dump(err).Fields()
			if d, ok := typed.Details().(map[string]any); ok {
				if step, ok := d["step"]; ok {
					fields["step"] = step
				}
			}
			ctx = logg.WithFields(ctx, fields)
			logg.Error(ctx, "request.error", err)
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
