package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeMissingField         Code = "MISSING_FIELD"
	CodeInvalidFormat        Code = "INVALID_FORMAT"
	CodeTooWeak              Code = "TOO_WEAK"
	CodeDuplicateAccount     Code = "DUPLICATE_ACCOUNT"
	CodePhoneTaken           Code = "PHONE_TAKEN"
	CodeNoChanges            Code = "NO_CHANGES"
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeAccountDeactivated   Code = "ACCOUNT_DEACTIVATED"
	CodeIncorrectOldPassword Code = "INCORRECT_OLD_PASSWORD"
	CodeAccountNotFound      Code = "ACCOUNT_NOT_FOUND"
	CodeUnauthorized         Code = "UNAUTHORIZED"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeTokenExpired         Code = "TOKEN_EXPIRED"
	CodeIdempotency          Code = "IDEMPOTENCY_KEY_REUSED"
	CodeStoreUnavailable     Code = "STORE_UNAVAILABLE"
	CodeDependency           Code = "DEPENDENCY_ERROR"
	CodeInternal             Code = "INTERNAL_ERROR"
)

type Metadata struct {
	HTTPStatus int
	// PublicCode replaces the code on the wire when set.
	PublicCode     Code
	PublicMessage  string
	DetailsAllowed bool
	// ClientFault marks errors the caller can fix; they are not logged as anomalies.
	ClientFault bool
}

var metadataByCode = map[Code]Metadata{
	CodeMissingField: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "required field missing",
		DetailsAllowed: true,
		ClientFault:    true,
	},
	CodeInvalidFormat: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "invalid format",
		DetailsAllowed: true,
		ClientFault:    true,
	},
	CodeTooWeak: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "password too weak",
		DetailsAllowed: true,
		ClientFault:    true,
	},
	CodeDuplicateAccount: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "User with this email or phone number already exists",
		ClientFault:   true,
	},
	CodePhoneTaken: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "Phone number already in use",
		ClientFault:   true,
	},
	CodeNoChanges: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "No fields to update",
		ClientFault:   true,
	},
	CodeInvalidCredentials: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "Invalid email or password",
		ClientFault:   true,
	},
	CodeAccountDeactivated: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "Account is deactivated",
		ClientFault:   true,
	},
	CodeIncorrectOldPassword: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "Old password is incorrect",
		ClientFault:   true,
	},
	CodeAccountNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "User not found",
		ClientFault:   true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "unauthorized",
		ClientFault:   true,
	},
	CodeInvalidToken: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicCode:    CodeUnauthorized,
		PublicMessage: "unauthorized",
		ClientFault:   true,
	},
	CodeTokenExpired: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicCode:    CodeUnauthorized,
		PublicMessage: "unauthorized",
		ClientFault:   true,
	},
	CodeIdempotency: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "idempotency key reused",
		ClientFault:   true,
	},
	CodeStoreUnavailable: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicCode:    CodeInternal,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "dependency unavailable",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "internal server error",
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		if meta.PublicCode == "" {
			meta.PublicCode = code
		}
		return meta
	}
	meta := metadataByCode[CodeInternal]
	meta.PublicCode = CodeInternal
	return meta
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// Field builds a field-scoped validation error.
func Field(code Code, field, message string) *Error {
	return New(code, message).WithDetails(map[string]any{"field": field})
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the taxonomy code carried by err, or CodeInternal.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}
