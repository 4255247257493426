// Package validation holds the pure input checks shared by registration, login
// and profile updates. Rules are expressed as go-playground/validator tags so the
// same vocabulary decorates transport DTOs.
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const (
	TagEmail    = "account_email"
	TagPhone    = "account_phone"
	TagPassword = "account_password"

	MinPasswordLength = 6
	// bcrypt only reads the first 72 bytes of its input.
	MaxPasswordBytes = 72
)

const (
	MsgFieldsRequired     = "All fields are required"
	MsgInvalidEmail       = "Invalid email format"
	MsgInvalidPhone       = "Invalid phone number format"
	MsgPasswordTooShort   = "Password must be at least 6 characters"
	MsgLoginRequired      = "Email and password are required"
	MsgPasswordsRequired  = "Old password and new password are required"
	MsgNewPasswordTooWeak = "New password must be at least 6 characters"
	MsgPasswordTooLong    = "Password must be at most 72 bytes"
	MsgNewPasswordTooLong = "New password must be at most 72 bytes"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

var validate = New()

// New returns a validator with the account tags registered and json field names
// reported in errors.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	mustRegister(v, TagEmail, func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister(v, TagPhone, func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, TagPassword, func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		return utf8.RuneCountInString(password) >= MinPasswordLength && len(password) <= MaxPasswordBytes
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Registration is the trimmed registration input. Field order is the order
// failures are reported in.
type Registration struct {
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required"`
	PhoneNumber string `json:"phone_number" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type registrationFormats struct {
	Email       string `json:"email" validate:"account_email"`
	PhoneNumber string `json:"phone_number" validate:"account_phone"`
	Password    string `json:"password" validate:"account_password"`
}

// ValidateEmail rejects anything that is not local-part "@" domain-with-dot.
func ValidateEmail(email string) error {
	if err := validate.Var(email, TagEmail); err != nil {
		return pkgerrors.Field(pkgerrors.CodeInvalidFormat, "email", MsgInvalidEmail)
	}
	return nil
}

// ValidatePhone accepts 10 to 15 ASCII digits without separators.
func ValidatePhone(phone string) error {
	if err := validate.Var(phone, TagPhone); err != nil {
		return pkgerrors.Field(pkgerrors.CodeInvalidFormat, "phone_number", MsgInvalidPhone)
	}
	return nil
}

// ValidatePassword enforces the minimum length in characters and the maximum in
// bytes. Over-long passwords are INVALID_FORMAT, short ones TOO_WEAK.
func ValidatePassword(password string) error {
	if err := validate.Var(password, TagPassword); err != nil {
		if len(password) > MaxPasswordBytes {
			return pkgerrors.Field(pkgerrors.CodeInvalidFormat, "password", MsgPasswordTooLong)
		}
		return pkgerrors.Field(pkgerrors.CodeTooWeak, "password", MsgPasswordTooShort)
	}
	return nil
}

// ValidateRegistration trims the input and reports the first failing rule:
// required fields, then email, phone and password formats.
func ValidateRegistration(in Registration) (Registration, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if field, ok := firstFailure(validate.Struct(in)); ok {
		return in, pkgerrors.Field(pkgerrors.CodeMissingField, field, MsgFieldsRequired)
	}
	if strings.TrimSpace(in.Password) == "" {
		return in, pkgerrors.Field(pkgerrors.CodeMissingField, "password", MsgFieldsRequired)
	}

	formats := registrationFormats{Email: in.Email, PhoneNumber: in.PhoneNumber, Password: in.Password}
	if field, ok := firstFailure(validate.Struct(formats)); ok {
		switch field {
		case "email":
			return in, ValidateEmail(in.Email)
		case "phone_number":
			return in, ValidatePhone(in.PhoneNumber)
		default:
			return in, ValidatePassword(in.Password)
		}
	}
	return in, nil
}

// firstFailure returns the json name of the first field that failed, in
// declaration order.
func firstFailure(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "", false
	}
	return errs[0].Field(), true
}
