package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashasetu/ashasetu-backend/internal/accounts"
	"github.com/ashasetu/ashasetu-backend/internal/validation"
	"github.com/ashasetu/ashasetu-backend/pkg/db"
	"github.com/ashasetu/ashasetu-backend/pkg/db/models"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	OpRegister       = "register"
	OpLogin          = "login"
	OpGetProfile     = "get_profile"
	OpUpdateProfile  = "update_profile"
	OpChangePassword = "change_password"

	invalidCredentialsMessage = "Invalid email or password"
)

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	GetProfile(ctx context.Context, accountID uuid.UUID) (*accounts.AccountDTO, error)
	UpdateProfile(ctx context.Context, accountID uuid.UUID, req UpdateProfileRequest) (*accounts.AccountDTO, error)
	ChangePassword(ctx context.Context, accountID uuid.UUID, req ChangePasswordRequest) error
}

type accountStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Account, error)
	PhoneTakenByOther(ctx context.Context, phone string, id uuid.UUID) (bool, error)
	Create(ctx context.Context, dto accounts.CreateAccountDTO) (*models.Account, error)
	ApplyPatch(ctx context.Context, id uuid.UUID, patch accounts.ProfilePatch) (*models.Account, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type passwordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, encoded string) bool
}

type tokenIssuer interface {
	Issue(accountID uuid.UUID) (string, error)
}

type outcomeRecorder interface {
	RecordOutcome(operation, result string)
}

type service struct {
	accounts accountStore
	hasher   passwordHasher
	tokens   tokenIssuer
	outcomes outcomeRecorder
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Accounts accountStore
	Hasher   passwordHasher
	Tokens   tokenIssuer
	// Outcomes is optional.
	Outcomes outcomeRecorder
}

// NewService constructs the credential service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if params.Hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("token issuer is required")
	}
	return &service{
		accounts: params.Accounts,
		hasher:   params.Hasher,
		tokens:   params.Tokens,
		outcomes: params.Outcomes,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (result *AuthResult, err error) {
	defer s.record(OpRegister, &err)

	in, err := validation.ValidateRegistration(validation.Registration{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	existing, err := s.accounts.FindByEmailOrPhone(ctx, email, in.PhoneNumber)
	switch {
	case err == nil && existing != nil:
		return nil, pkgerrors.New(pkgerrors.CodeDuplicateAccount, "User with this email or phone number already exists")
	case err != nil && !db.IsNotFound(err):
		return nil, storeError(err, "lookup existing account")
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	account, err := s.accounts.Create(ctx, accounts.CreateAccountDTO{
		FullName:     in.FullName,
		Email:        email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
	})
	if err != nil {
		// Two registrations can both pass the pre-check; the unique index decides.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicateAccount, err, "User with this email or phone number already exists")
		}
		return nil, storeError(err, "create account")
	}

	return s.issue(account)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (result *AuthResult, err error) {
	defer s.record(OpLogin, &err)

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeMissingField, validation.MsgLoginRequired)
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
		}
		return nil, storeError(err, "lookup account")
	}

	// Deactivation is reported before the password check.
	if !account.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountDeactivated, "Account is deactivated")
	}

	if !s.hasher.Verify(ctx, req.Password, account.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	return s.issue(account)
}

func (s *service) GetProfile(ctx context.Context, accountID uuid.UUID) (dto *accounts.AccountDTO, err error) {
	defer s.record(OpGetProfile, &err)

	account, err := s.load(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return accounts.FromModel(account), nil
}

func (s *service) UpdateProfile(ctx context.Context, accountID uuid.UUID, req UpdateProfileRequest) (dto *accounts.AccountDTO, err error) {
	defer s.record(OpUpdateProfile, &err)

	var patch accounts.ProfilePatch
	if req.FullName != nil {
		if name := strings.TrimSpace(*req.FullName); name != "" {
			patch.FullName = &name
		}
	}
	if req.PhoneNumber != nil {
		if phone := strings.TrimSpace(*req.PhoneNumber); phone != "" {
			if err := validation.ValidatePhone(phone); err != nil {
				return nil, err
			}
			taken, err := s.accounts.PhoneTakenByOther(ctx, phone, accountID)
			if err != nil {
				return nil, storeError(err, "check phone availability")
			}
			if taken {
				return nil, pkgerrors.New(pkgerrors.CodePhoneTaken, "Phone number already in use")
			}
			patch.PhoneNumber = &phone
		}
	}
	if req.ProfilePictureURL.Valid {
		if url := req.ProfilePictureURL.Ptr(); url != nil {
			patch.ProfilePictureURL = url
		} else {
			patch.ClearPicture = true
		}
	}
	if patch.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeNoChanges, "No fields to update")
	}

	account, err := s.accounts.ApplyPatch(ctx, accountID, patch)
	if err != nil {
		switch {
		case db.IsNotFound(err):
			return nil, pkgerrors.Wrap(pkgerrors.CodeAccountNotFound, err, "User not found")
		case db.IsUniqueViolation(err, ""):
			return nil, pkgerrors.Wrap(pkgerrors.CodePhoneTaken, err, "Phone number already in use")
		}
		return nil, storeError(err, "apply profile patch")
	}
	return accounts.FromModel(account), nil
}

func (s *service) ChangePassword(ctx context.Context, accountID uuid.UUID, req ChangePasswordRequest) (err error) {
	defer s.record(OpChangePassword, &err)

	if req.OldPassword == "" || req.NewPassword == "" {
		return pkgerrors.New(pkgerrors.CodeMissingField, validation.MsgPasswordsRequired)
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		if pkgerrors.CodeOf(err) == pkgerrors.CodeInvalidFormat {
			return pkgerrors.Field(pkgerrors.CodeInvalidFormat, "new_password", validation.MsgNewPasswordTooLong)
		}
		return pkgerrors.Field(pkgerrors.CodeTooWeak, "new_password", validation.MsgNewPasswordTooWeak)
	}

	account, err := s.load(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(ctx, req.OldPassword, account.PasswordHash) {
		if err := ctx.Err(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
		}
		return pkgerrors.New(pkgerrors.CodeIncorrectOldPassword, "Old password is incorrect")
	}

	hash, err := s.hasher.Hash(ctx, req.NewPassword)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if err := s.accounts.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeAccountNotFound, err, "User not found")
		}
		return storeError(err, "update password hash")
	}
	return nil
}

func (s *service) load(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeAccountNotFound, err, "User not found")
		}
		return nil, storeError(err, "load account")
	}
	return account, nil
}

func (s *service) issue(account *models.Account) (*AuthResult, error) {
	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue token")
	}
	return &AuthResult{
		User:  accounts.FromModel(account),
		Token: token,
	}, nil
}

func (s *service) record(operation string, err *error) {
	if s.outcomes == nil {
		return
	}
	result := "success"
	if err != nil && *err != nil {
		result = strings.ToLower(string(pkgerrors.CodeOf(*err)))
	}
	s.outcomes.RecordOutcome(operation, result)
}

func storeError(err error, step string) error {
	return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, step).WithDetails(map[string]any{"step": step})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
