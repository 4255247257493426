package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ashasetu/ashasetu-backend/internal/accounts"
	pkgauth "github.com/ashasetu/ashasetu-backend/pkg/auth"
	"github.com/ashasetu/ashasetu-backend/pkg/config"
	"github.com/ashasetu/ashasetu-backend/pkg/db"
	"github.com/ashasetu/ashasetu-backend/pkg/db/models"
	pkgerrors "github.com/ashasetu/ashasetu-backend/pkg/errors"
	"github.com/ashasetu/ashasetu-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	svc    Service
	repo   *accounts.Repository
	issuer *pkgauth.Issuer
	gate   *Gate
	clock  *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := accounts.NewRepository(conn)

	hasher, err := security.NewHasher(config.PasswordConfig{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}

	now := time.Now().UTC()
	clock := &now
	issuer, err := pkgauth.NewIssuer(config.JWTConfig{Secret: "test-secret", Issuer: "ashasetu", ExpirationMinutes: 60}, func() time.Time { return *clock })
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}

	svc, err := NewService(ServiceParams{Accounts: repo, Hasher: hasher, Tokens: issuer})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	gate, err := NewGate(issuer, repo)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	return &testEnv{svc: svc, repo: repo, issuer: issuer, gate: gate, clock: clock}
}

func validRegistration() RegisterRequest {
	return RegisterRequest{FullName: "A", Email: "a@x.com", PhoneNumber: "1234567890", Password: "secret1"}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if got := pkgerrors.CodeOf(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}

func TestRegisterThenLoginReturnsSameIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.Token == "" {
		t.Fatal("expected token on register")
	}
	if !registered.User.IsActive || registered.User.IsVerified || registered.User.IsAdmin {
		t.Fatalf("unexpected status defaults %+v", registered.User)
	}

	loggedIn, err := env.svc.Login(ctx, LoginRequest{Email: "A@X.com ", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.User.ID != registered.User.ID {
		t.Fatalf("expected same identity %s, got %s", registered.User.ID, loggedIn.User.ID)
	}

	id, err := env.issuer.Authenticate(loggedIn.Token)
	if err != nil || id != registered.User.ID {
		t.Fatalf("token should resolve to %s, got %s (%v)", registered.User.ID, id, err)
	}
}

func TestRegisterPasswordByteLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := validRegistration()
	req.Password = strings.Repeat("p", 73)
	_, err := env.svc.Register(ctx, req)
	expectCode(t, err, pkgerrors.CodeInvalidFormat)

	req.Password = strings.Repeat("p", 72)
	if _, err := env.svc.Register(ctx, req); err != nil {
		t.Fatalf("register with 72-byte password: %v", err)
	}
	if _, err := env.svc.Login(ctx, LoginRequest{Email: req.Email, Password: req.Password}); err != nil {
		t.Fatalf("login with 72-byte password: %v", err)
	}
}

func TestRegisterStoresNormalizedEmail(t *testing.T) {
	env := newTestEnv(t)
	req := validRegistration()
	req.Email = "  Asha@Example.COM "

	res, err := env.svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.User.Email != "asha@example.com" {
		t.Fatalf("expected lower-cased email, got %q", res.User.Email)
	}
}

func TestRegisterValidationFailsFast(t *testing.T) {
	env := newTestEnv(t)
	req := validRegistration()
	req.PhoneNumber = "12"

	_, err := env.svc.Register(context.Background(), req)
	expectCode(t, err, pkgerrors.CodeInvalidFormat)
}

func TestRegisterDuplicateEmailOrPhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	sameEmail := validRegistration()
	sameEmail.PhoneNumber = "0000000000"
	_, err := env.svc.Register(ctx, sameEmail)
	expectCode(t, err, pkgerrors.CodeDuplicateAccount)

	samePhone := validRegistration()
	samePhone.Email = "b@x.com"
	_, err = env.svc.Register(ctx, samePhone)
	expectCode(t, err, pkgerrors.CodeDuplicateAccount)

	if pkgerrors.As(err).Message() != "User with this email or phone number already exists" {
		t.Fatalf("duplicate message must not reveal the field, got %q", pkgerrors.As(err).Message())
	}
}

func TestRegisterUniqueViolationOnInsertIsDuplicate(t *testing.T) {
	store := &stubStore{
		findByEmailOrPhone: func(context.Context, string, string) (*models.Account, error) {
			return nil, gorm.ErrRecordNotFound
		},
		create: func(context.Context, accounts.CreateAccountDTO) (*models.Account, error) {
			return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"}
		},
	}
	svc := newStubService(t, store, nil)

	_, err := svc.Register(context.Background(), validRegistration())
	expectCode(t, err, pkgerrors.CodeDuplicateAccount)
}

func TestRegisterStoreFailureIsStoreUnavailable(t *testing.T) {
	store := &stubStore{
		findByEmailOrPhone: func(context.Context, string, string) (*models.Account, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := newStubService(t, store, nil)

	_, err := svc.Register(context.Background(), validRegistration())
	expectCode(t, err, pkgerrors.CodeStoreUnavailable)
}

func TestLoginWrongPasswordIndistinguishableFromUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, err := env.svc.Register(ctx, validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := env.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "wrong"})
	_, unknownEmail := env.svc.Login(ctx, LoginRequest{Email: "nobody@x.com", Password: "secret1"})

	expectCode(t, wrongPassword, pkgerrors.CodeInvalidCredentials)
	expectCode(t, unknownEmail, pkgerrors.CodeInvalidCredentials)
	if pkgerrors.As(wrongPassword).Message() != pkgerrors.As(unknownEmail).Message() {
		t.Fatalf("messages differ: %q vs %q", pkgerrors.As(wrongPassword).Message(), pkgerrors.As(unknownEmail).Message())
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Login(context.Background(), LoginRequest{Email: "a@x.com"})
	expectCode(t, err, pkgerrors.CodeMissingField)
	_, err = env.svc.Login(context.Background(), LoginRequest{Password: "secret1"})
	expectCode(t, err, pkgerrors.CodeMissingField)
}

func TestLoginDeactivatedCheckedBeforePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := env.repo.SetActive(ctx, res.User.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = env.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "secret1"})
	expectCode(t, err, pkgerrors.CodeAccountDeactivated)

	_, err = env.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "wrong"})
	expectCode(t, err, pkgerrors.CodeAccountDeactivated)

	// Deactivated accounts can still be read and updated.
	if _, err := env.svc.GetProfile(ctx, res.User.ID); err != nil {
		t.Fatalf("get profile of deactivated account: %v", err)
	}
}

func TestChangePasswordRotatesCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := env.svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"}); err != nil {
		t.Fatalf("change password: %v", err)
	}

	_, err = env.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "secret1"})
	expectCode(t, err, pkgerrors.CodeInvalidCredentials)

	if _, err := env.svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "secret2"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// The token issued at registration is not invalidated.
	if _, err := env.gate.Resolve(ctx, res.Token); err != nil {
		t.Fatalf("existing token should remain valid: %v", err)
	}
}

func TestChangePasswordFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	err = env.svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{OldPassword: "secret1"})
	expectCode(t, err, pkgerrors.CodeMissingField)

	err = env.svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{OldPassword: "secret1", NewPassword: "12345"})
	expectCode(t, err, pkgerrors.CodeTooWeak)

	err = env.svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{OldPassword: "secret1", NewPassword: strings.Repeat("n", 73)})
	expectCode(t, err, pkgerrors.CodeInvalidFormat)

	err = env.svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{OldPassword: "nope-nope", NewPassword: "secret2"})
	expectCode(t, err, pkgerrors.CodeIncorrectOldPassword)

	err = env.svc.ChangePassword(ctx, uuid.New(), ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"})
	expectCode(t, err, pkgerrors.CodeAccountNotFound)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first, err := env.svc.Register(ctx, validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	other := validRegistration()
	other.Email = "b@x.com"
	other.PhoneNumber = "1234567891"
	if _, err := env.svc.Register(ctx, other); err != nil {
		t.Fatalf("register other: %v", err)
	}

	short := "12"
	_, err = env.svc.UpdateProfile(ctx, first.User.ID, UpdateProfileRequest{PhoneNumber: &short})
	expectCode(t, err, pkgerrors.CodeInvalidFormat)

	taken := "1234567891"
	_, err = env.svc.UpdateProfile(ctx, first.User.ID, UpdateProfileRequest{PhoneNumber: &taken})
	expectCode(t, err, pkgerrors.CodePhoneTaken)

	empty := ""
	_, err = env.svc.UpdateProfile(ctx, first.User.ID, UpdateProfileRequest{FullName: &empty})
	expectCode(t, err, pkgerrors.CodeNoChanges)

	own := "1234567890"
	name := "Asha"
	picture := "https://cdn/p.png"
	updated, err := env.svc.UpdateProfile(ctx, first.User.ID, UpdateProfileRequest{FullName: &name, PhoneNumber: &own})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.FullName != "Asha" || updated.PhoneNumber != own {
		t.Fatalf("unexpected projection %+v", updated)
	}

	req := UpdateProfileRequest{}
	req.ProfilePictureURL.Valid = true
	req.ProfilePictureURL.Value = &picture
	updated, err = env.svc.UpdateProfile(ctx, first.User.ID, req)
	if err != nil {
		t.Fatalf("set picture: %v", err)
	}
	if updated.ProfilePictureURL == nil || *updated.ProfilePictureURL != picture {
		t.Fatalf("expected picture to be set, got %+v", updated.ProfilePictureURL)
	}

	clearReq := UpdateProfileRequest{}
	clearReq.ProfilePictureURL.Valid = true
	updated, err = env.svc.UpdateProfile(ctx, first.User.ID, clearReq)
	if err != nil {
		t.Fatalf("clear picture: %v", err)
	}
	if updated.ProfilePictureURL != nil {
		t.Fatalf("expected picture to be cleared, got %q", *updated.ProfilePictureURL)
	}

	_, err = env.svc.UpdateProfile(ctx, uuid.New(), UpdateProfileRequest{FullName: &name})
	expectCode(t, err, pkgerrors.CodeAccountNotFound)
}

func TestGetProfileVanishedAccount(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GetProfile(context.Background(), uuid.New())
	expectCode(t, err, pkgerrors.CodeAccountNotFound)
}

func TestOutcomesRecorded(t *testing.T) {
	recorder := &stubRecorder{}
	store := &stubStore{
		findByEmail: func(context.Context, string) (*models.Account, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newStubService(t, store, recorder)

	_, _ = svc.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "secret1"})
	_, _ = svc.Login(context.Background(), LoginRequest{})

	want := []string{"login:invalid_credentials", "login:missing_field"}
	if len(recorder.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, recorder.calls)
	}
	for i := range want {
		if recorder.calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, recorder.calls)
		}
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

type stubStore struct {
	findByID           func(context.Context, uuid.UUID) (*models.Account, error)
	findByEmail        func(context.Context, string) (*models.Account, error)
	findByEmailOrPhone func(context.Context, string, string) (*models.Account, error)
	create             func(context.Context, accounts.CreateAccountDTO) (*models.Account, error)
}

func (s *stubStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Account, error) {
	if s.findByEmailOrPhone != nil {
		return s.findByEmailOrPhone(ctx, email, phone)
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) PhoneTakenByOther(context.Context, string, uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubStore) Create(ctx context.Context, dto accounts.CreateAccountDTO) (*models.Account, error) {
	if s.create != nil {
		return s.create(ctx, dto)
	}
	account := dto.ToModel()
	account.ID = uuid.New()
	return account, nil
}

func (s *stubStore) ApplyPatch(context.Context, uuid.UUID, accounts.ProfilePatch) (*models.Account, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStore) UpdatePasswordHash(context.Context, uuid.UUID, string) error {
	return nil
}

type stubHasher struct{}

func (stubHasher) Hash(_ context.Context, password string) (string, error) {
	return "hashed:" + password, nil
}

func (stubHasher) Verify(_ context.Context, password, encoded string) bool {
	return encoded == "hashed:"+password
}

type stubTokens struct{}

func (stubTokens) Issue(accountID uuid.UUID) (string, error) {
	return "token-" + accountID.String(), nil
}

type stubRecorder struct {
	calls []string
}

func (r *stubRecorder) RecordOutcome(operation, result string) {
	r.calls = append(r.calls, operation+":"+result)
}

func newStubService(t *testing.T, store *stubStore, recorder *stubRecorder) Service {
	t.Helper()
	params := ServiceParams{Accounts: store, Hasher: stubHasher{}, Tokens: stubTokens{}}
	if recorder != nil {
		params.Outcomes = recorder
	}
	svc, err := NewService(params)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

// cancelOnVerify behaves like a hasher whose slot wait ended because the caller
// went away.
type cancelOnVerify struct {
	passwordHasher
	cancel context.CancelFunc
}

func (h cancelOnVerify) Verify(ctx context.Context, password, encoded string) bool {
	h.cancel()
	return false
}

func TestCancelledVerifyIsNotACredentialError(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("register: %v", err)
	}

	hasher, err := security.NewHasher(config.PasswordConfig{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, err := NewService(ServiceParams{Accounts: env.repo, Hasher: cancelOnVerify{passwordHasher: hasher, cancel: cancel}, Tokens: env.issuer})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	_, err = svc.Login(ctx, LoginRequest{Email: "a@x.com", Password: "secret1"})
	expectCode(t, err, pkgerrors.CodeInternal)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

func TestCancelledVerifyOnChangePassword(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	hasher, err := security.NewHasher(config.PasswordConfig{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, err := NewService(ServiceParams{Accounts: env.repo, Hasher: cancelOnVerify{passwordHasher: hasher, cancel: cancel}, Tokens: env.issuer})
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	err = svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"})
	expectCode(t, err, pkgerrors.CodeInternal)
}
