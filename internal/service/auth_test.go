package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatwave/internal/model"
)

// =============================================================================
// OTP AND EMAIL FAKES
// =============================================================================

type fakeOTPRepo struct {
	setErr error
	codes  map[string]string
}

func newFakeOTPRepo() *fakeOTPRepo {
	return &fakeOTPRepo{codes: map[string]string{}}
}

func (f *fakeOTPRepo) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.codes[email] = code
	return nil
}

func (f *fakeOTPRepo) Get(ctx context.Context, email string) (string, error) {
	code, ok := f.codes[email]
	if !ok {
		return "", model.ErrOTPNotFound
	}
	return code, nil
}

func (f *fakeOTPRepo) Delete(ctx context.Context, email string) error {
	delete(f.codes, email)
	return nil
}

type mockEmailSender struct {
	sendFn func(to, code string) error
	sent   []string
}

func (m *mockEmailSender) SendVerificationEmail(to, code string) error {
	m.sent = append(m.sent, to)
	if m.sendFn != nil {
		return m.sendFn(to, code)
	}
	return nil
}

// failingCreateRepo simulates a write conflict that the pre-insert existence
// check did not see, e.g. two signups racing on the unique email index.
type failingCreateRepo struct {
	*fakeUserRepo
	createErr error
}

func (r *failingCreateRepo) Create(ctx context.Context, user *model.User) error {
	return r.createErr
}

func validSignup() *model.SignupRequest {
	return &model.SignupRequest{
		FullName: "Alice Example",
		Email:    "alice@example.com",
		Password: "secret123",
		Number:   "0123456789",
	}
}

// =============================================================================
// SIGNUP TESTS
// =============================================================================

func TestAuthService_Signup_Success(t *testing.T) {
	userRepo := newFakeUserRepo()
	otpRepo := newFakeOTPRepo()
	email := &mockEmailSender{}
	svc := NewAuthService(userRepo, otpRepo, email, nil, "secret", time.Hour, 5*time.Minute)

	user, err := svc.Signup(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if user.IsEmailVerified {
		t.Error("a fresh account must start unverified")
	}
	if _, err := userRepo.GetByEmail(context.Background(), user.Email); err != nil {
		t.Errorf("account not persisted: %v", err)
	}
	if len(email.sent) != 1 || email.sent[0] != user.Email {
		t.Errorf("sent = %v, want one email to %s", email.sent, user.Email)
	}

	code, err := otpRepo.Get(context.Background(), user.Email)
	if err != nil {
		t.Fatalf("no code stored: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("code = %q, want 6 digits", code)
	}
}

func TestAuthService_Signup_CreateFailureSendsNoEmail(t *testing.T) {
	userRepo := &failingCreateRepo{
		fakeUserRepo: newFakeUserRepo(),
		createErr:    model.ErrEmailExists,
	}
	otpRepo := newFakeOTPRepo()
	email := &mockEmailSender{}
	svc := NewAuthService(userRepo, otpRepo, email, nil, "secret", time.Hour, 5*time.Minute)

	_, err := svc.Signup(context.Background(), validSignup())
	if !errors.Is(err, model.ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}

	// no account, so no verification code may go out
	if len(email.sent) != 0 {
		t.Errorf("sent = %v, want no email when the account was not created", email.sent)
	}
	if len(otpRepo.codes) != 0 {
		t.Errorf("codes = %v, want none stored", otpRepo.codes)
	}
}

func TestAuthService_Signup_OTPFailureRollsBackAccount(t *testing.T) {
	userRepo := newFakeUserRepo()
	otpRepo := newFakeOTPRepo()
	email := &mockEmailSender{
		sendFn: func(to, code string) error {
			return errors.New("smtp unavailable")
		},
	}
	svc := NewAuthService(userRepo, otpRepo, email, nil, "secret", time.Hour, 5*time.Minute)

	req := validSignup()
	if _, err := svc.Signup(context.Background(), req); err == nil {
		t.Fatal("expected an error when the code cannot be delivered")
	}

	// the half-created account must not survive, so the address can retry
	if _, err := userRepo.GetByEmail(context.Background(), req.Email); !errors.Is(err, model.ErrUserNotFound) {
		t.Errorf("GetByEmail err = %v, want ErrUserNotFound after rollback", err)
	}
}

func TestAuthService_VerifyOTP(t *testing.T) {
	userRepo := newFakeUserRepo()
	otpRepo := newFakeOTPRepo()
	svc := NewAuthService(userRepo, otpRepo, &mockEmailSender{}, nil, "secret", time.Hour, 5*time.Minute)

	signed, err := svc.Signup(context.Background(), validSignup())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	code := otpRepo.codes[signed.Email]

	if _, err := svc.VerifyOTP(context.Background(), signed.Email, "000000"); !errors.Is(err, model.ErrOTPMismatch) {
		t.Errorf("wrong code err = %v, want ErrOTPMismatch", err)
	}

	user, err := svc.VerifyOTP(context.Background(), signed.Email, code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !user.IsEmailVerified {
		t.Error("account should be verified after a matching code")
	}

	// the code is consumed
	if _, err := svc.VerifyOTP(context.Background(), signed.Email, code); !errors.Is(err, model.ErrOTPNotFound) {
		t.Errorf("reuse err = %v, want ErrOTPNotFound", err)
	}
}
