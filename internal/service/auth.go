package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"chatwave/internal/model"
	"chatwave/internal/repository"
)

var phoneNumberRe = regexp.MustCompile(`^\d{10}$`)

// AvatarUploader resolves a profile picture through the media store.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, dataURI string) (url string, err error)
}

// AuthService handles accounts: signup with email OTP verification, login,
// password reset, profile updates and deletion. Credential issuance is a
// collaborator of the messaging core, not part of it.
type AuthService struct {
	userRepo  repository.UserRepository
	otpRepo   repository.OTPRepository
	email     EmailSender
	avatars   AvatarUploader
	jwtSecret string
	tokenTTL  time.Duration
	otpTTL    time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	email EmailSender,
	avatars AvatarUploader,
	jwtSecret string,
	tokenTTL, otpTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		otpRepo:   otpRepo,
		email:     email,
		avatars:   avatars,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		otpTTL:    otpTTL,
	}
}

// Signup creates an unverified account and issues a verification code to the
// given email address.
func (s *AuthService) Signup(ctx context.Context, req *model.SignupRequest) (*model.User, error) {
	if req.FullName == "" || req.Email == "" || req.Password == "" || req.Number == "" {
		return nil, fmt.Errorf("%w: all fields are required", model.ErrValidation)
	}
	if len(req.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", model.ErrValidation)
	}
	if !phoneNumberRe.MatchString(req.Number) {
		return nil, fmt.Errorf("%w: phone number must be exactly 10 digits", model.ErrValidation)
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		FullName:        req.FullName,
		Email:           req.Email,
		Number:          req.Number,
		Password:        string(hashed),
		IsEmailVerified: false,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	// The account must exist before a code goes out; a failed issue rolls the
	// account back so the email address can sign up again cleanly.
	if err := s.issueOTP(ctx, req.Email); err != nil {
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			log.Printf("[AuthService] rollback of %s after otp failure: %v", user.Email, delErr)
		}
		return nil, err
	}
	return user, nil
}

// VerifyOTP checks the submitted code, marks the account verified and
// consumes the code.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*model.User, error) {
	stored, err := s.otpRepo.Get(ctx, email)
	if err != nil {
		return nil, err
	}
	if stored != code {
		return nil, model.ErrOTPMismatch
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.SetEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsEmailVerified = true

	if err := s.otpRepo.Delete(ctx, email); err != nil {
		// the key expires on its own; verification already succeeded
		return user, nil
	}
	return user, nil
}

// ResendOTP issues a fresh code for an unverified account, replacing any
// live one.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return model.ErrEmailAlreadyVerified
	}
	return s.issueOTP(ctx, email)
}

func (s *AuthService) issueOTP(ctx context.Context, email string) error {
	code, err := generateOTP()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}
	if err := s.otpRepo.Set(ctx, email, code, s.otpTTL); err != nil {
		return err
	}
	if err := s.email.SendVerificationEmail(email, code); err != nil {
		return err
	}
	return nil
}

// generateOTP returns a random 6-digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Login authenticates by email and password. Whether the email exists is
// never revealed.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}
	return user, nil
}

// ResetPassword re-hashes and stores a new password for the account.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if email == "" || newPassword == "" {
		return fmt.Errorf("%w: email and new password are required", model.ErrValidation)
	}
	if len(newPassword) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", model.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, user.ID, string(hashed))
}

// UpdateProfile applies optional profile mutations. A profile picture is
// resolved through the media store first; if the upload fails after retries
// the whole update is aborted and nothing is persisted.
func (s *AuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, req *model.UpdateProfileRequest) (*model.User, error) {
	fields := map[string]any{}

	if req.ProfilePic != "" {
		url, err := s.avatars.UploadAvatar(ctx, req.ProfilePic)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrUploadFailed, err)
		}
		fields["profilePic"] = url
	}

	if req.Number != "" {
		if !phoneNumberRe.MatchString(req.Number) {
			return nil, fmt.Errorf("%w: phone number must be exactly 10 digits", model.ErrValidation)
		}
		fields["number"] = req.Number
	}

	if req.Bio != "" {
		fields["bio"] = req.Bio
	}

	return s.userRepo.UpdateProfile(ctx, userID, fields)
}

// GetUser returns the account behind an authenticated identity.
func (s *AuthService) GetUser(ctx context.Context, userID primitive.ObjectID) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// DeleteAccount removes the user and cascades its ID out of every other
// user's graph sets.
func (s *AuthService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	return s.userRepo.Delete(ctx, userID)
}

// GenerateToken signs a JWT carrying the user's ID.
func (s *AuthService) GenerateToken(userID primitive.ObjectID) (string, error) {
	claims := jwt.MapClaims{
		"userId": userID.Hex(),
		"exp":    time.Now().Add(s.tokenTTL).Unix(),
		"iat":    time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// TokenMaxAge is the cookie lifetime matching issued tokens.
func (s *AuthService) TokenMaxAge() time.Duration {
	return s.tokenTTL
}
