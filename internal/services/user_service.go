package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fintrack/internal/config"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/mailer"
	"fintrack/internal/models"
)

// userService handles user-related business logic.
type userService struct {
	db   *gorm.DB
	mail mailer.Mailer
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, mail mailer.Mailer) UserServicer {
	return &userService{db: db, mail: mail}
}

// CreateUser registers a new, unverified user and emails a verification link.
func (s *userService) CreateUser(name, email, password string) (*models.User, error) {
	// Validate input
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name, email and password are required")
	}

	// Check if user with email exists
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	token, err := newVerificationToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expires := time.Now().Add(config.Get().VerificationTokenTTL)

	// Create user
	user := &models.User{
		Name:                     name,
		Email:                    strings.ToLower(email),
		Password:                 string(hashedPassword),
		IsVerified:               false,
		VerificationToken:        token,
		VerificationTokenExpires: &expires,
	}

	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Best effort: a failed send must not roll back the registration. The
	// user can still be verified from a re-issued token.
	subject, body := mailer.VerificationEmail(config.Get().ClientURL, token)
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		logger.Get().Errorw("failed to send verification email",
			"error", err.Error(),
			"user_id", user.ID,
		)
	}

	return user, nil
}

// AttemptLogin checks the credentials for a user and returns the user on
// success. Unknown emails and wrong passwords both map to invalid
// credentials; a correct password on an unverified account is rejected
// with a distinct error so the client can prompt for verification.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, apperrors.ErrEmailNotVerified
	}

	return &user, nil
}

// VerifyEmail marks the user holding the given token as verified, provided
// the token has not expired, and clears the token fields.
func (s *userService) VerifyEmail(token string) error {
	if token == "" {
		return apperrors.ErrInvalidToken
	}

	var user models.User
	err := s.db.Where("verification_token = ? AND verification_token_expires > ?", token, time.Now()).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrInvalidToken
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	updates := map[string]interface{}{
		"is_verified":                true,
		"verification_token":         "",
		"verification_token_expires": nil,
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// newVerificationToken returns 20 random bytes as a 40-character hex string.
func newVerificationToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
