package services

import (
	"errors"
	"log"
	"strings"

	"cardiovoice-backend/internal/config"
	"cardiovoice-backend/internal/models"
	"cardiovoice-backend/pkg/security"

	"gorm.io/gorm"
)

const minPasswordLength = 8

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

type AuthService struct {
	db *gorm.DB
}

func NewAuthService() *AuthService {
	return &AuthService{db: config.DB}
}

// NormalizeEmail lower-cases and trims an email before lookup or
// storage so the unique index is effectively case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user. The unique index on email is the
// authoritative guard against concurrent registrations; the pre-check
// only exists for a friendly error message.
func (s *AuthService) Register(email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{Email: email, PasswordHash: hash, IsActive: true}
	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			log.Printf("registration race on email %s", email)
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	log.Printf("new user registered: %s", email)
	return &user, nil
}

// Authenticate validates credentials. Unknown user and wrong password
// intentionally return the same error so callers cannot enumerate
// accounts; the disabled check runs after lookup only.
func (s *AuthService) Authenticate(email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("failed login attempt for unknown email: %s", email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	if !security.VerifyPassword(user.PasswordHash, password) {
		log.Printf("failed login attempt for: %s", email)
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUserByID returns the user or nil when no row exists.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
