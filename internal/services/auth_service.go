package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devtrackhq/statusboard/internal/constants"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/repository"
	"github.com/devtrackhq/statusboard/internal/timeline"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrDeveloperNotFound    = errors.New("developer not found")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	developerRepo repository.DeveloperRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(developerRepo repository.DeveloperRepository) *AuthService {
	return &AuthService{
		developerRepo: developerRepo,
	}
}

// SignupInput represents the required information to register a developer.
type SignupInput struct {
	Name     string
	Username string
	Password string
}

// Signup registers a new developer account.
func (s *AuthService) Signup(input SignupInput) (*models.Developer, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = username
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.developerRepo.FindByUsername(username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	developer := &models.Developer{
		Name:         name,
		Username:     username,
		PasswordHash: string(hashedPassword),
		Color:        timeline.RandomBarColor(),
	}

	if err := s.developerRepo.Create(developer); err != nil {
		return nil, fmt.Errorf("failed to create developer: %w", err)
	}

	return developer, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated developer.
func (s *AuthService) Login(input LoginInput) (*models.Developer, error) {
	developer, err := s.developerRepo.FindByUsername(input.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find developer: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(developer.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return developer, nil
}
