package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yeremiapane/school-journal/models"
	"github.com/yeremiapane/school-journal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

type AuthService struct {
	DB        *gorm.DB
	Tokens    *utils.TokenManager
	Blacklist utils.TokenBlacklist
	// DemoAuth accepts any password and creates unknown users on first
	// login. Usernames starting with "teacher" become teachers.
	DemoAuth bool
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenManager, blacklist utils.TokenBlacklist, demoAuth bool) *AuthService {
	if blacklist == nil {
		blacklist = utils.NewMemoryBlacklist()
	}
	return &AuthService{DB: db, Tokens: tokens, Blacklist: blacklist, DemoAuth: demoAuth}
}

func (s *AuthService) Register(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > 255 {
		return nil, newValidationError(ErrInvalidInput, "Username must be between %d and 255 characters", minUsernameLength)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, newValidationError(ErrInvalidInput, "Password must be at least %d characters", minPasswordLength)
	}
	if !role.Valid() {
		return nil, newValidationError(ErrInvalidInput, "user_type must be teacher or student")
	}

	db := s.DB.WithContext(ctx)
	var existing int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, newValidationError(ErrInvalidInput, "Username %q is already registered", username)
	}

	return s.createUser(db, username, password, role)
}

// Login checks the credentials and returns a signed access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	db := s.DB.WithContext(ctx)

	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		if !s.DemoAuth {
			if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
				return "", nil, ErrUnauthenticated
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound) && s.DemoAuth:
		role := models.RoleStudent
		if strings.HasPrefix(username, "teacher") {
			role = models.RoleTeacher
		}
		created, err := s.createUser(db, username, password, role)
		if err != nil {
			return "", nil, err
		}
		user = *created
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil, ErrUnauthenticated
	default:
		return "", nil, err
	}

	token, err := s.Tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return "", nil, err
	}
	utils.InfoLogger.Infof("Login successful for user: %s, role: %s", user.Username, user.Role)
	return token, &user, nil
}

// Authenticate resolves a bearer token into the stored user and its caller.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, Caller, error) {
	revoked, err := s.Blacklist.Contains(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, ErrUnauthenticated
	}

	claims, err := s.Tokens.ParseToken(token)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, err
	}

	caller, err := CallerFor(user)
	if err != nil {
		return nil, nil, ErrUnauthenticated
	}
	return &user, caller, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.Tokens.ParseToken(token)
	if err != nil {
		return ErrUnauthenticated
	}
	ttl := s.Tokens.TTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.Blacklist.Add(ctx, token, ttl)
}

func (s *AuthService) GetUser(ctx context.Context, caller Caller, userID uint) (*models.User, error) {
	if caller == nil {
		return nil, ErrUnauthenticated
	}
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) createUser(db *gorm.DB, username, password string, role models.Role) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Username: username,
		Password: string(hashed),
		Role:     role,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	utils.InfoLogger.Infof("New user registered: %s (role=%s)", user.Username, user.Role)
	return &user, nil
}
