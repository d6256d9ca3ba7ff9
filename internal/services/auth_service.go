package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
	"lotus_planning_backend/pkg/utils"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrUserEmailExists    = errors.New("email already exists")
	ErrRoleNotFound       = errors.New("specified role not found")
	ErrTokenGeneration    = errors.New("failed to generate token")
)

// Role IDs match the seed data in db/schema.sql.
var roleIDsByName = map[string]int64{
	"admin":    1,
	"planner":  2,
	"staff":    3,
	"customer": 4,
}

// refreshTokenTTL is deliberately long; refresh tokens only mint new access
// tokens and are invalidated by deactivating the account.
const refreshTokenTTL = 7 * 24 * time.Hour

// --- Auth DTOs ---
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	RoleName string `json:"role_name"` // admin, planner, staff or customer; defaults to customer
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(req RegisterUserRequest) (*models.User, error)
	LoginUser(req LoginRequest) (*AuthResponse, error)
	RefreshToken(req RefreshRequest) (*AuthResponse, error)
	GetUserProfile(userID int64) (*models.User, error)
}

// --- authService Implementation ---
type authService struct {
	authRepo      repositories.AuthRepository
	customerRepo  repositories.CustomerRepository
	db            *sql.DB
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(authRepo repositories.AuthRepository, customerRepo repositories.CustomerRepository, db *sql.DB, jwtSecret string, jwtExp time.Duration) AuthService {
	return &authService{
		authRepo:      authRepo,
		customerRepo:  customerRepo,
		db:            db,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExp,
	}
}

// generateJWT creates a signed access token for a user.
func (s *authService) generateJWT(user *models.User) (string, error) {
	roleName := "customer"
	if user.Role != nil && user.Role.Name != "" {
		roleName = user.Role.Name
	}

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     roleName,
		"exp":      time.Now().Add(s.jwtExpiration).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signedToken, nil
}

// generateRefreshJWT creates a signed refresh token. It carries a "typ" claim
// so it can never pass as an access token and vice versa.
func (s *authService) generateRefreshJWT(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"typ":     "refresh",
		"exp":     time.Now().Add(refreshTokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return signedToken, nil
}

// RefreshToken exchanges a valid refresh token for a fresh token pair.
func (s *authService) RefreshToken(req RefreshRequest) (*AuthResponse, error) {
	token, err := jwt.Parse(req.RefreshToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != "refresh" {
		return nil, ErrInvalidCredentials
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	user, err := s.authRepo.FindUserByID(int64(userIDFloat))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// issueTokens builds the access + refresh token pair for a user.
func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := s.generateRefreshJWT(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RegisterUser creates a user account. Customer accounts are linked to an
// existing customer record with the same email when one exists, so returning
// customers see their event history on first login.
func (s *authService) RegisterUser(req RegisterUserRequest) (*models.User, error) {
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	hashedPassword := string(hashedPasswordBytes)

	roleName := strings.ToLower(strings.TrimSpace(req.RoleName))
	if roleName == "" {
		roleName = "customer"
	}
	roleID, ok := roleIDsByName[roleName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrRoleNotFound, req.RoleName)
	}

	user := models.User{
		Username: req.Username,
		Email:    &req.Email,
		FullName: &req.FullName,
		RoleID:   &roleID,
	}

	createdUserID, err := s.authRepo.CreateUser(s.db, &user, hashedPassword)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			if strings.Contains(err.Error(), "users_email_key") {
				return nil, ErrUserEmailExists
			}
			return nil, ErrUsernameExists
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	if roleName == "customer" {
		s.linkCustomerRecord(createdUserID, req.Email)
	}

	registeredUser, fetchErr := s.authRepo.FindUserByID(createdUserID)
	if fetchErr != nil {
		user.ID = createdUserID
		return &user, fmt.Errorf("user registered but failed to retrieve full details: %w", fetchErr)
	}
	return registeredUser, nil
}

// linkCustomerRecord binds a fresh customer account to the customer record
// carrying the same email, if any. Best-effort: a failed link is logged and
// the planner can redo it from the customer screen.
func (s *authService) linkCustomerRecord(userID int64, email string) {
	customer, err := s.customerRepo.GetCustomerByEmail(email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			utils.LogError(err, "Failed to look up customer record for new user", map[string]interface{}{"user_id": userID})
		}
		return
	}
	if customer.UserID != nil {
		return
	}

	tx, err := s.db.Begin()
	if err != nil {
		utils.LogError(err, "Failed to begin transaction for customer link", map[string]interface{}{"user_id": userID})
		return
	}
	defer tx.Rollback()

	if err := s.authRepo.SetUserCustomerID(tx, userID, &customer.ID); err != nil {
		utils.LogError(err, "Failed to link new user to customer record", map[string]interface{}{"user_id": userID, "customer_id": customer.ID})
		return
	}
	customer.UserID = &userID
	if _, err := s.customerRepo.UpdateCustomer(tx, customer); err != nil {
		utils.LogError(err, "Failed to store user link on customer record", map[string]interface{}{"user_id": userID, "customer_id": customer.ID})
		return
	}
	if err := tx.Commit(); err != nil {
		utils.LogError(err, "Failed to commit customer link", map[string]interface{}{"user_id": userID})
	}
}

// LoginUser verifies credentials and issues an access token.
func (s *authService) LoginUser(req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}
