package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"lotus_planning_backend/internal/models"
)

const testJWTSecret = "test-secret"

func newAuthTestService(authRepo *fakeAuthRepo, customerRepo *fakeCustomerRepo) AuthService {
	return NewAuthService(authRepo, customerRepo, nil, testJWTSecret, time.Hour)
}

func TestRegisterUserDefaultsToCustomerRole(t *testing.T) {
	authRepo := newFakeAuthRepo()
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	user, err := svc.RegisterUser(RegisterUserRequest{
		Username: "nora",
		Email:    "nora@example.com",
		Password: "correct-horse",
		FullName: "Nora Visser",
	})
	if err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}
	if user.RoleID == nil || *user.RoleID != roleIDsByName["customer"] {
		t.Errorf("role_id = %v, want customer role", user.RoleID)
	}

	// The stored hash must verify against the original password.
	_, hash, err := authRepo.FindUserByUsername("nora")
	if err != nil {
		t.Fatalf("registered user not found: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse")); err != nil {
		t.Errorf("stored hash does not match the password: %v", err)
	}
}

func TestRegisterUserRejectsUnknownRole(t *testing.T) {
	svc := newAuthTestService(newFakeAuthRepo(), newFakeCustomerRepo())

	_, err := svc.RegisterUser(RegisterUserRequest{
		Username: "nora",
		Email:    "nora@example.com",
		Password: "correct-horse",
		FullName: "Nora Visser",
		RoleName: "superuser",
	})
	if !errors.Is(err, ErrRoleNotFound) {
		t.Fatalf("expected ErrRoleNotFound, got %v", err)
	}
}

func TestRegisterUserRejectsDuplicateUsername(t *testing.T) {
	email := "first@example.com"
	authRepo := newFakeAuthRepo(&models.User{ID: 1, Username: "nora", Email: &email})
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	_, err := svc.RegisterUser(RegisterUserRequest{
		Username: "nora",
		Email:    "second@example.com",
		Password: "correct-horse",
		FullName: "Other Nora",
	})
	if !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
}

func TestRegisterCustomerLinksExistingCustomerRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	customer := &models.Customer{ID: 5, FirstName: "Nora", LastName: "Visser", Email: "nora@example.com"}
	authRepo := newFakeAuthRepo()
	customerRepo := newFakeCustomerRepo(customer)
	svc := NewAuthService(authRepo, customerRepo, db, testJWTSecret, time.Hour)

	user, err := svc.RegisterUser(RegisterUserRequest{
		Username: "nora",
		Email:    "nora@example.com",
		Password: "correct-horse",
		FullName: "Nora Visser",
		RoleName: "customer",
	})
	if err != nil {
		t.Fatalf("RegisterUser returned error: %v", err)
	}

	stored, _ := customerRepo.GetCustomerByID(customer.ID)
	if stored.UserID == nil || *stored.UserID != user.ID {
		t.Errorf("customer.UserID = %v, want %d", stored.UserID, user.ID)
	}
	linkedUser, _ := authRepo.FindUserByID(user.ID)
	if linkedUser.CustomerID == nil || *linkedUser.CustomerID != customer.ID {
		t.Errorf("user.CustomerID = %v, want %d", linkedUser.CustomerID, customer.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet transaction expectations: %v", err)
	}
}

func TestLoginUser(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	email := "nora@example.com"
	authRepo := newFakeAuthRepo(&models.User{
		ID:       1,
		Username: "nora",
		Email:    &email,
		IsActive: true,
		Role:     &models.Role{ID: 2, Name: "planner"},
	})
	authRepo.hashes[1] = string(hash)
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	response, err := svc.LoginUser(LoginRequest{Username: "nora", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("LoginUser returned error: %v", err)
	}
	if response.AccessToken == "" {
		t.Fatal("expected a signed access token")
	}

	token, err := jwt.Parse(response.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("access token does not validate: %v", err)
	}
	claims := token.Claims.(jwt.MapClaims)
	if claims["username"] != "nora" {
		t.Errorf("token username = %v, want nora", claims["username"])
	}
	if claims["role"] != "planner" {
		t.Errorf("token role = %v, want planner", claims["role"])
	}
}

func TestRefreshTokenIssuesNewPair(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	email := "nora@example.com"
	authRepo := newFakeAuthRepo(&models.User{
		ID:       1,
		Username: "nora",
		Email:    &email,
		IsActive: true,
		Role:     &models.Role{ID: 2, Name: "planner"},
	})
	authRepo.hashes[1] = string(hash)
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	loginResponse, err := svc.LoginUser(LoginRequest{Username: "nora", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("LoginUser returned error: %v", err)
	}
	if loginResponse.RefreshToken == "" {
		t.Fatal("expected a signed refresh token")
	}

	refreshed, err := svc.RefreshToken(RefreshRequest{RefreshToken: loginResponse.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken returned error: %v", err)
	}
	if refreshed.AccessToken == "" || refreshed.RefreshToken == "" {
		t.Fatal("expected a full token pair from refresh")
	}

	token, err := jwt.Parse(refreshed.AccessToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("refreshed access token does not validate: %v", err)
	}
	if claims := token.Claims.(jwt.MapClaims); claims["username"] != "nora" {
		t.Errorf("token username = %v, want nora", claims["username"])
	}
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	authRepo := newFakeAuthRepo(&models.User{ID: 1, Username: "nora", IsActive: true})
	authRepo.hashes[1] = string(hash)
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	loginResponse, err := svc.LoginUser(LoginRequest{Username: "nora", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("LoginUser returned error: %v", err)
	}

	// An access token lacks the refresh marker and must not be accepted.
	_, err = svc.RefreshToken(RefreshRequest{RefreshToken: loginResponse.AccessToken})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshTokenRejectsDeactivatedUser(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	user := &models.User{ID: 1, Username: "nora", IsActive: true}
	authRepo := newFakeAuthRepo(user)
	authRepo.hashes[1] = string(hash)
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	loginResponse, err := svc.LoginUser(LoginRequest{Username: "nora", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("LoginUser returned error: %v", err)
	}

	user.IsActive = false
	_, err = svc.RefreshToken(RefreshRequest{RefreshToken: loginResponse.RefreshToken})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestRefreshTokenRejectsGarbage(t *testing.T) {
	svc := newAuthTestService(newFakeAuthRepo(), newFakeCustomerRepo())

	_, err := svc.RefreshToken(RefreshRequest{RefreshToken: "not-a-token"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUserWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	authRepo := newFakeAuthRepo(&models.User{ID: 1, Username: "nora", IsActive: true})
	authRepo.hashes[1] = string(hash)
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	_, err := svc.LoginUser(LoginRequest{Username: "nora", Password: "wrong"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUserInactiveAccount(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	authRepo := newFakeAuthRepo(&models.User{ID: 1, Username: "nora", IsActive: false})
	authRepo.hashes[1] = string(hash)
	svc := newAuthTestService(authRepo, newFakeCustomerRepo())

	_, err := svc.LoginUser(LoginRequest{Username: "nora", Password: "correct-horse"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUserUnknownUsername(t *testing.T) {
	svc := newAuthTestService(newFakeAuthRepo(), newFakeCustomerRepo())

	_, err := svc.LoginUser(LoginRequest{Username: "ghost", Password: "whatever"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestGetUserProfileNotFound(t *testing.T) {
	svc := newAuthTestService(newFakeAuthRepo(), newFakeCustomerRepo())

	_, err := svc.GetUserProfile(99)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
