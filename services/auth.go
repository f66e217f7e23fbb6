package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/talenthubhq/talenthub/authz"
	"github.com/talenthubhq/talenthub/db"
	"github.com/talenthubhq/talenthub/store"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login responses do not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when a suspended or inactive account
	// attempts to log in.
	ErrAccountDisabled = errors.New("account disabled")
)

// AuthService registers accounts, verifies logins and resolves request
// principals for the authorization engine.
type AuthService struct {
	Store store.Store
	JWT   *JWTService
}

func NewAuthService(st store.Store, jwtService *JWTService) *AuthService {
	return &AuthService{Store: st, JWT: jwtService}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=recruiter candidate"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Account db.Account `json:"account"`
	Token   string     `json:"token"`
}

// Register creates a new recruiter or candidate account. Admin accounts are
// provisioned out of band, never through the public endpoint.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*db.Account, error) {
	if req.Role != db.RoleRecruiter && req.Role != db.RoleCandidate {
		return nil, fmt.Errorf("role %q cannot self-register", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &db.Account{
		Email:          req.Email,
		HashedPassword: string(hash),
		Name:           req.Name,
		Role:           req.Role,
		Status:         db.StatusActive,
	}
	if err := s.Store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	account.HashedPassword = ""
	return account, nil
}

// Login verifies credentials and issues a token. Non-active accounts can
// authenticate nothing, matching the engine's blanket denial.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	account, err := s.Store.GetAccountByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.HashedPassword), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if account.Status != db.StatusActive {
		return nil, fmt.Errorf("%w: status %s", ErrAccountDisabled, account.Status)
	}

	token, err := s.JWT.GenerateToken(account)
	if err != nil {
		return nil, err
	}
	if err := s.Store.UpdateLastLogin(ctx, account.ID, time.Now()); err != nil {
		return nil, err
	}

	account.HashedPassword = ""
	return &LoginResponse{Account: *account, Token: token}, nil
}

// Resolve loads the current account row for a token subject and converts it
// into a principal. Status comes from the row, not the token, so suspensions
// take effect immediately.
func (s *AuthService) Resolve(ctx context.Context, accountID string) (authz.Principal, error) {
	account, err := s.Store.GetAccount(ctx, accountID)
	if err != nil {
		return authz.Principal{}, err
	}
	return authz.Principal{
		ID:     account.ID,
		Role:   authz.Role(account.Role),
		Status: authz.Status(account.Status),
	}, nil
}
